// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package store

import "errors"

// Sentinel errors returned by Store implementations.
var (
	ErrNotFound          = errors.New("store: row not found")
	ErrAlreadyMerged      = errors.New("store: cluster already merged")
	ErrAlreadyAssigned    = errors.New("store: post already assigned to a cluster")
	ErrConnectionUnavailable = errors.New("store: connection unavailable")
)

// Class categorizes an error by retry disposition, so callers can decide
// whether to retry, skip, or surface a fatal failure.
type Class int

const (
	// ClassTransient covers retryable external failures (5xx, timeout,
	// rate-limit, connection loss).
	ClassTransient Class = iota
	// ClassPermanent covers non-retryable external failures (4xx other than
	// 429, malformed response, schema violation).
	ClassPermanent
	// ClassStateConflict covers a guard re-read finding the row already
	// mutated by a concurrent invocation (e.g., a cluster already merged).
	ClassStateConflict
	// ClassInvariant covers an invariant violation the caller treats as a
	// no-op (e.g., unparseable LLM JSON after all extraction strategies).
	ClassInvariant
	// ClassFatal covers missing credentials or store connectivity loss.
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassPermanent:
		return "permanent"
	case ClassStateConflict:
		return "state_conflict"
	case ClassInvariant:
		return "invariant"
	case ClassFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ClassifiedError wraps an error with its taxonomy class.
type ClassifiedError struct {
	Class Class
	Err   error
}

func (e *ClassifiedError) Error() string { return e.Class.String() + ": " + e.Err.Error() }
func (e *ClassifiedError) Unwrap() error { return e.Err }

// Classify wraps err with the given class. A nil err returns nil.
func Classify(class Class, err error) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{Class: class, Err: err}
}

// ClassOf returns the class of err if it (or something it wraps) is a
// *ClassifiedError, and false otherwise.
func ClassOf(err error) (Class, bool) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class, true
	}
	return 0, false
}
