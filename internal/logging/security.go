// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// SecurityEvent is an operator-authentication event for audit logging.
type SecurityEvent struct {
	// Event is the event type (e.g. "auth_success", "auth_failure", "authz_denied").
	Event string
	// Role is the authenticated role (admin, reviewer), if known.
	Role string
	// Action is the operator action being attempted (review, curate, backfill).
	Action string
	// IPAddress is the client's remote address.
	IPAddress string
	// UserAgent is the client's user agent (truncated).
	UserAgent string
	// Success indicates if the operation was successful.
	Success bool
	// Error is the failure reason, if any.
	Error string
}

// SecurityLogger logs operator authentication and authorization events,
// sanitizing anything that might contain a credential before it reaches
// the log sink.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger creates a new security logger.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{
		logger: With().Str("component", "auth").Logger(),
	}
}

// NewSecurityLoggerWithLogger creates a security logger with a custom zerolog logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// LogEvent logs a security event.
func (l *SecurityLogger) LogEvent(event *SecurityEvent) {
	e := l.logger.Info().Str("event", event.Event)

	if event.Success {
		e = e.Str("status", "success")
	} else {
		e = e.Str("status", "failed")
	}

	if event.Role != "" {
		e = e.Str("role", event.Role)
	}

	if event.Action != "" {
		e = e.Str("action", event.Action)
	}

	if event.IPAddress != "" {
		e = e.Str("ip", event.IPAddress)
	}

	if event.UserAgent != "" {
		e = e.Str("user_agent", truncateString(event.UserAgent, 100))
	}

	if event.Error != "" && !event.Success {
		e = e.Str("error", SanitizeValue("error", event.Error))
	}

	e.Msg("")
}

// LogAuthSuccess logs a bearer token that matched a configured role.
func (l *SecurityLogger) LogAuthSuccess(role, ip, userAgent string) {
	l.LogEvent(&SecurityEvent{
		Event:     "auth_success",
		Role:      role,
		IPAddress: ip,
		UserAgent: userAgent,
		Success:   true,
	})
}

// LogAuthFailure logs a missing or non-matching bearer token.
func (l *SecurityLogger) LogAuthFailure(ip, userAgent, reason string) {
	l.LogEvent(&SecurityEvent{
		Event:     "auth_failure",
		IPAddress: ip,
		UserAgent: userAgent,
		Success:   false,
		Error:     reason,
	})
}

// LogAuthzDenied logs an authenticated role attempting an action its
// policy does not grant (e.g. reviewer calling backfill).
func (l *SecurityLogger) LogAuthzDenied(role, action, ip string) {
	l.LogEvent(&SecurityEvent{
		Event:     "authz_denied",
		Role:      role,
		Action:    action,
		IPAddress: ip,
		Success:   false,
	})
}

// Debug logs a debug-level message with key/value field pairs.
func (l *SecurityLogger) Debug(msg string, fields ...interface{}) {
	addFieldPairs(l.logger.Debug(), fields).Msg(msg)
}

// Info logs an info-level message with key/value field pairs.
func (l *SecurityLogger) Info(msg string, fields ...interface{}) {
	addFieldPairs(l.logger.Info(), fields).Msg(msg)
}

// Warn logs a warning-level message with key/value field pairs.
func (l *SecurityLogger) Warn(msg string, fields ...interface{}) {
	addFieldPairs(l.logger.Warn(), fields).Msg(msg)
}

// Error logs an error-level message with key/value field pairs.
func (l *SecurityLogger) Error(msg string, fields ...interface{}) {
	addFieldPairs(l.logger.Error(), fields).Msg(msg)
}

// addFieldPairs adds key-value pairs to a zerolog event.
func addFieldPairs(e *zerolog.Event, fields []interface{}) *zerolog.Event {
	for i := 0; i < len(fields); i += 2 {
		if i+1 < len(fields) {
			key, ok := fields[i].(string)
			if !ok {
				continue
			}
			e = e.Interface(key, fields[i+1])
		}
	}
	return e
}

// SanitizeToken masks a bearer token, showing only first and last 4
// characters. Example: "eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9" -> "eyJh...VCJ9"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeValue sanitizes a value based on its key name, masking anything
// that looks like a credential.
func SanitizeValue(key, value string) string {
	lowerKey := strings.ToLower(key)

	sensitiveKeys := map[string]bool{
		"token":         true,
		"bearer":        true,
		"authorization": true,
		"password":      true,
		"secret":        true,
		"api_key":       true,
		"apikey":        true,
	}

	if sensitiveKeys[lowerKey] {
		return SanitizeToken(value)
	}

	lowerValue := strings.ToLower(value)
	for pattern := range sensitiveKeys {
		if strings.Contains(lowerValue, pattern) {
			return "authentication error"
		}
	}

	return truncateString(value, 200)
}

// truncateString truncates a string to a maximum length.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
