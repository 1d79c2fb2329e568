// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package eventbus

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/newsclust/internal/cache"
	"github.com/tomtom215/newsclust/internal/metrics"
)

// RetryableError marks a failure as transient, retried at the
// provider-call layer then re-raised for the host to retry again.
type RetryableError struct {
	Message string
	Cause   error
}

func NewRetryableError(message string, cause error) *RetryableError {
	return &RetryableError{Message: message, Cause: cause}
}

func (e *RetryableError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RetryableError) Unwrap() error { return e.Cause }

// PermanentError marks a failure as non-retryable: a sentinel is written
// so the row does not re-queue and the function completes successfully.
type PermanentError struct {
	Message string
	Cause   error
}

func NewPermanentError(message string, cause error) *PermanentError {
	return &PermanentError{Message: message, Cause: cause}
}

func (e *PermanentError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *PermanentError) Unwrap() error { return e.Cause }

// IsRetryableError reports whether err is (or wraps) a RetryableError.
func IsRetryableError(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// IsPermanentError reports whether err is (or wraps) a PermanentError.
func IsPermanentError(err error) bool {
	var permErr *PermanentError
	return errors.As(err, &permErr)
}

// DLQEntry is a failed event awaiting retry or operator inspection. Poison
// events (unparseable payloads, permanently failing hand-offs) land here
// instead of blocking the consumer on redelivery.
type DLQEntry struct {
	Event         *Event
	OriginalError string
	LastError     string
	RetryCount    int
	FirstFailure  time.Time
	LastFailure   time.Time
	NextRetry     time.Time
}

func newDLQEntry(event *Event, err error) *DLQEntry {
	now := time.Now()
	return &DLQEntry{
		Event:         event,
		OriginalError: err.Error(),
		LastError:     err.Error(),
		FirstFailure:  now,
		LastFailure:   now,
		NextRetry:     now,
	}
}

// DLQConfig configures the dead-letter queue's capacity and backoff.
type DLQConfig struct {
	MaxRetries        int
	MaxEntries        int
	RetentionTime     time.Duration
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	JitterFraction    float64
	RandomSeed        int64
}

// DefaultDLQConfig returns production defaults.
func DefaultDLQConfig() DLQConfig {
	return DLQConfig{
		MaxRetries:        5,
		MaxEntries:        10000,
		RetentionTime:     7 * 24 * time.Hour,
		InitialBackoff:    time.Second,
		MaxBackoff:        time.Minute,
		BackoffMultiplier: 2.0,
		JitterFraction:    0.1,
	}
}

// DLQStats summarizes current DLQ state for operator visibility.
type DLQStats struct {
	TotalEntries    int64
	TotalAdded      int64
	TotalRemoved    int64
	TotalRetries    int64
	OldestEntry     time.Time
	NewestEntry     time.Time
	EntriesByTopic  map[Topic]int64
}

// DLQHandler manages the dead-letter queue for events that exhaust their
// retry budget, keyed by event id in a min-heap ordered by first-failure
// time so eviction at capacity is O(log n).
type DLQHandler struct {
	config DLQConfig

	mu      sync.RWMutex
	entries *cache.MinHeap[*DLQEntry]

	totalAdded   atomic.Int64
	totalRemoved atomic.Int64
	totalRetries atomic.Int64

	randMu sync.Mutex
	rng    *rand.Rand
}

// NewDLQHandler creates a DLQ handler. A non-positive MaxRetries,
// MaxEntries or InitialBackoff is an error; the remaining zero-valued
// tuning fields get fallbacks.
func NewDLQHandler(cfg DLQConfig) (*DLQHandler, error) {
	if cfg.MaxRetries <= 0 {
		return nil, errors.New("eventbus: dlq max retries must be positive")
	}
	if cfg.MaxEntries <= 0 {
		return nil, errors.New("eventbus: dlq max entries must be positive")
	}
	if cfg.InitialBackoff <= 0 {
		return nil, errors.New("eventbus: dlq initial backoff must be positive")
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = cfg.InitialBackoff * 64
	}
	if cfg.BackoffMultiplier <= 0 {
		cfg.BackoffMultiplier = 2.0
	}
	if cfg.JitterFraction <= 0 || cfg.JitterFraction > 1.0 {
		cfg.JitterFraction = 0.1
	}

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &DLQHandler{
		config:  cfg,
		entries: cache.NewMinHeap[*DLQEntry](cfg.MaxEntries),
		//nolint:gosec // non-cryptographic jitter for backoff timing
		rng: rand.New(rand.NewSource(seed)),
	}, nil
}

// AddEntry records a failed event, returning the created DLQEntry.
func (h *DLQHandler) AddEntry(event *Event, err error) *DLQEntry {
	entry := newDLQEntry(event, err)

	h.mu.Lock()
	defer h.mu.Unlock()

	entry.NextRetry = time.Now().Add(h.calculateBackoffLocked(0))
	evicted := h.entries.Push(event.ID, entry, entry.FirstFailure)
	if evicted != nil {
		h.totalRemoved.Add(1)
		metrics.RecordDLQRemoval(string(evicted.Value.Event.Topic))
	}

	h.totalAdded.Add(1)
	metrics.RecordDLQEntry(string(event.Topic))
	return entry
}

// GetEntry retrieves an entry by event id.
func (h *DLQHandler) GetEntry(eventID string) *DLQEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	heapEntry := h.entries.Get(eventID)
	if heapEntry == nil {
		return nil
	}
	return heapEntry.Value
}

// IncrementRetry bumps an entry's retry count and schedules its next
// attempt. Returns false once the retry budget is exhausted.
func (h *DLQHandler) IncrementRetry(eventID string, err error) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	heapEntry := h.entries.Get(eventID)
	if heapEntry == nil {
		return false
	}

	entry := heapEntry.Value
	entry.RetryCount++
	entry.LastError = err.Error()
	entry.LastFailure = time.Now()
	entry.NextRetry = time.Now().Add(h.calculateBackoffLocked(entry.RetryCount))

	h.totalRetries.Add(1)
	moreRetries := entry.RetryCount < h.config.MaxRetries
	metrics.RecordDLQRetry(moreRetries)
	return moreRetries
}

// RemoveEntry deletes an entry, e.g. after a successful retry.
func (h *DLQHandler) RemoveEntry(eventID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := h.entries.Remove(eventID)
	if removed == nil {
		return false
	}
	h.totalRemoved.Add(1)
	metrics.RecordDLQRemoval(string(removed.Value.Event.Topic))
	return true
}

// GetPendingRetries returns entries whose NextRetry has passed and whose
// retry budget is not exhausted.
func (h *DLQHandler) GetPendingRetries() []*DLQEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := time.Now()
	var pending []*DLQEntry
	for _, heapEntry := range h.entries.All() {
		entry := heapEntry.Value
		if entry.RetryCount < h.config.MaxRetries && !entry.NextRetry.After(now) {
			pending = append(pending, entry)
		}
	}
	return pending
}

// ListEntries returns every entry currently held.
func (h *DLQHandler) ListEntries() []*DLQEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	heapEntries := h.entries.All()
	out := make([]*DLQEntry, 0, len(heapEntries))
	for _, he := range heapEntries {
		out = append(out, he.Value)
	}
	return out
}

// Cleanup evicts entries older than the configured retention time.
func (h *DLQHandler) Cleanup() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := time.Now().Add(-h.config.RetentionTime)
	removed := h.entries.PopBefore(cutoff)
	for _, he := range removed {
		h.totalRemoved.Add(1)
		metrics.RecordDLQRemoval(string(he.Value.Event.Topic))
	}
	return len(removed)
}

// Stats reports current DLQ counters and refreshes the exported gauges.
func (h *DLQHandler) Stats() DLQStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := DLQStats{
		TotalEntries:   int64(h.entries.Len()),
		TotalAdded:     h.totalAdded.Load(),
		TotalRemoved:   h.totalRemoved.Load(),
		TotalRetries:   h.totalRetries.Load(),
		EntriesByTopic: make(map[Topic]int64),
	}

	byTopic := make(map[string]int64)
	for _, he := range h.entries.All() {
		entry := he.Value
		stats.EntriesByTopic[entry.Event.Topic]++
		byTopic[string(entry.Event.Topic)]++
		if stats.OldestEntry.IsZero() || entry.FirstFailure.Before(stats.OldestEntry) {
			stats.OldestEntry = entry.FirstFailure
		}
		if stats.NewestEntry.IsZero() || entry.FirstFailure.After(stats.NewestEntry) {
			stats.NewestEntry = entry.FirstFailure
		}
	}
	metrics.UpdateDLQGauges(stats.TotalEntries, byTopic)
	return stats
}

func (h *DLQHandler) calculateBackoffLocked(retryCount int) time.Duration {
	backoff := float64(h.config.InitialBackoff) * math.Pow(h.config.BackoffMultiplier, float64(retryCount))
	if backoff > float64(h.config.MaxBackoff) {
		backoff = float64(h.config.MaxBackoff)
	}
	h.randMu.Lock()
	jitter := backoff * h.config.JitterFraction * (h.rng.Float64()*2 - 1)
	h.randMu.Unlock()
	return time.Duration(backoff + jitter)
}

// RetryHandler attempts to reprocess a DLQ entry; nil on success.
type RetryHandler func(entry *DLQEntry) error

// AutoRetryConfig configures the background retry sweep.
type AutoRetryConfig struct {
	RetryInterval        time.Duration
	MaxConcurrentRetries int
}

// DefaultAutoRetryConfig returns production defaults.
func DefaultAutoRetryConfig() AutoRetryConfig {
	return AutoRetryConfig{RetryInterval: 30 * time.Second, MaxConcurrentRetries: 5}
}

// AutoRetryWorker periodically retries pending DLQ entries in the
// background, bounded to MaxConcurrentRetries in flight.
type AutoRetryWorker struct {
	dlq     *DLQHandler
	handler RetryHandler
	config  AutoRetryConfig
}

func NewAutoRetryWorker(dlq *DLQHandler, handler RetryHandler, config AutoRetryConfig) *AutoRetryWorker {
	return &AutoRetryWorker{dlq: dlq, handler: handler, config: config}
}

// Start runs the retry sweep until ctx is cancelled.
func (w *AutoRetryWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.RetryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPendingRetries(ctx)
		}
	}
}

func (w *AutoRetryWorker) processPendingRetries(ctx context.Context) {
	entries := w.dlq.GetPendingRetries()
	if len(entries) == 0 {
		return
	}

	sem := make(chan struct{}, w.config.MaxConcurrentRetries)
	var wg sync.WaitGroup
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return
		case sem <- struct{}{}:
			wg.Add(1)
			go func(e *DLQEntry) {
				defer func() { <-sem; wg.Done() }()
				w.retryEntry(e)
			}(entry)
		}
	}
	wg.Wait()
}

func (w *AutoRetryWorker) retryEntry(entry *DLQEntry) {
	if err := w.handler(entry); err != nil {
		w.dlq.IncrementRetry(entry.Event.ID, err)
		return
	}
	metrics.RecordDLQRetry(true)
	w.dlq.RemoveEntry(entry.Event.ID)
}

// Serve implements suture.Service: the retry sweep runs until ctx is
// canceled, then returns ctx's error like every other supervised service
// in this process.
func (w *AutoRetryWorker) Serve(ctx context.Context) error {
	w.Start(ctx)
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logging.
func (w *AutoRetryWorker) String() string {
	return "dlq-auto-retry"
}

// WithDLQ wraps fn so a handler failure is tracked in dlq by event id
// instead of nacking forever: the first failure records the event in dlq
// and each later one bumps its retry count. While the retry budget remains,
// the error is returned so the message is nacked for JetStream
// redelivery; once exhausted, the message is acked and the entry stays in
// dlq for operator inspection via ListEntries/Stats, so a single poison
// event stops consuming redelivery slots from the rest of its topic. A
// later success removes the entry.
func WithDLQ(fn EventHandlerFunc, dlq *DLQHandler) EventHandlerFunc {
	return func(ctx context.Context, event *Event) error {
		err := fn(ctx, event)
		if err == nil {
			dlq.RemoveEntry(event.ID)
			return nil
		}

		if dlq.GetEntry(event.ID) == nil {
			dlq.AddEntry(event, err)
			return err
		}
		if dlq.IncrementRetry(event.ID, err) {
			return err
		}
		return nil
	}
}
