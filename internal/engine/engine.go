package engine

import (
	"context"
	"sync"
	"time"

	"llmbridge/internal/runtime"
)

// Bridge owns at most one loaded model and one inference context, created by
// Init and released by Dispose. It is the explicit-handle replacement for
// the usual process-wide globals: the serialization lock lives on the handle,
// and callers thread the handle through every operation.
type Bridge struct {
	rt        runtime.Runtime
	maxWait   time.Duration
	publisher EventPublisher
	startTime time.Time

	// opCh is the single in-flight operation slot. Init, Generate, and
	// Dispose all hold it for their full duration.
	opCh chan struct{}

	// mu guards the fields below for lock-free Status reads.
	mu          sync.RWMutex
	model       runtime.Model
	inferCtx    runtime.Context
	opts        InitOptions // effective options after defaulting
	nPast       int         // context position; grows monotonically until Dispose
	lastErr     string
	generations uint64
	tokensTotal uint64
}

// New constructs a Bridge over the given model runtime.
func New(rt runtime.Runtime, cfg Config) *Bridge {
	b := &Bridge{
		rt:        rt,
		maxWait:   cfg.MaxWait,
		publisher: cfg.Publisher,
		startTime: time.Now(),
		opCh:      make(chan struct{}, 1),
	}
	if b.maxWait <= 0 {
		b.maxWait = defaultMaxWait
	}
	if b.publisher == nil {
		b.publisher = noopPublisher{}
	}
	return b
}

// Initialized reports whether a model and inference context are live.
func (b *Bridge) Initialized() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.inferCtx != nil
}

// Busy reports whether an operation currently holds the in-flight slot.
func (b *Bridge) Busy() bool { return len(b.opCh) > 0 }

// acquire reserves the single in-flight slot, waiting up to maxWait.
// Returns a release func to be deferred.
func (b *Bridge) acquire(ctx context.Context) (func(), error) {
	// Fast path: respect an already-canceled context.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timer := time.NewTimer(b.maxWait)
	defer timer.Stop()
	select {
	case b.opCh <- struct{}{}:
		return func() { <-b.opCh }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, tooBusyError{}
	}
}

// setLastErr records err for Status reporting; nil clears nothing.
func (b *Bridge) setLastErr(err error) {
	if err == nil {
		return
	}
	b.mu.Lock()
	b.lastErr = err.Error()
	b.mu.Unlock()
}
