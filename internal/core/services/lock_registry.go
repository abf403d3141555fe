package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/flowver/internal/core/domain"
	"github.com/custodia-labs/flowver/internal/logger"
)

// lockEntry is a mutex that supports a bounded wait.
// Holding the lock means owning the single slot in the channel.
type lockEntry struct {
	slot chan struct{}
}

func newLockEntry() *lockEntry {
	return &lockEntry{slot: make(chan struct{}, 1)}
}

// LockRegistry hands out one lock per key, created lazily on first use.
// Callers on the same key are serialised; callers on different keys never contend
// beyond the brief registry lookup. Entries are never removed, so the registry
// holds one entry per key ever acquired; VersionService only acquires ids that
// have a history or are being written.
type LockRegistry struct {
	mu             sync.RWMutex
	entries        map[string]*lockEntry
	defaultTimeout time.Duration
	log            *logger.Scoped
}

// NewLockRegistry creates a registry. A non-positive defaultTimeout
// falls back to domain.DefaultLockTimeout.
func NewLockRegistry(defaultTimeout time.Duration) *LockRegistry {
	if defaultTimeout <= 0 {
		defaultTimeout = domain.DefaultLockTimeout
	}
	return &LockRegistry{
		entries:        make(map[string]*lockEntry),
		defaultTimeout: defaultTimeout,
		log:            logger.For("locks"),
	}
}

// DefaultTimeout returns the timeout used when Acquire is given zero.
func (r *LockRegistry) DefaultTimeout() time.Duration {
	return r.defaultTimeout
}

// entry returns the lock for key, creating it with double-checked insertion
// so racing first accesses always share one entry.
func (r *LockRegistry) entry(key string) *lockEntry {
	r.mu.RLock()
	e, ok := r.entries[key]
	r.mu.RUnlock()
	if ok {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[key]; ok {
		return e
	}
	e = newLockEntry()
	r.entries[key] = e
	return e
}

// Acquire blocks until the lock for key is held, timeout elapses or ctx is done.
// A zero timeout uses the registry default. The returned release func is
// idempotent and must be called on every exit path, typically via defer.
func (r *LockRegistry) Acquire(ctx context.Context, key string, timeout time.Duration) (func(), error) {
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}
	e := r.entry(key)

	// Fast path.
	select {
	case e.slot <- struct{}{}:
		return r.releaser(e), nil
	default:
	}

	start := time.Now()
	r.log.Debug("waiting for lock %q", key)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case e.slot <- struct{}{}:
		r.log.Debug("acquired lock %q after %s", key, time.Since(start))
		return r.releaser(e), nil
	case <-timer.C:
		return nil, &domain.LockTimeoutError{Key: key, Waited: time.Since(start)}
	case <-ctx.Done():
		return nil, fmt.Errorf("acquiring lock %q: %w", key, ctx.Err())
	}
}

func (r *LockRegistry) releaser(e *lockEntry) func() {
	var once sync.Once
	return func() {
		once.Do(func() { <-e.slot })
	}
}

// Len returns the number of keys that have a lock entry.
func (r *LockRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
