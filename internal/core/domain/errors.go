package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates an unknown workflow identifier or version string.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLockTimeout indicates a per-workflow lock was not acquired in time.
	// Callers may retry.
	ErrLockTimeout = errors.New("lock timeout")

	// ErrCorruptedStore indicates the on-disk store could not be parsed.
	// Requires operator intervention or a restore from backup.
	ErrCorruptedStore = errors.New("corrupted store")

	// ErrContent indicates a document value that cannot be canonically serialised.
	ErrContent = errors.New("content error")
)

// LockTimeoutError reports which key could not be locked and for how long the caller waited.
type LockTimeoutError struct {
	Key    string
	Waited time.Duration
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("lock timeout: %q not acquired after %s", e.Key, e.Waited)
}

// Is reports ErrLockTimeout so callers can match with errors.Is.
func (e *LockTimeoutError) Is(target error) bool {
	return target == ErrLockTimeout
}

// CorruptedStoreError wraps a parse failure of the store at Path.
type CorruptedStoreError struct {
	Path string
	Err  error
}

func (e *CorruptedStoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("corrupted store: %s", e.Path)
	}
	return fmt.Sprintf("corrupted store: %s: %v", e.Path, e.Err)
}

// Is reports ErrCorruptedStore so callers can match with errors.Is.
func (e *CorruptedStoreError) Is(target error) bool {
	return target == ErrCorruptedStore
}

func (e *CorruptedStoreError) Unwrap() error {
	return e.Err
}

// ContentError reports a document that cannot be canonically serialised.
// Field names the offending top-level key when it is known.
type ContentError struct {
	Field string
	Err   error
}

func (e *ContentError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("content error: %v", e.Err)
	}
	return fmt.Sprintf("content error in %q: %v", e.Field, e.Err)
}

// Is reports ErrContent so callers can match with errors.Is.
func (e *ContentError) Is(target error) bool {
	return target == ErrContent
}

func (e *ContentError) Unwrap() error {
	return e.Err
}
