package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"github.com/custodia-labs/flowver/internal/core/domain"
	"github.com/custodia-labs/flowver/internal/core/ports/driven"
)

// Ensure Archive implements the interface.
var _ driven.VersionArchive = (*Archive)(nil)

// Archive is an in-memory implementation of driven.VersionArchive for testing.
// It keeps the encoded store so reads return independent copies, the same
// way a file-backed archive would.
type Archive struct {
	mu     sync.RWMutex
	data   []byte
	writes int
}

// NewArchive creates an empty in-memory archive.
func NewArchive() *Archive {
	return &Archive{}
}

// Write replaces the archived store.
func (a *Archive) Write(ctx context.Context, store *domain.Store) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(store)
	if err != nil {
		return &domain.ContentError{Err: err}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.data = data
	a.writes++
	return nil
}

// Read returns a copy of the archived store.
func (a *Archive) Read(ctx context.Context) (*domain.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.data == nil {
		return nil, domain.ErrNotFound
	}

	dec := json.NewDecoder(bytes.NewReader(a.data))
	dec.UseNumber()
	store := domain.NewStore()
	if err := dec.Decode(store); err != nil {
		return nil, &domain.CorruptedStoreError{Path: a.Path(), Err: err}
	}
	if store.Workflows == nil {
		store.Workflows = make(map[string][]domain.Version)
	}
	return store, nil
}

// Path returns a placeholder location.
func (a *Archive) Path() string {
	return ":memory:"
}

// SetRaw replaces the archived bytes. Tests use it to simulate corruption.
func (a *Archive) SetRaw(data []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data = data
}

// Writes returns how many successful writes have happened.
func (a *Archive) Writes() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.writes
}
