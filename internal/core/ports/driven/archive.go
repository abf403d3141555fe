package driven

import (
	"context"

	"github.com/custodia-labs/flowver/internal/core/domain"
)

// VersionArchive persists the entire version store as one unit.
// Implementations must never leave a partially written store behind:
// a reader observes either the complete previous store or the complete new one.
type VersionArchive interface {
	// Write replaces the persisted store with store.
	// The destination location is created if missing.
	Write(ctx context.Context, store *domain.Store) error

	// Read returns the persisted store.
	// Returns domain.ErrNotFound if nothing has been written yet and
	// *domain.CorruptedStoreError if the persisted data cannot be parsed.
	Read(ctx context.Context) (*domain.Store, error)

	// Path returns the store location for display and error reporting.
	Path() string
}
