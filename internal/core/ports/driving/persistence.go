package driving

import (
	"context"

	"github.com/custodia-labs/flowver/internal/core/domain"
	"github.com/custodia-labs/flowver/internal/core/ports/driven"
)

// LoadMode controls how a loaded store combines with in-memory state.
type LoadMode string

// Available load modes.
const (
	// LoadReplace discards current state and loads fresh.
	LoadReplace LoadMode = "replace"

	// LoadMerge unions loaded histories into current state.
	LoadMerge LoadMode = "merge"
)

// LoadOptions controls a load.
type LoadOptions struct {
	Mode LoadMode

	// CreateIfMissing writes an empty store instead of failing with domain.ErrNotFound.
	CreateIfMissing bool
}

// MergeReport summarises a load.
type MergeReport struct {
	// WorkflowsAdded counts workflow IDs that were new to the in-memory state.
	WorkflowsAdded int

	// VersionsAdded counts versions appended to existing or new histories.
	VersionsAdded int

	// Skipped lists "id@version" entries absent from memory but older than the
	// current latest version, which cannot be appended without breaking ordering.
	Skipped []string
}

// PersistenceService saves and loads the whole version store.
type PersistenceService interface {
	// Save writes the in-memory store to the archive.
	Save(ctx context.Context) error

	// Load reads the archive into memory.
	Load(ctx context.Context, opts LoadOptions) (*MergeReport, error)

	// LoadFrom reads another archive into memory (used for imports).
	LoadFrom(ctx context.Context, archive driven.VersionArchive, opts LoadOptions) (*MergeReport, error)

	// Snapshot returns a consistent copy of the in-memory store.
	Snapshot(ctx context.Context) (*domain.Store, error)

	// Path returns the archive location.
	Path() string
}
