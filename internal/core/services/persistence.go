package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/flowver/internal/core/domain"
	"github.com/custodia-labs/flowver/internal/core/ports/driven"
	"github.com/custodia-labs/flowver/internal/core/ports/driving"
	"github.com/custodia-labs/flowver/internal/logger"
)

// Ensure PersistenceService implements the interface.
var _ driving.PersistenceService = (*PersistenceService)(nil)

// PersistenceService moves the whole version store between memory and an archive.
// A store-wide lock serialises saves and loads with each other; each workflow
// is still read or written under its own lock, so version operations keep running.
type PersistenceService struct {
	mu       sync.Mutex
	versions *VersionService
	archive  driven.VersionArchive
	log      *logger.Scoped
}

// NewPersistenceService creates a persistence service over the given archive.
func NewPersistenceService(versions *VersionService, archive driven.VersionArchive) *PersistenceService {
	return &PersistenceService{
		versions: versions,
		archive:  archive,
		log:      logger.For("store"),
	}
}

// Save writes a consistent copy of every history to the archive.
func (s *PersistenceService) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, err := s.versions.exportStore(ctx)
	if err != nil {
		return err
	}
	if err := s.archive.Write(ctx, store); err != nil {
		return fmt.Errorf("save %s: %w", s.archive.Path(), err)
	}

	s.log.Debug("saved %d workflows, %d versions to %s", len(store.Workflows), store.VersionCount(), s.archive.Path())
	return nil
}

// Load reads the configured archive into memory.
func (s *PersistenceService) Load(ctx context.Context, opts driving.LoadOptions) (*driving.MergeReport, error) {
	return s.LoadFrom(ctx, s.archive, opts)
}

// LoadFrom reads archive into memory. A missing archive is an error unless
// CreateIfMissing is set, in which case the current in-memory store is written
// to it and memory is left unchanged.
func (s *PersistenceService) LoadFrom(
	ctx context.Context,
	archive driven.VersionArchive,
	opts driving.LoadOptions,
) (*driving.MergeReport, error) {
	if opts.Mode == "" {
		opts.Mode = driving.LoadReplace
	}
	if opts.Mode != driving.LoadReplace && opts.Mode != driving.LoadMerge {
		return nil, fmt.Errorf("%w: load mode %q", domain.ErrInvalidInput, opts.Mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	store, err := archive.Read(ctx)
	if errors.Is(err, domain.ErrNotFound) && opts.CreateIfMissing {
		current, err := s.versions.exportStore(ctx)
		if err != nil {
			return nil, err
		}
		if err := archive.Write(ctx, current); err != nil {
			return nil, fmt.Errorf("create %s: %w", archive.Path(), err)
		}
		s.log.Info("created store at %s", archive.Path())
		return &driving.MergeReport{}, nil
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("load %s: %w", archive.Path(), err)
		}
		return nil, err
	}

	var report *driving.MergeReport
	switch opts.Mode {
	case driving.LoadMerge:
		report, err = s.versions.mergeStore(ctx, store)
	default:
		report, err = s.versions.replaceStore(ctx, store)
	}
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return nil, &domain.CorruptedStoreError{Path: archive.Path(), Err: err}
		}
		return nil, err
	}

	s.log.Debug("loaded %s (%s): %d workflows added, %d versions added, %d skipped",
		archive.Path(), opts.Mode, report.WorkflowsAdded, report.VersionsAdded, len(report.Skipped))
	return report, nil
}

// Snapshot returns a consistent copy of the in-memory store.
func (s *PersistenceService) Snapshot(ctx context.Context) (*domain.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions.exportStore(ctx)
}

// Path returns the archive location.
func (s *PersistenceService) Path() string {
	return s.archive.Path()
}
