package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/flowver/internal/core/domain"
	"github.com/custodia-labs/flowver/internal/core/ports/driving"
	"github.com/custodia-labs/flowver/internal/logger"
)

// Ensure VersionService implements the interface.
var _ driving.VersionService = (*VersionService)(nil)

// VersionService keeps the in-memory version histories and exposes the
// create/bump/compare/list operations per workflow.
//
// Every public operation takes the workflow's lock exactly once. Operations
// that build on each other (VersionBump appending a version) call internal
// helpers that assume the lock is already held, so no reentrant lock is needed.
type VersionService struct {
	locks    *LockRegistry
	checksum *ChecksumEngine
	diff     *DiffEngine
	advisor  *BumpAdvisor
	now      func() time.Time
	log      *logger.Scoped

	// mu guards the histories map itself. History contents are only
	// read or mutated while holding that workflow's lock.
	mu        sync.RWMutex
	histories map[string]*domain.VersionHistory
}

// NewVersionService creates a version service. A nil lock registry gets one
// with the default timeout.
func NewVersionService(locks *LockRegistry) *VersionService {
	if locks == nil {
		locks = NewLockRegistry(domain.DefaultLockTimeout)
	}
	checksum := NewChecksumEngine()
	return &VersionService{
		locks:     locks,
		checksum:  checksum,
		diff:      NewDiffEngine(checksum),
		advisor:   NewBumpAdvisor(),
		now:       time.Now,
		log:       logger.For("versions"),
		histories: make(map[string]*domain.VersionHistory),
	}
}

// SetClock replaces the time source used for CreatedAt.
func (s *VersionService) SetClock(now func() time.Time) {
	s.now = now
}

// ==================== Public operations ====================

// CreateVersion always appends a new version. The first version of a workflow
// is 1.0.0; later explicit checkpoints are patch bumps of the latest version.
func (s *VersionService) CreateVersion(
	ctx context.Context,
	workflowID string,
	doc domain.WorkflowDocument,
	label string,
) (*domain.Version, error) {
	if err := validateWorkflowID(workflowID); err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, workflowID, 0)
	if err != nil {
		return nil, err
	}
	defer release()

	v, err := s.createVersionLocked(workflowID, doc, label)
	if err != nil {
		return nil, err
	}
	return copyVersion(v), nil
}

// VersionBump reads the latest version, diffs and appends within a single
// lock acquisition, so concurrent bumps of one workflow never diff against
// the same latest version.
func (s *VersionService) VersionBump(
	ctx context.Context,
	workflowID string,
	doc domain.WorkflowDocument,
	opts domain.BumpOptions,
) (*domain.BumpResult, error) {
	if err := validateWorkflowID(workflowID); err != nil {
		return nil, err
	}
	if !opts.Hint.IsValid() {
		return nil, fmt.Errorf("%w: unknown bump hint %q", domain.ErrInvalidInput, opts.Hint)
	}

	release, err := s.locks.Acquire(ctx, workflowID, 0)
	if err != nil {
		return nil, err
	}
	defer release()

	snapshot, sum, err := s.prepare(doc)
	if err != nil {
		return nil, err
	}

	latest := s.latestLocked(workflowID)
	if latest == nil {
		v, err := s.appendLocked(workflowID, domain.InitialVersion, sum, opts.Label, "initial version", snapshot)
		if err != nil {
			return nil, err
		}
		return &domain.BumpResult{Version: copyVersion(v), Bump: domain.BumpMajor, Created: true}, nil
	}

	if latest.Checksum == sum {
		s.log.Debug("%s unchanged at %s", workflowID, latest.Version)
		return &domain.BumpResult{
			Version:  copyVersion(latest),
			Previous: copyVersion(latest),
			Bump:     domain.BumpNone,
		}, nil
	}

	changes, err := s.diff.Diff(latest.Snapshot, snapshot)
	if err != nil {
		return nil, err
	}

	bump := s.advisor.Resolve(changes, opts.Hint)
	if bump == domain.BumpNone {
		s.log.Debug("%s changed without a semantic difference, no bump", workflowID)
		return &domain.BumpResult{
			Version:  copyVersion(latest),
			Previous: copyVersion(latest),
			Changes:  changes,
			Bump:     domain.BumpNone,
		}, nil
	}

	prev, err := latest.SemVer()
	if err != nil {
		return nil, err
	}
	v, err := s.appendLocked(workflowID, prev.Bump(bump), sum, opts.Label, changes.Summary(), snapshot)
	if err != nil {
		return nil, err
	}

	s.log.Debug("%s bumped %s -> %s (%s)", workflowID, latest.Version, v.Version, bump)
	return &domain.BumpResult{
		Version:  copyVersion(v),
		Previous: copyVersion(latest),
		Changes:  changes,
		Bump:     bump,
		Created:  true,
	}, nil
}

// CompareVersions diffs two stored versions. The lock keeps the pair
// consistent against concurrent writers.
func (s *VersionService) CompareVersions(ctx context.Context, workflowID, v1, v2 string) (*domain.Comparison, error) {
	if !s.known(workflowID) {
		return nil, unknownWorkflow(workflowID)
	}
	release, err := s.locks.Acquire(ctx, workflowID, 0)
	if err != nil {
		return nil, err
	}
	defer release()

	hist, err := s.requireHistoryLocked(workflowID)
	if err != nil {
		return nil, err
	}
	from, ok := hist.Find(v1)
	if !ok {
		return nil, fmt.Errorf("%w: version %s of workflow %s", domain.ErrNotFound, v1, workflowID)
	}
	to, ok := hist.Find(v2)
	if !ok {
		return nil, fmt.Errorf("%w: version %s of workflow %s", domain.ErrNotFound, v2, workflowID)
	}

	changes, err := s.diff.Diff(from.Snapshot, to.Snapshot)
	if err != nil {
		return nil, err
	}

	return &domain.Comparison{
		WorkflowID: workflowID,
		From:       *copyVersion(from),
		To:         *copyVersion(to),
		Changes:    changes,
		Suggested:  s.advisor.Suggest(changes),
	}, nil
}

// GenerateDiff computes the change record between two documents.
func (s *VersionService) GenerateDiff(from, to domain.WorkflowDocument) (domain.ChangeRecord, error) {
	return s.diff.Diff(from, to)
}

// SuggestVersionBump classifies a change record.
func (s *VersionService) SuggestVersionBump(changes domain.ChangeRecord) domain.BumpType {
	return s.advisor.Suggest(changes)
}

// ListVersions returns all versions, oldest first. A workflow without
// history yields an empty list.
func (s *VersionService) ListVersions(ctx context.Context, workflowID string) ([]domain.Version, error) {
	if !s.known(workflowID) {
		return []domain.Version{}, nil
	}
	release, err := s.locks.Acquire(ctx, workflowID, 0)
	if err != nil {
		return nil, err
	}
	defer release()

	hist := s.historyLocked(workflowID)
	if hist == nil {
		return []domain.Version{}, nil
	}

	out := hist.Copy()
	for i := range out {
		out[i].Snapshot = out[i].Snapshot.Clone()
	}
	return out, nil
}

// GetLatestVersion returns the latest version, or nil without error when the
// workflow has no versions.
func (s *VersionService) GetLatestVersion(ctx context.Context, workflowID string) (*domain.Version, error) {
	if !s.known(workflowID) {
		return nil, nil
	}
	release, err := s.locks.Acquire(ctx, workflowID, 0)
	if err != nil {
		return nil, err
	}
	defer release()

	latest := s.latestLocked(workflowID)
	if latest == nil {
		return nil, nil
	}
	return copyVersion(latest), nil
}

// GetVersion returns one version with its full snapshot.
func (s *VersionService) GetVersion(ctx context.Context, workflowID, version string) (*domain.Version, error) {
	if !s.known(workflowID) {
		return nil, unknownWorkflow(workflowID)
	}
	release, err := s.locks.Acquire(ctx, workflowID, 0)
	if err != nil {
		return nil, err
	}
	defer release()

	hist, err := s.requireHistoryLocked(workflowID)
	if err != nil {
		return nil, err
	}
	v, ok := hist.Find(version)
	if !ok {
		return nil, fmt.Errorf("%w: version %s of workflow %s", domain.ErrNotFound, version, workflowID)
	}
	return copyVersion(v), nil
}

// WorkflowIDs returns all workflows with at least one version, sorted.
func (s *VersionService) WorkflowIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.histories))
	for id := range s.histories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ExportVersionHistory returns a portable description of the history.
func (s *VersionService) ExportVersionHistory(
	ctx context.Context,
	workflowID string,
	includeSnapshots bool,
) (*domain.HistoryExport, error) {
	if !s.known(workflowID) {
		return nil, unknownWorkflow(workflowID)
	}
	release, err := s.locks.Acquire(ctx, workflowID, 0)
	if err != nil {
		return nil, err
	}
	defer release()

	hist, err := s.requireHistoryLocked(workflowID)
	if err != nil {
		return nil, err
	}

	export := &domain.HistoryExport{
		WorkflowID:   workflowID,
		ExportedAt:   s.now().UTC(),
		VersionCount: hist.Len(),
		Versions:     make([]domain.ExportedVersion, 0, hist.Len()),
	}
	if latest := hist.Latest(); latest != nil {
		export.LatestVersion = latest.Version
	}
	for i := range hist.Versions {
		v := &hist.Versions[i]
		entry := domain.ExportedVersion{
			Version:         v.Version,
			Checksum:        v.Checksum,
			CreatedAt:       v.CreatedAt,
			Label:           v.Label,
			SemanticSummary: v.SemanticSummary,
		}
		if includeSnapshots {
			entry.Snapshot = v.Snapshot.Clone()
		}
		export.Versions = append(export.Versions, entry)
	}
	return export, nil
}

// VerifyHistory recomputes every snapshot checksum and reports mismatches.
func (s *VersionService) VerifyHistory(ctx context.Context, workflowID string) ([]domain.ChecksumMismatch, error) {
	if !s.known(workflowID) {
		return nil, unknownWorkflow(workflowID)
	}
	release, err := s.locks.Acquire(ctx, workflowID, 0)
	if err != nil {
		return nil, err
	}
	defer release()

	hist, err := s.requireHistoryLocked(workflowID)
	if err != nil {
		return nil, err
	}

	var mismatches []domain.ChecksumMismatch
	for i := range hist.Versions {
		v := &hist.Versions[i]
		computed, err := s.checksum.Checksum(v.Snapshot)
		if err != nil {
			return nil, fmt.Errorf("checksum of %s: %w", v.Version, err)
		}
		if computed != v.Checksum {
			mismatches = append(mismatches, domain.ChecksumMismatch{
				Version:  v.Version,
				Stored:   v.Checksum,
				Computed: computed,
			})
		}
	}
	return mismatches, nil
}

// Changelog renders the history as markdown, newest version first.
func (s *VersionService) Changelog(ctx context.Context, workflowID string) (string, error) {
	if !s.known(workflowID) {
		return "", unknownWorkflow(workflowID)
	}
	release, err := s.locks.Acquire(ctx, workflowID, 0)
	if err != nil {
		return "", err
	}
	defer release()

	hist, err := s.requireHistoryLocked(workflowID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Changelog: %s\n", workflowID)
	for i := hist.Len() - 1; i >= 0; i-- {
		v := &hist.Versions[i]
		fmt.Fprintf(&b, "\n## %s - %s\n", v.Version, v.CreatedAt.UTC().Format("2006-01-02"))
		if v.Label != "" {
			fmt.Fprintf(&b, "\n_%s_\n", v.Label)
		}
		if v.SemanticSummary != "" {
			b.WriteString("\n")
			for _, part := range strings.Split(v.SemanticSummary, "; ") {
				fmt.Fprintf(&b, "- %s\n", part)
			}
		}
	}
	return b.String(), nil
}

// ==================== Internal helpers (caller holds the workflow lock) ====================

// createVersionLocked appends unconditionally.
func (s *VersionService) createVersionLocked(
	workflowID string,
	doc domain.WorkflowDocument,
	label string,
) (*domain.Version, error) {
	snapshot, sum, err := s.prepare(doc)
	if err != nil {
		return nil, err
	}

	latest := s.latestLocked(workflowID)
	if latest == nil {
		return s.appendLocked(workflowID, domain.InitialVersion, sum, label, "initial version", snapshot)
	}

	prev, err := latest.SemVer()
	if err != nil {
		return nil, err
	}
	changes, err := s.diff.Diff(latest.Snapshot, snapshot)
	if err != nil {
		return nil, err
	}
	return s.appendLocked(workflowID, prev.Bump(domain.BumpPatch), sum, label, changes.Summary(), snapshot)
}

// prepare returns the immutable snapshot and checksum of doc.
func (s *VersionService) prepare(doc domain.WorkflowDocument) (domain.WorkflowDocument, string, error) {
	snapshot, err := s.checksum.Snapshot(doc)
	if err != nil {
		return nil, "", err
	}
	sum, err := s.checksum.Checksum(snapshot)
	if err != nil {
		return nil, "", err
	}
	return snapshot, sum, nil
}

// appendLocked is the only place versions are created. The history entry is
// created here, so a workflow appears in the map only once it has a version.
func (s *VersionService) appendLocked(
	workflowID string,
	next domain.SemVer,
	checksum, label, summary string,
	snapshot domain.WorkflowDocument,
) (*domain.Version, error) {
	hist := s.historyLocked(workflowID)
	if hist == nil {
		s.mu.Lock()
		hist = domain.NewVersionHistory(workflowID)
		s.histories[workflowID] = hist
		s.mu.Unlock()
	}

	v := domain.Version{
		Version:         next.String(),
		Checksum:        checksum,
		CreatedAt:       s.now().UTC(),
		Label:           label,
		SemanticSummary: summary,
		Snapshot:        snapshot,
	}
	if err := hist.Append(v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *VersionService) historyLocked(workflowID string) *domain.VersionHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.histories[workflowID]
}

func (s *VersionService) requireHistoryLocked(workflowID string) (*domain.VersionHistory, error) {
	hist := s.historyLocked(workflowID)
	if hist == nil || hist.Len() == 0 {
		return nil, unknownWorkflow(workflowID)
	}
	return hist, nil
}

// known reports whether workflowID has a history. Reads check it before
// locking so lookups of unknown ids never create lock entries.
func (s *VersionService) known(workflowID string) bool {
	return s.historyLocked(workflowID) != nil
}

func unknownWorkflow(workflowID string) error {
	return fmt.Errorf("%w: workflow %s", domain.ErrNotFound, workflowID)
}

func (s *VersionService) latestLocked(workflowID string) *domain.Version {
	hist := s.historyLocked(workflowID)
	if hist == nil {
		return nil
	}
	return hist.Latest()
}

// ==================== Store exchange (used by PersistenceService) ====================

// acquireAll locks the given workflows in sorted order. Public operations
// hold at most one workflow lock, so the ordering cannot deadlock with them.
func (s *VersionService) acquireAll(ctx context.Context, ids []string) (func(), error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	releases := make([]func(), 0, len(sorted))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, id := range sorted {
		release, err := s.locks.Acquire(ctx, id, 0)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}

// exportStore copies every history under its own lock.
func (s *VersionService) exportStore(ctx context.Context) (*domain.Store, error) {
	store := domain.NewStore()
	for _, id := range s.WorkflowIDs() {
		release, err := s.locks.Acquire(ctx, id, 0)
		if err != nil {
			return nil, err
		}
		if hist := s.historyLocked(id); hist != nil && hist.Len() > 0 {
			store.Workflows[id] = hist.Copy()
		}
		release()
	}
	return store, nil
}

// replaceStore discards all histories and installs the loaded ones.
func (s *VersionService) replaceStore(ctx context.Context, store *domain.Store) (*driving.MergeReport, error) {
	histories, err := buildHistories(store)
	if err != nil {
		return nil, err
	}

	ids := append(s.WorkflowIDs(), store.WorkflowIDs()...)
	release, err := s.acquireAll(ctx, dedupe(ids))
	if err != nil {
		return nil, err
	}
	defer release()

	report := &driving.MergeReport{}
	s.mu.Lock()
	s.histories = histories
	s.mu.Unlock()

	for _, hist := range histories {
		report.WorkflowsAdded++
		report.VersionsAdded += hist.Len()
	}
	return report, nil
}

// mergeStore unions loaded histories into memory. New workflows are added
// wholesale; for known workflows, absent versions newer than the current latest
// are appended in order and older absent versions are reported as skipped.
func (s *VersionService) mergeStore(ctx context.Context, store *domain.Store) (*driving.MergeReport, error) {
	loaded, err := buildHistories(store)
	if err != nil {
		return nil, err
	}

	release, err := s.acquireAll(ctx, store.WorkflowIDs())
	if err != nil {
		return nil, err
	}
	defer release()

	report := &driving.MergeReport{}
	for _, id := range store.WorkflowIDs() {
		incoming := loaded[id]
		current := s.historyLocked(id)
		if current == nil || current.Len() == 0 {
			s.mu.Lock()
			s.histories[id] = incoming
			s.mu.Unlock()
			report.WorkflowsAdded++
			report.VersionsAdded += incoming.Len()
			continue
		}

		for _, v := range incoming.Versions {
			if current.Has(v.Version) {
				continue
			}
			if err := current.Append(v); err != nil {
				report.Skipped = append(report.Skipped, id+"@"+v.Version)
				s.log.Warn("merge skipped %s@%s: older than %s", id, v.Version, current.Latest().Version)
				continue
			}
			report.VersionsAdded++
		}
	}
	return report, nil
}

// buildHistories validates a loaded store before anything in memory changes.
func buildHistories(store *domain.Store) (map[string]*domain.VersionHistory, error) {
	out := make(map[string]*domain.VersionHistory, len(store.Workflows))
	for id, versions := range store.Workflows {
		if err := validateWorkflowID(id); err != nil {
			return nil, err
		}
		if len(versions) == 0 {
			continue
		}
		hist := domain.NewVersionHistory(id)
		for _, v := range versions {
			if err := hist.Append(v); err != nil {
				return nil, fmt.Errorf("workflow %s: %w", id, err)
			}
		}
		out[id] = hist
	}
	return out, nil
}

// ==================== Utilities ====================

func validateWorkflowID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: workflow id is required", domain.ErrInvalidInput)
	}
	return nil
}

// copyVersion returns a version whose snapshot the caller may freely modify.
func copyVersion(v *domain.Version) *domain.Version {
	if v == nil {
		return nil
	}
	out := *v
	out.Snapshot = v.Snapshot.Clone()
	return &out
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
