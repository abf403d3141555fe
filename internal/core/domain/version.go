package domain

import (
	"fmt"
	"sort"
	"time"
)

// Version is an immutable, fully snapshotted revision of a workflow.
// JSON tags match the on-disk store format.
type Version struct {
	// Version is the semantic version string (e.g., "1.2.0").
	Version string `json:"version"`

	// Checksum is the SHA-256 hex digest of the volatility-stripped snapshot.
	Checksum string `json:"checksum"`

	// CreatedAt is when the version was appended.
	CreatedAt time.Time `json:"created_at"`

	// Label is caller-supplied free text.
	Label string `json:"label"`

	// SemanticSummary describes the changes relative to the previous version.
	SemanticSummary string `json:"semantic_summary"`

	// Snapshot is the full document, never a delta.
	Snapshot WorkflowDocument `json:"snapshot"`
}

// SemVer parses the version string.
func (v *Version) SemVer() (SemVer, error) {
	return ParseSemVer(v.Version)
}

// VersionHistory is the append-only sequence of versions for one workflow.
type VersionHistory struct {
	WorkflowID string
	Versions   []Version
}

// NewVersionHistory creates an empty history.
func NewVersionHistory(workflowID string) *VersionHistory {
	return &VersionHistory{WorkflowID: workflowID}
}

// Len returns the number of versions.
func (h *VersionHistory) Len() int {
	return len(h.Versions)
}

// Latest returns the most recent version, or nil for an empty history.
func (h *VersionHistory) Latest() *Version {
	if len(h.Versions) == 0 {
		return nil
	}
	v := h.Versions[len(h.Versions)-1]
	return &v
}

// Find returns the version with the given version string.
func (h *VersionHistory) Find(version string) (*Version, bool) {
	for i := range h.Versions {
		if h.Versions[i].Version == version {
			v := h.Versions[i]
			return &v, true
		}
	}
	return nil, false
}

// Has returns true if the version string exists in the history.
func (h *VersionHistory) Has(version string) bool {
	_, ok := h.Find(version)
	return ok
}

// Append adds a version, enforcing strictly increasing version strings.
func (h *VersionHistory) Append(v Version) error {
	next, err := ParseSemVer(v.Version)
	if err != nil {
		return err
	}
	if latest := h.Latest(); latest != nil {
		prev, err := ParseSemVer(latest.Version)
		if err == nil && next.Compare(prev) <= 0 {
			return fmt.Errorf("%w: version %s does not follow %s", ErrInvalidInput, v.Version, latest.Version)
		}
	}
	h.Versions = append(h.Versions, v)
	return nil
}

// Copy returns a copy of the version slice. Snapshots are shared since
// versions are immutable.
func (h *VersionHistory) Copy() []Version {
	out := make([]Version, len(h.Versions))
	copy(out, h.Versions)
	return out
}

// Store is the whole version store as persisted on disk.
type Store struct {
	Workflows map[string][]Version `json:"workflows"`
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{Workflows: make(map[string][]Version)}
}

// WorkflowIDs returns the stored workflow identifiers in sorted order.
func (s *Store) WorkflowIDs() []string {
	ids := make([]string, 0, len(s.Workflows))
	for id := range s.Workflows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// VersionCount returns the total number of versions across workflows.
func (s *Store) VersionCount() int {
	n := 0
	for _, versions := range s.Workflows {
		n += len(versions)
	}
	return n
}

// BumpOptions controls a version bump.
type BumpOptions struct {
	// Hint overrides the advisor when not BumpAuto.
	Hint BumpType

	// Label is stored on the new version.
	Label string
}

// BumpResult is the outcome of a version bump.
type BumpResult struct {
	// Version is the appended version, or the current latest when nothing was created.
	Version *Version

	// Previous is the latest version before the bump, nil for a first version.
	Previous *Version

	// Changes is the change record against Previous.
	Changes ChangeRecord

	// Bump is the applied bump type.
	Bump BumpType

	// Created is false when the document was unchanged or no bump was warranted.
	Created bool
}

// Comparison is the result of comparing two stored versions.
type Comparison struct {
	WorkflowID string
	From       Version
	To         Version
	Changes    ChangeRecord
	Suggested  BumpType
}

// ChecksumMismatch reports a stored version whose snapshot no longer
// matches its recorded checksum.
type ChecksumMismatch struct {
	Version  string
	Stored   string
	Computed string
}

// ExportedVersion is a version entry in a history export.
type ExportedVersion struct {
	Version         string           `json:"version"`
	Checksum        string           `json:"checksum"`
	CreatedAt       time.Time        `json:"created_at"`
	Label           string           `json:"label"`
	SemanticSummary string           `json:"semantic_summary"`
	Snapshot        WorkflowDocument `json:"snapshot,omitempty"`
}

// HistoryExport is a portable description of one workflow's history.
type HistoryExport struct {
	WorkflowID    string            `json:"workflow_id"`
	ExportedAt    time.Time         `json:"exported_at"`
	VersionCount  int               `json:"version_count"`
	LatestVersion string            `json:"latest_version,omitempty"`
	Versions      []ExportedVersion `json:"versions"`
}
