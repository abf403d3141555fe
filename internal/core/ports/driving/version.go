package driving

import (
	"context"

	"github.com/custodia-labs/flowver/internal/core/domain"
)

// VersionService tracks versions of workflow documents.
// All operations on the same workflow ID are serialised by a per-workflow lock;
// operations on different workflows proceed independently.
type VersionService interface {
	// CreateVersion always appends a new version, even if the document is unchanged.
	CreateVersion(ctx context.Context, workflowID string, doc domain.WorkflowDocument, label string) (*domain.Version, error)

	// VersionBump appends a new version if the document changed in a way that warrants one.
	VersionBump(ctx context.Context, workflowID string, doc domain.WorkflowDocument, opts domain.BumpOptions) (*domain.BumpResult, error)

	// CompareVersions diffs two stored versions of a workflow.
	CompareVersions(ctx context.Context, workflowID, v1, v2 string) (*domain.Comparison, error)

	// GenerateDiff computes the change record between two documents.
	GenerateDiff(from, to domain.WorkflowDocument) (domain.ChangeRecord, error)

	// SuggestVersionBump classifies a change record.
	SuggestVersionBump(changes domain.ChangeRecord) domain.BumpType

	// ListVersions returns all versions of a workflow, oldest first.
	ListVersions(ctx context.Context, workflowID string) ([]domain.Version, error)

	// GetLatestVersion returns the latest version, or nil if the workflow has none.
	GetLatestVersion(ctx context.Context, workflowID string) (*domain.Version, error)

	// GetVersion returns one stored version with its full snapshot.
	GetVersion(ctx context.Context, workflowID, version string) (*domain.Version, error)

	// WorkflowIDs returns all workflows with at least one version.
	WorkflowIDs() []string

	// ExportVersionHistory returns a portable description of a workflow's history.
	ExportVersionHistory(ctx context.Context, workflowID string, includeSnapshots bool) (*domain.HistoryExport, error)

	// VerifyHistory recomputes checksums and reports stored versions that no longer match.
	VerifyHistory(ctx context.Context, workflowID string) ([]domain.ChecksumMismatch, error)

	// Changelog renders the history as a markdown changelog, newest first.
	Changelog(ctx context.Context, workflowID string) (string, error)
}
