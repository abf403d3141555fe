package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/flowver/internal/core/domain"
)

// VersionOutput describes one stored version.
type VersionOutput struct {
	Version         string         `json:"version"`
	Checksum        string         `json:"checksum"`
	CreatedAt       time.Time      `json:"created_at"`
	Label           string         `json:"label,omitempty"`
	SemanticSummary string         `json:"semantic_summary"`
	Snapshot        map[string]any `json:"snapshot,omitempty"`
}

// CreateVersionInput is the input schema for the create_version tool.
type CreateVersionInput struct {
	WorkflowID string         `json:"workflow_id" jsonschema:"the workflow identifier"`
	Document   map[string]any `json:"document" jsonschema:"the full workflow document"`
	Label      string         `json:"label,omitempty" jsonschema:"optional free-text label for the version"`
}

// VersionBumpInput is the input schema for the version_bump tool.
type VersionBumpInput struct {
	WorkflowID string         `json:"workflow_id" jsonschema:"the workflow identifier"`
	Document   map[string]any `json:"document" jsonschema:"the full workflow document"`
	Hint       string         `json:"hint,omitempty" jsonschema:"override the suggested bump: major, minor, patch or none"`
	Label      string         `json:"label,omitempty" jsonschema:"optional free-text label for the version"`
}

// BumpOutput is the output schema for the version_bump tool.
type BumpOutput struct {
	Created         bool                `json:"created"`
	Version         string              `json:"version"`
	PreviousVersion string              `json:"previous_version,omitempty"`
	Bump            string              `json:"bump"`
	Summary         string              `json:"summary"`
	Changes         domain.ChangeRecord `json:"changes"`
}

// CompareVersionsInput is the input schema for the compare_versions tool.
type CompareVersionsInput struct {
	WorkflowID string `json:"workflow_id" jsonschema:"the workflow identifier"`
	From       string `json:"from" jsonschema:"the older version, e.g. 1.0.0"`
	To         string `json:"to" jsonschema:"the newer version, e.g. 1.1.0"`
}

// DiffDocumentsInput is the input schema for the diff_documents tool.
type DiffDocumentsInput struct {
	From map[string]any `json:"from" jsonschema:"the original workflow document"`
	To   map[string]any `json:"to" jsonschema:"the changed workflow document"`
}

// ChangesOutput is the output schema for compare_versions and diff_documents.
type ChangesOutput struct {
	Changes       domain.ChangeRecord `json:"changes"`
	SuggestedBump string              `json:"suggested_bump"`
	Summary       string              `json:"summary"`
}

// WorkflowInput identifies a workflow.
type WorkflowInput struct {
	WorkflowID string `json:"workflow_id" jsonschema:"the workflow identifier"`
}

// ListVersionsOutput is the output schema for the list_versions tool.
type ListVersionsOutput struct {
	Versions []VersionOutput `json:"versions"`
	Count    int             `json:"count"`
}

// LatestVersionOutput is the output schema for the get_latest_version tool.
type LatestVersionOutput struct {
	Found   bool           `json:"found"`
	Version *VersionOutput `json:"version,omitempty"`
}

// GetVersionInput is the input schema for the get_version tool.
type GetVersionInput struct {
	WorkflowID string `json:"workflow_id" jsonschema:"the workflow identifier"`
	Version    string `json:"version" jsonschema:"the version to restore, e.g. 1.2.0"`
}

// ListWorkflowsInput is the (empty) input schema for the list_workflows tool.
type ListWorkflowsInput struct{}

// ListWorkflowsOutput is the output schema for the list_workflows tool.
type ListWorkflowsOutput struct {
	WorkflowIDs []string `json:"workflow_ids"`
	Count       int      `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_version",
		Description: "Record a new version of a workflow unconditionally",
	}, s.handleCreateVersion)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "version_bump",
		Description: "Record a new version if the workflow changed, choosing the semantic version bump from the changes",
	}, s.handleVersionBump)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "compare_versions",
		Description: "Show the structural changes between two stored versions of a workflow",
	}, s.handleCompareVersions)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "diff_documents",
		Description: "Show the structural changes between two workflow documents and the suggested bump",
	}, s.handleDiffDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_versions",
		Description: "List all versions of a workflow, oldest first",
	}, s.handleListVersions)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_latest_version",
		Description: "Get the latest version of a workflow",
	}, s.handleGetLatestVersion)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_version",
		Description: "Get one version of a workflow including its full document snapshot",
	}, s.handleGetVersion)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_workflows",
		Description: "List all workflows that have at least one version",
	}, s.handleListWorkflows)
}

func (s *Server) handleCreateVersion(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CreateVersionInput,
) (*mcp.CallToolResult, VersionOutput, error) {
	v, err := s.ports.Versions.CreateVersion(ctx, input.WorkflowID, domain.WorkflowDocument(input.Document), input.Label)
	if err != nil {
		return nil, VersionOutput{}, err
	}
	if err := s.save(ctx); err != nil {
		return nil, VersionOutput{}, err
	}
	return nil, toVersionOutput(v, false), nil
}

func (s *Server) handleVersionBump(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input VersionBumpInput,
) (*mcp.CallToolResult, BumpOutput, error) {
	hint, err := domain.ParseBumpType(input.Hint)
	if err != nil {
		return nil, BumpOutput{}, err
	}

	res, err := s.ports.Versions.VersionBump(ctx, input.WorkflowID, domain.WorkflowDocument(input.Document), domain.BumpOptions{
		Hint:  hint,
		Label: input.Label,
	})
	if err != nil {
		return nil, BumpOutput{}, err
	}

	if res.Created {
		if err := s.save(ctx); err != nil {
			return nil, BumpOutput{}, err
		}
	}

	out := BumpOutput{
		Created: res.Created,
		Version: res.Version.Version,
		Bump:    res.Bump.String(),
		Summary: res.Changes.Summary(),
		Changes: res.Changes,
	}
	if res.Previous != nil {
		out.PreviousVersion = res.Previous.Version
	}
	s.log.Debug("version_bump %s: %s (created=%t)", input.WorkflowID, out.Version, out.Created)
	return nil, out, nil
}

func (s *Server) handleCompareVersions(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CompareVersionsInput,
) (*mcp.CallToolResult, ChangesOutput, error) {
	cmp, err := s.ports.Versions.CompareVersions(ctx, input.WorkflowID, input.From, input.To)
	if err != nil {
		return nil, ChangesOutput{}, err
	}
	return nil, ChangesOutput{
		Changes:       cmp.Changes,
		SuggestedBump: cmp.Suggested.String(),
		Summary:       cmp.Changes.Summary(),
	}, nil
}

func (s *Server) handleDiffDocuments(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input DiffDocumentsInput,
) (*mcp.CallToolResult, ChangesOutput, error) {
	changes, err := s.ports.Versions.GenerateDiff(domain.WorkflowDocument(input.From), domain.WorkflowDocument(input.To))
	if err != nil {
		return nil, ChangesOutput{}, err
	}
	return nil, ChangesOutput{
		Changes:       changes,
		SuggestedBump: s.ports.Versions.SuggestVersionBump(changes).String(),
		Summary:       changes.Summary(),
	}, nil
}

func (s *Server) handleListVersions(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input WorkflowInput,
) (*mcp.CallToolResult, ListVersionsOutput, error) {
	versions, err := s.ports.Versions.ListVersions(ctx, input.WorkflowID)
	if err != nil {
		return nil, ListVersionsOutput{}, err
	}

	out := ListVersionsOutput{
		Versions: make([]VersionOutput, len(versions)),
		Count:    len(versions),
	}
	for i := range versions {
		out.Versions[i] = toVersionOutput(&versions[i], false)
	}
	return nil, out, nil
}

func (s *Server) handleGetLatestVersion(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input WorkflowInput,
) (*mcp.CallToolResult, LatestVersionOutput, error) {
	v, err := s.ports.Versions.GetLatestVersion(ctx, input.WorkflowID)
	if err != nil {
		return nil, LatestVersionOutput{}, err
	}
	if v == nil {
		return nil, LatestVersionOutput{}, nil
	}
	out := toVersionOutput(v, false)
	return nil, LatestVersionOutput{Found: true, Version: &out}, nil
}

func (s *Server) handleGetVersion(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetVersionInput,
) (*mcp.CallToolResult, VersionOutput, error) {
	v, err := s.ports.Versions.GetVersion(ctx, input.WorkflowID, input.Version)
	if err != nil {
		return nil, VersionOutput{}, err
	}
	return nil, toVersionOutput(v, true), nil
}

func (s *Server) handleListWorkflows(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListWorkflowsInput,
) (*mcp.CallToolResult, ListWorkflowsOutput, error) {
	ids := s.ports.Versions.WorkflowIDs()
	return nil, ListWorkflowsOutput{WorkflowIDs: ids, Count: len(ids)}, nil
}

func toVersionOutput(v *domain.Version, withSnapshot bool) VersionOutput {
	out := VersionOutput{
		Version:         v.Version,
		Checksum:        v.Checksum,
		CreatedAt:       v.CreatedAt,
		Label:           v.Label,
		SemanticSummary: v.SemanticSummary,
	}
	if withSnapshot {
		out.Snapshot = v.Snapshot
	}
	return out
}
