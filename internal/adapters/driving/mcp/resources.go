package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/flowver/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for flowver resources.
	uriScheme = "flowver://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "workflows",
		Name:        "workflows",
		Description: "Workflows with recorded versions",
		MIMEType:    "application/json",
	}, s.handleWorkflowsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "workflows/{workflowId}/history",
		Name:        "workflow-history",
		Description: "Version history of a workflow without snapshots",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "workflows/{workflowId}/changelog",
		Name:        "workflow-changelog",
		Description: "Markdown changelog of a workflow, newest version first",
		MIMEType:    "text/markdown",
	}, s.handleChangelogResource)
}

// handleWorkflowsResource lists workflow IDs.
func (s *Server) handleWorkflowsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(s.ports.Versions.WorkflowIDs(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling workflows: %w", err)
	}
	return textResult(req.Params.URI, "application/json", string(data)), nil
}

// handleHistoryResource returns the export of one workflow's history.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractWorkflowID(req.Params.URI, "/history")
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	export, err := s.ports.Versions.ExportVersionHistory(ctx, id, false)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("exporting history: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling history: %w", err)
	}
	return textResult(req.Params.URI, "application/json", string(data)), nil
}

// handleChangelogResource returns the markdown changelog of one workflow.
func (s *Server) handleChangelogResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractWorkflowID(req.Params.URI, "/changelog")
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	changelog, err := s.ports.Versions.Changelog(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("building changelog: %w", err)
	}
	return textResult(req.Params.URI, "text/markdown", changelog), nil
}

func textResult(uri, mimeType, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mimeType,
			Text:     text,
		}},
	}
}

// extractWorkflowID extracts the ID from a URI like flowver://workflows/{workflowId}/history.
func extractWorkflowID(uri, suffix string) string {
	const prefix = uriScheme + "workflows/"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return ""
	}
	id := strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
