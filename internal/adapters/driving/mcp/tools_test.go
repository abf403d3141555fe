package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/flowver/internal/core/domain"
)

func startDoc() map[string]any {
	return map[string]any{
		"id":    "wf1",
		"name":  "Notify",
		"nodes": []any{map[string]any{"name": "Start", "type": "start"}},
	}
}

func slackDoc() map[string]any {
	doc := startDoc()
	doc["nodes"] = []any{
		map[string]any{"name": "Start", "type": "start"},
		map[string]any{"name": "Slack", "type": "slack"},
	}
	doc["connections"] = map[string]any{
		"Start": map[string]any{"main": []any{[]any{map[string]any{"node": "Slack", "type": "main", "index": 0}}}},
	}
	return doc
}

func TestServer_handleCreateAndBump(t *testing.T) {
	ctx := context.Background()
	server, archive := newTestServer(t)

	_, created, err := server.handleCreateVersion(ctx, nil, CreateVersionInput{
		WorkflowID: "wf1", Document: startDoc(), Label: "first",
	})
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", created.Version)
	assert.Equal(t, "first", created.Label)
	assert.Nil(t, created.Snapshot)
	assert.Equal(t, 1, archive.Writes(), "mutations are saved")

	_, bumped, err := server.handleVersionBump(ctx, nil, VersionBumpInput{WorkflowID: "wf1", Document: slackDoc()})
	require.NoError(t, err)
	assert.True(t, bumped.Created)
	assert.Equal(t, "1.1.0", bumped.Version)
	assert.Equal(t, "1.0.0", bumped.PreviousVersion)
	assert.Equal(t, "minor", bumped.Bump)
	assert.Equal(t, []string{"Slack"}, bumped.Changes.AddedNodes)
	assert.Equal(t, 2, archive.Writes())

	_, same, err := server.handleVersionBump(ctx, nil, VersionBumpInput{WorkflowID: "wf1", Document: slackDoc()})
	require.NoError(t, err)
	assert.False(t, same.Created)
	assert.Equal(t, "1.1.0", same.Version)
	assert.Equal(t, 2, archive.Writes(), "no-op bumps are not saved")
}

func TestServer_handleVersionBump_InvalidHint(t *testing.T) {
	server, _ := newTestServer(t)

	_, _, err := server.handleVersionBump(context.Background(), nil, VersionBumpInput{
		WorkflowID: "wf1", Document: startDoc(), Hint: "enormous",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestServer_handleCompareVersions(t *testing.T) {
	ctx := context.Background()
	server, _ := newTestServer(t)

	_, _, err := server.handleCreateVersion(ctx, nil, CreateVersionInput{WorkflowID: "wf1", Document: startDoc()})
	require.NoError(t, err)
	_, _, err = server.handleVersionBump(ctx, nil, VersionBumpInput{WorkflowID: "wf1", Document: slackDoc(), Hint: "major"})
	require.NoError(t, err)

	_, out, err := server.handleCompareVersions(ctx, nil, CompareVersionsInput{WorkflowID: "wf1", From: "1.0.0", To: "2.0.0"})
	require.NoError(t, err)
	assert.Equal(t, "minor", out.SuggestedBump)
	assert.Contains(t, out.Summary, "added nodes: Slack")

	_, _, err = server.handleCompareVersions(ctx, nil, CompareVersionsInput{WorkflowID: "wf1", From: "1.0.0", To: "3.0.0"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServer_handleDiffDocuments(t *testing.T) {
	server, _ := newTestServer(t)

	_, out, err := server.handleDiffDocuments(context.Background(), nil, DiffDocumentsInput{From: slackDoc(), To: startDoc()})
	require.NoError(t, err)
	assert.Equal(t, "major", out.SuggestedBump)
	assert.Equal(t, []string{"Slack"}, out.Changes.RemovedNodes)
}

func TestServer_handleQueries(t *testing.T) {
	ctx := context.Background()
	server, _ := newTestServer(t)

	_, latest, err := server.handleGetLatestVersion(ctx, nil, WorkflowInput{WorkflowID: "wf1"})
	require.NoError(t, err)
	assert.False(t, latest.Found)

	_, list, err := server.handleListVersions(ctx, nil, WorkflowInput{WorkflowID: "wf1"})
	require.NoError(t, err)
	assert.Zero(t, list.Count)

	_, _, err = server.handleCreateVersion(ctx, nil, CreateVersionInput{WorkflowID: "wf1", Document: startDoc()})
	require.NoError(t, err)

	_, latest, err = server.handleGetLatestVersion(ctx, nil, WorkflowInput{WorkflowID: "wf1"})
	require.NoError(t, err)
	require.True(t, latest.Found)
	assert.Equal(t, "1.0.0", latest.Version.Version)

	_, list, err = server.handleListVersions(ctx, nil, WorkflowInput{WorkflowID: "wf1"})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Count)

	_, v, err := server.handleGetVersion(ctx, nil, GetVersionInput{WorkflowID: "wf1", Version: "1.0.0"})
	require.NoError(t, err)
	assert.Equal(t, "Notify", v.Snapshot["name"])

	_, workflows, err := server.handleListWorkflows(ctx, nil, ListWorkflowsInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{"wf1"}, workflows.WorkflowIDs)
	assert.Equal(t, 1, workflows.Count)
}
