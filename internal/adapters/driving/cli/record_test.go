package cli

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/flowver/internal/core/domain"
)

func TestCreateCmd_RequiresExactlyOneArg(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("create")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestCreateCmd_UsesDocumentID(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()
	path := writeFile(t, t.TempDir(), "flow.json", startJSON)

	out, err := execute("create", path, "--label", "first")

	require.NoError(t, err)
	assert.Contains(t, out, "Created wf1 1.0.0")
	assert.Equal(t, 1, env.archive.Writes())

	latest, err := env.versions.GetLatestVersion(context.Background(), "wf1")
	require.NoError(t, err)
	assert.Equal(t, "first", latest.Label)
}

func TestCreateCmd_AlwaysAppends(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	path := writeFile(t, t.TempDir(), "flow.json", startJSON)

	_, err := execute("create", path)
	require.NoError(t, err)
	out, err := execute("create", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Created wf1 1.0.1")
}

func TestCreateCmd_GeneratesID(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()
	path := writeFile(t, t.TempDir(), "flow.yaml", "name: Anonymous\nnodes: []\n")

	_, err := execute("create", path)
	require.NoError(t, err)

	ids := env.versions.WorkflowIDs()
	require.Len(t, ids, 1)
	_, err = uuid.Parse(ids[0])
	assert.NoError(t, err)
}

func TestCreateCmd_IDFlagWins(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()
	path := writeFile(t, t.TempDir(), "flow.json", startJSON)

	_, err := execute("create", path, "--id", "custom")

	require.NoError(t, err)
	assert.Equal(t, []string{"custom"}, env.versions.WorkflowIDs())
}

func TestCreateCmd_BadDocument(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	path := writeFile(t, t.TempDir(), "flow.json", "[1, 2]")

	_, err := execute("create", path)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBumpCmd_Lifecycle(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()
	dir := t.TempDir()
	path := writeFile(t, dir, "flow.json", startJSON)

	out, err := execute("bump", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created wf1 1.0.0")

	out, err = execute("bump", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No new version for wf1: unchanged (latest 1.0.0)")
	assert.Equal(t, 1, env.archive.Writes(), "no-op bumps are not saved")

	writeFile(t, dir, "flow.json", slackJSON)
	out, err = execute("bump", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Bumped wf1 1.0.0 -> 1.1.0 (minor)")
	assert.Contains(t, out, "+ node Slack")
	assert.Contains(t, out, "+ connection Start -> Slack")
	assert.Equal(t, 2, env.archive.Writes())
}

func TestBumpCmd_Hint(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	dir := t.TempDir()
	path := writeFile(t, dir, "flow.json", startJSON)
	_, err := execute("bump", path)
	require.NoError(t, err)

	writeFile(t, dir, "flow.json", slackJSON)
	out, err := execute("bump", path, "--hint", "major")

	require.NoError(t, err)
	assert.Contains(t, out, "-> 2.0.0 (major)")
}

func TestBumpCmd_HintNone(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	dir := t.TempDir()
	path := writeFile(t, dir, "flow.json", startJSON)
	_, err := execute("bump", path)
	require.NoError(t, err)

	writeFile(t, dir, "flow.json", slackJSON)
	out, err := execute("bump", path, "--hint", "none")

	require.NoError(t, err)
	assert.Contains(t, out, "no bump warranted")
}

func TestBumpCmd_InvalidHint(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	path := writeFile(t, t.TempDir(), "flow.json", startJSON)

	_, err := execute("bump", path, "--hint", "huge")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBumpCmd_FileStemFallback(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()
	path := writeFile(t, t.TempDir(), "billing.yml", "name: Billing\nnodes:\n  - name: Start\n")

	_, err := execute("bump", path)

	require.NoError(t, err)
	assert.Equal(t, []string{"billing"}, env.versions.WorkflowIDs())
}
