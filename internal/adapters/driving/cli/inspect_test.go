package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/flowver/internal/core/domain"
)

func TestCompareCmd(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	dir := t.TempDir()
	path := writeFile(t, dir, "flow.json", startJSON)
	_, err := execute("bump", path)
	require.NoError(t, err)
	writeFile(t, dir, "flow.json", slackJSON)
	_, err = execute("bump", path)
	require.NoError(t, err)

	out, err := execute("compare", "wf1", "1.0.0", "1.1.0")
	require.NoError(t, err)
	assert.Contains(t, out, "wf1 1.0.0 -> 1.1.0 (suggested: minor)")
	assert.Contains(t, out, "+ node Slack")

	out, err = execute("compare", "wf1", "1.1.0", "1.0.0")
	require.NoError(t, err)
	assert.Contains(t, out, "(suggested: major)")
	assert.Contains(t, out, "- node Slack")

	_, err = execute("compare", "wf1", "1.0.0", "9.9.9")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCompareCmd_RequiresThreeArgs(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("compare", "wf1", "1.0.0")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 3 arg(s)")
}

func TestDiffCmd(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	dir := t.TempDir()
	old := writeFile(t, dir, "old.json", startJSON)
	cur := writeFile(t, dir, "new.yaml", "name: Notify\nnodes:\n  - name: Start\n    type: start\n  - name: Wait\n    type: wait\n")

	out, err := execute("diff", old, cur)

	require.NoError(t, err)
	assert.Contains(t, out, "(suggested: minor)")
	assert.Contains(t, out, "+ node Wait")
}

func TestDiffCmd_NoChanges(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	dir := t.TempDir()
	a := writeFile(t, dir, "a.json", startJSON)
	b := writeFile(t, dir, "b.json", `{"id":"other","updatedAt":"2024-01-01","name":"Notify","nodes":[{"name":"Start","type":"start"}]}`)

	out, err := execute("diff", a, b)

	require.NoError(t, err)
	assert.Contains(t, out, "(suggested: none)")
	assert.Contains(t, out, "no changes")
}

func TestSuggestCmd(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	dir := t.TempDir()
	a := writeFile(t, dir, "a.json", slackJSON)
	b := writeFile(t, dir, "b.json", startJSON)

	out, err := execute("suggest", a, b)

	require.NoError(t, err)
	assert.Equal(t, "major\n", out)
}

func TestSuggestCmd_MissingFile(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("suggest", "/nonexistent/a.json", "/nonexistent/b.json")

	assert.Error(t, err)
}
