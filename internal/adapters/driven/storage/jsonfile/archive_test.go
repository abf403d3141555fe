package jsonfile

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/flowver/internal/core/domain"
)

func sampleStore() *domain.Store {
	store := domain.NewStore()
	store.Workflows["wf1"] = []domain.Version{{
		Version:         "1.0.0",
		Checksum:        "deadbeef",
		CreatedAt:       time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		Label:           "<initial>",
		SemanticSummary: "initial version",
		Snapshot: domain.WorkflowDocument{
			"name":  "Notify",
			"nodes": []any{map[string]any{"name": "Start", "typeVersion": 1.5}},
		},
	}}
	return store
}

func TestArchive_DefaultPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot determine home directory")
	}

	a, err := NewArchive("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".flowver", DefaultFileName), a.Path())
}

func TestArchive_WriteRead(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "versions.json")
	a, err := NewArchive(path)
	require.NoError(t, err)

	require.NoError(t, a.Write(ctx, sampleStore()))

	got, err := a.Read(ctx)
	require.NoError(t, err)
	require.Len(t, got.Workflows["wf1"], 1)

	v := got.Workflows["wf1"][0]
	assert.Equal(t, "1.0.0", v.Version)
	assert.Equal(t, "<initial>", v.Label)
	assert.True(t, v.CreatedAt.Equal(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)))
	node := v.Snapshot["nodes"].([]any)[0].(map[string]any)
	assert.Equal(t, json.Number("1.5"), node["typeVersion"])
}

func TestArchive_FileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "versions.json")
	a, err := NewArchive(path)
	require.NoError(t, err)
	require.NoError(t, a.Write(context.Background(), sampleStore()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]map[string][]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	entry := raw["workflows"]["wf1"][0]
	for _, key := range []string{"version", "checksum", "created_at", "label", "semantic_summary", "snapshot"} {
		assert.Contains(t, entry, key)
	}
	assert.Contains(t, string(data), `"<initial>"`, "HTML escaping is disabled")
}

func TestArchive_Missing(t *testing.T) {
	a, err := NewArchive(filepath.Join(t.TempDir(), "versions.json"))
	require.NoError(t, err)

	_, err = a.Read(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestArchive_Corrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "versions.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"workflows": `), 0o600))
	a, err := NewArchive(path)
	require.NoError(t, err)

	_, err = a.Read(context.Background())
	require.ErrorIs(t, err, domain.ErrCorruptedStore)

	var cse *domain.CorruptedStoreError
	require.ErrorAs(t, err, &cse)
	assert.Equal(t, path, cse.Path)
}

func TestArchive_TrailingData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "versions.json")
	content := `{"workflows":{}}{"workflows":{"x":[{"version":"1.0.0"`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	a, err := NewArchive(path)
	require.NoError(t, err)

	store, err := a.Read(context.Background())

	assert.Nil(t, store)
	require.ErrorIs(t, err, domain.ErrCorruptedStore)
	var cse *domain.CorruptedStoreError
	require.ErrorAs(t, err, &cse)
	assert.Equal(t, path, cse.Path)
}

func TestArchive_TrailingWhitespaceIsFine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "versions.json")
	require.NoError(t, os.WriteFile(path, []byte("{\"workflows\":{}}\n\n"), 0o600))
	a, err := NewArchive(path)
	require.NoError(t, err)

	store, err := a.Read(context.Background())

	require.NoError(t, err)
	assert.Empty(t, store.Workflows)
}

func TestArchive_FailedWriteKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	a, err := NewArchive(filepath.Join(dir, "versions.json"))
	require.NoError(t, err)
	require.NoError(t, a.Write(ctx, sampleStore()))

	bad := sampleStore()
	bad.Workflows["wf1"][0].Snapshot["score"] = math.Inf(1)
	err = a.Write(ctx, bad)
	require.ErrorIs(t, err, domain.ErrContent)

	got, err := a.Read(ctx)
	require.NoError(t, err)
	assert.NotContains(t, got.Workflows["wf1"][0].Snapshot, "score")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestArchive_EmptyStore(t *testing.T) {
	ctx := context.Background()
	a, err := NewArchive(filepath.Join(t.TempDir(), "versions.json"))
	require.NoError(t, err)

	require.NoError(t, a.Write(ctx, nil))
	got, err := a.Read(ctx)
	require.NoError(t, err)
	assert.NotNil(t, got.Workflows)
	assert.Zero(t, got.VersionCount())
}
