package file

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
	assert.Empty(t, store.Keys())
}

func TestNewConfigStore_NestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	_, err := NewConfigStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("store.backend", "sqlite"))
	require.NoError(t, store.Set("watch.burst", 4))
	require.NoError(t, store.Set("watch.rate", 1.5))
	require.NoError(t, store.Set("verbose", true))

	assert.Equal(t, "sqlite", store.GetString("store.backend"))
	assert.Equal(t, "", store.GetString("watch.burst"))
	assert.Equal(t, 4, store.GetInt("watch.burst"))
	assert.InDelta(t, 1.5, store.GetFloat("watch.rate"), 1e-9)
	assert.InDelta(t, 4.0, store.GetFloat("watch.burst"), 1e-9)
	assert.Zero(t, store.GetFloat("store.backend"))
	assert.True(t, store.GetBool("verbose"))
	assert.False(t, store.GetBool("missing"))
}

func TestConfigStore_PersistsAsTables(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("store.backend", "file"))
	require.NoError(t, store.Set("lock.timeout", "2s"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, "[store]"), text)
	assert.True(t, strings.Contains(text, "[lock]"), text)

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "file", reloaded.GetString("store.backend"))
	assert.Equal(t, "2s", reloaded.GetString("lock.timeout"))
	assert.Equal(t, []string{"lock.timeout", "store.backend"}, reloaded.Keys())
}

func TestConfigStore_ReadsHandWrittenTOML(t *testing.T) {
	dir := t.TempDir()
	content := `
[store]
backend = "sqlite"
path = "/var/lib/flowver/versions.db"

[watch]
rate = 2
burst = 8
debounce = "500ms"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", store.GetString("store.backend"))
	assert.Equal(t, "/var/lib/flowver/versions.db", store.GetString("store.path"))
	assert.InDelta(t, 2.0, store.GetFloat("watch.rate"), 1e-9)
	assert.Equal(t, 8, store.GetInt("watch.burst"))
	assert.Equal(t, "500ms", store.GetString("watch.debounce"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("k", "v"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestNewConfigStore_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not [valid"), 0o600))

	_, err := NewConfigStore(dir)
	assert.Error(t, err)
}

func TestNewConfigStoreAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")

	store, err := NewConfigStoreAt(path)
	require.NoError(t, err)
	require.NoError(t, store.Set("store.backend", "file"))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set("watch.burst", i)
			_ = store.GetInt("watch.burst")
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, store.GetInt("watch.burst"), 0)
}

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{
		"a":   1,
		"a.b": 2,
		"c.d": "x",
		"c.e": true,
	})

	assert.Equal(t, map[string]any{
		"a": 1,
		"c": map[string]any{"d": "x", "e": true},
	}, nested)
	assert.Equal(t, map[string]any{"c.d": "x", "c.e": true}, flattenMap(map[string]any{
		"c": map[string]any{"d": "x", "e": true},
	}, ""))
}
