package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic_CreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "store.json")

	require.NoError(t, WriteFileAtomic(path, []byte("hello"), 0o600, 0o700))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteFileAtomic_Replaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	require.NoError(t, WriteFileAtomic(path, []byte("one"), 0o600, 0o700))
	require.NoError(t, WriteFileAtomic(path, []byte("two"), 0o600, 0o700))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestWriteFileAtomic_CrashBeforeRenameKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")
	require.NoError(t, WriteFileAtomic(path, []byte("previous"), 0o600, 0o700))

	rename = func(string, string) error { return errors.New("simulated crash") }
	t.Cleanup(func() { rename = os.Rename })

	err := WriteFileAtomic(path, []byte("next"), 0o600, 0o700)
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be cleaned up")
}
