// Package fsutil holds small filesystem helpers shared by the file-backed adapters.
package fsutil

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

// rename is swapped in tests to simulate a crash between write and rename.
var rename = os.Rename

// WriteFileAtomic replaces path with data so that readers observe either the
// previous content or the new content, never a partial file.
//
// The data goes to a temp file in the same directory, which is synced and
// renamed over path; the directory is synced afterwards so the rename itself
// survives a crash. Missing parent directories are created with dirPerm.
func WriteFileAtomic(path string, data []byte, perm, dirPerm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return syncDir(dir)
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
