// Package jsonfile stores the whole version store as one JSON document.
//
// Writes go through a temp file that is synced and renamed over the target,
// so a crash mid-save leaves the previous store intact.
//
// # Data Location
//
// By default the store lives at ~/.flowver/versions.json.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/custodia-labs/flowver/internal/core/domain"
	"github.com/custodia-labs/flowver/internal/core/ports/driven"
	"github.com/custodia-labs/flowver/internal/fsutil"
)

// DefaultFileName is the store file name inside the data directory.
const DefaultFileName = "versions.json"

// Ensure Archive implements the interface.
var _ driven.VersionArchive = (*Archive)(nil)

// Archive is a JSON-file implementation of driven.VersionArchive.
type Archive struct {
	path string
}

// NewArchive creates an archive at path. If path is empty, defaults to
// ~/.flowver/versions.json. Nothing is created until the first Write.
func NewArchive(path string) (*Archive, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".flowver", DefaultFileName)
	}
	return &Archive{path: path}, nil
}

// Write atomically replaces the store file.
func (a *Archive) Write(ctx context.Context, store *domain.Store) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if store == nil {
		store = domain.NewStore()
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(store); err != nil {
		return &domain.ContentError{Err: err}
	}

	if err := fsutil.WriteFileAtomic(a.path, buf.Bytes(), 0o600, 0o700); err != nil {
		return fmt.Errorf("writing %s: %w", a.path, err)
	}
	return nil
}

var errTrailingData = errors.New("trailing data after store")

// Read parses the store file. Numbers inside snapshots decode as json.Number
// so integers and floats keep their exact text.
func (a *Archive) Read(ctx context.Context) (*domain.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(a.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, a.path)
		}
		return nil, fmt.Errorf("reading %s: %w", a.path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	store := domain.NewStore()
	if err := dec.Decode(store); err != nil {
		return nil, &domain.CorruptedStoreError{Path: a.path, Err: err}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, &domain.CorruptedStoreError{Path: a.path, Err: errTrailingData}
	}
	if store.Workflows == nil {
		store.Workflows = make(map[string][]domain.Version)
	}
	return store, nil
}

// Path returns the store file path.
func (a *Archive) Path() string {
	return a.path
}
