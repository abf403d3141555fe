package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/flowver/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/flowver/internal/core/domain"
	"github.com/custodia-labs/flowver/internal/core/ports/driven"
)

// DefaultFileName is the database file name inside the data directory.
const DefaultFileName = "versions.db"

// Ensure Archive implements the interface.
var _ driven.VersionArchive = (*Archive)(nil)

// Archive stores the version store in a SQLite database.
type Archive struct {
	db   *sql.DB
	path string
}

// NewArchive opens (or creates) the database at path and runs migrations.
// If path is empty, defaults to ~/.flowver/versions.db.
func NewArchive(path string) (*Archive, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".flowver", DefaultFileName)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// WAL mode lets readers proceed while a save is in progress
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	a := &Archive{db: db, path: path}
	if err := a.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return a, nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Path returns the database file path.
func (a *Archive) Path() string {
	return a.path
}

// migrate runs all pending migrations.
func (a *Archive) migrate(fsys fs.FS) error {
	_, err := a.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := a.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_versions.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := a.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := a.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Write replaces all stored versions in a single transaction.
func (a *Archive) Write(ctx context.Context, store *domain.Store) (err error) {
	if store == nil {
		store = domain.NewStore()
	}

	// Encode everything before touching the database.
	type row struct {
		workflowID string
		seq        int
		v          domain.Version
		snapshot   string
	}
	var rows []row
	for _, id := range store.WorkflowIDs() {
		for i, v := range store.Workflows[id] {
			snapshot, err := encodeSnapshot(v.Snapshot)
			if err != nil {
				return &domain.ContentError{Field: id + "@" + v.Version, Err: err}
			}
			rows = append(rows, row{workflowID: id, seq: i, v: v, snapshot: snapshot})
		}
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM versions"); err != nil {
		return fmt.Errorf("clearing versions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO versions (workflow_id, seq, version, checksum, created_at, label, semantic_summary, snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err = stmt.ExecContext(ctx,
			r.workflowID,
			r.seq,
			r.v.Version,
			r.v.Checksum,
			r.v.CreatedAt.UTC().Format(time.RFC3339Nano),
			r.v.Label,
			r.v.SemanticSummary,
			r.snapshot,
		)
		if err != nil {
			return fmt.Errorf("inserting %s@%s: %w", r.workflowID, r.v.Version, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO store_meta (id, written_at) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET written_at = excluded.written_at
	`, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("updating store metadata: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// Read loads every stored version. Returns domain.ErrNotFound if the
// store has never been written.
func (a *Archive) Read(ctx context.Context) (*domain.Store, error) {
	var written int
	if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM store_meta").Scan(&written); err != nil {
		return nil, fmt.Errorf("reading store metadata: %w", err)
	}
	if written == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, a.path)
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT workflow_id, version, checksum, created_at, label, semantic_summary, snapshot
		FROM versions ORDER BY workflow_id, seq
	`)
	if err != nil {
		return nil, fmt.Errorf("querying versions: %w", err)
	}
	defer rows.Close()

	store := domain.NewStore()
	for rows.Next() {
		var (
			workflowID string
			createdAt  string
			snapshot   string
			v          domain.Version
		)
		if err := rows.Scan(&workflowID, &v.Version, &v.Checksum, &createdAt, &v.Label, &v.SemanticSummary, &snapshot); err != nil {
			return nil, fmt.Errorf("scanning version: %w", err)
		}

		v.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, &domain.CorruptedStoreError{Path: a.path, Err: fmt.Errorf("%s@%s created_at: %w", workflowID, v.Version, err)}
		}
		v.Snapshot, err = decodeSnapshot(snapshot)
		if err != nil {
			return nil, &domain.CorruptedStoreError{Path: a.path, Err: fmt.Errorf("%s@%s snapshot: %w", workflowID, v.Version, err)}
		}

		store.Workflows[workflowID] = append(store.Workflows[workflowID], v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating versions: %w", err)
	}
	return store, nil
}

func encodeSnapshot(doc domain.WorkflowDocument) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func decodeSnapshot(text string) (domain.WorkflowDocument, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var doc domain.WorkflowDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after snapshot")
	}
	return doc, nil
}
