// Package sqlite provides a SQLite-backed implementation of driven.VersionArchive.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.flowver/versions.db
//
// # Atomicity
//
// Write replaces every row inside one transaction, so readers observe either the
// complete previous store or the complete new one.
package sqlite
