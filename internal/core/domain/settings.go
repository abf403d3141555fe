package domain

import "time"

// StoreBackend selects the archive implementation for the version store.
type StoreBackend string

// Available store backends.
const (
	// StoreBackendFile keeps the whole store in one JSON file.
	StoreBackendFile StoreBackend = "file"

	// StoreBackendSQLite keeps the store in a SQLite database.
	StoreBackendSQLite StoreBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreBackendFile, StoreBackendSQLite:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StoreBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b StoreBackend) Description() string {
	switch b {
	case StoreBackendFile:
		return "JSON file (atomic rename)"
	case StoreBackendSQLite:
		return "SQLite database"
	default:
		return "Unknown"
	}
}

// DefaultLockTimeout bounds how long a caller waits for a workflow lock.
const DefaultLockTimeout = 5 * time.Second

// StoreSettings holds version store configuration.
type StoreSettings struct {
	// Backend is the archive implementation.
	Backend StoreBackend

	// Path is the store location. Empty means the backend default under ~/.flowver.
	Path string
}

// LockSettings holds per-workflow locking configuration.
type LockSettings struct {
	// Timeout is the maximum wait for a workflow lock.
	Timeout time.Duration
}

// WatchSettings holds directory watcher configuration.
type WatchSettings struct {
	// Rate is the sustained number of bumps per second.
	Rate float64

	// Burst is the number of bumps allowed above Rate.
	Burst int

	// Debounce is how long a file must be quiet before it is versioned.
	Debounce time.Duration
}

// Settings holds application configuration.
type Settings struct {
	Store StoreSettings
	Lock  LockSettings
	Watch WatchSettings
}

// DefaultSettings returns sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		Store: StoreSettings{
			Backend: StoreBackendFile,
		},
		Lock: LockSettings{
			Timeout: DefaultLockTimeout,
		},
		Watch: WatchSettings{
			Rate:     2,
			Burst:    4,
			Debounce: 250 * time.Millisecond,
		},
	}
}
