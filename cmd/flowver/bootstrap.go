package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/flowver/internal/adapters/driven/config/file"
	"github.com/custodia-labs/flowver/internal/adapters/driven/storage/jsonfile"
	"github.com/custodia-labs/flowver/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/flowver/internal/adapters/driving/cli"
	"github.com/custodia-labs/flowver/internal/core/domain"
	"github.com/custodia-labs/flowver/internal/core/ports/driven"
	"github.com/custodia-labs/flowver/internal/core/services"
	"github.com/custodia-labs/flowver/internal/logger"
)

var log = logger.For("main")

// bootstrap wires the config store, the archive backend and the services.
func bootstrap(opts cli.Options) (*cli.Services, error) {
	configStore, dir, err := openConfig(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if err := applyOverrides(settings, opts); err != nil {
		return nil, err
	}

	path := storePath(settings.Store, dir)
	archive, closeArchive, err := openBackend(settings.Store.Backend, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	log.Debug("using %s store at %s", settings.Store.Backend, path)

	versions := services.NewVersionService(services.NewLockRegistry(settings.Lock.Timeout))
	return &cli.Services{
		Versions:    versions,
		Persistence: services.NewPersistenceService(versions, archive),
		Settings:    settingsService,
		Watch:       settings.Watch,
		OpenArchive: openArchive,
		Close:       closeArchive,
	}, nil
}

// openConfig returns the config store and the directory default stores live in.
func openConfig(path string) (*file.ConfigStore, string, error) {
	if path != "" {
		store, err := file.NewConfigStoreAt(path)
		return store, filepath.Dir(path), err
	}
	dir, err := file.DefaultDir()
	if err != nil {
		return nil, "", err
	}
	store, err := file.NewConfigStore(dir)
	return store, dir, err
}

// applyOverrides lets global flags take precedence over the config file.
func applyOverrides(settings *domain.Settings, opts cli.Options) error {
	if opts.Backend != "" {
		backend := domain.StoreBackend(opts.Backend)
		if !backend.IsValid() {
			return fmt.Errorf("%w: unknown backend %q", domain.ErrInvalidInput, opts.Backend)
		}
		settings.Store.Backend = backend
	}
	if opts.StorePath != "" {
		settings.Store.Path = opts.StorePath
	}
	if opts.LockTimeout > 0 {
		settings.Lock.Timeout = opts.LockTimeout
	}
	return nil
}

// storePath resolves the configured store location, defaulting to a file in dir.
func storePath(store domain.StoreSettings, dir string) string {
	if store.Path != "" {
		return store.Path
	}
	if store.Backend == domain.StoreBackendSQLite {
		return filepath.Join(dir, sqlite.DefaultFileName)
	}
	return filepath.Join(dir, jsonfile.DefaultFileName)
}

func openBackend(backend domain.StoreBackend, path string) (driven.VersionArchive, func() error, error) {
	switch backend {
	case domain.StoreBackendSQLite:
		archive, err := sqlite.NewArchive(path)
		if err != nil {
			return nil, nil, err
		}
		return archive, archive.Close, nil
	case domain.StoreBackendFile, "":
		archive, err := jsonfile.NewArchive(path)
		if err != nil {
			return nil, nil, err
		}
		return archive, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown backend %q", domain.ErrInvalidInput, backend)
	}
}

// openArchive picks the backend of a foreign store from its extension.
func openArchive(path string) (driven.VersionArchive, func() error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return openBackend(domain.StoreBackendSQLite, path)
	default:
		return openBackend(domain.StoreBackendFile, path)
	}
}
