package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/flowver/internal/core/domain"
	"github.com/custodia-labs/flowver/internal/core/ports/driven"
	"github.com/custodia-labs/flowver/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyStoreBackend  = "store.backend"
	keyStorePath     = "store.path"
	keyLockTimeout   = "lock.timeout"
	keyWatchRate     = "watch.rate"
	keyWatchBurst    = "watch.burst"
	keyWatchDebounce = "watch.debounce"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings. Missing or invalid values
// fall back to defaults.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := domain.DefaultSettings()

	settings := &domain.Settings{
		Store: domain.StoreSettings{
			Backend: s.getBackend(defaults.Store.Backend),
			Path:    s.getString(keyStorePath, defaults.Store.Path),
		},
		Lock: domain.LockSettings{
			Timeout: s.getDuration(keyLockTimeout, defaults.Lock.Timeout),
		},
		Watch: domain.WatchSettings{
			Rate:     s.getFloat(keyWatchRate, defaults.Watch.Rate),
			Burst:    s.getInt(keyWatchBurst, defaults.Watch.Burst),
			Debounce: s.getDuration(keyWatchDebounce, defaults.Watch.Debounce),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.Settings) error {
	if !settings.Store.Backend.IsValid() {
		return fmt.Errorf("%w: store backend %q", domain.ErrInvalidInput, settings.Store.Backend)
	}

	if err := s.configStore.Set(keyStoreBackend, settings.Store.Backend.String()); err != nil {
		return fmt.Errorf("save store backend: %w", err)
	}
	if settings.Store.Path != "" {
		if err := s.configStore.Set(keyStorePath, settings.Store.Path); err != nil {
			return fmt.Errorf("save store path: %w", err)
		}
	}
	if err := s.configStore.Set(keyLockTimeout, settings.Lock.Timeout.String()); err != nil {
		return fmt.Errorf("save lock timeout: %w", err)
	}
	if err := s.configStore.Set(keyWatchRate, settings.Watch.Rate); err != nil {
		return fmt.Errorf("save watch rate: %w", err)
	}
	if err := s.configStore.Set(keyWatchBurst, settings.Watch.Burst); err != nil {
		return fmt.Errorf("save watch burst: %w", err)
	}
	if err := s.configStore.Set(keyWatchDebounce, settings.Watch.Debounce.String()); err != nil {
		return fmt.Errorf("save watch debounce: %w", err)
	}

	return nil
}

// SetBackend updates the store backend.
func (s *SettingsService) SetBackend(backend domain.StoreBackend) error {
	if !backend.IsValid() {
		return fmt.Errorf("%w: store backend %q", domain.ErrInvalidInput, backend)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Store.Backend = backend
	return s.Save(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val := s.configStore.GetFloat(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

// getDuration accepts duration strings like "5s" or "250ms".
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getBackend(defaultVal domain.StoreBackend) domain.StoreBackend {
	val := s.configStore.GetString(keyStoreBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.StoreBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
