package driving

import "github.com/custodia-labs/flowver/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current settings, falling back to defaults for missing or invalid values.
	Get() (*domain.Settings, error)

	// Save persists settings.
	Save(settings *domain.Settings) error

	// SetBackend updates the store backend.
	SetBackend(backend domain.StoreBackend) error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings
}
