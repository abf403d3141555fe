// Package cli provides the flowver command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/flowver/internal/core/domain"
	"github.com/custodia-labs/flowver/internal/core/ports/driven"
	"github.com/custodia-labs/flowver/internal/core/ports/driving"
	"github.com/custodia-labs/flowver/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// SetVersion sets the version printed by "flowver version".
func SetVersion(v string) {
	version = v
}

// Options carries the global flags to the bootstrap function.
type Options struct {
	// ConfigPath is the config file; empty means ~/.flowver/config.toml.
	ConfigPath string

	// StorePath overrides store.path.
	StorePath string

	// Backend overrides store.backend.
	Backend string

	// LockTimeout overrides lock.timeout when non-zero.
	LockTimeout time.Duration
}

// ArchiveOpener opens a version archive at path. The returned close func is never nil.
type ArchiveOpener func(path string) (driven.VersionArchive, func() error, error)

// Services holds everything the commands run against.
type Services struct {
	Versions    driving.VersionService
	Persistence driving.PersistenceService
	Settings    driving.SettingsService

	// Watch configures "flowver watch".
	Watch domain.WatchSettings

	// OpenArchive opens foreign stores for "flowver import".
	OpenArchive ArchiveOpener

	// Close releases the store. May be nil.
	Close func() error
}

// BootstrapFunc builds the services from the global flags.
type BootstrapFunc func(opts Options) (*Services, error)

var (
	bootstrap BootstrapFunc

	versionService     driving.VersionService
	persistenceService driving.PersistenceService
	settingsService    driving.SettingsService
	watchSettings      = domain.DefaultSettings().Watch
	openArchive        ArchiveOpener
	closeServices      func() error
)

// Global flags.
var (
	verbose     bool
	configPath  string
	storePath   string
	backendFlag string
	lockTimeout time.Duration
)

// Command annotations controlling setup.
const (
	// skipStoreAnnotation marks commands that do not read the version store.
	skipStoreAnnotation = "flowver/skip-store"

	// noServicesAnnotation marks commands that need no services at all.
	noServicesAnnotation = "flowver/no-services"
)

var rootCmd = &cobra.Command{
	Use:   "flowver",
	Short: "Version control for workflow documents",
	Long: `flowver records immutable, fully snapshotted versions of workflow documents.

Each version gets a semantic version number chosen from the structural changes
since the previous version: removed nodes or connections and executable node
changes are major, additions are minor, everything else is a patch.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return teardown()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging to stderr")
	flags.StringVar(&configPath, "config", "", "Config file (default ~/.flowver/config.toml)")
	flags.StringVar(&storePath, "store", "", "Version store location (overrides store.path)")
	flags.StringVar(&backendFlag, "backend", "", "Store backend: file or sqlite (overrides store.backend)")
	flags.DurationVar(&lockTimeout, "lock-timeout", 0, "Maximum wait for a workflow lock (overrides lock.timeout)")
}

// SetBootstrap sets the function that builds services before each command.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetServices installs services directly, bypassing bootstrap.
func SetServices(s *Services) {
	versionService = s.Versions
	persistenceService = s.Persistence
	settingsService = s.Settings
	if s.Watch != (domain.WatchSettings{}) {
		watchSettings = s.Watch
	}
	openArchive = s.OpenArchive
	closeServices = s.Close
}

// Execute runs the root command and releases the store afterwards, also when
// the command failed.
func Execute() error {
	err := rootCmd.Execute()
	if cerr := teardown(); err == nil {
		err = cerr
	}
	return err
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[noServicesAnnotation] != "" {
		return nil
	}

	if bootstrap != nil {
		s, err := bootstrap(Options{
			ConfigPath:  configPath,
			StorePath:   storePath,
			Backend:     backendFlag,
			LockTimeout: lockTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to initialise: %w", err)
		}
		SetServices(s)
	}

	if cmd.Annotations[skipStoreAnnotation] != "" || persistenceService == nil {
		return nil
	}
	return loadStore(cmd.Context())
}

func teardown() error {
	if closeServices == nil {
		return nil
	}
	closer := closeServices
	closeServices = nil
	return closer()
}

// loadStore replaces in-memory state with the persisted store. A missing
// store is not an error: it is created on the first save.
func loadStore(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_, err := persistenceService.Load(ctx, driving.LoadOptions{Mode: driving.LoadReplace})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("failed to load store: %w", err)
	}
	return nil
}

// saveStore persists in-memory state after a mutation.
func saveStore(ctx context.Context) error {
	if persistenceService == nil {
		return nil
	}
	if err := persistenceService.Save(ctx); err != nil {
		return fmt.Errorf("failed to save store: %w", err)
	}
	return nil
}

func requireVersions() error {
	if versionService == nil {
		return errors.New("version service not configured")
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
