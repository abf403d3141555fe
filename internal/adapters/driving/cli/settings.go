package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/flowver/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the version store, locking and watcher settings.

Settings are stored in ~/.flowver/config.toml unless --config is given.`,
	RunE:        runSettingsShow,
	Annotations: map[string]string{skipStoreAnnotation: "true"},
}

var settingsShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show current settings",
	RunE:        runSettingsShow,
	Annotations: map[string]string{skipStoreAnnotation: "true"},
}

var settingsBackendCmd = &cobra.Command{
	Use:   "backend [file|sqlite]",
	Short: "Set the store backend",
	Long: `Set the store backend. Without an argument the backend is chosen interactively.

Available backends:
  file   - JSON file replaced atomically on every save (default)
  sqlite - SQLite database written in a single transaction`,
	Args:        cobra.MaximumNArgs(1),
	RunE:        runSettingsBackend,
	Annotations: map[string]string{skipStoreAnnotation: "true"},
}

var settingsLockCmd = &cobra.Command{
	Use:         "lock-timeout [duration]",
	Short:       "Set the workflow lock timeout",
	Args:        cobra.ExactArgs(1),
	RunE:        runSettingsLock,
	Annotations: map[string]string{skipStoreAnnotation: "true"},
}

var settingsWatchCmd = &cobra.Command{
	Use:         "watch",
	Short:       "Set watcher throttling",
	RunE:        runSettingsWatch,
	Annotations: map[string]string{skipStoreAnnotation: "true"},
}

var (
	watchRateFlag     float64
	watchBurstFlag    int
	watchDebounceFlag time.Duration
)

func init() {
	settingsWatchCmd.Flags().Float64Var(&watchRateFlag, "rate", 0, "Sustained bumps per second")
	settingsWatchCmd.Flags().IntVar(&watchBurstFlag, "burst", 0, "Bumps allowed above the rate")
	settingsWatchCmd.Flags().DurationVar(&watchDebounceFlag, "debounce", 0, "Quiet period before a file is versioned")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsBackendCmd)
	settingsCmd.AddCommand(settingsLockCmd)
	settingsCmd.AddCommand(settingsWatchCmd)
	rootCmd.AddCommand(settingsCmd)
}

func requireSettings() (*domain.Settings, error) {
	if settingsService == nil {
		return nil, errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return settings, nil
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	settings, err := requireSettings()
	if err != nil {
		return err
	}

	cmd.Println(paint(cmd, headingStyle, "Current Settings"))
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Store]")
	cmd.Printf("  Backend: %s\n", settings.Store.Backend.Description())
	path := settings.Store.Path
	if path == "" {
		path = "(default)"
	}
	cmd.Printf("  Path: %s\n", path)
	if persistenceService != nil {
		cmd.Printf("  In use: %s\n", persistenceService.Path())
	}
	cmd.Println()

	cmd.Println("[Lock]")
	cmd.Printf("  Timeout: %s\n", settings.Lock.Timeout)
	cmd.Println()

	cmd.Println("[Watch]")
	cmd.Printf("  Rate: %g/s\n", settings.Watch.Rate)
	cmd.Printf("  Burst: %d\n", settings.Watch.Burst)
	cmd.Printf("  Debounce: %s\n", settings.Watch.Debounce)
	return nil
}

func runSettingsBackend(cmd *cobra.Command, args []string) error {
	if _, err := requireSettings(); err != nil {
		return err
	}

	var backend domain.StoreBackend
	if len(args) == 1 {
		backend = domain.StoreBackend(args[0])
	} else {
		backend = promptBackend(cmd, cmd.InOrStdin())
	}
	if !backend.IsValid() {
		return fmt.Errorf("%w: unknown backend %q", domain.ErrInvalidInput, backend)
	}

	if err := settingsService.SetBackend(backend); err != nil {
		return fmt.Errorf("failed to set backend: %w", err)
	}
	cmd.Printf("Store backend set to: %s\n", backend.Description())
	return nil
}

var allBackends = []domain.StoreBackend{domain.StoreBackendFile, domain.StoreBackendSQLite}

// promptBackend asks for a backend, defaulting to the first one.
func promptBackend(cmd *cobra.Command, in io.Reader) domain.StoreBackend {
	cmd.Println("Select Store Backend")
	cmd.Println("--------------------")
	for i, b := range allBackends {
		cmd.Printf("  %d. %s\n", i+1, b.Description())
	}
	cmd.Print("\nEnter choice [1]: ")

	idx := parseChoice(readLine(bufio.NewReader(in)), len(allBackends), 1)
	if idx == 0 {
		return ""
	}
	return allBackends[idx-1]
}

func runSettingsLock(cmd *cobra.Command, args []string) error {
	settings, err := requireSettings()
	if err != nil {
		return err
	}

	timeout, err := time.ParseDuration(args[0])
	if err != nil || timeout <= 0 {
		return fmt.Errorf("%w: invalid duration %q", domain.ErrInvalidInput, args[0])
	}

	settings.Lock.Timeout = timeout
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Printf("Lock timeout set to: %s\n", timeout)
	return nil
}

func runSettingsWatch(cmd *cobra.Command, _ []string) error {
	settings, err := requireSettings()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("rate") {
		settings.Watch.Rate = watchRateFlag
	}
	if flags.Changed("burst") {
		settings.Watch.Burst = watchBurstFlag
	}
	if flags.Changed("debounce") {
		settings.Watch.Debounce = watchDebounceFlag
	}
	if settings.Watch.Rate <= 0 || settings.Watch.Burst <= 0 || settings.Watch.Debounce < 0 {
		return fmt.Errorf("%w: rate and burst must be positive", domain.ErrInvalidInput)
	}

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Printf("Watch settings: %g/s, burst %d, debounce %s\n",
		settings.Watch.Rate, settings.Watch.Burst, settings.Watch.Debounce)
	return nil
}

func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n') //nolint:errcheck // EOF yields the default choice
	return strings.TrimSpace(input)
}

// parseChoice parses a 1-based menu choice, returning 0 when it is out of range.
func parseChoice(input string, maxVal, defaultVal int) int {
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > maxVal {
		return 0
	}
	return n
}
