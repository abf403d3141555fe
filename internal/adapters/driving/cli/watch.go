package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/flowver/internal/adapters/driving/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Version documents as they change",
	Long: `Watch a directory and run a version bump whenever a .json, .yaml or .yml
workflow document is written. Created versions are saved immediately.

Writes are debounced (watch.debounce) and bumps are throttled to watch.rate per
second with bursts of watch.burst. Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := requireVersions(); err != nil {
		return err
	}

	w, err := watch.New(args[0], versionService, persistenceService, watchSettings)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", w.Dir())
	return w.Run(ctx, func(ev watch.Event) {
		reportWatchEvent(cmd, ev)
	})
}

func reportWatchEvent(cmd *cobra.Command, ev watch.Event) {
	switch {
	case ev.Err != nil:
		cmd.PrintErrf("%s: %v\n", ev.Path, ev.Err)
	case ev.Result.Created:
		cmd.Printf("%s %s (%s)\n", ev.WorkflowID, paint(cmd, versionStyle, ev.Result.Version.Version), ev.Result.Bump)
	default:
		cmd.Println(paint(cmd, mutedStyle, fmt.Sprintf("%s: no new version", ev.WorkflowID)))
	}
}
