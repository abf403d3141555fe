package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/flowver/internal/adapters/driving/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse [workflow-id]",
	Short: "Browse a workflow's history interactively",
	Long: `Launch a terminal browser for the versions of a workflow.

Controls:
  ↑/k, ↓/j - Navigate versions
  Enter    - Show the changes that produced a version
  r        - Reload
  Esc      - Back
  ?        - Toggle help
  q        - Quit`,
	Args: cobra.ExactArgs(1),
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in browser: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := tui.NewApp(&tui.Ports{Versions: versionService}, args[0])
	if err != nil {
		return err
	}
	return app.WithContext(commandContext(cmd)).Run()
}
