package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/flowver/internal/core/ports/driving"
)

var importCmd = &cobra.Command{
	Use:   "import [store-file]",
	Short: "Load another version store",
	Long: `Load a version store written by flowver, replacing the current store.

With --merge the imported histories are combined with the current ones instead:
new workflows are added, and versions newer than a workflow's latest version are
appended. Older versions that are missing locally are reported as skipped.

Files ending in .db, .sqlite or .sqlite3 are opened as SQLite stores; anything
else is read as a JSON store file.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var importMerge bool

func init() {
	importCmd.Flags().BoolVar(&importMerge, "merge", false, "Merge into the current store instead of replacing it")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if persistenceService == nil {
		return errors.New("persistence service not configured")
	}
	if openArchive == nil {
		return errors.New("archive opener not configured")
	}
	ctx := commandContext(cmd)

	archive, closeArchive, err := openArchive(args[0])
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer closeArchive()

	mode := driving.LoadReplace
	if importMerge {
		mode = driving.LoadMerge
	}

	report, err := persistenceService.LoadFrom(ctx, archive, driving.LoadOptions{Mode: mode})
	if err != nil {
		return fmt.Errorf("failed to import store: %w", err)
	}
	if err := saveStore(ctx); err != nil {
		return err
	}

	cmd.Printf("Imported %s (%s)\n", archive.Path(), mode)
	cmd.Printf("  Workflows added: %d\n", report.WorkflowsAdded)
	cmd.Printf("  Versions added:  %d\n", report.VersionsAdded)
	if len(report.Skipped) > 0 {
		cmd.Printf("  Skipped:         %d\n", len(report.Skipped))
		for _, s := range report.Skipped {
			cmd.Println(paint(cmd, mutedStyle, "    "+s))
		}
	}
	return nil
}
