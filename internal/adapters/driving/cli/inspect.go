package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/flowver/internal/adapters/driving/docfile"
	"github.com/custodia-labs/flowver/internal/core/domain"
)

var compareCmd = &cobra.Command{
	Use:   "compare [workflow-id] [v1] [v2]",
	Short: "Show the changes between two stored versions",
	Args:  cobra.ExactArgs(3),
	RunE:  runCompare,
}

var diffCmd = &cobra.Command{
	Use:         "diff [old-file] [new-file]",
	Short:       "Show the changes between two workflow documents",
	Args:        cobra.ExactArgs(2),
	RunE:        runDiff,
	Annotations: map[string]string{skipStoreAnnotation: "true"},
}

var suggestCmd = &cobra.Command{
	Use:         "suggest [old-file] [new-file]",
	Short:       "Print the suggested bump type between two documents",
	Args:        cobra.ExactArgs(2),
	RunE:        runSuggest,
	Annotations: map[string]string{skipStoreAnnotation: "true"},
}

func init() {
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(suggestCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	if err := requireVersions(); err != nil {
		return err
	}

	cmp, err := versionService.CompareVersions(commandContext(cmd), args[0], args[1], args[2])
	if err != nil {
		return fmt.Errorf("failed to compare versions: %w", err)
	}

	cmd.Printf("%s %s -> %s (suggested: %s)\n", paint(cmd, headingStyle, cmp.WorkflowID),
		cmp.From.Version, cmp.To.Version, cmp.Suggested)
	printChanges(cmd, cmp.Changes)
	return nil
}

func diffFiles(args []string) (domain.ChangeRecord, error) {
	from, err := docfile.Read(args[0])
	if err != nil {
		return domain.ChangeRecord{}, fmt.Errorf("failed to read document: %w", err)
	}
	to, err := docfile.Read(args[1])
	if err != nil {
		return domain.ChangeRecord{}, fmt.Errorf("failed to read document: %w", err)
	}
	changes, err := versionService.GenerateDiff(from, to)
	if err != nil {
		return domain.ChangeRecord{}, fmt.Errorf("failed to diff documents: %w", err)
	}
	return changes, nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	if err := requireVersions(); err != nil {
		return err
	}

	changes, err := diffFiles(args)
	if err != nil {
		return err
	}

	cmd.Printf("%s -> %s (suggested: %s)\n", args[0], args[1], versionService.SuggestVersionBump(changes))
	printChanges(cmd, changes)
	return nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	if err := requireVersions(); err != nil {
		return err
	}

	changes, err := diffFiles(args)
	if err != nil {
		return err
	}

	cmd.Println(versionService.SuggestVersionBump(changes).String())
	return nil
}
