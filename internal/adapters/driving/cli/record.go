package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/flowver/internal/adapters/driving/docfile"
	"github.com/custodia-labs/flowver/internal/core/domain"
)

var createCmd = &cobra.Command{
	Use:   "create [file]",
	Short: "Record a new version unconditionally",
	Long: `Record a new version of the workflow document in file, even if it is unchanged.

The workflow ID is taken from --id, then from the document's "id" field. If
neither is present a new UUID is generated.`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

var bumpCmd = &cobra.Command{
	Use:   "bump [file]",
	Short: "Record a new version if the document changed",
	Long: `Compare the workflow document in file with the latest version and record a new
version when the changes warrant one.

The bump type is chosen from the changes unless --hint overrides it:
  major - removed nodes or connections, or executable node changes
  minor - added nodes or connections
  patch - any other change
  none  - record nothing

The workflow ID is taken from --id, then from the document's "id" field, then
from the file name without its extension.`,
	Args: cobra.ExactArgs(1),
	RunE: runBump,
}

var (
	createID    string
	createLabel string
	bumpID      string
	bumpHint    string
	bumpLabel   string
)

func init() {
	createCmd.Flags().StringVar(&createID, "id", "", "Workflow ID")
	createCmd.Flags().StringVarP(&createLabel, "label", "l", "", "Label stored with the version")

	bumpCmd.Flags().StringVar(&bumpID, "id", "", "Workflow ID")
	bumpCmd.Flags().StringVar(&bumpHint, "hint", "", "Override the bump type: major, minor, patch or none")
	bumpCmd.Flags().StringVarP(&bumpLabel, "label", "l", "", "Label stored with the version")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(bumpCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	if err := requireVersions(); err != nil {
		return err
	}
	ctx := commandContext(cmd)

	doc, err := docfile.Read(args[0])
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	id := docfile.ResolveOrNew(createID, doc)

	v, err := versionService.CreateVersion(ctx, id, doc, createLabel)
	if err != nil {
		return fmt.Errorf("failed to create version: %w", err)
	}
	if err := saveStore(ctx); err != nil {
		return err
	}

	cmd.Printf("Created %s %s\n", id, paint(cmd, versionStyle, v.Version))
	cmd.Printf("  %s\n", v.SemanticSummary)
	return nil
}

func runBump(cmd *cobra.Command, args []string) error {
	if err := requireVersions(); err != nil {
		return err
	}
	ctx := commandContext(cmd)

	hint, err := domain.ParseBumpType(bumpHint)
	if err != nil {
		return err
	}

	doc, err := docfile.Read(args[0])
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	id := docfile.ResolveOrStem(bumpID, doc, args[0])

	res, err := versionService.VersionBump(ctx, id, doc, domain.BumpOptions{Hint: hint, Label: bumpLabel})
	if err != nil {
		return fmt.Errorf("failed to bump version: %w", err)
	}

	if !res.Created {
		reason := "unchanged"
		if !res.Changes.IsEmpty() {
			reason = "no bump warranted"
		}
		cmd.Printf("No new version for %s: %s (latest %s)\n", id, reason, res.Version.Version)
		return nil
	}

	if err := saveStore(ctx); err != nil {
		return err
	}

	if res.Previous == nil {
		cmd.Printf("Created %s %s\n", id, paint(cmd, versionStyle, res.Version.Version))
		return nil
	}
	cmd.Printf("Bumped %s %s -> %s (%s)\n", id, res.Previous.Version,
		paint(cmd, versionStyle, res.Version.Version), res.Bump)
	printChanges(cmd, res.Changes)
	return nil
}
