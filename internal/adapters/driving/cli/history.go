package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/flowver/internal/fsutil"
)

var listCmd = &cobra.Command{
	Use:   "list [workflow-id]",
	Short: "List workflows, or the versions of one workflow",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

var latestCmd = &cobra.Command{
	Use:   "latest [workflow-id]",
	Short: "Show the latest version of a workflow",
	Args:  cobra.ExactArgs(1),
	RunE:  runLatest,
}

var showCmd = &cobra.Command{
	Use:   "show [workflow-id] [version]",
	Short: "Print the document stored in a version",
	Args:  cobra.ExactArgs(2),
	RunE:  runShow,
}

var exportCmd = &cobra.Command{
	Use:   "export [workflow-id]",
	Short: "Export a workflow's version history as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var verifyCmd = &cobra.Command{
	Use:   "verify [workflow-id]",
	Short: "Recompute checksums and report tampered versions",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

var changelogCmd = &cobra.Command{
	Use:   "changelog [workflow-id]",
	Short: "Print a markdown changelog, newest version first",
	Args:  cobra.ExactArgs(1),
	RunE:  runChangelog,
}

var (
	exportOutput    string
	exportSnapshots bool
)

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
	exportCmd.Flags().BoolVar(&exportSnapshots, "snapshots", false, "Include full document snapshots")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(changelogCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	if err := requireVersions(); err != nil {
		return err
	}
	ctx := commandContext(cmd)

	if len(args) == 0 {
		ids := versionService.WorkflowIDs()
		if len(ids) == 0 {
			cmd.Println("No workflows recorded.")
			return nil
		}
		for _, id := range ids {
			latest, err := versionService.GetLatestVersion(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get latest version: %w", err)
			}
			if latest == nil {
				continue
			}
			cmd.Printf("  %-36s %s\n", id, paint(cmd, versionStyle, latest.Version))
		}
		cmd.Printf("\nTotal: %d workflows\n", len(ids))
		return nil
	}

	id := args[0]
	versions, err := versionService.ListVersions(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list versions: %w", err)
	}
	if len(versions) == 0 {
		cmd.Printf("No versions found for workflow: %s\n", id)
		return nil
	}

	cmd.Printf("Versions of %s:\n\n", paint(cmd, headingStyle, id))
	for i := range versions {
		v := &versions[i]
		line := fmt.Sprintf("  %-10s %s  %s", v.Version, v.CreatedAt.Format("2006-01-02 15:04"), v.SemanticSummary)
		if v.Label != "" {
			line += paint(cmd, mutedStyle, " ["+v.Label+"]")
		}
		cmd.Println(line)
	}
	cmd.Printf("\nTotal: %d versions\n", len(versions))
	return nil
}

func runLatest(cmd *cobra.Command, args []string) error {
	if err := requireVersions(); err != nil {
		return err
	}

	v, err := versionService.GetLatestVersion(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get latest version: %w", err)
	}
	if v == nil {
		cmd.Printf("No versions found for workflow: %s\n", args[0])
		return nil
	}

	cmd.Printf("Latest version of %s:\n\n", paint(cmd, headingStyle, args[0]))
	printVersion(cmd, v)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	if err := requireVersions(); err != nil {
		return err
	}

	v, err := versionService.GetVersion(commandContext(cmd), args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to get version: %w", err)
	}
	return writeJSON(cmd.OutOrStdout(), v.Snapshot)
}

func runExport(cmd *cobra.Command, args []string) error {
	if err := requireVersions(); err != nil {
		return err
	}

	export, err := versionService.ExportVersionHistory(commandContext(cmd), args[0], exportSnapshots)
	if err != nil {
		return fmt.Errorf("failed to export history: %w", err)
	}

	if exportOutput == "" {
		return writeJSON(cmd.OutOrStdout(), export)
	}

	var buf bytes.Buffer
	if err := writeJSON(&buf, export); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	if err := fsutil.WriteFileAtomic(exportOutput, buf.Bytes(), 0o644, 0o755); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	cmd.Printf("Exported %d versions of %s to %s\n", export.VersionCount, args[0], exportOutput)
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	if err := requireVersions(); err != nil {
		return err
	}

	mismatches, err := versionService.VerifyHistory(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to verify history: %w", err)
	}

	if len(mismatches) == 0 {
		cmd.Printf("All versions of %s verified.\n", args[0])
		return nil
	}

	for _, m := range mismatches {
		cmd.Println(paint(cmd, removedStyle, fmt.Sprintf("  %s: stored %s, computed %s", m.Version, m.Stored, m.Computed)))
	}
	return fmt.Errorf("%d version(s) of %s failed verification", len(mismatches), args[0])
}

func runChangelog(cmd *cobra.Command, args []string) error {
	if err := requireVersions(); err != nil {
		return err
	}

	changelog, err := versionService.Changelog(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to build changelog: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), changelog)
	return nil
}
