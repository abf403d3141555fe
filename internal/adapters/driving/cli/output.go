package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/flowver/internal/core/domain"
)

var (
	headingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	versionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4"))
	addedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	removedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
	modifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// paint renders s with style only when the command writes to a terminal.
func paint(cmd *cobra.Command, style lipgloss.Style, s string) string {
	if !isTerminal(cmd.OutOrStdout()) {
		return s
	}
	return style.Render(s)
}

// printChanges writes one line per change, indented by two spaces.
func printChanges(cmd *cobra.Command, changes domain.ChangeRecord) {
	if changes.IsEmpty() {
		cmd.Println(paint(cmd, mutedStyle, "  no changes"))
		return
	}
	for _, name := range changes.AddedNodes {
		cmd.Println(paint(cmd, addedStyle, "  + node "+name))
	}
	for _, name := range changes.RemovedNodes {
		cmd.Println(paint(cmd, removedStyle, "  - node "+name))
	}
	for _, node := range changes.ModifiedNodes {
		cmd.Println(paint(cmd, modifiedStyle, fmt.Sprintf("  ~ node %s (%s)", node.Name, strings.Join(node.Fields(), ", "))))
	}
	for _, c := range changes.AddedConnections {
		cmd.Println(paint(cmd, addedStyle, "  + connection "+c.String()))
	}
	for _, c := range changes.RemovedConnections {
		cmd.Println(paint(cmd, removedStyle, "  - connection "+c.String()))
	}
	for _, f := range changes.ChangedFields {
		cmd.Println(paint(cmd, modifiedStyle, "  ~ field "+f.Field))
	}
}

// printVersion writes the fields of a version without its snapshot.
func printVersion(cmd *cobra.Command, v *domain.Version) {
	cmd.Printf("  Version:  %s\n", paint(cmd, versionStyle, v.Version))
	cmd.Printf("  Created:  %s\n", v.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Checksum: %s\n", v.Checksum)
	if v.Label != "" {
		cmd.Printf("  Label:    %s\n", v.Label)
	}
	cmd.Printf("  Summary:  %s\n", v.SemanticSummary)
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
