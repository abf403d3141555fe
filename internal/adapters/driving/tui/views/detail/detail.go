// Package detail provides the version detail view for the TUI.
package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/flowver/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/flowver/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/flowver/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/flowver/internal/core/domain"
)

// lineKind selects the style of a rendered line.
type lineKind int

const (
	kindField lineKind = iota
	kindHeading
	kindAdded
	kindRemoved
	kindModified
	kindMuted
)

type line struct {
	kind lineKind
	text string
}

// View shows one version and the changes that produced it.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap

	version    *domain.Version
	comparison *domain.Comparison
	lines      []line
	offset     int
	width      int
	height     int
	err        error
}

// NewView creates a new detail view.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles: s,
		keymap: km,
		width:  80,
		height: 24,
	}
}

// SetVersion sets the displayed version. cmp is nil for a first version.
func (v *View) SetVersion(ver domain.Version, cmp *domain.Comparison) {
	v.version = &ver
	v.comparison = cmp
	v.offset = 0
	v.err = nil
	v.lines = buildLines(ver, cmp)
}

// Update handles messages for the detail view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keymap.Up):
			if v.offset > 0 {
				v.offset--
			}
		case key.Matches(msg, v.keymap.Down):
			if v.offset < v.maxOffset() {
				v.offset++
			}
		case key.Matches(msg, v.keymap.Back):
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewHistory}
			}
		}
	case messages.ErrorOccurred:
		v.err = msg.Err
	}
	return v, nil
}

func buildLines(ver domain.Version, cmp *domain.Comparison) []line {
	lines := []line{
		{kindField, fmt.Sprintf("%-10s %s", "Version:", ver.Version)},
		{kindField, fmt.Sprintf("%-10s %s", "Created:", ver.CreatedAt.Format("2006-01-02 15:04:05"))},
		{kindField, fmt.Sprintf("%-10s %s", "Checksum:", ver.Checksum)},
	}
	if ver.Label != "" {
		lines = append(lines, line{kindField, fmt.Sprintf("%-10s %s", "Label:", ver.Label)})
	}
	lines = append(lines, line{kindField, fmt.Sprintf("%-10s %s", "Summary:", ver.SemanticSummary)}, line{})

	if cmp == nil {
		return append(lines, line{kindMuted, "Initial version, nothing to compare"})
	}

	lines = append(lines, line{kindHeading, fmt.Sprintf("Changes from %s (%s)", cmp.From.Version, cmp.Suggested)})
	changes := cmp.Changes
	if changes.IsEmpty() {
		return append(lines, line{kindMuted, "  no changes"})
	}
	for _, name := range changes.AddedNodes {
		lines = append(lines, line{kindAdded, "  + node " + name})
	}
	for _, name := range changes.RemovedNodes {
		lines = append(lines, line{kindRemoved, "  - node " + name})
	}
	for _, node := range changes.ModifiedNodes {
		lines = append(lines, line{kindModified, fmt.Sprintf("  ~ node %s (%s)", node.Name, strings.Join(node.Fields(), ", "))})
	}
	for _, c := range changes.AddedConnections {
		lines = append(lines, line{kindAdded, "  + connection " + c.String()})
	}
	for _, c := range changes.RemovedConnections {
		lines = append(lines, line{kindRemoved, "  - connection " + c.String()})
	}
	for _, f := range changes.ChangedFields {
		lines = append(lines, line{kindModified, "  ~ field " + f.Field})
	}
	return lines
}

func (v *View) visibleLines() int {
	rows := v.height - 6
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (v *View) maxOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

func (v *View) render(l line) string {
	switch l.kind {
	case kindHeading:
		return v.styles.Subtitle.Render(l.text)
	case kindAdded:
		return v.styles.Added.Render(l.text)
	case kindRemoved:
		return v.styles.Removed.Render(l.text)
	case kindModified:
		return v.styles.Modified.Render(l.text)
	case kindMuted:
		return v.styles.Muted.Render(l.text)
	default:
		return v.styles.Normal.Render(l.text)
	}
}

// View renders the version detail.
func (v *View) View() string {
	var b strings.Builder

	title := "Version"
	if v.version != nil {
		title += " " + v.version.Version
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", max(min(v.width-4, 60), 0)))
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
	case v.version == nil:
		b.WriteString(v.styles.Muted.Render("No version selected"))
		b.WriteString("\n")
	default:
		end := min(v.offset+v.visibleLines(), len(v.lines))
		for _, l := range v.lines[v.offset:end] {
			b.WriteString(v.render(l))
			b.WriteString("\n")
		}
		if len(v.lines) > v.visibleLines() {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [Line %d-%d of %d]", v.offset+1, end, len(v.lines))))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] scroll  [esc] back  [q] quit"))
	return b.String()
}

// Version returns the displayed version.
func (v *View) Version() *domain.Version {
	return v.version
}

// Comparison returns the displayed comparison.
func (v *View) Comparison() *domain.Comparison {
	return v.comparison
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.offset = min(v.offset, v.maxOffset())
}
