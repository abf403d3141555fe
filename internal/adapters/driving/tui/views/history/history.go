// Package history provides the version list view for the TUI.
package history

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

// View lists a workflow's versions, newest first.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap

	workflowID string
	versions   []domain.Version // newest first
	selected   int
	offset     int
	width      int
	height     int
	err        error
}

// NewView creates a new history view.
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

// SetHistory replaces the listed versions. versions must be oldest first,
// as returned by the version service.
func (v *View) SetHistory(workflowID string, versions []domain.Version) {
	v.workflowID = workflowID
	v.versions = make([]domain.Version, len(versions))
	for i := range versions {
		v.versions[len(versions)-1-i] = versions[i]
	}
	v.err = nil
	if v.selected >= len(v.versions) {
		v.selected = 0
		v.offset = 0
	}
}

// Update handles messages for the history view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	case messages.ErrorOccurred:
		v.err = msg.Err
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
		}
	case key.Matches(msg, v.keymap.Down):
		if v.selected < len(v.versions)-1 {
			v.selected++
		}
	case key.Matches(msg, v.keymap.Top):
		v.selected = 0
	case key.Matches(msg, v.keymap.Bottom):
		if len(v.versions) > 0 {
			v.selected = len(v.versions) - 1
		}
	case key.Matches(msg, v.keymap.Select):
		if selected, ok := v.Selected(); ok {
			return v, func() tea.Msg {
				return messages.VersionSelected{Version: selected}
			}
		}
	case key.Matches(msg, v.keymap.Reload):
		return v, func() tea.Msg {
			return messages.ReloadRequested{}
		}
	}
	v.scrollToSelection()
	return v, nil
}

func (v *View) visibleRows() int {
	// title, separator, blank line, help footer, status bar
	rows := v.height - 6
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (v *View) scrollToSelection() {
	rows := v.visibleRows()
	if v.selected < v.offset {
		v.offset = v.selected
	}
	if v.selected >= v.offset+rows {
		v.offset = v.selected - rows + 1
	}
}

// View renders the version list.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("History: " + v.workflowID))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", max(min(v.width-4, 60), 0)))
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.versions) == 0:
		b.WriteString(v.styles.Muted.Render("No versions recorded"))
	default:
		end := min(v.offset+v.visibleRows(), len(v.versions))
		for i := v.offset; i < end; i++ {
			b.WriteString(v.renderRow(i))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] changes  [r] reload  [q] quit"))
	return b.String()
}

func (v *View) renderRow(i int) string {
	ver := v.versions[i]
	summary := ver.SemanticSummary
	if ver.Label != "" {
		summary = ver.Label + ": " + summary
	}
	if limit := v.width - 32; limit > 3 && len(summary) > limit {
		summary = summary[:limit-3] + "..."
	}

	row := fmt.Sprintf("%-10s %s  %s", ver.Version, ver.CreatedAt.Format("2006-01-02 15:04"), summary)
	if i == v.selected {
		return v.styles.Selected.Render("> " + row)
	}
	return v.styles.Normal.Render("  " + row)
}

// Selected returns the highlighted version.
func (v *View) Selected() (domain.Version, bool) {
	if len(v.versions) == 0 {
		return domain.Version{}, false
	}
	return v.versions[v.selected], true
}

// SelectedIndex returns the highlighted row.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Len returns the number of listed versions.
func (v *View) Len() int {
	return len(v.versions)
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.scrollToSelection()
}
