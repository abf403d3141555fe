package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/flowver/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/flowver/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/flowver/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/flowver/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/flowver/internal/adapters/driving/tui/views/detail"
	"github.com/custodia-labs/flowver/internal/adapters/driving/tui/views/history"
	"github.com/custodia-labs/flowver/internal/core/domain"
)

// App is the history browser following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports      *Ports
	ctx        context.Context
	workflowID string

	styles *styles.Styles
	keymap *keymap.KeyMap

	statusBar   *status.Bar
	historyView *history.View
	detailView  *detail.View

	// versions holds the loaded history, oldest first.
	versions []domain.Version

	currentView messages.ViewType
	err         error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a browser for workflowID.
func NewApp(ports *Ports, workflowID string) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if workflowID == "" {
		return nil, fmt.Errorf("creating app: %w", ErrMissingWorkflowID)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		workflowID:  workflowID,
		styles:      s,
		keymap:      km,
		statusBar:   status.NewBar(s, km),
		historyView: history.NewView(s, km),
		detailView:  detail.NewView(s, km),
		currentView: messages.ViewHistory,
	}, nil
}

// WithContext sets the context for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("flowver - "+a.workflowID),
		a.loadHistory(),
	)
}

func (a *App) loadHistory() tea.Cmd {
	return func() tea.Msg {
		versions, err := a.ports.Versions.ListVersions(a.ctx, a.workflowID)
		return messages.HistoryLoaded{WorkflowID: a.workflowID, Versions: versions, Err: err}
	}
}

// loadComparison diffs the selected version against its predecessor.
func (a *App) loadComparison(ver domain.Version) tea.Cmd {
	prev := ""
	for i := range a.versions {
		if a.versions[i].Version == ver.Version {
			if i > 0 {
				prev = a.versions[i-1].Version
			}
			break
		}
	}

	return func() tea.Msg {
		if prev == "" {
			return messages.ComparisonLoaded{Version: ver}
		}
		cmp, err := a.ports.Versions.CompareVersions(a.ctx, a.workflowID, prev, ver.Version)
		return messages.ComparisonLoaded{Version: ver, Comparison: cmp, Err: err}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.HistoryLoaded:
		if msg.Err != nil {
			a.setError(msg.Err)
			a.historyView, cmd = a.historyView.Update(messages.ErrorOccurred{Err: msg.Err})
			return a, cmd
		}
		a.err = nil
		a.versions = msg.Versions
		a.historyView.SetHistory(msg.WorkflowID, msg.Versions)
		a.statusBar.SetHistory(msg.WorkflowID, len(msg.Versions))
		if a.currentView == messages.ViewHistory {
			a.statusBar.SetState(status.StateReady)
		}
		return a, nil

	case messages.ReloadRequested:
		a.statusBar.SetState(status.StateLoading)
		return a, a.loadHistory()

	case messages.VersionSelected:
		return a, a.loadComparison(msg.Version)

	case messages.ComparisonLoaded:
		if msg.Err != nil {
			a.setError(msg.Err)
			return a, nil
		}
		a.detailView.SetVersion(msg.Version, msg.Comparison)
		a.switchTo(messages.ViewDetail)
		return a, nil

	case messages.ViewChanged:
		a.switchTo(msg.View)
		return a, nil

	case messages.ErrorOccurred:
		a.setError(msg.Err)
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, a.keymap.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keymap.Help):
		if a.currentView == messages.ViewHelp {
			a.switchTo(messages.ViewHistory)
		} else {
			a.switchTo(messages.ViewHelp)
		}
		return a, nil
	}

	switch a.currentView {
	case messages.ViewHistory:
		a.historyView, cmd = a.historyView.Update(msg)
	case messages.ViewDetail:
		a.detailView, cmd = a.detailView.Update(msg)
	case messages.ViewHelp:
		if key.Matches(msg, a.keymap.Back) {
			a.switchTo(messages.ViewHistory)
		}
	}
	return a, cmd
}

func (a *App) switchTo(view messages.ViewType) {
	a.currentView = view
	switch view {
	case messages.ViewHistory:
		a.statusBar.SetState(status.StateReady)
	case messages.ViewDetail:
		a.statusBar.SetState(status.StateDetail)
	case messages.ViewHelp:
		a.statusBar.SetState(status.StateHelp)
	}
}

func (a *App) setError(err error) {
	a.err = err
	a.statusBar.SetError(err)
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewDetail:
		body = a.detailView.View()
	case messages.ViewHelp:
		body = a.viewHelp()
	default:
		body = a.historyView.View()
	}
	return body + "\n" + a.statusBar.View()
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-8s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Help.Render("[esc] back"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Versions returns the loaded history, oldest first.
func (a *App) Versions() []domain.Version {
	return a.versions
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.statusBar.SetWidth(width)
	a.historyView.SetDimensions(width, height)
	a.detailView.SetDimensions(width, height)
}
