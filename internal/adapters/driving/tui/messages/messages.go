// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/flowver/internal/core/domain"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewHistory lists the versions of a workflow.
	ViewHistory ViewType = iota
	// ViewDetail shows one version and its changes.
	ViewDetail
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewHistory:
		return "history"
	case ViewDetail:
		return "detail"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// ReloadRequested asks the app to re-read the history.
type ReloadRequested struct{}

// HistoryLoaded carries a workflow's versions, oldest first.
type HistoryLoaded struct {
	WorkflowID string
	Versions   []domain.Version
	Err        error
}

// VersionSelected is sent when a version is opened from the list.
type VersionSelected struct {
	Version domain.Version
}

// ComparisonLoaded carries the changes that produced Version.
// Comparison is nil for the first version of a workflow.
type ComparisonLoaded struct {
	Version    domain.Version
	Comparison *domain.Comparison
	Err        error
}
