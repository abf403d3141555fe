// Package tui provides an interactive terminal browser for a workflow's
// version history. It implements a driving adapter following hexagonal
// architecture principles.
package tui

import (
	"github.com/custodia-labs/flowver/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
type Ports struct {
	// Versions provides the history and comparisons.
	Versions driving.VersionService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Versions == nil {
		return ErrMissingVersionService
	}
	return nil
}
