package mcp

import (
	"github.com/custodia-labs/flowver/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Versions tracks workflow versions.
	Versions driving.VersionService

	// Persistence saves the store after mutating tools. Optional; without it
	// versions live only as long as the server process.
	Persistence driving.PersistenceService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Versions == nil {
		return ErrMissingVersionService
	}
	return nil
}
