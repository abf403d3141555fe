// Package mcp provides an MCP (Model Context Protocol) server adapter for flowver.
// It lets AI assistants version, compare and inspect workflow documents.
package mcp

import "errors"

// ErrMissingVersionService is returned when the version service is not provided.
var ErrMissingVersionService = errors.New("mcp: version service is required")
