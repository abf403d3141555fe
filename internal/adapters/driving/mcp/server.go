package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/flowver/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// Server is the MCP server for flowver.
type Server struct {
	ports  *Ports
	server *mcp.Server
	log    *logger.Scoped
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "flowver",
		Version: Version,
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(impl, nil),
		log:    logger.For("mcp"),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// save persists the store after a mutating tool, when persistence is wired.
func (s *Server) save(ctx context.Context) error {
	if s.ports.Persistence == nil {
		return nil
	}
	if err := s.ports.Persistence.Save(ctx); err != nil {
		return fmt.Errorf("saving store: %w", err)
	}
	return nil
}
