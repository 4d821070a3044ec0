// Package mcp exposes alembic's combination and inventory operations as MCP
// tools.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/alembic/pkg/element"
	"github.com/papercomputeco/alembic/pkg/inventory"
	"github.com/papercomputeco/alembic/pkg/utils"
)

// Discoverer combines two discovered concepts outside the workspace.
type Discoverer interface {
	Discover(ctx context.Context, a, b element.Concept) (element.Concept, bool)
}

type Config struct {
	// Discoverer runs combinations (usually the workspace controller).
	Discoverer Discoverer

	// Inventory holds the discovered concepts.
	Inventory *inventory.Inventory

	// Logger is the configured slog logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the combine and inventory tools.
func NewServer(c Config) (*Server, error) {
	if c.Discoverer == nil {
		return nil, errors.New("discoverer is required")
	}
	if c.Inventory == nil {
		return nil, errors.New("inventory is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "alembic",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        combineToolName,
		Description: combineDescription,
	}, s.handleCombine)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        inventoryToolName,
		Description: inventoryDescription,
	}, s.handleInventory)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
