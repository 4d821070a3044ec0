package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
)

// Server is the API server for the alembic workspace.
type Server struct {
	config Config
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server.
func NewServer(config Config, logger *slog.Logger) (*Server, error) {
	if config.Workspace == nil {
		return nil, errors.New("workspace is required")
	}
	if config.Inventory == nil {
		return nil, errors.New("inventory is required")
	}
	if config.Recipes == nil {
		return nil, errors.New("recipe cache is required")
	}
	if config.Notices == nil {
		return nil, errors.New("notice feed is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/inventory", s.handleInventory)
	app.Get("/recipes", s.handleRecipes)
	app.Post("/combine", s.handleCombine)
	app.Post("/reset", s.handleReset)
	app.Get("/notices", s.handleNotices)

	app.Get("/workspace", s.handleWorkspace)
	app.Delete("/workspace", s.handleClearWorkspace)
	app.Post("/workspace/tokens", s.handleAddToken)
	app.Delete("/workspace/tokens/:id", s.handleRemoveToken)
	app.Post("/workspace/tokens/:id/drag", s.handleDrag)

	if config.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(config.Metrics.Handler()))
	}
	if config.MCPHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCPHandler))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
