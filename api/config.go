// Package api provides the HTTP API for the alembic workspace.
package api

import (
	"net/http"

	"github.com/papercomputeco/alembic/pkg/eventstream/feed"
	"github.com/papercomputeco/alembic/pkg/inventory"
	"github.com/papercomputeco/alembic/pkg/metrics"
	"github.com/papercomputeco/alembic/pkg/recipe"
	"github.com/papercomputeco/alembic/pkg/workspace"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	Workspace *workspace.Controller
	Inventory *inventory.Inventory
	Recipes   *recipe.Cache

	// Notices backs GET /notices.
	Notices *feed.Publisher

	// Metrics is served on /metrics when set.
	Metrics *metrics.Recorder

	// MCPHandler is mounted on /mcp when set.
	MCPHandler http.Handler
}
