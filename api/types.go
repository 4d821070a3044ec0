package api

import (
	"github.com/papercomputeco/alembic/pkg/element"
	"github.com/papercomputeco/alembic/pkg/eventstream"
	"github.com/papercomputeco/alembic/pkg/recipe"
	"github.com/papercomputeco/alembic/pkg/workspace"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// InventoryResponse lists concepts. Discovered counts the whole inventory,
// regardless of the query filter.
type InventoryResponse struct {
	Concepts   []element.Concept `json:"concepts"`
	Count      int               `json:"count"`
	Discovered int               `json:"discovered"`
}

// RecipesResponse lists every cached recipe in insertion order.
type RecipesResponse struct {
	Recipes []recipe.Recipe `json:"recipes"`
	Count   int             `json:"count"`
}

// CombineRequest names two discovered concepts.
type CombineRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

// CombineResponse reports a combination outside the workspace.
type CombineResponse struct {
	Combined   bool             `json:"combined"`
	Result     *element.Concept `json:"result,omitempty"`
	New        bool             `json:"new"`
	Message    string           `json:"message,omitempty"`
	Discovered int              `json:"discovered"`
}

// WorkspaceResponse lists the tokens on the workspace.
type WorkspaceResponse struct {
	Tokens []workspace.Token `json:"tokens"`
}

// AddTokenRequest places a discovered concept on the workspace. With both X
// and Y set the token lands there, otherwise at the spawn position for
// ViewportWidth.
type AddTokenRequest struct {
	Name          string   `json:"name"`
	ViewportWidth float64  `json:"viewport_width,omitempty"`
	X             *float64 `json:"x,omitempty"`
	Y             *float64 `json:"y,omitempty"`
}

// DragRequest carries the drop position of a drag.
type DragRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// ResetRequest must carry Confirm to reset.
type ResetRequest struct {
	Confirm bool `json:"confirm"`
}

// NoticesResponse lists recent user-visible notices, newest first.
type NoticesResponse struct {
	Notices []eventstream.CombinationEvent `json:"notices"`
}
