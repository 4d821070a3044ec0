package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/alembic/pkg/element"
	"github.com/papercomputeco/alembic/pkg/eventstream"
)

var (
	combineToolName    = "combine"
	combineDescription = "Combine two discovered concepts into a new one. Both names must already be in the inventory (case-sensitive). New results are added to the inventory."

	inventoryToolName    = "inventory"
	inventoryDescription = "List discovered concepts, optionally filtered by a case-insensitive substring of the name."
)

// CombineInput represents the input arguments for the combine tool.
type CombineInput struct {
	A string `json:"a" jsonschema:"name of the first discovered concept"`
	B string `json:"b" jsonschema:"name of the second discovered concept"`
}

// CombineOutput represents the output of the combine tool.
type CombineOutput struct {
	Combined bool             `json:"combined"`
	Result   *element.Concept `json:"result,omitempty"`
	Message  string           `json:"message,omitempty"`
}

// InventoryInput represents the input arguments for the inventory tool.
type InventoryInput struct {
	Query string `json:"query,omitempty" jsonschema:"optional case-insensitive name filter"`
}

// InventoryOutput represents the output of the inventory tool.
type InventoryOutput struct {
	Concepts   []element.Concept `json:"concepts"`
	Count      int               `json:"count"`
	Discovered int               `json:"discovered"`
}

func (s *Server) handleCombine(ctx context.Context, _ *mcp.CallToolRequest, input CombineInput) (*mcp.CallToolResult, CombineOutput, error) {
	a, ok := s.config.Inventory.Get(input.A)
	if !ok {
		return toolError(fmt.Sprintf("%q has not been discovered", input.A)), CombineOutput{}, nil
	}
	b, ok := s.config.Inventory.Get(input.B)
	if !ok {
		return toolError(fmt.Sprintf("%q has not been discovered", input.B)), CombineOutput{}, nil
	}

	s.config.Logger.Debug("MCP combine request", "a", a.Name, "b", b.Name)

	result, ok := s.config.Discoverer.Discover(ctx, a, b)
	if !ok {
		return nil, CombineOutput{Message: eventstream.RejectedNotice}, nil
	}
	return nil, CombineOutput{Combined: true, Result: &result}, nil
}

func (s *Server) handleInventory(_ context.Context, _ *mcp.CallToolRequest, input InventoryInput) (*mcp.CallToolResult, InventoryOutput, error) {
	concepts := s.config.Inventory.Search(input.Query)
	return nil, InventoryOutput{
		Concepts:   concepts,
		Count:      len(concepts),
		Discovered: s.config.Inventory.Len(),
	}, nil
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
