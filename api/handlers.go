package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/alembic/pkg/eventstream"
	"github.com/papercomputeco/alembic/pkg/workspace"
)

const defaultNoticeLimit = 20

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleInventory returns the discovered concepts filtered by ?q=.
func (s *Server) handleInventory(c *fiber.Ctx) error {
	concepts := s.config.Inventory.Search(c.Query("q"))
	return c.JSON(InventoryResponse{
		Concepts:   concepts,
		Count:      len(concepts),
		Discovered: s.config.Inventory.Len(),
	})
}

// handleRecipes returns the recipe cache.
func (s *Server) handleRecipes(c *fiber.Ctx) error {
	recipes := s.config.Recipes.List()
	return c.JSON(RecipesResponse{Recipes: recipes, Count: len(recipes)})
}

// handleCombine combines two discovered concepts without the workspace.
func (s *Server) handleCombine(c *fiber.Ctx) error {
	var req CombineRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.A == "" || req.B == "" {
		return errorJSON(c, fiber.StatusBadRequest, "both a and b are required")
	}

	a, ok := s.config.Inventory.Get(req.A)
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "concept not discovered: "+req.A)
	}
	b, ok := s.config.Inventory.Get(req.B)
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "concept not discovered: "+req.B)
	}

	before := s.config.Inventory.Len()
	result, ok := s.config.Workspace.Discover(c.UserContext(), a, b)
	resp := CombineResponse{Combined: ok, Discovered: s.config.Inventory.Len()}
	if ok {
		resp.Result = &result
		resp.New = resp.Discovered > before
	} else {
		resp.Message = eventstream.RejectedNotice
	}
	return c.JSON(resp)
}

// handleReset restores the seed state when confirmed.
func (s *Server) handleReset(c *fiber.Ctx) error {
	var req ResetRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	if err := s.config.Workspace.ResetAll(c.UserContext(), req.Confirm); err != nil {
		return s.workspaceError(c, err)
	}

	concepts := s.config.Inventory.List()
	return c.JSON(InventoryResponse{Concepts: concepts, Count: len(concepts), Discovered: len(concepts)})
}

// handleNotices returns recent notices.
func (s *Server) handleNotices(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultNoticeLimit)
	if limit < 0 {
		return errorJSON(c, fiber.StatusBadRequest, "limit must not be negative")
	}
	return c.JSON(NoticesResponse{Notices: s.config.Notices.Recent(limit)})
}

// handleWorkspace returns every token.
func (s *Server) handleWorkspace(c *fiber.Ctx) error {
	return c.JSON(WorkspaceResponse{Tokens: s.config.Workspace.Tokens()})
}

// handleClearWorkspace removes every token.
func (s *Server) handleClearWorkspace(c *fiber.Ctx) error {
	s.config.Workspace.ClearWorkspace()
	return c.SendStatus(fiber.StatusNoContent)
}

// handleAddToken places a discovered concept on the workspace.
func (s *Server) handleAddToken(c *fiber.Ctx) error {
	var req AddTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return errorJSON(c, fiber.StatusBadRequest, "name is required")
	}

	concept, ok := s.config.Inventory.Get(req.Name)
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "concept not discovered: "+req.Name)
	}

	var token workspace.Token
	if req.X != nil && req.Y != nil {
		token = s.config.Workspace.AddTokenAt(concept, *req.X, *req.Y)
	} else {
		token = s.config.Workspace.AddToken(concept, req.ViewportWidth)
	}
	return c.Status(fiber.StatusCreated).JSON(token)
}

// handleRemoveToken deletes a token.
func (s *Server) handleRemoveToken(c *fiber.Ctx) error {
	if err := s.config.Workspace.RemoveToken(c.Params("id")); err != nil {
		return s.workspaceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleDrag applies a drag release.
func (s *Server) handleDrag(c *fiber.Ctx) error {
	var req DragRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.X == nil || req.Y == nil {
		return errorJSON(c, fiber.StatusBadRequest, "x and y are required")
	}

	res, err := s.config.Workspace.DragEnd(c.UserContext(), c.Params("id"), *req.X, *req.Y)
	if err != nil {
		return s.workspaceError(c, err)
	}
	return c.JSON(res)
}

func (s *Server) workspaceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, workspace.ErrTokenNotFound):
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, workspace.ErrTokenLoading):
		return errorJSON(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, workspace.ErrConfirmationRequired):
		return errorJSON(c, fiber.StatusPreconditionRequired, err.Error())
	case errors.Is(err, workspace.ErrBusy):
		return errorJSON(c, fiber.StatusServiceUnavailable, eventstream.RejectedNotice)
	case errors.Is(err, workspace.ErrClosed):
		return errorJSON(c, fiber.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("workspace request failed", "path", c.Path(), "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "internal error")
	}
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Error: msg})
}
