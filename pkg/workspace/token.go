package workspace

import (
	"github.com/google/uuid"

	"github.com/papercomputeco/alembic/pkg/element"
)

// Token is a concept placed on the workspace at a free 2D position.
type Token struct {
	ID      string          `json:"id"`
	Concept element.Concept `json:"concept"`
	X       float64         `json:"x"`
	Y       float64         `json:"y"`
	Loading bool            `json:"is_loading"`
}

func newToken(c element.Concept, x, y float64) Token {
	return Token{ID: uuid.NewString(), Concept: c, X: x, Y: y}
}

func newLoadingToken(x, y float64) Token {
	t := newToken(element.Loading, x, y)
	t.Loading = true
	return t
}
