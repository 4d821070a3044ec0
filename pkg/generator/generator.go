// Package generator invents a new concept from two inputs by asking an LLM
// provider. Every failure mode (transport error, timeout, empty or malformed
// payload, open circuit) is reported as an error.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/alembic/pkg/element"
	"github.com/papercomputeco/alembic/pkg/logger"
	"github.com/papercomputeco/alembic/pkg/utils"
)

var (
	// ErrEmptyResponse is returned when the provider answers with no content.
	ErrEmptyResponse = errors.New("generator returned an empty response")

	// ErrInvalidPayload is returned when the response is not a valid concept.
	ErrInvalidPayload = errors.New("generator returned an invalid concept")
)

// Generator produces the concept that results from combining a and b.
type Generator interface {
	Generate(ctx context.Context, a, b element.Concept) (element.Concept, error)
}

// Func adapts a plain function to the Generator interface.
type Func func(ctx context.Context, a, b element.Concept) (element.Concept, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, a, b element.Concept) (element.Concept, error) {
	return f(ctx, a, b)
}

// CallFunc sends a prompt to an LLM and returns its raw text response.
type CallFunc func(ctx context.Context, prompt string) (string, error)

// LLMGenerator turns a CallFunc into a Generator by building the combination
// prompt and validating the JSON reply.
type LLMGenerator struct {
	call   CallFunc
	logger *slog.Logger
}

// NewLLMGenerator wraps call. A nil logger discards output.
func NewLLMGenerator(call CallFunc, log *slog.Logger) *LLMGenerator {
	if log == nil {
		log = logger.Nop()
	}
	return &LLMGenerator{call: call, logger: log}
}

// Generate asks the LLM to combine a and b.
func (g *LLMGenerator) Generate(ctx context.Context, a, b element.Concept) (element.Concept, error) {
	response, err := g.call(ctx, BuildPrompt(a, b))
	if err != nil {
		return element.Concept{}, err
	}

	c, err := ParseConcept(response)
	if err != nil {
		g.logger.Debug("rejected generator response", "a", a.Name, "b", b.Name, "response", utils.Truncate(response, 200), "error", err)
		return element.Concept{}, err
	}
	return c, nil
}

// BuildPrompt renders the combination instructions for a and b.
func BuildPrompt(a, b element.Concept) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Combine these two elements into a new single concrete object, concept, or phenomenon: %q and %q.\n\n", a.Name, b.Name)
	sb.WriteString("Rules:\n")
	sb.WriteString("1. Result must be a noun.\n")
	sb.WriteString("2. Result must be distinct from the inputs if possible, but logical.\n")
	sb.WriteString("3. If they don't strictly combine physically, use metaphorical or conceptual association.\n")
	sb.WriteString("4. Provide a relevant emoji.\n")
	sb.WriteString("5. Keep the name short (1-3 words).\n\n")
	sb.WriteString("Return ONLY valid JSON of the form {\"name\": \"...\", \"emoji\": \"...\"}.")
	return sb.String()
}

// ParseConcept extracts the JSON object from response (which may be wrapped
// in prose or markdown fences), normalizes it and validates it.
func ParseConcept(response string) (element.Concept, error) {
	jsonStr := strings.TrimSpace(response)
	if jsonStr == "" {
		return element.Concept{}, ErrEmptyResponse
	}
	if idx := strings.Index(jsonStr, "{"); idx >= 0 {
		if endIdx := strings.LastIndex(jsonStr, "}"); endIdx > idx {
			jsonStr = jsonStr[idx : endIdx+1]
		}
	}

	var c element.Concept
	if err := json.Unmarshal([]byte(jsonStr), &c); err != nil {
		return element.Concept{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	c = c.Normalize()
	if err := element.Validate(c); err != nil {
		return element.Concept{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return c, nil
}
