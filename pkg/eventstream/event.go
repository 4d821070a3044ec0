// Package eventstream defines the transport-neutral combination events the
// workspace emits and the Publisher interface that carries them.
package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/alembic/pkg/element"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeCombinationResolved is emitted after a combination produced a concept.
	EventTypeCombinationResolved = "alembic.combination.resolved"

	// EventTypeCombinationRejected is emitted when two concepts do not combine.
	EventTypeCombinationRejected = "alembic.combination.rejected"

	// RejectedNotice is the user-visible message for a failed combination.
	RejectedNotice = "These elements refuse to combine!"
)

// Result sources.
const (
	SourceCache     = "cache"
	SourceGenerator = "generator"
)

// CombinationEvent describes the outcome of one combination attempt.
type CombinationEvent struct {
	SchemaVersion int                `json:"schema_version"`
	EventType     string             `json:"event_type"`
	EventID       string             `json:"event_id"`
	EmittedAt     time.Time          `json:"emitted_at"`
	Inputs        [2]element.Concept `json:"inputs"`
	Result        *element.Concept   `json:"result,omitempty"`
	Source        string             `json:"source,omitempty"`
	Discovered    bool               `json:"discovered"`
	TokenID       string             `json:"token_id,omitempty"`
	Message       string             `json:"message,omitempty"`
	Reason        string             `json:"reason,omitempty"`
}

// Pair returns the sorted input names, which double as the partition key.
func (e *CombinationEvent) Pair() element.Pair {
	return element.NewPair(e.Inputs[0].Name, e.Inputs[1].Name)
}

// NewResolvedEvent builds the event for a successful combination. tokenID is
// empty for combinations that did not happen on the workspace.
func NewResolvedEvent(a, b, result element.Concept, source string, discovered bool, tokenID string) *CombinationEvent {
	return &CombinationEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeCombinationResolved,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Inputs:        [2]element.Concept{a, b},
		Result:        &result,
		Source:        source,
		Discovered:    discovered,
		TokenID:       tokenID,
	}
}

// NewRejectedEvent builds the event for a failed combination. It carries the
// user-visible RejectedNotice.
func NewRejectedEvent(a, b element.Concept, reason, tokenID string) *CombinationEvent {
	return &CombinationEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeCombinationRejected,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Inputs:        [2]element.Concept{a, b},
		TokenID:       tokenID,
		Message:       RejectedNotice,
		Reason:        reason,
	}
}
