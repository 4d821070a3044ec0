// Package feed keeps the most recent user-visible notices in memory so the
// API can show them.
package feed

import (
	"context"
	"sync"

	"github.com/papercomputeco/alembic/pkg/eventstream"
)

const defaultSize = 50

// Publisher is a bounded ring of events that carry a notice message.
type Publisher struct {
	mu     sync.RWMutex
	events []eventstream.CombinationEvent
	next   int
	full   bool
}

// NewPublisher creates a feed that keeps the last size notices.
func NewPublisher(size int) *Publisher {
	if size <= 0 {
		size = defaultSize
	}
	return &Publisher{events: make([]eventstream.CombinationEvent, size)}
}

// Publish records event when it carries a notice message.
func (p *Publisher) Publish(_ context.Context, event *eventstream.CombinationEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	if event.Message == "" {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.events[p.next] = *event
	p.next = (p.next + 1) % len(p.events)
	if p.next == 0 {
		p.full = true
	}
	return nil
}

// Recent returns up to limit notices, newest first. A non-positive limit
// returns everything retained.
func (p *Publisher) Recent(limit int) []eventstream.CombinationEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()

	count := p.next
	if p.full {
		count = len(p.events)
	}
	if limit <= 0 || limit > count {
		limit = count
	}

	out := make([]eventstream.CombinationEvent, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (p.next - i + len(p.events)) % len(p.events)
		out = append(out, p.events[idx])
	}
	return out
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
