package eventstream

import (
	"context"
	"errors"
)

// Publisher publishes combination events to an event stream backend.
type Publisher interface {
	Publish(ctx context.Context, event *CombinationEvent) error
	Close() error
}

// Fanout publishes every event to all of its publishers.
type Fanout struct {
	publishers []Publisher
}

// NewFanout creates a publisher that forwards to each of pubs in order.
func NewFanout(pubs ...Publisher) *Fanout {
	return &Fanout{publishers: pubs}
}

// Publish forwards event to every publisher and joins their errors.
func (f *Fanout) Publish(ctx context.Context, event *CombinationEvent) error {
	if event == nil {
		return ErrNilEvent
	}

	var errs []error
	for _, p := range f.publishers {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every publisher and joins their errors.
func (f *Fanout) Close() error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
