// Package inmemory provides a map-backed storage driver. Nothing survives the
// process; it is the default when no persistent backend is configured.
package inmemory

import (
	"context"
	"sync"

	"github.com/papercomputeco/alembic/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu is a read write sync mutex for locking the mapping of slots
	mu sync.RWMutex

	slots map[string]string
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		slots: make(map[string]string),
	}
}

// Get returns the value stored under key.
func (d *Driver) Get(_ context.Context, key string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	value, ok := d.slots[key]
	if !ok {
		return "", storage.NotFoundError{Key: key}
	}

	return value, nil
}

// Put stores value under key.
func (d *Driver) Put(_ context.Context, key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.slots[key] = value
	return nil
}

// Delete removes the slot if present.
func (d *Driver) Delete(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.slots, key)
	return nil
}

// Count returns the number of slots currently held.
func (d *Driver) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.slots)
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}
