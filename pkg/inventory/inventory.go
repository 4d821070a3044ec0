// Package inventory tracks the ordered, unique set of discovered concepts.
package inventory

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/papercomputeco/alembic/pkg/element"
	"github.com/papercomputeco/alembic/pkg/logger"
	"github.com/papercomputeco/alembic/pkg/storage"
)

// Inventory is the user's collection of discovered concepts, unique by name
// and ordered by discovery. It is safe for concurrent use.
type Inventory struct {
	mu       sync.RWMutex
	concepts []element.Concept

	driver storage.Driver
	logger *slog.Logger
}

// New builds an inventory from the inventory slot, falling back to the seed
// set when the slot is missing, unreadable or empty.
func New(ctx context.Context, driver storage.Driver, log *slog.Logger) *Inventory {
	if log == nil {
		log = logger.Nop()
	}
	inv := &Inventory{
		driver: driver,
		logger: log,
	}
	inv.concepts = inv.load(ctx)
	return inv
}

func (inv *Inventory) load(ctx context.Context) []element.Concept {
	raw, err := inv.driver.Get(ctx, storage.InventoryKey)
	if err != nil {
		if !storage.IsNotFound(err) {
			inv.logger.Warn("failed to read inventory, using seed", "error", err)
		}
		return element.Seed()
	}

	var stored []element.Concept
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		inv.logger.Warn("discarding unreadable inventory", "error", err)
		return element.Seed()
	}

	// Drop duplicate names a hand-edited slot may carry.
	concepts := make([]element.Concept, 0, len(stored))
	seen := make(map[string]struct{}, len(stored))
	for _, c := range stored {
		if _, ok := seen[c.Name]; ok {
			continue
		}
		seen[c.Name] = struct{}{}
		concepts = append(concepts, c)
	}
	if len(concepts) == 0 {
		return element.Seed()
	}
	return concepts
}

// Add appends c when no concept with the same name is present. It reports
// whether c was newly discovered.
func (inv *Inventory) Add(ctx context.Context, c element.Concept) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if inv.indexLocked(c.Name) >= 0 {
		return false
	}
	inv.concepts = append(inv.concepts, c)
	inv.persistLocked(ctx)
	return true
}

// Has reports whether a concept named name has been discovered.
func (inv *Inventory) Has(name string) bool {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.indexLocked(name) >= 0
}

// Get returns the discovered concept named name.
func (inv *Inventory) Get(name string) (element.Concept, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	i := inv.indexLocked(name)
	if i < 0 {
		return element.Concept{}, false
	}
	return inv.concepts[i], true
}

// List returns a copy of the inventory in discovery order.
func (inv *Inventory) List() []element.Concept {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return slices.Clone(inv.concepts)
}

// Search returns concepts whose name contains query, ignoring case. An empty
// query returns everything.
func (inv *Inventory) Search(query string) []element.Concept {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return inv.List()
	}

	inv.mu.RLock()
	defer inv.mu.RUnlock()

	var matches []element.Concept
	for _, c := range inv.concepts {
		if strings.Contains(strings.ToLower(c.Name), query) {
			matches = append(matches, c)
		}
	}
	return matches
}

// Len returns the number of discovered concepts.
func (inv *Inventory) Len() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return len(inv.concepts)
}

// Reset restores the seed set and persists it.
func (inv *Inventory) Reset(ctx context.Context) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	inv.concepts = element.Seed()
	inv.persistLocked(ctx)
}

func (inv *Inventory) indexLocked(name string) int {
	return slices.IndexFunc(inv.concepts, func(c element.Concept) bool {
		return c.Name == name
	})
}

func (inv *Inventory) persistLocked(ctx context.Context) {
	data, err := json.Marshal(inv.concepts)
	if err != nil {
		inv.logger.Warn("failed to encode inventory", "error", err)
		return
	}
	if err := inv.driver.Put(ctx, storage.InventoryKey, string(data)); err != nil {
		inv.logger.Warn("failed to persist inventory", "error", err)
	}
}
