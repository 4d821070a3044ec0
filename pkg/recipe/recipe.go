// Package recipe holds the deduplicating recipe cache: a persisted list of
// unordered concept-name pairs and the concept each pair produced.
package recipe

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"

	"github.com/papercomputeco/alembic/pkg/element"
	"github.com/papercomputeco/alembic/pkg/logger"
	"github.com/papercomputeco/alembic/pkg/storage"
)

// Recipe records the result of combining the two sorted input names.
type Recipe struct {
	Inputs element.Pair    `json:"inputs"`
	Result element.Concept `json:"result"`
}

// Cache is an insertion-ordered recipe list backed by a storage slot.
// It is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	recipes []Recipe
	epoch   uint64

	driver storage.Driver
	logger *slog.Logger
}

// New builds a cache and rehydrates it from the recipes slot. A missing or
// unreadable slot leaves the cache empty.
func New(ctx context.Context, driver storage.Driver, log *slog.Logger) *Cache {
	if log == nil {
		log = logger.Nop()
	}
	c := &Cache{
		driver: driver,
		logger: log,
	}
	c.load(ctx)
	return c
}

func (c *Cache) load(ctx context.Context) {
	raw, err := c.driver.Get(ctx, storage.RecipesKey)
	if err != nil {
		if !storage.IsNotFound(err) {
			c.logger.Warn("failed to read recipes, starting empty", "error", err)
		}
		return
	}

	var recipes []Recipe
	if err := json.Unmarshal([]byte(raw), &recipes); err != nil {
		c.logger.Warn("discarding unreadable recipes", "error", err)
		return
	}
	c.recipes = recipes
	c.logger.Debug("loaded recipes", "count", len(recipes))
}

// Lookup returns the result stored for the unordered pair (a, b). The first
// matching recipe in insertion order wins.
func (c *Cache) Lookup(a, b string) (element.Concept, bool) {
	pair := element.NewPair(a, b)

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, r := range c.recipes {
		if r.Inputs == pair {
			return r.Result, true
		}
	}
	return element.Concept{}, false
}

// Record appends a recipe for the unordered pair (a, b) and persists the list.
// It does not check for an existing entry.
func (c *Cache) Record(ctx context.Context, a, b string, result element.Concept) {
	c.mu.Lock()
	c.appendLocked(ctx, a, b, result)
	c.mu.Unlock()
}

// RecordAt is Record guarded by an epoch read earlier from Epoch. When the
// cache has been reset since, the recipe is dropped and false is returned.
func (c *Cache) RecordAt(ctx context.Context, epoch uint64, a, b string, result element.Concept) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		c.logger.Debug("dropping recipe computed before reset", "a", a, "b", b)
		return false
	}
	c.appendLocked(ctx, a, b, result)
	return true
}

func (c *Cache) appendLocked(ctx context.Context, a, b string, result element.Concept) {
	c.recipes = append(c.recipes, Recipe{Inputs: element.NewPair(a, b), Result: result})
	c.persistLocked(ctx)
}

// Epoch returns the reset generation of the cache.
func (c *Cache) Epoch() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch
}

// List returns a copy of all recipes in insertion order.
func (c *Cache) List() []Recipe {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.recipes)
}

// Len returns the number of stored recipes.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.recipes)
}

// Reset empties the cache, deletes the persisted slot and advances the epoch.
func (c *Cache) Reset(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.recipes = nil
	c.epoch++
	if err := c.driver.Delete(ctx, storage.RecipesKey); err != nil {
		c.logger.Warn("failed to delete recipes", "error", err)
	}
}

func (c *Cache) persistLocked(ctx context.Context) {
	data, err := json.Marshal(c.recipes)
	if err != nil {
		c.logger.Warn("failed to encode recipes", "error", err)
		return
	}
	if err := c.driver.Put(ctx, storage.RecipesKey, string(data)); err != nil {
		c.logger.Warn("failed to persist recipes", "error", err)
	}
}
