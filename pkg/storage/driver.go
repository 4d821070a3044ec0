// Package storage defines the persistence substrate for alembic: a small set of
// independently keyed string slots. Business packages (inventory, recipe) only
// ever see this interface; concrete backends live in sub-packages.
package storage

import (
	"context"
)

// Driver defines the interface for reading and writing string slots in a
// storage backend.
type Driver interface {
	// Get returns the value stored under key. Returns NotFoundError when the
	// slot has never been written (or was deleted).
	Get(ctx context.Context, key string) (string, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key, value string) error

	// Delete removes the slot. Deleting a missing slot is not an error.
	Delete(ctx context.Context, key string) error

	// Close closes the store and releases any resources.
	Close() error
}

const (
	// InventoryKey holds the serialized inventory list.
	InventoryKey = "alchemy_inventory"

	// RecipesKey holds the serialized recipe list.
	RecipesKey = "alchemy_recipes"
)
