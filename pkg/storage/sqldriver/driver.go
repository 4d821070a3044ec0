// Package sqldriver provides the database/sql slot storage shared by the SQLite
// and PostgreSQL drivers. It is dialect-aware only in its placeholders and is
// embedded by the specific drivers.
package sqldriver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/papercomputeco/alembic/pkg/storage"
)

// Dialect selects the SQL placeholder style.
type Dialect int

const (
	// SQLite uses "?" placeholders.
	SQLite Dialect = iota

	// Postgres uses "$n" placeholders.
	Postgres
)

const createTable = `CREATE TABLE IF NOT EXISTS slots (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// SQLDriver provides slot operations over a *sql.DB.
type SQLDriver struct {
	DB      *sql.DB
	Dialect Dialect
}

// Migrate creates the slots table if it is missing.
func (d *SQLDriver) Migrate(ctx context.Context) error {
	if _, err := d.DB.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Get returns the value stored under key.
func (d *SQLDriver) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := d.DB.QueryRowContext(ctx, d.bind("SELECT value FROM slots WHERE key = ?"), key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", storage.NotFoundError{Key: key}
		}
		return "", fmt.Errorf("failed to get slot: %w", err)
	}
	return value, nil
}

// Put upserts value under key.
func (d *SQLDriver) Put(ctx context.Context, key, value string) error {
	query := d.bind(`INSERT INTO slots (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)

	if _, err := d.DB.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to put slot: %w", err)
	}
	return nil
}

// Delete removes the slot if present.
func (d *SQLDriver) Delete(ctx context.Context, key string) error {
	if _, err := d.DB.ExecContext(ctx, d.bind("DELETE FROM slots WHERE key = ?"), key); err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (d *SQLDriver) Close() error {
	return d.DB.Close()
}

// bind rewrites "?" placeholders into the dialect's style.
func (d *SQLDriver) bind(query string) string {
	if d.Dialect != Postgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
