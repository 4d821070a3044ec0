package storageutils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/alembic/pkg/storage"
	"github.com/papercomputeco/alembic/pkg/storage/badger"
	"github.com/papercomputeco/alembic/pkg/storage/inmemory"
	"github.com/papercomputeco/alembic/pkg/storage/postgres"
	"github.com/papercomputeco/alembic/pkg/storage/sqlite"
)

// Supported storage providers.
const (
	ProviderInMemory = "inmemory"
	ProviderSQLite   = "sqlite"
	ProviderPostgres = "postgres"
	ProviderBadger   = "badger"
)

type NewDriverOpts struct {
	ProviderType string
	SQLitePath   string
	PostgresDSN  string
	BadgerPath   string
	Logger       *slog.Logger
}

// NewDriver builds the storage driver named by o.ProviderType. An empty
// provider picks sqlite when a path is set and in-memory otherwise.
func NewDriver(ctx context.Context, o *NewDriverOpts) (storage.Driver, error) {
	provider := o.ProviderType
	if provider == "" {
		provider = ProviderInMemory
		if o.SQLitePath != "" {
			provider = ProviderSQLite
		}
	}

	switch provider {
	case ProviderInMemory:
		return inmemory.NewDriver(), nil
	case ProviderSQLite:
		if o.SQLitePath == "" {
			return nil, errors.New("sqlite provider requires a database path")
		}
		driver, err := sqlite.NewDriver(ctx, o.SQLitePath)
		if err != nil {
			return nil, err
		}
		return driver, nil
	case ProviderPostgres:
		if o.PostgresDSN == "" {
			return nil, errors.New("postgres provider requires a connection string")
		}
		driver, err := postgres.NewDriver(ctx, o.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return driver, nil
	case ProviderBadger:
		driver, err := badger.NewDriver(o.BadgerPath, o.Logger)
		if err != nil {
			return nil, err
		}
		return driver, nil
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", provider)
	}
}

// SupportedProviders lists the provider names NewDriver accepts.
func SupportedProviders() []string {
	return []string{ProviderInMemory, ProviderSQLite, ProviderPostgres, ProviderBadger}
}
