package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/alembic/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the ALEMBIC_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (ALEMBIC_API_LISTEN, ALEMBIC_GENERATOR_PROVIDER, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	v.AddConfigPath(target)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("ALEMBIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes the effective Config from v.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Storage: StorageConfig{
			Provider:    v.GetString("storage.provider"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
			BadgerPath:  v.GetString("storage.badger_path"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Generator: GeneratorConfig{
			Provider:       v.GetString("generator.provider"),
			Model:          v.GetString("generator.model"),
			BaseURL:        v.GetString("generator.base_url"),
			TimeoutSeconds: v.GetUint("generator.timeout_seconds"),
		},
		Workspace: WorkspaceConfig{
			CollisionThreshold: v.GetFloat64("workspace.collision_threshold"),
			RollbackOffset:     v.GetFloat64("workspace.rollback_offset"),
			NarrowViewport:     v.GetUint("workspace.narrow_viewport"),
			Workers:            v.GetUint("workspace.workers"),
			QueueSize:          v.GetUint("workspace.queue_size"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  v.GetString("events.brokers"),
			Topic:    v.GetString("events.topic"),
			FeedSize: v.GetUint("events.feed_size"),
		},
		Client: ClientConfig{
			APITarget: v.GetString("client.api_target"),
		},
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Storage
	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)
	v.SetDefault("storage.badger_path", d.Storage.BadgerPath)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Generator
	v.SetDefault("generator.provider", d.Generator.Provider)
	v.SetDefault("generator.model", d.Generator.Model)
	v.SetDefault("generator.base_url", d.Generator.BaseURL)
	v.SetDefault("generator.timeout_seconds", d.Generator.TimeoutSeconds)

	// Workspace
	v.SetDefault("workspace.collision_threshold", d.Workspace.CollisionThreshold)
	v.SetDefault("workspace.rollback_offset", d.Workspace.RollbackOffset)
	v.SetDefault("workspace.narrow_viewport", d.Workspace.NarrowViewport)
	v.SetDefault("workspace.workers", d.Workspace.Workers)
	v.SetDefault("workspace.queue_size", d.Workspace.QueueSize)

	// Events
	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
	v.SetDefault("events.feed_size", d.Events.FeedSize)

	// Client
	v.SetDefault("client.api_target", d.Client.APITarget)
}
