package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent alembic configuration stored as config.toml
// in the .alembic/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	Storage   StorageConfig   `toml:"storage"`
	API       APIConfig       `toml:"api"`
	Generator GeneratorConfig `toml:"generator"`
	Workspace WorkspaceConfig `toml:"workspace"`
	Events    EventsConfig    `toml:"events"`
	Client    ClientConfig    `toml:"client"`
}

// StorageConfig selects and configures the persistence driver.
type StorageConfig struct {
	Provider    string `toml:"provider,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
	BadgerPath  string `toml:"badger_path,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// GeneratorConfig configures the LLM that invents new concepts.
type GeneratorConfig struct {
	Provider       string `toml:"provider,omitempty"`
	Model          string `toml:"model,omitempty"`
	BaseURL        string `toml:"base_url,omitempty"`
	TimeoutSeconds uint   `toml:"timeout_seconds,omitempty"`
}

// WorkspaceConfig tunes collision detection and the combination worker pool.
type WorkspaceConfig struct {
	CollisionThreshold float64 `toml:"collision_threshold,omitempty"`
	RollbackOffset     float64 `toml:"rollback_offset,omitempty"`
	NarrowViewport     uint    `toml:"narrow_viewport,omitempty"`
	Workers            uint    `toml:"workers,omitempty"`
	QueueSize          uint    `toml:"queue_size,omitempty"`
}

// EventsConfig selects where combination events are published. The in-memory
// notice feed is always attached; Provider adds an external sink.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
	FeedSize uint   `toml:"feed_size,omitempty"`
}

// ClientConfig holds settings for CLI commands that talk to a running
// alembic API server. Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

func floatKey(name string, field func(c *Config) *float64) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatFloat(*field(c), 'g', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			if f <= 0 {
				return fmt.Errorf("invalid value for %s: must be positive", name)
			}
			*field(c) = f
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.provider":     stringKey(func(c *Config) *string { return &c.Storage.Provider }),
	"storage.sqlite_path":  stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"storage.postgres_dsn": stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),
	"storage.badger_path":  stringKey(func(c *Config) *string { return &c.Storage.BadgerPath }),

	"api.listen": stringKey(func(c *Config) *string { return &c.API.Listen }),

	"generator.provider": stringKey(func(c *Config) *string { return &c.Generator.Provider }),
	"generator.model":    stringKey(func(c *Config) *string { return &c.Generator.Model }),
	"generator.base_url": stringKey(func(c *Config) *string { return &c.Generator.BaseURL }),
	"generator.timeout_seconds": uintKey("generator.timeout_seconds",
		func(c *Config) *uint { return &c.Generator.TimeoutSeconds }),

	"workspace.collision_threshold": floatKey("workspace.collision_threshold",
		func(c *Config) *float64 { return &c.Workspace.CollisionThreshold }),
	"workspace.rollback_offset": floatKey("workspace.rollback_offset",
		func(c *Config) *float64 { return &c.Workspace.RollbackOffset }),
	"workspace.narrow_viewport": uintKey("workspace.narrow_viewport",
		func(c *Config) *uint { return &c.Workspace.NarrowViewport }),
	"workspace.workers": uintKey("workspace.workers",
		func(c *Config) *uint { return &c.Workspace.Workers }),
	"workspace.queue_size": uintKey("workspace.queue_size",
		func(c *Config) *uint { return &c.Workspace.QueueSize }),

	"events.provider": stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers":  stringKey(func(c *Config) *string { return &c.Events.Brokers }),
	"events.topic":    stringKey(func(c *Config) *string { return &c.Events.Topic }),
	"events.feed_size": uintKey("events.feed_size",
		func(c *Config) *uint { return &c.Events.FeedSize }),

	"client.api_target": stringKey(func(c *Config) *string { return &c.Client.APITarget }),
}

// orderedKeys lists configKeys in TOML section order.
var orderedKeys = []string{
	"storage.provider",
	"storage.sqlite_path",
	"storage.postgres_dsn",
	"storage.badger_path",
	"api.listen",
	"generator.provider",
	"generator.model",
	"generator.base_url",
	"generator.timeout_seconds",
	"workspace.collision_threshold",
	"workspace.rollback_offset",
	"workspace.narrow_viewport",
	"workspace.workers",
	"workspace.queue_size",
	"events.provider",
	"events.brokers",
	"events.topic",
	"events.feed_size",
	"client.api_target",
}
