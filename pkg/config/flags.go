package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline, so the same logical flag
// (e.g. --provider on "alembic serve" and "alembic combine") cannot drift.
type Flag struct {
	// Name is the long flag name (e.g. "provider").
	Name string

	// Shorthand is the one-letter short flag (e.g. "p"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "generator.provider").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling the Add*Flag helpers and
// BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagListen             = "listen"
	FlagStorageProvider    = "storage"
	FlagSQLite             = "sqlite"
	FlagPostgresDSN        = "postgres-dsn"
	FlagBadgerPath         = "badger-path"
	FlagGeneratorProvider  = "provider"
	FlagGeneratorModel     = "model"
	FlagGeneratorBaseURL   = "base-url"
	FlagGeneratorTimeout   = "timeout"
	FlagCollisionThreshold = "collision-threshold"
	FlagWorkers            = "workers"
	FlagQueueSize          = "queue-size"
	FlagEventsProvider     = "events"
	FlagKafkaBrokers       = "kafka-brokers"
	FlagKafkaTopic         = "kafka-topic"
	FlagAPITarget          = "api-target"
)

// Flags is the registry shared by every alembic command.
var Flags = FlagSet{
	FlagListen:             {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
	FlagStorageProvider:    {Name: "storage", ViperKey: "storage.provider", Description: "Storage provider (inmemory, sqlite, postgres, badger)"},
	FlagSQLite:             {Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path", Description: "Path to SQLite database (default: .alembic/alembic.sqlite)"},
	FlagPostgresDSN:        {Name: "postgres-dsn", ViperKey: "storage.postgres_dsn", Description: "PostgreSQL connection string"},
	FlagBadgerPath:         {Name: "badger-path", ViperKey: "storage.badger_path", Description: "BadgerDB directory (default: in-memory)"},
	FlagGeneratorProvider:  {Name: "provider", Shorthand: "p", ViperKey: "generator.provider", Description: "Generator provider (gemini, openai, anthropic, ollama)"},
	FlagGeneratorModel:     {Name: "model", Shorthand: "m", ViperKey: "generator.model", Description: "Generator model (default depends on provider)"},
	FlagGeneratorBaseURL:   {Name: "base-url", ViperKey: "generator.base_url", Description: "Override the generator API base URL"},
	FlagGeneratorTimeout:   {Name: "timeout", ViperKey: "generator.timeout_seconds", Description: "Generator timeout in seconds"},
	FlagCollisionThreshold: {Name: "collision-threshold", ViperKey: "workspace.collision_threshold", Description: "Drop distance below which two tokens combine"},
	FlagWorkers:            {Name: "workers", ViperKey: "workspace.workers", Description: "Concurrent combinations"},
	FlagQueueSize:          {Name: "queue-size", ViperKey: "workspace.queue_size", Description: "Pending combinations before new ones are rejected"},
	FlagEventsProvider:     {Name: "events", ViperKey: "events.provider", Description: "Event sink (nop, kafka)"},
	FlagKafkaBrokers:       {Name: "kafka-brokers", ViperKey: "events.brokers", Description: "Comma separated Kafka broker addresses"},
	FlagKafkaTopic:         {Name: "kafka-topic", ViperKey: "events.topic", Description: "Kafka topic for combination events"},
	FlagAPITarget:          {Name: "api-target", Shorthand: "a", ViperKey: "client.api_target", Description: "alembic API server URL"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultViper().GetUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddFloat64Flag registers a float64 flag on cmd from the given FlagSet.
func AddFloat64Flag(cmd *cobra.Command, fs FlagSet, registryKey string, target *float64) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultViper().GetFloat64(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().Float64VarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().Float64Var(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	return defaultViper().GetString(viperKey)
}

func defaultViper() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}
