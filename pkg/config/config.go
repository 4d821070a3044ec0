package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/alembic/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Set even when the file is missing so SaveConfig can create it.
	cfger.targetPath = path

	return cfger, nil
}

// ValidConfigKeys returns all supported configuration key names in TOML
// section order.
func ValidConfigKeys() []string {
	return slices.Clone(orderedKeys)
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads the configuration from config.toml in the target .alembic/
// directory. A missing file yields NewDefaultConfig(); fields explicitly set
// in the file override the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig().
func applyDefaults(cfg *Config) {
	d := NewDefaultConfig()

	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = d.Storage.Provider
	}

	if cfg.API.Listen == "" {
		cfg.API.Listen = d.API.Listen
	}

	if cfg.Generator.Provider == "" {
		cfg.Generator.Provider = d.Generator.Provider
	}
	if cfg.Generator.TimeoutSeconds == 0 {
		cfg.Generator.TimeoutSeconds = d.Generator.TimeoutSeconds
	}

	if cfg.Workspace.CollisionThreshold == 0 {
		cfg.Workspace.CollisionThreshold = d.Workspace.CollisionThreshold
	}
	if cfg.Workspace.RollbackOffset == 0 {
		cfg.Workspace.RollbackOffset = d.Workspace.RollbackOffset
	}
	if cfg.Workspace.NarrowViewport == 0 {
		cfg.Workspace.NarrowViewport = d.Workspace.NarrowViewport
	}
	if cfg.Workspace.Workers == 0 {
		cfg.Workspace.Workers = d.Workspace.Workers
	}
	if cfg.Workspace.QueueSize == 0 {
		cfg.Workspace.QueueSize = d.Workspace.QueueSize
	}

	if cfg.Events.Provider == "" {
		cfg.Events.Provider = d.Events.Provider
	}
	if cfg.Events.Topic == "" {
		cfg.Events.Topic = d.Events.Topic
	}
	if cfg.Events.FeedSize == 0 {
		cfg.Events.FeedSize = d.Events.FeedSize
	}

	if cfg.Client.APITarget == "" {
		cfg.Client.APITarget = d.Client.APITarget
	}
}

// SaveConfig persists the configuration to config.toml in the target .alembic/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// PresetConfig returns a default Config whose generator section targets the
// named provider. Supported presets: "gemini", "openai", "anthropic", "ollama".
func PresetConfig(name string) (*Config, error) {
	cfg := NewDefaultConfig()

	switch strings.ToLower(name) {
	case "gemini":
		cfg.Generator.Provider = "gemini"
		cfg.Generator.Model = "gemini-2.5-flash"

	case "openai":
		cfg.Generator.Provider = "openai"
		cfg.Generator.Model = "gpt-4o-mini"
		cfg.Generator.BaseURL = "https://api.openai.com/v1"

	case "anthropic":
		cfg.Generator.Provider = "anthropic"
		cfg.Generator.Model = "claude-haiku-4-5-20251001"
		cfg.Generator.BaseURL = "https://api.anthropic.com"

	case "ollama":
		cfg.Generator.Provider = "ollama"
		cfg.Generator.Model = "llama3.2"
		cfg.Generator.BaseURL = "http://localhost:11434"
		// Local models are slower to answer.
		cfg.Generator.TimeoutSeconds = 120

	default:
		return nil, fmt.Errorf("unknown preset: %q (available: %s)", name, strings.Join(ValidPresetNames(), ", "))
	}

	return cfg, nil
}

// ValidPresetNames returns the list of recognized preset names.
func ValidPresetNames() []string {
	return []string{"gemini", "openai", "anthropic", "ollama"}
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}
