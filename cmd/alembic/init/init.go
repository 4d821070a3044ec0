// Package initcmder provides the init command for initializing a local .alembic
// directory in the current working directory.
package initcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/alembic/pkg/cliui"
	"github.com/papercomputeco/alembic/pkg/config"
)

const (
	dirName = ".alembic"

	remoteTimeout = 10 * time.Second

	// maxRemoteConfig bounds a fetched config.toml.
	maxRemoteConfig = 1 << 20
)

const initLongDesc string = `Initialize a new .alembic/ directory in the current working directory.

Creates a local .alembic/ directory that takes precedence over the default
~/.alembic/ directory for configuration, credentials and the SQLite
database, and writes a config.toml with default values.

Use --preset to start from a generator preset or a config.toml served over
HTTP. A preset overwrites an existing config.toml.

Available presets: gemini, openai, anthropic, ollama

Examples:
  alembic init
  alembic init --preset ollama
  alembic init --preset https://example.com/alembic/config.toml`

const initShortDesc string = "Initialize a local .alembic/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.Context(), cmd.OutOrStdout(), preset)
		},
		ValidArgsFunction: cobra.NoFileCompletions,
	}

	cmd.Flags().StringVar(&preset, "preset", "", "Generator preset name or URL of a config.toml")
	_ = cmd.RegisterFlagCompletionFunc("preset", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.ValidPresetNames(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runInit(ctx context.Context, out io.Writer, preset string) error {
	// Resolve the preset first so a bad one leaves nothing behind.
	var cfg *config.Config
	if preset != "" {
		var err error
		cfg, err = loadPreset(ctx, preset)
		if err != nil {
			return err
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}
	dir := filepath.Join(cwd, dirName)

	existed := false
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		existed = true
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .alembic directory: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	_, statErr := os.Stat(cfger.GetTarget())
	hasConfig := statErr == nil

	switch {
	case cfg != nil:
		if err := cfger.SaveConfig(cfg); err != nil {
			return err
		}
	case !hasConfig:
		if err := cfger.SaveConfig(config.NewDefaultConfig()); err != nil {
			return err
		}
	}

	if existed {
		fmt.Fprintf(out, "  %s Already initialized: %s\n", cliui.SuccessMark, cliui.DimStyle.Render(dir))
	} else {
		fmt.Fprintf(out, "  %s Initialized .alembic directory: %s\n", cliui.SuccessMark, cliui.DimStyle.Render(dir))
	}
	if cfg != nil {
		fmt.Fprintf(out, "  %s Wrote %s from preset %s\n",
			cliui.SuccessMark,
			cliui.KeyStyle.Render("config.toml"),
			cliui.ValueStyle.Render(preset),
		)
	}
	return nil
}

func loadPreset(ctx context.Context, preset string) (*config.Config, error) {
	if strings.HasPrefix(preset, "http://") || strings.HasPrefix(preset, "https://") {
		return fetchRemoteConfig(ctx, preset)
	}
	return config.PresetConfig(preset)
}

func fetchRemoteConfig(ctx context.Context, url string) (*config.Config, error) {
	ctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteConfig+1))
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	if len(data) > maxRemoteConfig {
		return nil, errors.New("fetching remote config: larger than 1MiB")
	}

	return config.ParseConfigTOML(data)
}
