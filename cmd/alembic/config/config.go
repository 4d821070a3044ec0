// Package configcmder provides the config command for managing persistent
// alembic configuration stored in the .alembic/ directory.
package configcmder

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/alembic/pkg/cliui"
	"github.com/papercomputeco/alembic/pkg/config"
)

const configLongDesc string = `Manage persistent alembic configuration.

Configuration is stored as config.toml in the .alembic/ directory and provides
default values for command flags. CLI flags and ALEMBIC_* environment
variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  storage.provider, storage.sqlite_path, storage.postgres_dsn, storage.badger_path,
  api.listen,
  generator.provider, generator.model, generator.base_url, generator.timeout_seconds,
  workspace.collision_threshold, workspace.rollback_offset, workspace.narrow_viewport,
  workspace.workers, workspace.queue_size,
  events.provider, events.brokers, events.topic, events.feed_size,
  client.api_target

Use subcommands to get, set, or list configuration values:
  alembic config set <key> <value>    Set a configuration value
  alembic config get <key>            Get a configuration value
  alembic config list                 List all configuration values

Examples:
  alembic config set generator.provider openai
  alembic config set workspace.collision_threshold 80
  alembic config get generator.provider
  alembic config list`

const configShortDesc string = "Manage persistent alembic configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// printTarget reports which config.toml is in use.
func printTarget(out io.Writer, cfger *config.Configer) {
	target := cfger.GetTarget()
	if _, err := os.Stat(target); err != nil {
		fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
		return
	}
	fmt.Fprintf(out, "\n  %s %s\n\n",
		cliui.KeyStyle.Render("Config file:"),
		cliui.DimStyle.Render(target),
	)
}
