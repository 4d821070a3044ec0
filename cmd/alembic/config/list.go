package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/alembic/pkg/cliui"
	"github.com/papercomputeco/alembic/pkg/config"
)

const listLongDesc string = `List all configuration values.

Displays every configuration key with its effective value: the value from
config.toml when set, otherwise the default.

Examples:
  alembic config list`

const listShortDesc string = "List all configuration values"

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(cmd.OutOrStdout(), configDir)
		},
	}

	return cmd
}

func runList(out io.Writer, configDir string) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	printTarget(out, cfger)

	keys := config.ValidConfigKeys()

	// Pad on the plain key so styling does not skew alignment.
	maxLen := 0
	for _, k := range keys {
		maxLen = max(maxLen, len(k))
	}

	for _, key := range keys {
		value, err := cfger.GetConfigValue(key)
		if err != nil {
			return err
		}

		pad := fmt.Sprintf("%-*s", maxLen, key)
		if value == "" {
			fmt.Fprintf(out, "  %s  %s\n", cliui.KeyStyle.Render(pad), cliui.DimStyle.Render("<not set>"))
		} else {
			fmt.Fprintf(out, "  %s  %s\n", cliui.KeyStyle.Render(pad), cliui.ValueStyle.Render(value))
		}
	}
	fmt.Fprintln(out)

	return nil
}
