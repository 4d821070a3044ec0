// Package combinecmder provides the combine command.
package combinecmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/alembic/api"
	"github.com/papercomputeco/alembic/pkg/apiclient"
	"github.com/papercomputeco/alembic/pkg/cliui"
	"github.com/papercomputeco/alembic/pkg/config"
	"github.com/papercomputeco/alembic/pkg/element"
)

type combineCommander struct {
	flags     config.FlagSet
	apiTarget string
}

const combineLongDesc string = `Combine two discovered concepts via the alembic API.

Both names must already be in the inventory. A combination the server has
seen before comes straight from the recipe cache; a new one is generated
and added to the inventory.

Examples:
  alembic combine Water Fire
  alembic combine steam earth --api-target http://localhost:8080`

const combineShortDesc string = "Combine two discovered concepts"

func NewCombineCmd() *cobra.Command {
	cmder := &combineCommander{
		flags: config.Flags,
	}

	cmd := &cobra.Command{
		Use:   "combine <a> <b>",
		Short: combineShortDesc,
		Long:  combineLongDesc,
		Args:  cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, cmder.flags, []string{config.FlagAPITarget})
			cmder.apiTarget = v.GetString(cmder.flags[config.FlagAPITarget].ViperKey)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := apiclient.New(cmder.apiTarget)
			if err != nil {
				return err
			}

			a, b := element.Capitalize(args[0]), element.Capitalize(args[1])

			var resp *api.CombineResponse
			err = cliui.Step(cmd.ErrOrStderr(), fmt.Sprintf("Combining %s + %s", a, b), func() error {
				var callErr error
				resp, callErr = client.Combine(cmd.Context(), a, b)
				return callErr
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !resp.Combined {
				fmt.Fprintf(out, "\n  %s %s\n\n", cliui.FailMark, cliui.NoticeStyle.Render(resp.Message))
				return nil
			}

			fmt.Fprintf(out, "\n  %s\n  %s\n\n",
				cliui.Discovery(resp.Result.Glyph, resp.Result.Name, resp.New),
				cliui.DimStyle.Render(fmt.Sprintf("%d discovered", resp.Discovered)),
			)
			return nil
		},
	}

	config.AddStringFlag(cmd, cmder.flags, config.FlagAPITarget, &cmder.apiTarget)

	return cmd
}
