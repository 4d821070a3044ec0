// Package noticescmder provides the notices command.
package noticescmder

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/alembic/pkg/apiclient"
	"github.com/papercomputeco/alembic/pkg/cliui"
	"github.com/papercomputeco/alembic/pkg/config"
)

type noticesCommander struct {
	flags     config.FlagSet
	apiTarget string
	limit     int
}

const noticesLongDesc string = `Show recent notices from the alembic server, newest first.

Notices are the user-visible messages the workspace raised, such as a pair
of concepts refusing to combine.

Examples:
  alembic notices
  alembic notices --limit 5`

const noticesShortDesc string = "Show recent notices"

func NewNoticesCmd() *cobra.Command {
	cmder := &noticesCommander{
		flags: config.Flags,
	}

	cmd := &cobra.Command{
		Use:   "notices",
		Short: noticesShortDesc,
		Long:  noticesLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmder.limit < 0 {
				return fmt.Errorf("--limit must not be negative, got %d", cmder.limit)
			}

			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, cmder.flags, []string{config.FlagAPITarget})
			cmder.apiTarget = v.GetString(cmder.flags[config.FlagAPITarget].ViperKey)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := apiclient.New(cmder.apiTarget)
			if err != nil {
				return err
			}

			resp, err := client.Notices(cmd.Context(), cmder.limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(resp.Notices) == 0 {
				fmt.Fprintf(out, "\n  %s No notices.\n\n", cliui.DimStyle.Render("●"))
				return nil
			}

			fmt.Fprintf(out, "\n  %s\n\n", cliui.HeaderStyle.Render("Recent notices"))
			for _, n := range resp.Notices {
				inputs := n.Pair()
				fmt.Fprintf(out, "  %s  %s  %s\n",
					cliui.DimStyle.Render(n.EmittedAt.Local().Format(time.TimeOnly)),
					cliui.NoticeStyle.Render(n.Message),
					cliui.DimStyle.Render(inputs[0]+" + "+inputs[1]),
				)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	config.AddStringFlag(cmd, cmder.flags, config.FlagAPITarget, &cmder.apiTarget)
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 20, "Maximum number of notices to show")

	return cmd
}
