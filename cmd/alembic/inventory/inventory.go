// Package inventorycmder provides the inventory command.
package inventorycmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/alembic/api"
	"github.com/papercomputeco/alembic/pkg/apiclient"
	"github.com/papercomputeco/alembic/pkg/cliui"
	"github.com/papercomputeco/alembic/pkg/config"
)

type inventoryCommander struct {
	flags     config.FlagSet
	apiTarget string
	query     string
	plain     bool
}

const inventoryLongDesc string = `List discovered concepts via the alembic API.

Concepts are listed in discovery order. Use --query to filter by a
case-insensitive substring of the name, the same filter as the sidebar
search box.

Examples:
  alembic inventory
  alembic inventory --query stea
  alembic inventory --plain | wc -l`

const inventoryShortDesc string = "List discovered concepts"

func NewInventoryCmd() *cobra.Command {
	cmder := &inventoryCommander{
		flags: config.Flags,
	}

	cmd := &cobra.Command{
		Use:   "inventory",
		Short: inventoryShortDesc,
		Long:  inventoryLongDesc,
		Args:  cobra.NoArgs,
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
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := apiclient.New(cmder.apiTarget)
			if err != nil {
				return err
			}

			resp, err := client.Inventory(cmd.Context(), cmder.query)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cmder.plain {
				for _, c := range resp.Concepts {
					fmt.Fprintln(out, c.String())
				}
				return nil
			}
			return render(out, resp, cmder.query)
		},
	}

	config.AddStringFlag(cmd, cmder.flags, config.FlagAPITarget, &cmder.apiTarget)
	cmd.Flags().StringVarP(&cmder.query, "query", "q", "", "Filter by name substring")
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Print one concept per line without styling")

	return cmd
}

func render(out io.Writer, resp *api.InventoryResponse, query string) error {
	if resp.Count == 0 {
		fmt.Fprintf(out, "\n  %s No concepts match %q.\n\n", cliui.DimStyle.Render("●"), query)
		return nil
	}

	rendered, err := cliui.RenderMarkdown(Markdown(resp))
	if err != nil {
		return fmt.Errorf("rendering inventory: %w", err)
	}
	fmt.Fprint(out, rendered)
	return nil
}

// Markdown formats an inventory response as a markdown table.
func Markdown(resp *api.InventoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Inventory (%d of %d)\n\n", resp.Count, resp.Discovered)
	b.WriteString("| # | | Concept |\n|---|---|---|\n")
	for i, c := range resp.Concepts {
		fmt.Fprintf(&b, "| %d | %s | %s |\n", i+1, c.Glyph, escapeCell(c.Name))
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
