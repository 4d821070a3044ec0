// Package recipescmder provides the recipes command.
package recipescmder

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

type recipesCommander struct {
	flags     config.FlagSet
	apiTarget string
}

const recipesLongDesc string = `List cached recipes via the alembic API.

Every successful combination is cached under its unordered input pair, so
"Water + Fire" and "Fire + Water" share one recipe.

Examples:
  alembic recipes`

const recipesShortDesc string = "List cached recipes"

func NewRecipesCmd() *cobra.Command {
	cmder := &recipesCommander{
		flags: config.Flags,
	}

	cmd := &cobra.Command{
		Use:   "recipes",
		Short: recipesShortDesc,
		Long:  recipesLongDesc,
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

			resp, err := client.Recipes(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), resp)
		},
	}

	config.AddStringFlag(cmd, cmder.flags, config.FlagAPITarget, &cmder.apiTarget)

	return cmd
}

func render(out io.Writer, resp *api.RecipesResponse) error {
	if resp.Count == 0 {
		fmt.Fprintf(out, "\n  %s No recipes yet. Try 'alembic combine Water Fire'.\n\n", cliui.DimStyle.Render("●"))
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Recipes (%d)\n\n", resp.Count)
	b.WriteString("| Inputs | Result |\n|---|---|\n")
	for _, r := range resp.Recipes {
		fmt.Fprintf(&b, "| %s + %s | %s |\n", r.Inputs[0], r.Inputs[1], r.Result.String())
	}

	rendered, err := cliui.RenderMarkdown(b.String())
	if err != nil {
		return fmt.Errorf("rendering recipes: %w", err)
	}
	fmt.Fprint(out, rendered)
	return nil
}
