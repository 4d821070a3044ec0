// Package alembiccmder
package alembiccmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/alembic/cmd/alembic/auth"
	combinecmder "github.com/papercomputeco/alembic/cmd/alembic/combine"
	configcmder "github.com/papercomputeco/alembic/cmd/alembic/config"
	initcmder "github.com/papercomputeco/alembic/cmd/alembic/init"
	inventorycmder "github.com/papercomputeco/alembic/cmd/alembic/inventory"
	noticescmder "github.com/papercomputeco/alembic/cmd/alembic/notices"
	recipescmder "github.com/papercomputeco/alembic/cmd/alembic/recipes"
	resetcmder "github.com/papercomputeco/alembic/cmd/alembic/reset"
	servecmder "github.com/papercomputeco/alembic/cmd/alembic/serve"
	versioncmder "github.com/papercomputeco/alembic/cmd/version"
)

const alembicLongDesc string = `alembic is a sandbox for combining two concepts into a new one.

Start from Water, Fire, Earth and Air, drop one token on another, and
discover what they make.

Run the server:
  alembic serve                  Run the API, MCP and metrics server

Talk to a running server:
  alembic combine Water Fire     Combine two discovered concepts
  alembic inventory              List discovered concepts
  alembic recipes                List cached recipes
  alembic notices                Show recent notices
  alembic reset --yes            Forget every discovery`

const alembicShortDesc string = "alembic - combine concepts, discover new ones"

func NewAlembicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "alembic",
		Short:         alembicShortDesc,
		Long:          alembicLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .alembic/ config directory")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(combinecmder.NewCombineCmd())
	cmd.AddCommand(inventorycmder.NewInventoryCmd())
	cmd.AddCommand(recipescmder.NewRecipesCmd())
	cmd.AddCommand(noticescmder.NewNoticesCmd())
	cmd.AddCommand(resetcmder.NewResetCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
