// Package resetcmder provides the reset command.
package resetcmder

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/alembic/pkg/apiclient"
	"github.com/papercomputeco/alembic/pkg/cliui"
	"github.com/papercomputeco/alembic/pkg/config"
)

// errNotConfirmed is returned when stdin is not a terminal and --yes is missing.
var errNotConfirmed = errors.New("reset needs confirmation: pass --yes when not running in a terminal")

type resetCommander struct {
	flags     config.FlagSet
	apiTarget string
	yes       bool

	// confirm asks the user; replaced in tests.
	confirm func() (bool, error)
	// interactive reports whether confirm may be used.
	interactive func() bool
}

const resetLongDesc string = `Reset the alembic server to its seed state.

Forgets every discovered concept and cached recipe and clears the
workspace, leaving only Water, Fire, Earth and Air. This cannot be undone.

In a terminal you are asked to confirm. Otherwise pass --yes.

Examples:
  alembic reset
  alembic reset --yes`

const resetShortDesc string = "Forget every discovery"

func NewResetCmd() *cobra.Command {
	cmder := &resetCommander{
		flags:       config.Flags,
		confirm:     promptConfirm,
		interactive: stdinIsTerminal,
	}
	return newResetCmd(cmder)
}

func newResetCmd(cmder *resetCommander) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: resetShortDesc,
		Long:  resetLongDesc,
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
			return cmder.run(cmd)
		},
	}

	config.AddStringFlag(cmd, cmder.flags, config.FlagAPITarget, &cmder.apiTarget)
	cmd.Flags().BoolVarP(&cmder.yes, "yes", "y", false, "Reset without asking")

	return cmd
}

func (c *resetCommander) run(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	ok, err := c.confirmed()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(out, "\n  %s Reset cancelled.\n\n", cliui.DimStyle.Render("●"))
		return nil
	}

	client, err := apiclient.New(c.apiTarget)
	if err != nil {
		return err
	}

	resp, err := client.Reset(cmd.Context(), true)
	if err != nil {
		return err
	}

	printReset(out, resp.Discovered)
	return nil
}

func (c *resetCommander) confirmed() (bool, error) {
	if c.yes {
		return true, nil
	}
	if !c.interactive() {
		return false, errNotConfirmed
	}
	return c.confirm()
}

func printReset(out io.Writer, discovered int) {
	fmt.Fprintf(out, "\n  %s Reset to %s seed concepts.\n\n",
		cliui.SuccessMark,
		cliui.ValueStyle.Render(fmt.Sprint(discovered)),
	)
}

func promptConfirm() (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title("Forget every discovery?").
		Description("The inventory, recipes and workspace return to the four seed concepts.").
		Affirmative("Reset").
		Negative("Cancel").
		Value(&ok).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("confirming reset: %w", err)
	}
	return ok, nil
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
