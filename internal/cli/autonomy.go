package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAutonomyCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autonomy",
		Short: "Autonomy mode of the active project",
	}
	cmd.AddCommand(newAutonomyGetCmd(opts))
	cmd.AddCommand(newAutonomySetCmd(opts))
	return cmd
}

func newAutonomyGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the active project's autonomy mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			reg, _, sup, _ := e.registry()
			reg.LoadActive(cmd.Context())
			if err := sup.LoadAutonomy(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), e.session.Autonomy())
			return nil
		},
	}
}

func newAutonomySetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <SAFE|TRUSTED|ELEVATED>",
		Short: "Set the active project's autonomy mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			reg, _, sup, _ := e.registry()
			reg.LoadActive(cmd.Context())
			err = sup.SetAutonomy(cmd.Context(), args[0])
			e.record(cmd.Context(), "autonomy_save", err)
			return err
		},
	}
}
