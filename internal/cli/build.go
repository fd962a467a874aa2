package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ainick2469-sudo/AIOffice-sub002/internal/controlplane"
	"github.com/ainick2469-sudo/AIOffice-sub002/pkg/models"
)

func newBuildCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build/test/run configuration and execution",
	}
	cmd.AddCommand(newBuildConfigCmd(opts))
	cmd.AddCommand(newBuildRunCmd(opts))
	return cmd
}

func newBuildConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the active project's commands",
	}
	cmd.AddCommand(newBuildConfigGetCmd(opts))
	cmd.AddCommand(newBuildConfigSetCmd(opts))
	return cmd
}

func newBuildConfigGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the active project's build/test/run commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			reg, build, _, _ := e.registry()
			reg.LoadActive(cmd.Context())
			if err := build.LoadConfig(cmd.Context()); err != nil {
				return err
			}
			cfg := build.Config()
			fmt.Fprintf(cmd.OutOrStdout(), "build: %s\ntest:  %s\nrun:   %s\n", cfg.BuildCmd, cfg.TestCmd, cfg.RunCmd)
			return nil
		},
	}
}

func newBuildConfigSetCmd(opts *rootOptions) *cobra.Command {
	var buildCmd, testCmd, runCmd string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the active project's build/test/run commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			reg, build, _, _ := e.registry()
			reg.LoadActive(cmd.Context())
			// Start from the stored config so unset flags leave commands alone.
			if err := build.LoadConfig(cmd.Context()); err != nil {
				return err
			}
			cfg := build.Config()
			if cmd.Flags().Changed("build") {
				cfg.BuildCmd = buildCmd
			}
			if cmd.Flags().Changed("test") {
				cfg.TestCmd = testCmd
			}
			if cmd.Flags().Changed("run") {
				cfg.RunCmd = runCmd
			}
			err = build.SaveConfig(cmd.Context(), cfg)
			e.record(cmd.Context(), "build_config_save", err)
			return err
		},
	}
	cmd.Flags().StringVar(&buildCmd, "build", "", "Build command (empty clears)")
	cmd.Flags().StringVar(&testCmd, "test", "", "Test command (empty clears)")
	cmd.Flags().StringVar(&runCmd, "run", "", "Run command (empty clears)")
	return cmd
}

func newBuildRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <build|test|run>",
		Short: "Execute a stage for the active project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage := args[0]
			if !models.ValidStage(stage) {
				return fmt.Errorf("unknown stage %q: want build, test, or run", stage)
			}
			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			reg, build, _, _ := e.registry()
			reg.LoadActive(cmd.Context())
			res, err := build.RunStage(cmd.Context(), stage)
			e.record(cmd.Context(), "stage_"+stage, err)
			if err != nil {
				return err
			}
			if out := controlplane.RenderResult(res); out != "" {
				fmt.Fprintln(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}
}
