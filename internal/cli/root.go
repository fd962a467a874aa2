// Package cli implements the aioffice command tree. Each panel of the web
// workspace maps to a subcommand group driving the same control-plane
// components.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ainick2469-sudo/AIOffice-sub002/internal/config"
)

func NewRootCmd(version string) *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:          "aioffice",
		Short:        "Operator CLI for the AI Office control plane",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			home, err := config.ResolveHome(opts.homeOverride)
			if err != nil {
				return err
			}
			cmd.SetContext(config.WithHome(cmd.Context(), home))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.homeOverride, "home", "", "Override aioffice home directory (default: ~/.aioffice, env: AIOFFICE_HOME)")
	cmd.PersistentFlags().StringVar(&opts.server, "server", "", "Control-plane base URL (default from config.yaml, else http://localhost:4820)")
	cmd.PersistentFlags().StringVar(&opts.channel, "channel", "", "Channel scoping all stateful operations (default from config.yaml, else main)")
	cmd.PersistentFlags().BoolVar(&opts.yes, "yes", false, "Answer confirmation prompts with yes")

	cmd.AddCommand(newProjectCmd(&opts))
	cmd.AddCommand(newBranchCmd(&opts))
	cmd.AddCommand(newBuildCmd(&opts))
	cmd.AddCommand(newProcCmd(&opts))
	cmd.AddCommand(newAutonomyCmd(&opts))
	cmd.AddCommand(newConsoleCmd(&opts))
	cmd.AddCommand(newDebugCmd(&opts))
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newWatchCmd(&opts))

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.SetVersionTemplate("{{.Version}}\n")
	if version != "" {
		cmd.Version = version
	} else {
		cmd.Version = "dev"
	}

	return cmd
}

// rootOptions holds the persistent flag values shared by all subcommands.
type rootOptions struct {
	homeOverride string
	server       string
	channel      string
	yes          bool
}
