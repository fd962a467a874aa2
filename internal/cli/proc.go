package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newProcCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proc",
		Short: "Supervised processes in the channel",
	}
	cmd.AddCommand(newProcListCmd(opts))
	cmd.AddCommand(newProcStartCmd(opts))
	cmd.AddCommand(newProcStopCmd(opts))
	cmd.AddCommand(newProcLogsCmd(opts))
	cmd.AddCommand(newProcKillSwitchCmd(opts))
	return cmd
}

func newProcListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List supervised processes",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			_, _, sup, _ := e.registry()
			if err := sup.Refresh(cmd.Context()); err != nil {
				return fmt.Errorf("list processes: %w", err)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tPID\tPORT\tCOMMAND")
			for _, p := range sup.Processes() {
				port := ""
				if p.Port != 0 {
					port = fmt.Sprintf("%d", p.Port)
				}
				pid := ""
				if p.PID != 0 {
					pid = fmt.Sprintf("%d", p.PID)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Status, pid, port, p.Command)
			}
			return w.Flush()
		},
	}
}

func newProcStartCmd(opts *rootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "start <command>...",
		Short: "Start a command under supervision",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			reg, _, sup, _ := e.registry()
			reg.LoadActive(cmd.Context())
			err = sup.StartProcess(cmd.Context(), strings.Join(args, " "), name)
			e.record(cmd.Context(), "process_start", err)
			return err
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name for the process")
	return cmd
}

func newProcStopCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <process-id>",
		Short: "Stop a supervised process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			_, _, sup, _ := e.registry()
			err = sup.StopProcess(cmd.Context(), args[0])
			e.record(cmd.Context(), "process_stop", err)
			return err
		},
	}
}

func newProcLogsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logs <process-id>",
		Short: "Show the log tail of a process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			_, _, sup, _ := e.registry()
			if err := sup.ToggleLogs(cmd.Context(), args[0]); err != nil {
				return err
			}
			for _, p := range sup.Processes() {
				if p.ID != args[0] {
					continue
				}
				for _, line := range p.Logs {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			}
			return fmt.Errorf("no process %q", args[0])
		},
	}
}

func newProcKillSwitchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "kill-switch",
		Short: "Stop all processes and force autonomy mode SAFE",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			_, _, sup, _ := e.registry()
			err = sup.KillSwitch(cmd.Context())
			e.record(cmd.Context(), "kill_switch", err)
			return err
		},
	}
}
