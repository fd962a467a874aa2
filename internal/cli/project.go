package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ainick2469-sudo/AIOffice-sub002/internal/controlplane"
)

func newProjectCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(newProjectListCmd(opts))
	cmd.AddCommand(newProjectCreateCmd(opts))
	cmd.AddCommand(newProjectSwitchCmd(opts))
	cmd.AddCommand(newProjectDeleteCmd(opts))
	return cmd
}

func newProjectListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects and the channel's active project",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			reg, _, _, _ := e.registry()
			active := reg.LoadActive(cmd.Context())
			projects, err := reg.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tKIND\tBRANCH\tUPDATED")
			for _, p := range projects {
				marker := ""
				if p.Name == active.Project {
					marker = "*"
				}
				fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\n", marker, p.Name, p.DetectedKind, p.Branch, p.UpdatedAt)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if reg.Stale() {
				fmt.Fprintln(cmd.OutOrStdout(), "(active project unknown; showing default)")
			}
			return nil
		},
	}
}

func newProjectCreateCmd(opts *rootOptions) *cobra.Command {
	var template string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project (optionally from a template)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			reg, _, _, _ := e.registry()
			err = reg.Create(cmd.Context(), args[0], template)
			e.record(cmd.Context(), "project_create", err)
			return err
		},
	}
	cmd.Flags().StringVar(&template, "template", "", "Project template: react, python, or rust")
	return cmd
}

func newProjectSwitchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <name>",
		Short: "Make a project the channel's active project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			reg, _, _, branches := e.registry()
			err = reg.SwitchTo(cmd.Context(), args[0])
			e.record(cmd.Context(), "project_switch", err)
			if err != nil {
				return err
			}
			active := e.session.Active()
			fmt.Fprintf(cmd.OutOrStdout(), "Active: %s on %s (autonomy %s, %d branch(es))\n",
				active.Project, active.Branch, e.session.Autonomy(), len(branches.List()))
			return nil
		},
	}
}

func newProjectDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a project (two-step, requires confirmation)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			reg, _, _, _ := e.registry()
			outcome, err := reg.Delete(cmd.Context(), args[0])
			if outcome != controlplane.DeleteAborted {
				e.record(cmd.Context(), "project_delete", err)
			}
			return err
		},
	}
}
