package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ainick2469-sudo/AIOffice-sub002/internal/controlplane"
	"github.com/ainick2469-sudo/AIOffice-sub002/pkg/models"
)

func newBranchCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "Manage branches of the active project",
	}
	cmd.AddCommand(newBranchListCmd(opts))
	cmd.AddCommand(newBranchSwitchCmd(opts))
	cmd.AddCommand(newBranchMergePreviewCmd(opts))
	cmd.AddCommand(newBranchMergeApplyCmd(opts))
	return cmd
}

// loadBranchContext fetches the active binding and the branch list so branch
// commands operate on the server's view of the channel.
func loadBranchContext(ctx context.Context, e *env) (*controlplane.Branches, error) {
	reg, _, _, branches := e.registry()
	reg.LoadActive(ctx)
	if err := branches.Load(ctx); err != nil {
		return nil, err
	}
	return branches, nil
}

func newBranchListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List branches of the active project",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			branches, err := loadBranchContext(cmd.Context(), e)
			if err != nil {
				return err
			}
			active := branches.Active()
			for _, name := range branches.List() {
				if name == active {
					fmt.Fprintf(cmd.OutOrStdout(), "* %s\n", name)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
				}
			}
			return nil
		},
	}
}

func newBranchSwitchCmd(opts *rootOptions) *cobra.Command {
	var create bool

	cmd := &cobra.Command{
		Use:   "switch <name>",
		Short: "Check out a branch in the active project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			branches, err := loadBranchContext(cmd.Context(), e)
			if err != nil {
				return err
			}
			err = branches.Switch(cmd.Context(), args[0], create)
			e.record(cmd.Context(), "branch_switch", err)
			return err
		},
	}
	cmd.Flags().BoolVar(&create, "create", false, "Create the branch if it does not exist")
	return cmd
}

func mergeEndpoints(branches *controlplane.Branches, source, target string) error {
	s, t := branches.MergeEndpoints()
	if source != "" {
		s = source
	}
	if target != "" {
		t = target
	}
	if s == "" || t == "" {
		return fmt.Errorf("--source and --target are required when the project has a single branch")
	}
	branches.SetMergeEndpoints(s, t)
	return nil
}

func printOutcome(cmd *cobra.Command, outcome *models.MergeOutcome) {
	if outcome == nil {
		return
	}
	for _, c := range outcome.Conflicts {
		fmt.Fprintf(cmd.OutOrStdout(), "conflict: %s\n", c.Path)
	}
	if outcome.Stdout != "" {
		fmt.Fprintln(cmd.OutOrStdout(), outcome.Stdout)
	}
}

func newBranchMergePreviewCmd(opts *rootOptions) *cobra.Command {
	var source, target string

	cmd := &cobra.Command{
		Use:   "merge-preview",
		Short: "Dry-run a merge and report conflicts (no state change)",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			branches, err := loadBranchContext(cmd.Context(), e)
			if err != nil {
				return err
			}
			if err := mergeEndpoints(branches, source, target); err != nil {
				return err
			}
			outcome, err := branches.PreviewMerge(cmd.Context())
			if err != nil {
				return err
			}
			printOutcome(cmd, outcome)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Merge source branch")
	cmd.Flags().StringVar(&target, "target", "", "Merge target branch")
	return cmd
}

func newBranchMergeApplyCmd(opts *rootOptions) *cobra.Command {
	var source, target string

	cmd := &cobra.Command{
		Use:   "merge-apply",
		Short: "Merge source into target (requires confirmation)",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			branches, err := loadBranchContext(cmd.Context(), e)
			if err != nil {
				return err
			}
			if err := mergeEndpoints(branches, source, target); err != nil {
				return err
			}
			outcome, err := branches.ApplyMerge(cmd.Context())
			if outcome != nil || err != nil {
				e.record(cmd.Context(), "merge_apply", err)
			}
			if err != nil {
				return err
			}
			printOutcome(cmd, outcome)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Merge source branch")
	cmd.Flags().StringVar(&target, "target", "", "Merge target branch")
	return cmd
}
