package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ainick2469-sudo/AIOffice-sub002/internal/controlplane"
)

func newConsoleCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Tail and export the channel's console events",
	}
	cmd.AddCommand(newConsoleTailCmd(opts))
	cmd.AddCommand(newConsoleCopyCmd(opts))
	return cmd
}

func consoleFlags(cmd *cobra.Command, filters *controlplane.ConsoleFilters) {
	cmd.Flags().StringVar(&filters.EventType, "event-type", "", "Only events of this type")
	cmd.Flags().StringVar(&filters.Source, "source", "", "Only events from this source")
	cmd.Flags().IntVar(&filters.Limit, "limit", 0, "Max events (default 200)")
}

func newConsoleTailCmd(opts *rootOptions) *cobra.Command {
	var filters controlplane.ConsoleFilters

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show recent console events",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			console := &controlplane.Console{Client: e.client, Session: e.session, Status: e.status}
			if err := console.SetFilters(cmd.Context(), filters); err != nil {
				return fmt.Errorf("load events: %w", err)
			}
			for _, ev := range console.Events() {
				line := fmt.Sprintf("%s  %-8s %-12s %s", ev.CreatedAt, ev.Source, ev.EventType, ev.Message)
				if ev.Severity != "" {
					line = fmt.Sprintf("%s [%s]", line, ev.Severity)
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	consoleFlags(cmd, &filters)
	return cmd
}

func newConsoleCopyCmd(opts *rootOptions) *cobra.Command {
	var filters controlplane.ConsoleFilters
	var markdown bool

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy recent console events to the clipboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			console := &controlplane.Console{
				Client:  e.client,
				Session: e.session,
				Status:  e.status,
				Clip:    controlplane.FallbackClipboard{Primary: controlplane.CommandClipboard{}},
			}
			if err := console.SetFilters(cmd.Context(), filters); err != nil {
				return fmt.Errorf("load events: %w", err)
			}
			if markdown {
				return console.CopyMarkdown()
			}
			return console.CopyJSON()
		},
	}
	consoleFlags(cmd, &filters)
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Copy as a fenced markdown block instead of raw JSON")
	return cmd
}
