package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ainick2469-sudo/AIOffice-sub002/pkg/models"
)

// BundleFilename names a debug bundle download: the channel plus an ISO-8601
// timestamp with colons and dots replaced by dashes.
func BundleFilename(channel string, t time.Time) string {
	ts := t.UTC().Format("2006-01-02T15:04:05.000Z")
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)
	return fmt.Sprintf("debug-bundle-%s-%s.zip", channel, ts)
}

func newDebugCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Diagnostics export",
	}
	cmd.AddCommand(newDebugBundleCmd(opts))
	return cmd
}

func newDebugBundleCmd(opts *rootOptions) *cobra.Command {
	var (
		minutes        int
		includePrompts bool
		redactSecrets  bool
		outDir         string
	)

	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Download a debug bundle zip for the channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			data, err := e.client.DebugBundle(cmd.Context(), models.DebugBundleRequest{
				Channel:        e.session.Channel(),
				Minutes:        minutes,
				IncludePrompts: includePrompts,
				RedactSecrets:  redactSecrets,
			})
			e.record(cmd.Context(), "debug_bundle", err)
			if err != nil {
				return err
			}
			path := filepath.Join(outDir, BundleFilename(e.session.Channel(), time.Now()))
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", path, len(data))
			return nil
		},
	}
	cmd.Flags().IntVar(&minutes, "minutes", 30, "How many minutes of history to include")
	cmd.Flags().BoolVar(&includePrompts, "include-prompts", false, "Include LLM prompts in the bundle")
	cmd.Flags().BoolVar(&redactSecrets, "redact-secrets", true, "Redact secrets in the bundle")
	cmd.Flags().StringVar(&outDir, "out", ".", "Directory to write the bundle into")
	return cmd
}
