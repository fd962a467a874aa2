package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ainick2469-sudo/AIOffice-sub002/internal/config"
	"github.com/ainick2469-sudo/AIOffice-sub002/internal/controlplane"
	"github.com/ainick2469-sudo/AIOffice-sub002/internal/journal"
	"github.com/ainick2469-sudo/AIOffice-sub002/pkg/client"
)

// env wires one command invocation: the API client, the channel session, the
// confirmer, and the status sink writing to the command's stdout.
type env struct {
	home    string
	client  *client.Client
	session *controlplane.Session
	confirm controlplane.Confirmer
	status  controlplane.StatusFunc
}

func newEnv(cmd *cobra.Command, opts *rootOptions) (*env, error) {
	home := config.MustHomeFrom(cmd.Context())
	file, err := config.Load(home)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	serverURL, apiKey, channel := file.Resolved(opts.server, opts.channel)

	var confirm controlplane.Confirmer
	if opts.yes {
		confirm = controlplane.AutoConfirm{}
	} else {
		confirm = controlplane.TerminalConfirmer{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()}
	}

	out := cmd.OutOrStdout()
	return &env{
		home:    home,
		client:  client.New(serverURL, apiKey),
		session: controlplane.NewSession(channel),
		confirm: confirm,
		status: func(msg string) {
			_, _ = fmt.Fprintln(out, msg)
		},
	}, nil
}

// record appends the action to the local journal, best-effort.
func (e *env) record(ctx context.Context, op string, err error) {
	j, jerr := journal.Open(e.home)
	if jerr != nil {
		slog.Debug("journal open failed", "err", jerr)
		return
	}
	defer func() { _ = j.Close() }()
	outcome, detail := "ok", ""
	if err != nil {
		outcome, detail = "error", err.Error()
	}
	if rerr := j.Record(ctx, op, e.session.Channel(), e.session.Active().Project, outcome, detail); rerr != nil {
		slog.Debug("journal record failed", "err", rerr)
	}
}

// registry returns a project registry with the standard cascade bound:
// build config, autonomy mode, then branches, each targeting the project the
// switch landed on.
func (e *env) registry() (*controlplane.Registry, *controlplane.Build, *controlplane.Supervisor, *controlplane.Branches) {
	reg := &controlplane.Registry{Client: e.client, Session: e.session, Confirm: e.confirm, Status: e.status}
	build := &controlplane.Build{Client: e.client, Session: e.session, Status: e.status}
	sup := &controlplane.Supervisor{Client: e.client, Session: e.session, Confirm: e.confirm, Status: e.status}
	branches := &controlplane.Branches{Client: e.client, Session: e.session, Confirm: e.confirm, Status: e.status}
	reg.BindCascade(
		func(ctx context.Context, _ string) { _ = build.LoadConfig(ctx) },
		func(ctx context.Context, _ string) { _ = sup.LoadAutonomy(ctx) },
		func(ctx context.Context, _ string) { _ = branches.Load(ctx) },
	)
	return reg, build, sup, branches
}
