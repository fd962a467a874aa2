package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ainick2469-sudo/AIOffice-sub002/internal/controlplane"
	"github.com/ainick2469-sudo/AIOffice-sub002/internal/otel"
	"github.com/ainick2469-sudo/AIOffice-sub002/pkg/models"
)

// newWatchCmd follows the channel live: processes and console events are
// polled on their usual cadence, and each change is printed as it lands.
func newWatchCmd(opts *rootOptions) *cobra.Command {
	var filters controlplane.ConsoleFilters
	var metricsAddr string
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow processes and console events until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if metricsAddr != "" {
				handler, err := otel.InitMeterProvider(ctx, "aioffice")
				if err != nil {
					return fmt.Errorf("init metrics: %w", err)
				}
				if err := otel.InitMetrics(ctx); err != nil {
					return fmt.Errorf("init metrics: %w", err)
				}
				mux := http.NewServeMux()
				mux.Handle("/metrics", handler)
				srv := &http.Server{Addr: metricsAddr, Handler: mux}
				go func() {
					if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						slog.Error("metrics server failed", "addr", metricsAddr, "err", err)
					}
				}()
				defer func() {
					shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutCtx)
				}()
				fmt.Fprintf(cmd.OutOrStdout(), "Serving metrics on %s/metrics\n", metricsAddr)
			}

			reg, _, sup, _ := e.registry()
			b := reg.LoadActive(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s on %s (channel %s)\n", b.Project, b.Branch, e.session.Channel())

			console := &controlplane.Console{Client: e.client, Session: e.session, Status: e.status, Interval: interval}
			sup.Interval = interval
			if err := console.SetFilters(ctx, filters); err != nil {
				slog.Debug("initial console load failed", "err", err)
			}

			out := cmd.OutOrStdout()
			printer := &watchPrinter{}
			printer.prime(sup.Processes(), console.Events())

			done := make(chan struct{}, 2)
			go func() { sup.Run(ctx); done <- struct{}{} }()
			go func() { console.Run(ctx); done <- struct{}{} }()

			tick := time.NewTicker(time.Second)
			defer tick.Stop()
			running := 2
			for running > 0 {
				select {
				case <-tick.C:
					for _, line := range printer.diff(sup.Processes(), console.Events()) {
						fmt.Fprintln(out, line)
					}
				case <-done:
					running--
				}
			}
			return nil
		},
	}
	consoleFlags(cmd, &filters)
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9464)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Poll interval (default 3s)")
	return cmd
}

// watchPrinter tracks what has already been shown so each poll round only
// emits changes.
type watchPrinter struct {
	procStatus map[string]string
	lastEvent  string
}

func (w *watchPrinter) prime(procs []models.Process, events []models.ConsoleEvent) {
	w.procStatus = make(map[string]string, len(procs))
	for _, p := range procs {
		w.procStatus[p.ID] = p.Status
	}
	if len(events) > 0 {
		w.lastEvent = events[len(events)-1].ID
	}
}

func (w *watchPrinter) diff(procs []models.Process, events []models.ConsoleEvent) []string {
	var lines []string

	seen := make(map[string]bool, len(procs))
	for _, p := range procs {
		seen[p.ID] = true
		if prev, ok := w.procStatus[p.ID]; !ok {
			lines = append(lines, fmt.Sprintf("proc %s %s (%s)", p.ID, p.Status, p.DisplayName()))
		} else if prev != p.Status {
			lines = append(lines, fmt.Sprintf("proc %s %s -> %s (%s)", p.ID, prev, p.Status, p.DisplayName()))
		}
		w.procStatus[p.ID] = p.Status
	}
	for id := range w.procStatus {
		if !seen[id] {
			lines = append(lines, fmt.Sprintf("proc %s gone", id))
			delete(w.procStatus, id)
		}
	}

	start := 0
	if w.lastEvent != "" {
		for i, ev := range events {
			if ev.ID == w.lastEvent {
				start = i + 1
				break
			}
		}
	}
	for _, ev := range events[start:] {
		line := fmt.Sprintf("%s  %-8s %-12s %s", ev.CreatedAt, ev.Source, ev.EventType, ev.Message)
		lines = append(lines, line)
	}
	if len(events) > 0 {
		w.lastEvent = events[len(events)-1].ID
	}
	return lines
}
