package controlplane

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ainick2469-sudo/AIOffice-sub002/internal/otel"
	"github.com/ainick2469-sudo/AIOffice-sub002/pkg/client"
	"github.com/ainick2469-sudo/AIOffice-sub002/pkg/models"
)

// Supervisor is the process supervisor proxy: the channel's supervised
// processes, the optional per-process log attachment, the kill switch, and
// the coupled autonomy mode. Poll failures keep the last snapshot; log
// attachment is limited to one process at a time to bound the poll payload.
type Supervisor struct {
	Client  *client.Client
	Session *Session
	Confirm Confirmer
	Status  StatusFunc
	// Interval between poll rounds; zero uses PollInterval.
	Interval time.Duration

	mu        sync.Mutex
	processes []models.Process
	expanded  string // process id with logs attached, or ""
}

// Processes returns the last known process snapshot.
func (s *Supervisor) Processes() []models.Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Process, len(s.processes))
	copy(out, s.processes)
	return out
}

// Expanded returns the process id whose logs are attached, or "".
func (s *Supervisor) Expanded() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded
}

// IncludeLogs reports whether the next poll should request log tails:
// exactly when a process is expanded.
func (s *Supervisor) IncludeLogs() bool {
	return s.Expanded() != ""
}

// Run polls the process list until ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) {
	Poll(ctx, s.Interval, func(ctx context.Context) {
		_ = s.Refresh(ctx)
	})
}

// Refresh fetches the process list, attaching logs when a process is
// expanded. A failed poll leaves the previous snapshot visible; a response
// arriving after cancellation is dropped.
func (s *Supervisor) Refresh(ctx context.Context) error {
	return s.refresh(ctx, s.IncludeLogs())
}

func (s *Supervisor) refresh(ctx context.Context, includeLogs bool) error {
	procs, err := s.Client.ListProcesses(ctx, s.Session.Channel(), includeLogs)
	otel.RecordPollTick(ctx, "process", err == nil)
	if err != nil {
		slog.Debug("process poll failed", "err", err)
		return err
	}
	if ctx.Err() != nil {
		return nil
	}
	s.mu.Lock()
	s.processes = procs
	s.mu.Unlock()
	return nil
}

// StartProcess launches a command in the channel. The command must be
// non-empty; the list is refreshed on success.
func (s *Supervisor) StartProcess(ctx context.Context, command, name string) error {
	if command == "" {
		return fmt.Errorf("command is required")
	}
	project := s.Session.Active().Project
	proc, err := s.Client.StartProcess(ctx, s.Session.Channel(), command, name, project)
	otel.RecordClientOp(ctx, "process_start", err == nil)
	if err != nil {
		if detail := apiDetail(err); detail != "" {
			s.Status.set(detail)
		} else {
			s.Status.set("Failed to start process.")
		}
		return err
	}
	s.Status.set(fmt.Sprintf("Started %s", proc.DisplayName()))
	return s.Refresh(ctx)
}

// StopProcess stops a process best-effort and refreshes the list regardless
// of outcome. No busy flag: the server is idempotent per process id.
func (s *Supervisor) StopProcess(ctx context.Context, processID string) error {
	err := s.Client.StopProcess(ctx, s.Session.Channel(), processID)
	otel.RecordClientOp(ctx, "process_stop", err == nil)
	if err != nil {
		if detail := apiDetail(err); detail != "" {
			s.Status.set(detail)
		} else {
			s.Status.set("Failed to stop process.")
		}
	}
	refreshErr := s.Refresh(ctx)
	if err != nil {
		return err
	}
	return refreshErr
}

// ToggleLogs attaches or detaches the log tail for processID. Expanding
// triggers an immediate refresh with logs; collapsing simply stops requesting
// them on the next tick.
func (s *Supervisor) ToggleLogs(ctx context.Context, processID string) error {
	s.mu.Lock()
	if s.expanded == processID {
		s.expanded = ""
		s.mu.Unlock()
		return nil
	}
	s.expanded = processID
	s.mu.Unlock()
	return s.refresh(ctx, true)
}

// KillSwitch stops every process in the channel and forces autonomy mode
// SAFE, after operator confirmation. The client cache adopts the
// server-reported mode, defaulting to SAFE.
func (s *Supervisor) KillSwitch(ctx context.Context) error {
	if s.Confirm != nil && !s.Confirm.Confirm("Kill switch will stop all processes and set autonomy mode to SAFE. Continue?") {
		return nil
	}
	res, err := s.Client.KillSwitch(ctx, s.Session.Channel())
	otel.RecordClientOp(ctx, "kill_switch", err == nil)
	if err != nil {
		if detail := apiDetail(err); detail != "" {
			s.Status.set(detail)
		} else {
			s.Status.set("Kill switch failed.")
		}
		return err
	}
	mode := res.AutonomyMode
	if mode == "" {
		mode = models.AutonomySafe
	}
	s.Session.SetAutonomy(mode)
	s.Status.set(fmt.Sprintf("Kill switch complete. Stopped %d process(es).", res.StoppedCount))
	return s.Refresh(ctx)
}

// LoadAutonomy fetches the active project's autonomy mode into the session
// cache. A response for a project no longer active is discarded.
func (s *Supervisor) LoadAutonomy(ctx context.Context) error {
	project := s.Session.Active().Project
	mode, err := s.Client.GetAutonomyMode(ctx, project)
	otel.RecordClientOp(ctx, "autonomy_load", err == nil)
	if err != nil {
		return err
	}
	if ctx.Err() != nil || s.Session.Active().Project != project {
		return nil
	}
	if mode == "" {
		mode = models.AutonomySafe
	}
	s.Session.SetAutonomy(mode)
	return nil
}

// SetAutonomy saves mode for the active project. A failed save leaves the
// cached mode untouched.
func (s *Supervisor) SetAutonomy(ctx context.Context, mode string) error {
	if !models.ValidAutonomyMode(mode) {
		return fmt.Errorf("invalid autonomy mode %q", mode)
	}
	project := s.Session.Active().Project
	stored, err := s.Client.PutAutonomyMode(ctx, project, mode)
	otel.RecordClientOp(ctx, "autonomy_save", err == nil)
	if err != nil {
		if detail := apiDetail(err); detail != "" {
			s.Status.set(detail)
		} else {
			s.Status.set("Failed to set autonomy mode.")
		}
		return err
	}
	if stored == "" {
		stored = mode
	}
	s.Session.SetAutonomy(stored)
	s.Status.set(fmt.Sprintf("Autonomy mode %s", stored))
	return nil
}
