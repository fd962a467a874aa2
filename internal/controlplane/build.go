package controlplane

import (
	"context"
	"fmt"
	"sync"

	"github.com/ainick2469-sudo/AIOffice-sub002/internal/otel"
	"github.com/ainick2469-sudo/AIOffice-sub002/pkg/client"
	"github.com/ainick2469-sudo/AIOffice-sub002/pkg/models"
)

// Build is the build/run config and executor view: the per-project
// build/test/run commands and the most recent stage result. The three stages
// have independent busy flags and may run concurrently; only the latest
// result is retained.
type Build struct {
	Client  *client.Client
	Session *Session
	Status  StatusFunc

	mu        sync.Mutex
	cfg       models.BuildConfig
	last      *models.StageResult
	stageBusy map[string]bool
}

// Config returns the cached build config.
func (b *Build) Config() models.BuildConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg
}

// LastResult returns the most recent stage result, or nil.
func (b *Build) LastResult() *models.StageResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// LoadConfig fetches the active project's build config. A response for a
// project that is no longer active is discarded.
func (b *Build) LoadConfig(ctx context.Context) error {
	project := b.Session.Active().Project
	cfg, err := b.Client.GetBuildConfig(ctx, project)
	otel.RecordClientOp(ctx, "build_config_load", err == nil)
	if err != nil {
		if detail := apiDetail(err); detail != "" {
			b.Status.set(detail)
		} else {
			b.Status.set("Failed to load build config.")
		}
		return err
	}
	if ctx.Err() != nil || b.Session.Active().Project != project {
		return nil
	}
	b.mu.Lock()
	b.cfg = *cfg
	b.mu.Unlock()
	return nil
}

// SaveConfig persists cfg for the active project and adopts the server's
// stored value. Empty command strings are valid and mean "not configured".
func (b *Build) SaveConfig(ctx context.Context, cfg models.BuildConfig) error {
	project := b.Session.Active().Project
	stored, err := b.Client.PutBuildConfig(ctx, project, cfg)
	otel.RecordClientOp(ctx, "build_config_save", err == nil)
	if err != nil {
		if detail := apiDetail(err); detail != "" {
			b.Status.set(detail)
		} else {
			b.Status.set("Failed to save build config.")
		}
		return err
	}
	b.mu.Lock()
	b.cfg = *stored
	b.mu.Unlock()
	b.Status.set("Build config saved.")
	return nil
}

// RunStage executes build, test, or run for the active project and stores the
// result. Returns (nil, nil) when the stage is already in flight.
func (b *Build) RunStage(ctx context.Context, stage string) (*models.StageResult, error) {
	if !models.ValidStage(stage) {
		return nil, fmt.Errorf("unknown stage %q", stage)
	}
	b.mu.Lock()
	if b.stageBusy == nil {
		b.stageBusy = make(map[string]bool)
	}
	if b.stageBusy[stage] {
		b.mu.Unlock()
		return nil, nil
	}
	b.stageBusy[stage] = true
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.stageBusy, stage)
		b.mu.Unlock()
	}()

	project := b.Session.Active().Project
	res, err := b.Client.RunStage(ctx, project, stage)
	if err != nil {
		otel.RecordStageRun(ctx, stage, false)
		if detail := apiDetail(err); detail != "" {
			b.Status.set(detail)
		} else {
			b.Status.set(fmt.Sprintf("Failed to run %s.", stage))
		}
		return nil, err
	}
	if res.Stage == "" {
		res.Stage = stage
	}
	otel.RecordStageRun(ctx, stage, res.OK)
	b.mu.Lock()
	b.last = res
	b.mu.Unlock()
	if res.OK {
		b.Status.set(fmt.Sprintf("%s passed", stage))
	} else {
		b.Status.set(fmt.Sprintf("%s failed", stage))
	}
	return res, nil
}

// RenderResult formats a stage result the way the panel displays it: the exit
// code followed by the first non-empty of stdout, stderr, error.
func RenderResult(res *models.StageResult) string {
	if res == nil {
		return ""
	}
	body := res.Stdout
	if body == "" {
		body = res.Stderr
	}
	if body == "" {
		body = res.Error
	}
	if body == "" {
		return fmt.Sprintf("exit=%d", res.ExitCode)
	}
	return fmt.Sprintf("exit=%d\n%s", res.ExitCode, body)
}
