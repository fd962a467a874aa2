package controlplane

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ainick2469-sudo/AIOffice-sub002/internal/otel"
	"github.com/ainick2469-sudo/AIOffice-sub002/pkg/client"
	"github.com/ainick2469-sudo/AIOffice-sub002/pkg/models"
)

// DeleteOutcome is the terminal state of the two-step delete protocol.
type DeleteOutcome int

const (
	DeleteAborted DeleteOutcome = iota // operator declined, nothing sent
	DeleteFailed                       // a wire call failed
	DeleteDone                         // project gone (one or two calls)
)

// Registry is the project registry view: the project list plus the channel's
// active-project binding. Switching projects fires the cascade of per-project
// reloads registered via BindCascade.
type Registry struct {
	Client  *client.Client
	Session *Session
	Confirm Confirmer
	Status  StatusFunc

	mu       sync.Mutex
	projects []models.Project
	stale    bool
	cascade  []func(ctx context.Context, project string)
}

// BindCascade registers the reloads to run after a successful project switch,
// in order. Each fn receives the project the switch targeted; implementations
// must discard their response when the active project moved on meanwhile.
func (r *Registry) BindCascade(fns ...func(ctx context.Context, project string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cascade = append(r.cascade, fns...)
}

// Projects returns the last successfully loaded project list.
func (r *Registry) Projects() []models.Project {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Project, len(r.projects))
	copy(out, r.projects)
	return out
}

// Stale reports whether the active binding fell back to the default after a
// failed fetch.
func (r *Registry) Stale() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stale
}

// List refreshes the project list. A failed fetch keeps the previous list.
func (r *Registry) List(ctx context.Context) ([]models.Project, error) {
	projects, err := r.Client.ListProjects(ctx)
	otel.RecordClientOp(ctx, "project_list", err == nil)
	if err != nil {
		r.Status.set("Failed to load projects")
		return nil, err
	}
	r.mu.Lock()
	r.projects = projects
	r.mu.Unlock()
	return projects, nil
}

// LoadActive fetches the channel's active binding. On failure the session
// keeps the default binding and the registry is marked stale.
func (r *Registry) LoadActive(ctx context.Context) models.ActiveProjectBinding {
	b, err := r.Client.ActiveProject(ctx, r.Session.Channel())
	otel.RecordClientOp(ctx, "project_active", err == nil)
	if err != nil || b.Project == "" {
		r.mu.Lock()
		r.stale = true
		r.mu.Unlock()
		return r.Session.Active()
	}
	r.mu.Lock()
	r.stale = false
	r.mu.Unlock()
	r.Session.SetActive(*b)
	return *b
}

// NormalizeName lowercases and trims a project name the way create does
// before dispatch.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Create creates a project, then reloads the list. The name is normalised and
// validated client-side; template must be empty or react/python/rust.
func (r *Registry) Create(ctx context.Context, name, template string) error {
	name = NormalizeName(name)
	if name == "" {
		return fmt.Errorf("project name is required")
	}
	if !models.ValidProjectName(name) {
		return fmt.Errorf("invalid project name %q: must match [a-z0-9][a-z0-9-]*", name)
	}
	if !models.ValidTemplate(template) {
		return fmt.Errorf("unknown template %q", template)
	}
	_, err := r.Client.CreateProject(ctx, name, template)
	otel.RecordClientOp(ctx, "project_create", err == nil)
	if err != nil {
		r.Status.set(err.Error())
		return err
	}
	_, _ = r.List(ctx)
	r.Status.set(fmt.Sprintf("Created project %s", name))
	return nil
}

// SwitchTo makes name the channel's active project, adopts the server's
// binding, and fires the cascade. Cascade responses that arrive after another
// switch are discarded by the components themselves.
func (r *Registry) SwitchTo(ctx context.Context, name string) error {
	active, err := r.Client.SwitchProject(ctx, r.Session.Channel(), name)
	otel.RecordClientOp(ctx, "project_switch", err == nil)
	if err != nil {
		if detail := apiDetail(err); detail != "" {
			r.Status.set(detail)
		} else {
			r.Status.set("Failed to switch project.")
		}
		return err
	}
	r.Session.SetActive(*active)
	r.Status.set(fmt.Sprintf("Switched to %s", active.Project))

	// Cascade reloads run after the status line so a failing reload's
	// message is what the operator ends up seeing.
	r.mu.Lock()
	cascade := make([]func(context.Context, string), len(r.cascade))
	copy(cascade, r.cascade)
	r.mu.Unlock()
	for _, fn := range cascade {
		fn(ctx, active.Project)
	}
	return nil
}

// Delete removes a project via the two-step protocol: the first DELETE either
// reports the project already gone or returns a confirm token, in which case
// a second DELETE is issued immediately with the token. The operator confirms
// once, up front; a declined confirmation is a silent no-op. The confirm
// token is never cached across attempts.
func (r *Registry) Delete(ctx context.Context, name string) (DeleteOutcome, error) {
	if r.Confirm != nil && !r.Confirm.Confirm(fmt.Sprintf("Delete project %s?", name)) {
		return DeleteAborted, nil
	}

	receipt, err := r.Client.DeleteProject(ctx, name)
	if err != nil {
		otel.RecordClientOp(ctx, "project_delete", false)
		r.Status.set(err.Error())
		return DeleteFailed, err
	}
	if receipt.RequiresConfirmation && receipt.ConfirmToken != "" {
		if err := r.Client.ConfirmDeleteProject(ctx, name, receipt.ConfirmToken); err != nil {
			otel.RecordClientOp(ctx, "project_delete", false)
			r.Status.set(err.Error())
			return DeleteFailed, err
		}
	}
	otel.RecordClientOp(ctx, "project_delete", true)
	_, _ = r.List(ctx)
	r.Status.set(fmt.Sprintf("Deleted project %s", name))
	return DeleteDone, nil
}

// apiDetail extracts the server-reported detail from an error, if any.
func apiDetail(err error) string {
	if apiErr, ok := err.(*client.APIError); ok {
		return apiErr.Detail
	}
	return ""
}
