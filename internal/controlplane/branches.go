package controlplane

import (
	"context"
	"fmt"
	"sync"

	"github.com/ainick2469-sudo/AIOffice-sub002/internal/otel"
	"github.com/ainick2469-sudo/AIOffice-sub002/pkg/client"
	"github.com/ainick2469-sudo/AIOffice-sub002/pkg/models"
)

// branchBusy holds the per-operation busy flags. Each operation refuses to
// start while its own flag is set; previews additionally carry an epoch so a
// stale response can never overwrite a newer one.
type branchBusy struct {
	refresh bool
	swtch   bool
	preview bool
	apply   bool
}

// Branches is the branch workflow engine over the session's active project:
// branch list, branch switch, and merge preview/apply.
type Branches struct {
	Client  *client.Client
	Session *Session
	Confirm Confirmer
	Status  StatusFunc

	mu           sync.Mutex
	branches     []string
	active       string
	mergeSource  string
	mergeTarget  string
	preview      *models.MergeOutcome
	previewEpoch uint64
	busy         branchBusy
}

// List returns the cached branch names.
func (b *Branches) List() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.branches))
	copy(out, b.branches)
	return out
}

// Active returns the cached active branch.
func (b *Branches) Active() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// MergeEndpoints returns the current merge source and target selection.
func (b *Branches) MergeEndpoints() (source, target string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mergeSource, b.mergeTarget
}

// SetMergeEndpoints overrides the merge selection.
func (b *Branches) SetMergeEndpoints(source, target string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mergeSource, b.mergeTarget = source, target
}

// Preview returns the last stored merge preview, or nil.
func (b *Branches) Preview() *models.MergeOutcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.preview
}

// Load refreshes the branch list for the active project, updates the
// session's branch, and seeds the merge endpoints. Responses for a project
// that is no longer active are discarded.
func (b *Branches) Load(ctx context.Context) error {
	b.mu.Lock()
	if b.busy.refresh {
		b.mu.Unlock()
		return nil
	}
	b.busy.refresh = true
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.busy.refresh = false
		b.mu.Unlock()
	}()

	project := b.Session.Active().Project
	set, err := b.Client.ListBranches(ctx, project, b.Session.Channel())
	otel.RecordClientOp(ctx, "branch_list", err == nil)
	if err != nil {
		if detail := apiDetail(err); detail != "" {
			b.Status.set(detail)
		} else {
			b.Status.set("Failed to load branches.")
		}
		return err
	}
	if ctx.Err() != nil || b.Session.Active().Project != project {
		return nil // stale: another switch or cancel won
	}

	current := set.Current()
	b.mu.Lock()
	b.branches = set.Branches
	if current != "" {
		b.active = current
	}
	b.mergeTarget = b.active
	if b.mergeSource == "" {
		for _, name := range set.Branches {
			if name != b.active {
				b.mergeSource = name
				break
			}
		}
	}
	b.mu.Unlock()
	if current != "" {
		b.Session.SetActiveBranch(current)
	}
	return nil
}

// Switch checks out name in the active project, creating it when
// createIfMissing, then refreshes the branch list to capture any new branch.
func (b *Branches) Switch(ctx context.Context, name string, createIfMissing bool) error {
	if name == "" {
		return fmt.Errorf("branch name is required")
	}
	b.mu.Lock()
	if b.busy.swtch {
		b.mu.Unlock()
		return nil
	}
	b.busy.swtch = true
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.busy.swtch = false
		b.mu.Unlock()
	}()

	project := b.Session.Active().Project
	res, err := b.Client.SwitchBranch(ctx, project, b.Session.Channel(), name, createIfMissing)
	otel.RecordClientOp(ctx, "branch_switch", err == nil)
	if err != nil {
		if detail := apiDetail(err); detail != "" {
			b.Status.set(detail)
		} else {
			b.Status.set("Failed to switch branch.")
		}
		return err
	}
	if res.Active != nil {
		b.Session.SetActive(*res.Active)
	} else {
		branch := res.Branch
		if branch == "" {
			branch = name
		}
		b.Session.SetActiveBranch(branch)
	}
	b.Status.set(fmt.Sprintf("Switched to branch %s", name))
	return b.Load(ctx)
}

// PreviewMerge computes a dry-run merge of the current source into target and
// stores the outcome verbatim. Pure: the branch set is never mutated. A
// response from an older preview is dropped once a newer one was issued.
func (b *Branches) PreviewMerge(ctx context.Context) (*models.MergeOutcome, error) {
	b.mu.Lock()
	source, target := b.mergeSource, b.mergeTarget
	if b.busy.preview {
		b.mu.Unlock()
		return nil, nil
	}
	b.busy.preview = true
	b.previewEpoch++
	epoch := b.previewEpoch
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.busy.preview = false
		b.mu.Unlock()
	}()

	if source == "" || target == "" {
		return nil, fmt.Errorf("merge source and target are required")
	}
	project := b.Session.Active().Project
	outcome, err := b.Client.MergePreview(ctx, project, source, target)
	otel.RecordClientOp(ctx, "merge_preview", err == nil && outcome != nil && outcome.OK)
	if err != nil {
		if detail := apiDetail(err); detail != "" {
			b.Status.set(detail)
		} else {
			b.Status.set("Merge preview failed.")
		}
		return nil, err
	}

	b.mu.Lock()
	if epoch != b.previewEpoch {
		b.mu.Unlock()
		return nil, nil // a newer preview is in flight or already stored
	}
	b.preview = outcome
	b.mu.Unlock()

	switch {
	case !outcome.OK:
		msg := outcome.Error
		if msg == "" {
			msg = outcome.Stderr
		}
		if msg == "" {
			msg = "Merge preview failed."
		}
		b.Status.set(msg)
	case outcome.HasConflicts:
		b.Status.set(fmt.Sprintf("Merge preview found %d conflict(s).", len(outcome.Conflicts)))
	default:
		b.Status.set("Merge preview clean.")
	}
	return outcome, nil
}

// ApplyMerge merges source into target after operator confirmation. The
// server stays authoritative on whether the merge happened; the branch list
// is reloaded only on ok.
func (b *Branches) ApplyMerge(ctx context.Context) (*models.MergeOutcome, error) {
	b.mu.Lock()
	source, target := b.mergeSource, b.mergeTarget
	if b.busy.apply {
		b.mu.Unlock()
		return nil, nil
	}
	b.busy.apply = true
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.busy.apply = false
		b.mu.Unlock()
	}()

	if source == "" || target == "" {
		return nil, fmt.Errorf("merge source and target are required")
	}
	if b.Confirm != nil && !b.Confirm.Confirm(fmt.Sprintf("Apply merge %s -> %s?", source, target)) {
		return nil, nil
	}

	project := b.Session.Active().Project
	outcome, err := b.Client.MergeApply(ctx, project, source, target)
	otel.RecordClientOp(ctx, "merge_apply", err == nil && outcome != nil && outcome.OK)
	if err != nil {
		if detail := apiDetail(err); detail != "" {
			b.Status.set(detail)
		} else {
			b.Status.set("Merge apply failed.")
		}
		return nil, err
	}
	if !outcome.OK {
		msg := outcome.Error
		if msg == "" {
			msg = outcome.Stderr
		}
		if msg == "" {
			msg = "Merge apply failed."
		}
		b.Status.set(msg)
		return outcome, nil
	}
	b.Status.set(fmt.Sprintf("Merged %s into %s", source, target))
	return outcome, b.Load(ctx)
}
