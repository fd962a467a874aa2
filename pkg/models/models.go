// Package models provides shared types for the AI Office HTTP API and external tools.
// These types mirror the API JSON and are stable for use by pkg/client and other consumers.
package models

// Project is a workspace known to the backend.
type Project struct {
	Name         string `json:"name"`
	Path         string `json:"path,omitempty"`
	DisplayName  string `json:"display_name,omitempty"`
	DetectedKind string `json:"detected_kind,omitempty"`
	Branch       string `json:"branch,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
	LastOpenedAt string `json:"last_opened_at,omitempty"`
}

// ActiveProjectBinding is the (project, branch, path) tuple selected in a channel.
// Exactly one binding exists per channel on the server; clients cache it.
type ActiveProjectBinding struct {
	Channel string `json:"channel,omitempty"`
	Project string `json:"project"`
	Branch  string `json:"branch"`
	Path    string `json:"path,omitempty"`
}

// BranchSet is a project's branch list and its active branch.
type BranchSet struct {
	Branches []string `json:"branches"`
	// The server reports the checked-out branch under either key.
	ActiveBranch  string `json:"active_branch,omitempty"`
	CurrentBranch string `json:"current_branch,omitempty"`
}

// Current returns the checked-out branch, preferring active_branch over
// current_branch when both are present.
func (b BranchSet) Current() string {
	if b.ActiveBranch != "" {
		return b.ActiveBranch
	}
	return b.CurrentBranch
}

// MergeConflict is a single conflicted path reported by merge preview or apply.
type MergeConflict struct {
	Path   string `json:"path"`
	Reason string `json:"reason,omitempty"`
}

// MergeOutcome is the result of a merge preview or apply. Preview is pure;
// apply mutates on the server only when ok and no conflicts, but the server
// stays authoritative — clients must not infer beyond these fields.
type MergeOutcome struct {
	OK           bool            `json:"ok"`
	HasConflicts bool            `json:"has_conflicts"`
	Conflicts    []MergeConflict `json:"conflicts,omitempty"`
	Stdout       string          `json:"stdout,omitempty"`
	Stderr       string          `json:"stderr,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// BuildConfig holds a project's build/test/run commands. Empty strings mean
// "not configured"; the server refuses to execute an empty command.
type BuildConfig struct {
	BuildCmd string `json:"build_cmd"`
	TestCmd  string `json:"test_cmd"`
	RunCmd   string `json:"run_cmd"`
}

// StageResult is the outcome of the most recent build/test/run execution.
type StageResult struct {
	Stage    string `json:"stage"`
	OK       bool   `json:"ok"`
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Process is a server-managed child process. Logs is only populated when the
// listing was requested with include_logs.
type Process struct {
	ID             string   `json:"id"`
	Name           string   `json:"name,omitempty"`
	Command        string   `json:"command"`
	Status         string   `json:"status"`
	PID            int      `json:"pid,omitempty"`
	Cwd            string   `json:"cwd,omitempty"`
	Port           int      `json:"port,omitempty"`
	PolicyMode     string   `json:"policy_mode,omitempty"`
	PermissionMode string   `json:"permission_mode,omitempty"`
	Logs           []string `json:"logs,omitempty"`
}

// DisplayName returns the process's name, falling back to its command, then id.
func (p Process) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if p.Command != "" {
		return p.Command
	}
	return p.ID
}

// ConsoleEvent is one entry from the channel's bounded event ring.
type ConsoleEvent struct {
	ID        string         `json:"id"`
	Source    string         `json:"source"`
	EventType string         `json:"event_type"`
	Severity  string         `json:"severity,omitempty"`
	CreatedAt string         `json:"created_at"`
	Message   string         `json:"message,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// DeleteReceipt is the response to the first call of a two-step project delete.
type DeleteReceipt struct {
	RequiresConfirmation bool   `json:"requires_confirmation"`
	ConfirmToken         string `json:"confirm_token,omitempty"`
}

// KillSwitchResult reports what the kill switch did.
type KillSwitchResult struct {
	AutonomyMode string `json:"autonomy_mode"`
	StoppedCount int    `json:"stopped_count"`
}

// DebugBundleRequest selects what goes into a debug bundle export.
type DebugBundleRequest struct {
	Channel        string `json:"channel"`
	Minutes        int    `json:"minutes"`
	IncludePrompts bool   `json:"include_prompts"`
	RedactSecrets  bool   `json:"redact_secrets"`
}
