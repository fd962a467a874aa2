package models

import "regexp"

// Process statuses used throughout the codebase.
const (
	ProcessStarting = "starting"
	ProcessRunning  = "running"
	ProcessExited   = "exited"
	ProcessFailed   = "failed"
	ProcessStopped  = "stopped"
)

// Autonomy modes. Kill switch forces SAFE.
const (
	AutonomySafe     = "SAFE"
	AutonomyTrusted  = "TRUSTED"
	AutonomyElevated = "ELEVATED"
)

// Execution stages.
const (
	StageBuild = "build"
	StageTest  = "test"
	StageRun   = "run"
)

// Project templates accepted by create.
const (
	TemplateReact  = "react"
	TemplatePython = "python"
	TemplateRust   = "rust"
)

// Defaults.
const (
	DefaultProject      = "ai-office"
	DefaultBranch       = "main"
	DefaultConsoleLimit = 200
)

var projectNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ValidProjectName reports whether name is a lowercase slug acceptable to the server.
func ValidProjectName(name string) bool {
	return projectNameRe.MatchString(name)
}

// ValidAutonomyMode reports whether mode is one of SAFE, TRUSTED, ELEVATED.
func ValidAutonomyMode(mode string) bool {
	switch mode {
	case AutonomySafe, AutonomyTrusted, AutonomyElevated:
		return true
	}
	return false
}

// ValidStage reports whether stage is build, test, or run.
func ValidStage(stage string) bool {
	switch stage {
	case StageBuild, StageTest, StageRun:
		return true
	}
	return false
}

// ValidTemplate reports whether template is empty or a known scaffold.
func ValidTemplate(template string) bool {
	switch template {
	case "", TemplateReact, TemplatePython, TemplateRust:
		return true
	}
	return false
}

// DefaultBinding returns the binding a channel has before any switch:
// project ai-office on branch main.
func DefaultBinding(channel string) ActiveProjectBinding {
	return ActiveProjectBinding{Channel: channel, Project: DefaultProject, Branch: DefaultBranch}
}
