package installer

import (
	"fmt"
	"strings"

	"github.com/glorpus-work/yapm/pkg/config"
	"github.com/glorpus-work/yapm/pkg/errutils"
)

// Event phases reported through Hooks.
const (
	PhaseFetching     = "fetching"
	PhaseExtracting   = "extracting"
	PhaseDependencies = "dependencies"
	PhaseHook         = "hook"
	PhaseBuilding     = "building"
	PhaseBuildOutput  = "build-output"
	PhaseRelocating   = "relocating"
	PhaseRecording    = "recording"
	PhaseSkipped      = "skipped"
	PhaseRemoved      = "removed"
	PhaseNotFound     = "not-found"
	PhaseWarning      = "warning"
	PhaseDone         = "done"
	PhaseError        = "error"
)

// Event represents a simple progress notification.
type Event struct {
	Phase string
	ID    string // package name
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

// Options control install execution.
type Options struct {
	InstallRoot   string
	WorkDir       string // archives are fetched and extracted here
	KeepOnFailure bool   // keep the extracted package root when an install fails
	StrictBuild   bool   // a nonzero build exit status fails the install
	Action        string // verb used in confirmation questions, "install" when empty
}

// OptionsFromConfig derives install options from the application configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		InstallRoot:   cfg.Settings.InstallRoot,
		WorkDir:       cfg.Settings.WorkDir,
		KeepOnFailure: cfg.Settings.KeepOnFailure,
		StrictBuild:   cfg.Settings.StrictBuild,
	}
}

// DependencyError reports the dependency whose install failed. It matches both
// errutils.ErrDependencyInstallFailed and the underlying cause.
type DependencyError struct {
	Name string
	Err  error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %s: %v", errutils.ErrDependencyInstallFailed, e.Name, e.Err)
}

func (e *DependencyError) Unwrap() []error {
	return []error{errutils.ErrDependencyInstallFailed, e.Err}
}

// confirm asks question and fails with ErrUserAborted unless the answer is y or yes.
func confirm(p Prompter, question string) error {
	if p == nil {
		return fmt.Errorf("prompter is not configured")
	}
	answer, err := p.Prompt(question)
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if !isAffirmative(answer) {
		return errutils.ErrUserAborted
	}
	return nil
}

func isAffirmative(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
