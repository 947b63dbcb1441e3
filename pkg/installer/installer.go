// Package installer drives the install and removal pipeline: it fetches a package,
// installs its dependencies first, builds it, moves its outputs into the install root
// and records what it owns.
package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/yapm/internal/logger"
	"github.com/glorpus-work/yapm/pkg/archive"
	"github.com/glorpus-work/yapm/pkg/config"
	"github.com/glorpus-work/yapm/pkg/errutils"
	"github.com/glorpus-work/yapm/pkg/fsutil"
	"github.com/glorpus-work/yapm/pkg/hooks"
	"github.com/glorpus-work/yapm/pkg/manifest"
)

// Installer ties fetching, extraction, building, relocation and the registry together.
type Installer struct {
	Fetcher    Fetcher
	Extractor  Extractor
	Builder    Builder
	Relocator  Relocator
	Registry   Registry
	Prompter   Prompter   // consulted only for interactive installs
	HookRunner HookRunner // required only when a manifest declares hooks
	Options    Options
	Hooks      Hooks // Hooks for progress and event notifications
}

// Install installs name and, before it, every dependency it declares.
// When interactive is set the user is asked to confirm first.
func (i *Installer) Install(ctx context.Context, name string, interactive bool) error {
	return i.InstallBatch(ctx, []string{name}, interactive)
}

// InstallBatch installs names in order. The packages share one run: a dependency common to
// several of them is installed only once. Only the first package may prompt, and a failure
// stops the batch before the next package.
func (i *Installer) InstallBatch(ctx context.Context, names []string, interactive bool) error {
	if err := i.validate(); err != nil {
		return err
	}

	r := newRun()
	for idx, name := range names {
		if err := i.install(ctx, r, "", name, interactive && idx == 0, names); err != nil {
			emit(i.Hooks, Event{Phase: PhaseError, ID: name, Msg: err.Error()})
			return err
		}
	}
	return nil
}

func (i *Installer) validate() error {
	switch {
	case i.Fetcher == nil:
		return fmt.Errorf("fetcher is not configured")
	case i.Extractor == nil:
		return fmt.Errorf("extractor is not configured")
	case i.Builder == nil:
		return fmt.Errorf("builder is not configured")
	case i.Relocator == nil:
		return fmt.Errorf("relocator is not configured")
	case i.Registry == nil:
		return fmt.Errorf("registry is not configured")
	case i.Options.InstallRoot == "" || i.Options.WorkDir == "":
		return fmt.Errorf("install root and work directory are required: %w", errutils.ErrInvalidPath)
	}
	return nil
}

func (i *Installer) question(names []string) string {
	action := i.Options.Action
	if action == "" {
		action = "install"
	}
	return fmt.Sprintf("Are you sure you want to %s %s?", action, strings.Join(names, ", "))
}

// install runs the pipeline for a single package. batch is the list shown when asking
// for confirmation.
func (i *Installer) install(ctx context.Context, r *run, parent, name string, interactive bool, batch []string) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	// name becomes a directory below the work dir that is removed afterwards
	if !fsutil.IsPlainName(name) {
		return fmt.Errorf("%w: invalid package name %q", errutils.ErrValidation, name)
	}

	if interactive {
		if err := confirm(i.Prompter, i.question(batch)); err != nil {
			return err
		}
	}

	if err := r.enter(parent, name); err != nil {
		return err
	}
	if r.installed(name) {
		emit(i.Hooks, Event{Phase: PhaseSkipped, ID: name, Msg: "already installed in this run"})
		return nil
	}

	archiveName := name + archive.Extension
	emit(i.Hooks, Event{Phase: PhaseFetching, ID: name, Msg: archiveName})
	archivePath, err := i.Fetcher.Fetch(ctx, archiveName, i.Options.WorkDir)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", name, err)
	}

	root := filepath.Join(i.Options.WorkDir, name)
	// A tree kept from an earlier failed attempt must not leak stale build outputs.
	if rmErr := os.RemoveAll(root); rmErr != nil {
		return fmt.Errorf("failed to clear %s: %w", root, rmErr)
	}
	defer func() {
		if err != nil && !i.Options.KeepOnFailure {
			i.discard(name, root)
		}
	}()

	emit(i.Hooks, Event{Phase: PhaseExtracting, ID: name, Msg: archivePath})
	extractErr := i.Extractor.Extract(ctx, archivePath, i.Options.WorkDir)
	if extractErr == nil || !i.Options.KeepOnFailure {
		if rmErr := os.Remove(archivePath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logger.Warn("Failed to delete archive", logger.Fields{"archive": archivePath, "error": rmErr.Error()})
		}
	}
	if extractErr != nil {
		return fmt.Errorf("failed to extract %s: %w", name, extractErr)
	}

	m, err := manifest.Parse(filepath.Join(root, manifest.FileName))
	if err != nil {
		return fmt.Errorf("failed to read manifest of %s: %w", name, err)
	}
	if err := m.CheckCompatible(config.Version); err != nil {
		return fmt.Errorf("cannot install %s: %w", name, err)
	}

	if len(m.Depends) > 0 {
		emit(i.Hooks, Event{Phase: PhaseDependencies, ID: name, Msg: strings.Join(m.Depends, ", ")})
	}
	for _, dep := range m.Depends {
		if err := i.install(ctx, r, name, dep, false, nil); err != nil {
			return &DependencyError{Name: dep, Err: err}
		}
	}

	if err := i.runHook(ctx, m, manifest.PreBuild, name, root); err != nil {
		return err
	}

	if m.IsOpenSource {
		if err := i.build(ctx, m, name, root); err != nil {
			return err
		}
	}

	emit(i.Hooks, Event{Phase: PhaseRelocating, ID: name, Msg: i.Options.InstallRoot})
	moved, err := i.Relocator.Relocate(filepath.Join(root, m.BuildFolder), m.Files, i.Options.InstallRoot)
	if err != nil {
		return fmt.Errorf("failed to install files of %s: %w", name, err)
	}

	if err := i.runHook(ctx, m, manifest.PostInstall, name, root); err != nil {
		return err
	}

	emit(i.Hooks, Event{Phase: PhaseRecording, ID: name})
	if err := i.Registry.RecordInstall(name, moved); err != nil {
		return fmt.Errorf("failed to record %s: %w", name, err)
	}

	if rmErr := os.RemoveAll(root); rmErr != nil {
		logger.Warn("Failed to clean up package directory", logger.Fields{"package": name, "dir": root, "error": rmErr.Error()})
	}

	r.markInstalled(name)
	emit(i.Hooks, Event{Phase: PhaseDone, ID: name})
	logger.Debug("Package installed", logger.Fields{"package": name, "files": len(moved)})
	return nil
}

func (i *Installer) build(ctx context.Context, m *manifest.Manifest, name, root string) error {
	emit(i.Hooks, Event{Phase: PhaseBuilding, ID: name, Msg: m.BuildFile})
	res, err := i.Builder.Build(ctx, m.BuildFile, root)
	if err != nil {
		return fmt.Errorf("failed to build %s: %w", name, err)
	}
	if res.Output != "" {
		emit(i.Hooks, Event{Phase: PhaseBuildOutput, ID: name, Msg: res.Output})
	}
	if res.ExitCode != 0 {
		if i.Options.StrictBuild {
			return fmt.Errorf("%w: %s: %s exited with status %d", errutils.ErrBuildFailed, name, m.BuildFile, res.ExitCode)
		}
		emit(i.Hooks, Event{Phase: PhaseWarning, ID: name, Msg: fmt.Sprintf("%s exited with status %d", m.BuildFile, res.ExitCode)})
	}
	return nil
}

func (i *Installer) runHook(ctx context.Context, m *manifest.Manifest, hook manifest.Hook, name, root string) error {
	script, ok := m.HookScript(hook)
	if !ok {
		return nil
	}
	if i.HookRunner == nil {
		return fmt.Errorf("%w: %s declares %s but no hook runner is configured", errutils.ErrHookFailed, name, hook)
	}

	emit(i.Hooks, Event{Phase: PhaseHook, ID: name, Msg: string(hook)})
	return i.HookRunner.Run(ctx, filepath.Join(root, script), hooks.HookContext{
		PackageName: name,
		PackageDir:  root,
		InstallRoot: i.Options.InstallRoot,
		Operation:   string(hook),
	})
}

// discard removes what a failed install left in the work directory.
func (i *Installer) discard(name, root string) {
	if err := os.RemoveAll(root); err != nil {
		logger.Warn("Failed to remove package directory", logger.Fields{"package": name, "dir": root, "error": err.Error()})
		return
	}
	logger.Debug("Removed package directory after failure", logger.Fields{"package": name, "dir": root})
}
