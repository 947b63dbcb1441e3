package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/yapm/internal/logger"
	"github.com/glorpus-work/yapm/pkg/fsutil"
)

// Uninstaller deletes the files a package owns and drops its registry entry.
type Uninstaller struct {
	Registry    Registry
	Prompter    Prompter
	InstallRoot string
	Hooks       Hooks
}

// RemoveBatch removes names in order after a single confirmation when interactive is set.
// It stops at the first failure.
func (u *Uninstaller) RemoveBatch(ctx context.Context, names []string, interactive bool) error {
	if interactive {
		question := fmt.Sprintf("Are you sure you want to remove %s?", strings.Join(names, ", "))
		if err := confirm(u.Prompter, question); err != nil {
			return err
		}
	}

	for _, name := range names {
		if err := u.Remove(ctx, name); err != nil {
			emit(u.Hooks, Event{Phase: PhaseError, ID: name, Msg: err.Error()})
			return err
		}
	}
	return nil
}

// Remove deletes every file recorded for name below the install root, then removes the
// registry entry. Files that are already gone or cannot be deleted are reported and
// skipped; only an unknown package or a registry failure is an error.
func (u *Uninstaller) Remove(ctx context.Context, name string) error {
	if u.Registry == nil {
		return fmt.Errorf("registry is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	files, err := u.Registry.Lookup(name)
	if err != nil {
		return err
	}

	for _, f := range files {
		u.removeFile(name, f)
	}

	if _, err := u.Registry.Remove(name); err != nil {
		return fmt.Errorf("failed to update registry for %s: %w", name, err)
	}

	emit(u.Hooks, Event{Phase: PhaseDone, ID: name})
	return nil
}

func (u *Uninstaller) removeFile(name, f string) {
	path := filepath.Join(u.InstallRoot, f)
	if !fsutil.IsWithin(u.InstallRoot, path) || filepath.Clean(path) == filepath.Clean(u.InstallRoot) {
		emit(u.Hooks, Event{Phase: PhaseWarning, ID: name, Msg: fmt.Sprintf("%s is outside the install root, skipping", f)})
		return
	}

	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			emit(u.Hooks, Event{Phase: PhaseNotFound, ID: name, Msg: path})
			return
		}
	}

	if err := os.RemoveAll(path); err != nil {
		logger.Warn("Failed to delete file", logger.Fields{"package": name, "file": path, "error": err.Error()})
		emit(u.Hooks, Event{Phase: PhaseWarning, ID: name, Msg: fmt.Sprintf("failed to delete %s: %v", path, err)})
		return
	}
	emit(u.Hooks, Event{Phase: PhaseRemoved, ID: name, Msg: path})
}
