// Package setup performs the first-run preparation of a yapm installation: it creates the
// install root and the config directory and writes a shell snippet that puts the install
// root on PATH.
package setup

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glorpus-work/yapm/internal/logger"
	"github.com/glorpus-work/yapm/pkg/config"
	"github.com/glorpus-work/yapm/pkg/fsutil"
)

// Result describes what Run did.
type Result struct {
	AlreadyDone bool
	ScriptPath  string
	Hint        string
}

// Run prepares the directories and the PATH snippet. pathEnv is the current value of PATH;
// when it already lists the install root and the install root exists, nothing is changed.
func Run(cfg *config.Config, pathEnv string) (*Result, error) {
	root := cfg.Settings.InstallRoot

	if fsutil.DirExists(root) && onPath(root, pathEnv) {
		return &Result{AlreadyDone: true}, nil
	}

	if err := fsutil.EnsureDirs(root, cfg.Settings.ConfigDir); err != nil {
		return nil, err
	}

	scriptPath := cfg.SetupScriptPath()
	if err := writeScript(scriptPath, Snippet(root)); err != nil {
		return nil, err
	}

	logger.Debug("Wrote setup script", logger.Fields{"path": scriptPath})
	return &Result{
		ScriptPath: scriptPath,
		Hint:       fmt.Sprintf("add 'source %s' to your ~/.bashrc, then run 'source ~/.bashrc'", scriptPath),
	}, nil
}

// Snippet returns the shell line that appends root to PATH.
func Snippet(root string) string {
	return fmt.Sprintf("export PATH=\"$PATH:%s\"\n", root)
}

func onPath(root, pathEnv string) bool {
	want := filepath.Clean(root)
	for _, entry := range filepath.SplitList(pathEnv) {
		if entry == "" {
			continue
		}
		expanded, err := fsutil.ExpandHome(entry)
		if err != nil {
			expanded = entry
		}
		if filepath.Clean(expanded) == want {
			return true
		}
	}
	return false
}

func writeScript(path, content string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".setup-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, fsutil.FileModeDefault); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

