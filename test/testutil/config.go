package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glorpus-work/yapm/pkg/config"
	"github.com/glorpus-work/yapm/pkg/fsutil"
)

// SetupTestConfig returns a configuration whose directories all live below a fresh
// temporary directory. The install root and config directory exist; the work directory
// does not, so callers exercise its creation.
func SetupTestConfig(t *testing.T, repoURL string) *config.Config {
	t.Helper()

	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Settings.InstallRoot = filepath.Join(root, "programs")
	cfg.Settings.ConfigDir = filepath.Join(root, "config")
	cfg.Settings.WorkDir = filepath.Join(root, "work")
	cfg.Settings.RepositoryURL = repoURL
	cfg.Settings.HTTPTimeout = 10 * time.Second
	cfg.Settings.Shell = "sh"

	if err := fsutil.EnsureDirs(cfg.Settings.InstallRoot, cfg.Settings.ConfigDir); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}
	return cfg
}
