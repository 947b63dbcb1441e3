package setup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/yapm/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Settings.InstallRoot = filepath.Join(root, "programs")
	cfg.Settings.ConfigDir = filepath.Join(root, ".config", "yapm")
	return cfg
}

func TestRun_FirstRun(t *testing.T) {
	cfg := testConfig(t)

	res, err := Run(cfg, "/usr/bin:/bin")
	require.NoError(t, err)
	assert.False(t, res.AlreadyDone)
	assert.Equal(t, cfg.SetupScriptPath(), res.ScriptPath)
	assert.Contains(t, res.Hint, cfg.SetupScriptPath())

	assert.DirExists(t, cfg.Settings.InstallRoot)
	assert.DirExists(t, cfg.Settings.ConfigDir)

	content, err := os.ReadFile(cfg.SetupScriptPath())
	require.NoError(t, err)
	assert.Equal(t, `export PATH="$PATH:`+cfg.Settings.InstallRoot+"\"\n", string(content))
}

func TestRun_AlreadyDone(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.Settings.InstallRoot, 0o755))

	res, err := Run(cfg, "/usr/bin"+string(os.PathListSeparator)+cfg.Settings.InstallRoot+"/")
	require.NoError(t, err)
	assert.True(t, res.AlreadyDone)
	assert.NoFileExists(t, cfg.SetupScriptPath())
}

func TestRun_OnPathButMissingRoot(t *testing.T) {
	cfg := testConfig(t)

	res, err := Run(cfg, cfg.Settings.InstallRoot)
	require.NoError(t, err)
	assert.False(t, res.AlreadyDone, "the install root must exist as well")
	assert.DirExists(t, cfg.Settings.InstallRoot)
}

func TestRun_Idempotent(t *testing.T) {
	cfg := testConfig(t)

	_, err := Run(cfg, "/usr/bin")
	require.NoError(t, err)
	first, err := os.ReadFile(cfg.SetupScriptPath())
	require.NoError(t, err)

	res, err := Run(cfg, "/usr/bin")
	require.NoError(t, err)
	assert.False(t, res.AlreadyDone, "PATH still lacks the install root")

	second, err := os.ReadFile(cfg.SetupScriptPath())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	res, err = Run(cfg, "/usr/bin"+string(os.PathListSeparator)+cfg.Settings.InstallRoot)
	require.NoError(t, err)
	assert.True(t, res.AlreadyDone)
}

func TestOnPath_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.True(t, onPath(filepath.Join(home, "programs"), "/bin:~/programs"))
	assert.False(t, onPath(filepath.Join(home, "programs"), "/bin:~/programs2"))
	assert.False(t, onPath(filepath.Join(home, "programs"), ""))
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "export PATH=\"$PATH:/home/u/programs\"\n", Snippet("/home/u/programs"))
}
