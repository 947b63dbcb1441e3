package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/yapm/internal/logger"
	"github.com/glorpus-work/yapm/pkg/archive"
	"github.com/glorpus-work/yapm/pkg/build"
	"github.com/glorpus-work/yapm/pkg/config"
	"github.com/glorpus-work/yapm/pkg/download"
	"github.com/glorpus-work/yapm/pkg/fsutil"
	"github.com/glorpus-work/yapm/pkg/hooks"
	"github.com/glorpus-work/yapm/pkg/installer"
	"github.com/glorpus-work/yapm/pkg/registry"
	"github.com/glorpus-work/yapm/pkg/relocate"
)

// These variables will be set by the main package
var (
	ConfigPath *string
	Verbose    *bool
	WorkDir    *string
)

// loadConfig reads the configuration selected by --config, applies the command line
// overrides and initializes logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if WorkDir != nil && *WorkDir != "" {
		dir, err := fsutil.ExpandHome(*WorkDir)
		if err != nil {
			return nil, fmt.Errorf("invalid work directory: %w", err)
		}
		if dir, err = filepath.Abs(dir); err != nil {
			return nil, fmt.Errorf("invalid work directory: %w", err)
		}
		cfg.Settings.WorkDir = dir
	}

	initLogging(cfg)
	logger.Debug("Configuration loaded", logger.Fields{
		"install_root": cfg.Settings.InstallRoot,
		"work_dir":     cfg.Settings.WorkDir,
		"repository":   cfg.Settings.RepositoryURL,
	})
	return cfg, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		// LoadConfig reports the empty path with a clearer message
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}

// loadFetcher creates the repository client. Downloads draw a progress bar when the
// command writes to a terminal.
func loadFetcher(cmd *cobra.Command, cfg *config.Config) *download.Client {
	opts := []download.Option{download.WithAuthenticator(cfg.Authenticator())}
	if out := cmd.OutOrStdout(); isTerminal(out) {
		opts = append(opts, download.WithProgress(newProgressBar(out).Update))
	}
	return download.NewClient(cfg.Settings.RepositoryURL, cfg.Settings.HTTPTimeout, cfg.Settings.UserAgent, opts...)
}

func loadInstaller(cmd *cobra.Command, cfg *config.Config, action string) *installer.Installer {
	opts := installer.OptionsFromConfig(cfg)
	opts.Action = action

	return &installer.Installer{
		Fetcher:    loadFetcher(cmd, cfg),
		Extractor:  archive.NewManager(),
		Builder:    build.NewExecutor(cfg.Settings.Shell),
		Relocator:  relocate.NewRelocator(),
		Registry:   registry.New(cfg.RegistryPath()),
		Prompter:   newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()),
		HookRunner: hooks.NewExecutor(),
		Options:    opts,
		Hooks:      eventHooks(cmd.OutOrStdout()),
	}
}

func loadUninstaller(cmd *cobra.Command, cfg *config.Config) *installer.Uninstaller {
	return &installer.Uninstaller{
		Registry:    registry.New(cfg.RegistryPath()),
		Prompter:    newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()),
		InstallRoot: cfg.Settings.InstallRoot,
		Hooks:       eventHooks(cmd.OutOrStdout()),
	}
}
