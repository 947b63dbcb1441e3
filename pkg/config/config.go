// Package config provides configuration management for the yapm package manager.
// It handles loading, validating, and saving the application settings. The configuration
// is read once at startup and passed explicitly to every component; nothing in the
// install pipeline reads ambient process state.
package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/yapm/pkg/errutils"
	"github.com/glorpus-work/yapm/pkg/fsutil"
)

// Version is the yapm release, overridable at link time.
var Version = "0.1.0"

// Config represents the application configuration.
type Config struct {
	Settings Settings `yaml:"settings"`

	// derivedWorkDir is set when WorkDir was filled in from the working directory;
	// such a value is never written back by SaveConfig.
	derivedWorkDir bool
}

// Settings represents general application settings.
type Settings struct {
	// Layout
	InstallRoot string `yaml:"install_root"`
	ConfigDir   string `yaml:"config_dir"`
	WorkDir     string `yaml:"work_dir,omitempty"` // empty means the working directory at startup

	// Network settings
	RepositoryURL  string        `yaml:"repository_url"`
	HTTPTimeout    time.Duration `yaml:"http_timeout"`
	UserAgent      string        `yaml:"user_agent"`
	RepositoryAuth *AuthConfig   `yaml:"repository_auth,omitempty"`

	// Build settings
	Shell         string `yaml:"shell"`
	KeepOnFailure bool   `yaml:"keep_on_failure"`
	StrictBuild   bool   `yaml:"strict_build"`

	// Output settings
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // text, json
}

// Default configuration values.
const (
	// DefaultRepositoryURL is the package repository queried when none is configured.
	DefaultRepositoryURL = "http://127.0.0.1:8000/"

	// DefaultHTTPTimeout bounds a whole archive download.
	DefaultHTTPTimeout = 5 * time.Minute

	// DefaultShell interprets build scripts.
	DefaultShell = "bash"

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2

	// ConfigFileName is the name of the application config file inside the config directory.
	ConfigFileName = "yapm.yaml"

	registryFileName = "installed.json"
	mirrorsFileName  = "mirrors.json"
	setupFileName    = "setup.sh"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	installRoot, err := fsutil.DefaultInstallRoot()
	if err != nil {
		installRoot = fsutil.InstallDirName
	}
	configDir, err := fsutil.DefaultConfigDir()
	if err != nil {
		configDir = filepath.Join(".config", fsutil.AppName)
	}

	return &Config{
		Settings: Settings{
			InstallRoot:   installRoot,
			ConfigDir:     configDir,
			RepositoryURL: DefaultRepositoryURL,
			HTTPTimeout:   DefaultHTTPTimeout,
			UserAgent:     DefaultUserAgent(),
			Shell:         DefaultShell,
			KeepOnFailure: true,
			StrictBuild:   true,
			LogLevel:      "info",
			LogFormat:     "text",
		},
	}
}

// DefaultUserAgent returns the User-Agent sent with every repository request.
func DefaultUserAgent() string {
	return fsutil.AppName + "/" + Version
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := fsutil.DefaultConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, ConfigFileName), nil
}

// LoadConfig loads configuration from a file. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errutils.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errutils.ErrInvalidConfigPath, err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			if err := cfg.finalize(); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, errutils.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
// Keys absent from the document keep their default values.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errutils.Wrap(err, "failed to read config data")
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: %w", errutils.ErrConfigParse, err)
	}

	if err := config.finalize(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) finalize() error {
	if err := c.applyDefaults(); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errutils.ErrConfigValidation, err)
	}
	return nil
}

// applyDefaults fills in values explicitly left empty, expands "~" and pins the work directory.
func (c *Config) applyDefaults() error {
	defaults := DefaultConfig()

	if c.Settings.InstallRoot == "" {
		c.Settings.InstallRoot = defaults.Settings.InstallRoot
	}
	if c.Settings.ConfigDir == "" {
		c.Settings.ConfigDir = defaults.Settings.ConfigDir
	}
	if c.Settings.RepositoryURL == "" {
		c.Settings.RepositoryURL = defaults.Settings.RepositoryURL
	}
	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = defaults.Settings.HTTPTimeout
	}
	if c.Settings.UserAgent == "" {
		c.Settings.UserAgent = defaults.Settings.UserAgent
	}
	if c.Settings.Shell == "" {
		c.Settings.Shell = defaults.Settings.Shell
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
	if c.Settings.LogFormat == "" {
		c.Settings.LogFormat = defaults.Settings.LogFormat
	}

	if !strings.HasSuffix(c.Settings.RepositoryURL, "/") {
		c.Settings.RepositoryURL += "/"
	}

	for _, p := range []*string{&c.Settings.InstallRoot, &c.Settings.ConfigDir, &c.Settings.WorkDir} {
		expanded, err := fsutil.ExpandHome(*p)
		if err != nil {
			return fmt.Errorf("%w: %w", errutils.ErrInvalidConfigPath, err)
		}
		*p = expanded
	}

	if c.Settings.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("%w: %w", errutils.ErrInvalidConfigPath, err)
		}
		c.Settings.WorkDir = wd
		c.derivedWorkDir = true
	}

	return nil
}

// SaveConfig saves configuration to a file.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errutils.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %w", errutils.ErrInvalidConfigPath, err)
	}

	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, fsutil.DirModeDefault); err != nil {
		return fmt.Errorf("%w: %w", errutils.ErrConfigDirectory, err)
	}

	file, err := os.CreateTemp(dir, ".yapm-config-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", errutils.ErrConfigFileCreate, err)
	}
	tempPath := file.Name()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	out := *c
	if c.derivedWorkDir {
		out.Settings.WorkDir = ""
	}
	if err := encoder.Encode(&out); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("%w: %w", errutils.ErrConfigEncode, err)
	}

	_ = encoder.Close()
	if err := file.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("%w: %w", errutils.ErrConfigFileCreate, err)
	}

	if err := os.Chmod(tempPath, fsutil.FileModeDefault); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("%w: %w", errutils.ErrConfigFileCreate, err)
	}

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("%w: %w", errutils.ErrConfigFileRename, err)
	}

	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errutils.ErrConfigEncode, err)
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errutils.ErrConfigValidation
	}
	return validateSettings(c.Settings)
}

func validateSettings(s Settings) error {
	if s.HTTPTimeout < 0 {
		return errutils.ErrHTTPTimeoutNegative
	}
	if s.RepositoryURL == "" {
		return errutils.ErrRepositoryURLEmpty
	}
	u, err := url.Parse(s.RepositoryURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %s", errutils.ErrRepositoryURLInvalid, s.RepositoryURL)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errutils.ErrInvalidLogLevelWithDetails(s.LogLevel)
	}
	if s.LogFormat != "text" && s.LogFormat != "json" {
		return fmt.Errorf("%w: log_format must be text or json, got %q", errutils.ErrValidation, s.LogFormat)
	}
	if s.RepositoryAuth != nil {
		return s.RepositoryAuth.validate()
	}
	return nil
}

// RegistryPath returns the path of the installed-package registry.
func (c *Config) RegistryPath() string {
	return filepath.Join(c.Settings.ConfigDir, registryFileName)
}

// MirrorsPath returns the path of the installed mirror list.
func (c *Config) MirrorsPath() string {
	return filepath.Join(c.Settings.ConfigDir, mirrorsFileName)
}

// SetupScriptPath returns the path of the shell snippet written by first-run setup.
func (c *Config) SetupScriptPath() string {
	return filepath.Join(c.Settings.ConfigDir, setupFileName)
}
