package fsutil

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// AppName is the name of the application used in paths
	AppName = "yapm"

	// InstallDirName is the directory under the user's home that receives relocated artifacts.
	InstallDirName = "programs"
)

// DefaultInstallRoot returns the default install root.
// Format: ~/programs/
func DefaultInstallRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, InstallDirName), nil
}

// DefaultConfigDir returns the default directory for the registry, mirror list and setup snippet.
// It honors XDG_CONFIG_HOME and falls back to ~/.config/yapm/.
func DefaultConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName), nil
}

// ExpandHome replaces a leading "~" in path with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// IsPlainName reports whether name can be used as a single path element: it is not
// empty, not "." or "..", and holds no separator of either platform.
func IsPlainName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}
