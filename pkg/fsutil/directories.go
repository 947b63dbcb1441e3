package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates path and its parents with DirModeDefault. Existing directories are
// left as they are.
func EnsureDir(path string) error {
	return os.MkdirAll(path, DirModeDefault)
}

// EnsureDirs creates each directory in order and names the first one that failed.
func EnsureDirs(paths ...string) error {
	for _, p := range paths {
		if err := EnsureDir(p); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", p, err)
		}
	}
	return nil
}

// EnsureFileDir creates the directory that will hold filePath.
func EnsureFileDir(filePath string) error {
	return EnsureDir(filepath.Dir(filePath))
}

// DirExists reports whether path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
