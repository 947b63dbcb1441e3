// Package relocate moves build outputs into the install root.
package relocate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glorpus-work/yapm/internal/logger"
	"github.com/glorpus-work/yapm/pkg/errutils"
	"github.com/glorpus-work/yapm/pkg/fsutil"
)

// Relocator moves declared artifacts out of a build folder.
type Relocator struct{}

// NewRelocator creates a Relocator.
func NewRelocator() *Relocator {
	return &Relocator{}
}

// Relocate moves buildDir/f to installRoot/f for every f in files, in order, and returns
// the paths it moved, relative to installRoot. No directories are created, so a file in a
// subdirectory needs that subdirectory to exist below installRoot already. Processing stops
// at the first missing or unmovable file; files moved before that stay in place.
func (r *Relocator) Relocate(buildDir string, files []string, installRoot string) ([]string, error) {
	moved := make([]string, 0, len(files))

	for _, f := range files {
		src := filepath.Join(buildDir, f)
		dst := filepath.Join(installRoot, f)

		if _, err := os.Lstat(src); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return moved, fmt.Errorf("%w: %s", errutils.ErrArtifactMissing, src)
			}
			return moved, fmt.Errorf("%w: %s: %v", errutils.ErrRelocateFailed, src, err)
		}

		if err := fsutil.Rename(src, dst); err != nil {
			return moved, fmt.Errorf("%w: %s -> %s: %w", errutils.ErrRelocateFailed, src, dst, err)
		}

		logger.Debug("Relocated artifact", logger.Fields{"file": f, "destination": dst})
		moved = append(moved, f)
	}

	return moved, nil
}
