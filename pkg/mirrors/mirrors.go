// Package mirrors manages the list of package names published by the repository and
// searches it.
package mirrors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/glorpus-work/yapm/internal/logger"
	"github.com/glorpus-work/yapm/pkg/download"
	"github.com/glorpus-work/yapm/pkg/errutils"
	"github.com/glorpus-work/yapm/pkg/fsutil"
)

// FileName is the name of the mirror list, both in the repository and locally.
const FileName = "mirrors.json"

// List is the mirror list document.
type List struct {
	Packages []string `json:"packages"`
}

// Load reads the mirror list at path.
func Load(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", errutils.ErrMirrorsMissing, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", errutils.ErrMirrorsCorrupt, path, err)
	}
	return parse(data, path)
}

func parse(data []byte, source string) (*List, error) {
	var l List
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&l); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errutils.ErrMirrorsCorrupt, source, err)
	}
	return &l, nil
}

// Install downloads the mirror list into workDir and moves it to destPath. A download that
// is not a valid mirror list leaves the installed copy untouched.
func Install(ctx context.Context, fetcher download.Fetcher, workDir, destPath string) error {
	fetched, err := fetcher.Fetch(ctx, FileName, workDir)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", FileName, err)
	}

	data, err := os.ReadFile(fetched)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", fetched, err)
	}
	list, err := parse(data, fetched)
	if err != nil {
		_ = os.Remove(fetched)
		return err
	}

	if err := fsutil.EnsureFileDir(destPath); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", destPath, err)
	}
	if err := fsutil.Rename(fetched, destPath); err != nil {
		return fmt.Errorf("failed to install %s: %w", destPath, err)
	}

	logger.Debug("Installed mirror list", logger.Fields{"path": destPath, "packages": len(list.Packages)})
	return nil
}
