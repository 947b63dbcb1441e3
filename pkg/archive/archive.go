// Package archive extracts downloaded package archives and packs package trees for
// publishing. Only gzip-compressed tar archives are supported.
package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"

	"github.com/glorpus-work/yapm/internal/logger"
	"github.com/glorpus-work/yapm/pkg/errutils"
	"github.com/glorpus-work/yapm/pkg/fsutil"
)

// Extension is the file suffix of a package archive.
const Extension = ".tar.gz"

// Manager handles archive extraction and creation operations.
type Manager struct {
	format archives.CompressedArchive
}

// NewManager creates a new Manager instance.
func NewManager() *Manager {
	return &Manager{
		format: archives.CompressedArchive{
			Compression: archives.Gz{},
			Archival:    archives.Tar{},
			Extraction:  archives.Tar{},
		},
	}
}

// Extract unpacks archivePath into destDir. Directory entries are not materialized;
// parents of files are created as needed. Modes and modification times are preserved and
// symlinks are recreated as long as they resolve inside destDir. No entry is written
// through a symlinked directory. Extraction is not transactional: on failure, entries
// written so far stay on disk.
func (am *Manager) Extract(ctx context.Context, archivePath, destDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", errutils.ErrArchiveOpenFailed, archivePath, err)
	}
	defer func() { _ = file.Close() }()

	absDest, err := filepath.Abs(destDir)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", errutils.ErrArchiveEntryFailed, destDir, err)
	}

	handler := func(_ context.Context, f archives.FileInfo) error {
		if err := am.extractEntry(absDest, f); err != nil {
			return fmt.Errorf("%w: %s: %w", errutils.ErrArchiveEntryFailed, f.NameInArchive, err)
		}
		return nil
	}

	if err := am.format.Extract(ctx, file, handler); err != nil {
		if errors.Is(err, errutils.ErrArchiveEntryFailed) || errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %s: %v", errutils.ErrArchiveOpenFailed, archivePath, err)
	}
	return nil
}

// extractEntry writes a single archive entry below destDir.
func (am *Manager) extractEntry(destDir string, f archives.FileInfo) error {
	if f.IsDir() {
		return nil
	}

	name := strings.TrimPrefix(filepath.FromSlash(f.NameInArchive), string(filepath.Separator))
	targetPath := filepath.Join(destDir, name)
	if !fsutil.IsWithin(destDir, targetPath) || targetPath == destDir {
		return fmt.Errorf("%w: entry escapes destination", errutils.ErrInvalidPath)
	}

	if err := checkParents(destDir, targetPath); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(targetPath), fsutil.DirModeDefault); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	if hdr, ok := f.Header.(*tar.Header); ok && hdr.Typeflag == tar.TypeLink {
		return am.writeHardlink(destDir, hdr.Linkname, targetPath)
	}
	if f.Mode()&os.ModeSymlink != 0 {
		return am.writeSymlink(destDir, f.LinkTarget, targetPath)
	}
	if !f.Mode().IsRegular() {
		logger.Debug("Skipping special archive entry", logger.Fields{"entry": f.NameInArchive, "mode": f.Mode().String()})
		return nil
	}
	return am.writeRegularFile(f, targetPath)
}

// checkParents fails when a directory between destDir and path already exists as a
// symlink.
func checkParents(destDir, path string) error {
	rel, err := filepath.Rel(destDir, filepath.Dir(path))
	if err != nil || rel == "." {
		return err
	}
	current := destDir
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, part)
		info, err := os.Lstat(current)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("%w: %s is a symlink", errutils.ErrInvalidPath, current)
		}
	}
	return nil
}

// writeSymlink creates a symlink at targetPath, replacing whatever was there. Absolute
// targets and targets resolving outside destDir are refused.
func (am *Manager) writeSymlink(destDir, linkTarget, targetPath string) error {
	if linkTarget == "" {
		return errors.New("symlink without target")
	}
	resolved := filepath.Join(filepath.Dir(targetPath), filepath.FromSlash(linkTarget))
	if filepath.IsAbs(linkTarget) || !fsutil.IsWithin(destDir, resolved) {
		return fmt.Errorf("%w: symlink target %q escapes destination", errutils.ErrInvalidPath, linkTarget)
	}
	_ = os.Remove(targetPath)
	return os.Symlink(linkTarget, targetPath)
}

// writeHardlink links targetPath to an entry extracted earlier from the same archive.
func (am *Manager) writeHardlink(destDir, linkName, targetPath string) error {
	source := filepath.Join(destDir, filepath.FromSlash(linkName))
	if !fsutil.IsWithin(destDir, source) {
		return fmt.Errorf("%w: hard link target escapes destination", errutils.ErrInvalidPath)
	}
	if err := checkParents(destDir, source); err != nil {
		return err
	}
	_ = os.Remove(targetPath)
	return os.Link(source, targetPath)
}

// writeRegularFile writes a regular file from the archive entry to targetPath and preserves metadata.
func (am *Manager) writeRegularFile(f archives.FileInfo, targetPath string) error {
	srcFile, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open entry: %w", err)
	}
	defer func() { _ = srcFile.Close() }()

	perm := f.Mode().Perm()
	// Remove first so a read-only file from an earlier extraction can be replaced.
	_ = os.Remove(targetPath)
	dstFile, err := fsutil.CreateFilePerm(targetPath, perm)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return fmt.Errorf("failed to copy entry: %w", err)
	}
	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("failed to close destination file: %w", err)
	}

	// CreateFilePerm is subject to the umask.
	if err := os.Chmod(targetPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Chtimes(targetPath, f.ModTime(), f.ModTime()); err != nil {
		return fmt.Errorf("failed to set modification time: %w", err)
	}
	return nil
}

// Create packs sourceDir into a gzip-compressed tar at archivePath. Entries are rooted at
// the base name of sourceDir, which is the layout Extract expects for a package.
func (am *Manager) Create(ctx context.Context, sourceDir, archivePath string) error {
	absolutePath, err := filepath.Abs(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for source directory: %w", err)
	}
	if !fsutil.DirExists(absolutePath) {
		return fmt.Errorf("%w: %s is not a directory", errutils.ErrInvalidPath, sourceDir)
	}

	archiveFiles, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		absolutePath: filepath.Base(absolutePath),
	})
	if err != nil {
		return fmt.Errorf("failed to read files from disk: %w", err)
	}

	outDir := filepath.Dir(archivePath)
	if err := fsutil.EnsureDir(outDir); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outDir, err)
	}
	tmp, err := os.CreateTemp(outDir, ".pack-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output file in %s: %w", outDir, err)
	}
	tmpPath := tmp.Name()

	if err := am.format.Archive(ctx, tmp, archiveFiles); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to create archive: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close archive: %w", err)
	}
	if err := os.Chmod(tmpPath, fsutil.FileModeDefault); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to set archive permissions: %w", err)
	}
	if err := fsutil.Rename(tmpPath, archivePath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize archive %s: %w", archivePath, err)
	}

	logger.Debug("Created archive", logger.Fields{"source": absolutePath, "archive": archivePath, "entries": len(archiveFiles)})
	return nil
}
