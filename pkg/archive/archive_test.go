package archive

import (
	"archive/tar"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/yapm/pkg/errutils"
	"github.com/glorpus-work/yapm/test/testutil"
)

func TestManager_Extract(t *testing.T) {
	tempDir := t.TempDir()
	archivePath := filepath.Join(tempDir, "hello.tar.gz")
	mtime := time.Date(2019, 3, 4, 5, 6, 7, 0, time.UTC)

	testutil.WriteTarGz(t, archivePath, []testutil.Entry{
		{Name: "hello/", Typeflag: tar.TypeDir, Mode: 0o700},
		{Name: "hello/config.yaml", Body: "files: [hello]\n"},
		{Name: "hello/build.sh", Body: "#!/bin/sh\n", Mode: 0o755, ModTime: mtime},
		// no directory entry for src/, its parent must be created implicitly
		{Name: "hello/src/main.c", Body: "int main(void) { return 0; }\n"},
		{Name: "hello/latest", Typeflag: tar.TypeSymlink, Linkname: "build.sh"},
	})

	destDir := filepath.Join(tempDir, "work")
	require.NoError(t, NewManager().Extract(context.Background(), archivePath, destDir))

	content, err := os.ReadFile(filepath.Join(destDir, "hello", "src", "main.c"))
	require.NoError(t, err)
	assert.Equal(t, "int main(void) { return 0; }\n", string(content))

	info, err := os.Stat(filepath.Join(destDir, "hello", "build.sh"))
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	}
	assert.True(t, mtime.Equal(info.ModTime()), "modification time is preserved")

	link, err := os.Readlink(filepath.Join(destDir, "hello", "latest"))
	require.NoError(t, err)
	assert.Equal(t, "build.sh", link)

	dirInfo, err := os.Stat(filepath.Join(destDir, "hello"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), dirInfo.Mode().Perm(), "directory entries are not materialized with their own mode")
}

func TestManager_Extract_Hardlink(t *testing.T) {
	tempDir := t.TempDir()
	archivePath := filepath.Join(tempDir, "pkg.tar.gz")
	testutil.WriteTarGz(t, archivePath, []testutil.Entry{
		{Name: "pkg/a", Body: "shared"},
		{Name: "pkg/b", Typeflag: tar.TypeLink, Linkname: "pkg/a"},
	})

	destDir := filepath.Join(tempDir, "out")
	require.NoError(t, NewManager().Extract(context.Background(), archivePath, destDir))

	content, err := os.ReadFile(filepath.Join(destDir, "pkg", "b"))
	require.NoError(t, err)
	assert.Equal(t, "shared", string(content))
}

func TestManager_Extract_OverwritesExisting(t *testing.T) {
	tempDir := t.TempDir()
	archivePath := filepath.Join(tempDir, "pkg.tar.gz")
	testutil.WriteTarGz(t, archivePath, []testutil.Entry{
		{Name: "pkg/readonly", Body: "new", Mode: 0o444},
	})

	destDir := filepath.Join(tempDir, "out")
	am := NewManager()
	require.NoError(t, am.Extract(context.Background(), archivePath, destDir))
	require.NoError(t, am.Extract(context.Background(), archivePath, destDir), "re-extraction replaces read-only files")
}

func TestManager_Extract_RejectsEscapingEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries func(outside string) []testutil.Entry
	}{
		{name: "dotdot path", entries: func(string) []testutil.Entry {
			return []testutil.Entry{{Name: "../evil", Body: "x"}}
		}},
		{name: "nested dotdot", entries: func(string) []testutil.Entry {
			return []testutil.Entry{{Name: "pkg/../../evil", Body: "x"}}
		}},
		{name: "hardlink outside", entries: func(string) []testutil.Entry {
			return []testutil.Entry{{Name: "pkg/link", Typeflag: tar.TypeLink, Linkname: "../../etc/passwd"}}
		}},
		{name: "absolute symlink then write through it", entries: func(outside string) []testutil.Entry {
			return []testutil.Entry{
				{Name: "pkg/link", Typeflag: tar.TypeSymlink, Linkname: outside},
				{Name: "pkg/link/evil", Body: "x"},
			}
		}},
		{name: "relative symlink leaving destination", entries: func(string) []testutil.Entry {
			return []testutil.Entry{
				{Name: "pkg/link", Typeflag: tar.TypeSymlink, Linkname: "../../../outside"},
				{Name: "pkg/link/evil", Body: "x"},
			}
		}},
		{name: "write through symlink pointing inside", entries: func(string) []testutil.Entry {
			return []testutil.Entry{
				{Name: "pkg/src/keep", Body: "x"},
				{Name: "pkg/alias", Typeflag: tar.TypeSymlink, Linkname: "src"},
				{Name: "pkg/alias/evil", Body: "x"},
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			outside := filepath.Join(tempDir, "outside")
			require.NoError(t, os.MkdirAll(outside, 0o755))
			archivePath := filepath.Join(tempDir, "evil.tar.gz")
			testutil.WriteTarGz(t, archivePath, tt.entries(outside))

			destDir := filepath.Join(tempDir, "a", "b")
			err := NewManager().Extract(context.Background(), archivePath, destDir)
			require.Error(t, err)
			assert.ErrorIs(t, err, errutils.ErrArchiveEntryFailed)
			assert.ErrorIs(t, err, errutils.ErrInvalidPath)
			assert.NoFileExists(t, filepath.Join(tempDir, "a", "evil"))
			assert.NoFileExists(t, filepath.Join(tempDir, "evil"))
			assert.NoFileExists(t, filepath.Join(outside, "evil"))
			assert.NoFileExists(t, filepath.Join(destDir, "pkg", "src", "evil"))
		})
	}
}

func TestManager_Extract_RefusesExistingSymlinkedParent(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need extra privileges on windows")
	}
	tempDir := t.TempDir()
	outside := filepath.Join(tempDir, "outside")
	destDir := filepath.Join(tempDir, "work")
	require.NoError(t, os.MkdirAll(outside, 0o755))
	require.NoError(t, os.MkdirAll(destDir, 0o755))
	// left behind by an earlier extraction
	require.NoError(t, os.Symlink(outside, filepath.Join(destDir, "pkg")))

	archivePath := filepath.Join(tempDir, "pkg.tar.gz")
	testutil.WriteTarGz(t, archivePath, []testutil.Entry{{Name: "pkg/config.yaml", Body: "files: []\n"}})

	err := NewManager().Extract(context.Background(), archivePath, destDir)
	require.ErrorIs(t, err, errutils.ErrInvalidPath)
	assert.NoFileExists(t, filepath.Join(outside, "config.yaml"))
}

func TestManager_Extract_SymlinkInsideDestination(t *testing.T) {
	tempDir := t.TempDir()
	archivePath := filepath.Join(tempDir, "pkg.tar.gz")
	testutil.WriteTarGz(t, archivePath, []testutil.Entry{
		{Name: "pkg/lib/libfoo.so.1", Body: "elf"},
		{Name: "pkg/lib/libfoo.so", Typeflag: tar.TypeSymlink, Linkname: "libfoo.so.1"},
		{Name: "pkg/bin/foo", Typeflag: tar.TypeSymlink, Linkname: "../lib/libfoo.so.1"},
	})

	destDir := filepath.Join(tempDir, "work")
	require.NoError(t, NewManager().Extract(context.Background(), archivePath, destDir))

	content, err := os.ReadFile(filepath.Join(destDir, "pkg", "bin", "foo"))
	require.NoError(t, err)
	assert.Equal(t, "elf", string(content))
}

func TestManager_Extract_OpenFailures(t *testing.T) {
	tempDir := t.TempDir()

	notGzip := filepath.Join(tempDir, "plain.tar.gz")
	require.NoError(t, os.WriteFile(notGzip, []byte("this is not gzip"), 0o644))

	tests := []struct {
		name string
		path string
	}{
		{name: "missing file", path: filepath.Join(tempDir, "absent.tar.gz")},
		{name: "not gzip", path: notGzip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewManager().Extract(context.Background(), tt.path, filepath.Join(tempDir, "out"))
			require.Error(t, err)
			assert.ErrorIs(t, err, errutils.ErrArchiveOpenFailed)
		})
	}
}

func TestManager_Extract_EntryWriteFailure(t *testing.T) {
	tempDir := t.TempDir()
	archivePath := filepath.Join(tempDir, "pkg.tar.gz")
	testutil.WriteTarGz(t, archivePath, []testutil.Entry{
		{Name: "pkg/file", Body: "x"},
	})

	// The destination is a regular file, so no entry can be written below it.
	destDir := filepath.Join(tempDir, "dest")
	require.NoError(t, os.WriteFile(destDir, nil, 0o644))

	err := NewManager().Extract(context.Background(), archivePath, destDir)
	require.Error(t, err)
	assert.ErrorIs(t, err, errutils.ErrArchiveEntryFailed)
}

func TestManager_CreateAndExtract(t *testing.T) {
	tempDir := t.TempDir()

	testFiles := map[string]string{
		"config.yaml":      "files: [hello]\n",
		"build.sh":         "#!/bin/sh\nmkdir -p build\n",
		"src/lib/helper.c": "void helper(void) {}\n",
		"share/doc/README": "hello\n",
	}

	sourceDir := filepath.Join(tempDir, "hello")
	for path, content := range testFiles {
		fullPath := filepath.Join(sourceDir, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644))
	}
	require.NoError(t, os.Chmod(filepath.Join(sourceDir, "build.sh"), 0o755))

	am := NewManager()
	archivePath := filepath.Join(tempDir, "dist", "hello.tar.gz")
	require.NoError(t, am.Create(context.Background(), sourceDir, archivePath))
	assert.FileExists(t, archivePath)

	extractDir := filepath.Join(tempDir, "extracted")
	require.NoError(t, am.Extract(context.Background(), archivePath, extractDir))

	for path, expectedContent := range testFiles {
		content, err := os.ReadFile(filepath.Join(extractDir, "hello", path))
		require.NoError(t, err, path)
		assert.Equal(t, expectedContent, string(content), path)
	}

	info, err := os.Stat(filepath.Join(extractDir, "hello", "build.sh"))
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	}
}

func TestManager_Create_NotADirectory(t *testing.T) {
	tempDir := t.TempDir()
	file := filepath.Join(tempDir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	err := NewManager().Create(context.Background(), file, filepath.Join(tempDir, "out.tar.gz"))
	require.ErrorIs(t, err, errutils.ErrInvalidPath)
	assert.NoFileExists(t, filepath.Join(tempDir, "out.tar.gz"))
}
