package testutil

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
)

// Entry describes one member of a test archive. Raw tar writing is used instead of the
// production packer so tests can produce malformed or hostile archives.
type Entry struct {
	Name     string
	Body     string
	Mode     int64
	Typeflag byte
	Linkname string
	ModTime  time.Time
}

// DefaultModTime is the modification time given to entries that do not set one.
var DefaultModTime = time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

// WriteTarGz writes entries to a gzip-compressed tar at path.
func WriteTarGz(t *testing.T, path string, entries []Entry) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create archive %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	for _, e := range entries {
		hdr := &tar.Header{
			Name:     e.Name,
			Mode:     e.Mode,
			Typeflag: e.Typeflag,
			Linkname: e.Linkname,
			ModTime:  e.ModTime,
		}
		if hdr.Typeflag == 0 {
			hdr.Typeflag = tar.TypeReg
		}
		if hdr.ModTime.IsZero() {
			hdr.ModTime = DefaultModTime
		}
		if hdr.Mode == 0 {
			hdr.Mode = 0o644
			if hdr.Typeflag == tar.TypeDir {
				hdr.Mode = 0o755
			}
		}
		if hdr.Typeflag == tar.TypeReg {
			hdr.Size = int64(len(e.Body))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header %s: %v", e.Name, err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(e.Body)); err != nil {
				t.Fatalf("write body %s: %v", e.Name, err)
			}
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
}

// Package describes a yapm package: its manifest and the other files of its source tree.
// Files ending in .sh are marked executable.
type Package struct {
	Name     string
	Manifest string
	Files    map[string]string
}

// Entries lays the package out the way the repository publishes it: everything below
// a top-level directory named after the package.
func (p Package) Entries() []Entry {
	entries := []Entry{
		{Name: p.Name + "/", Typeflag: tar.TypeDir},
	}
	if p.Manifest != "" {
		entries = append(entries, Entry{Name: p.Name + "/config.yaml", Body: p.Manifest})
	}

	names := make([]string, 0, len(p.Files))
	for name := range p.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		mode := int64(0o644)
		if strings.HasSuffix(name, ".sh") {
			mode = 0o755
		}
		entries = append(entries, Entry{
			Name: p.Name + "/" + filepath.ToSlash(name),
			Body: p.Files[name],
			Mode: mode,
		})
	}
	return entries
}
