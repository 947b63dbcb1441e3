// Package registry persists which files each installed package owns.
//
// The registry is a single JSON object mapping a package name to the install-root-relative
// paths it installed. It is read in full before every operation and rewritten in full
// after every mutation.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/glorpus-work/yapm/internal/logger"
	"github.com/glorpus-work/yapm/pkg/errutils"
	"github.com/glorpus-work/yapm/pkg/fsutil"
)

// Document is the in-memory form of the registry file.
type Document map[string][]string

const jsonIndent = "    "

// Registry reads and writes the registry file at a fixed path. A Registry serializes its own
// callers; concurrent writers in other processes are not coordinated and the last write wins.
type Registry struct {
	path    string
	rwMutex sync.RWMutex
}

// New returns a Registry stored at path.
func New(path string) *Registry {
	return &Registry{path: path}
}

// Path returns the location of the registry file.
func (r *Registry) Path() string {
	return r.path
}

// Load reads the registry document. A missing file is an empty document.
func (r *Registry) Load() (Document, error) {
	r.rwMutex.RLock()
	defer r.rwMutex.RUnlock()
	return r.load()
}

func (r *Registry) load() (Document, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Document{}, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", errutils.ErrRegistryCorrupt, r.path, err)
	}

	doc := Document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errutils.ErrRegistryCorrupt, r.path, err)
	}
	// JSON null decodes to a nil map
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// RecordInstall sets the file list of name, replacing any previous entry, and persists the
// document. Files owned by an earlier install but absent from files are not deleted.
func (r *Registry) RecordInstall(name string, files []string) error {
	r.rwMutex.Lock()
	defer r.rwMutex.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}

	owned := make([]string, len(files))
	copy(owned, files)
	doc[name] = owned

	if err := r.save(doc); err != nil {
		return err
	}
	logger.Debug("Recorded install", logger.Fields{"package": name, "files": len(owned)})
	return nil
}

// Remove deletes the entry of name, persists the document and returns the files the
// package owned. The document is left untouched when name is not installed.
func (r *Registry) Remove(name string) ([]string, error) {
	r.rwMutex.Lock()
	defer r.rwMutex.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}

	files, ok := doc[name]
	if !ok {
		return nil, errutils.ErrPackageNotFoundWithName(name)
	}
	delete(doc, name)

	if err := r.save(doc); err != nil {
		return nil, err
	}
	logger.Debug("Removed registry entry", logger.Fields{"package": name})
	return files, nil
}

// Lookup returns the files owned by name.
func (r *Registry) Lookup(name string) ([]string, error) {
	r.rwMutex.RLock()
	defer r.rwMutex.RUnlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	files, ok := doc[name]
	if !ok {
		return nil, errutils.ErrPackageNotFoundWithName(name)
	}
	return files, nil
}

// ListPackageNames returns the names of all installed packages, sorted.
func (r *Registry) ListPackageNames() ([]string, error) {
	doc, err := r.Load()
	if err != nil {
		return nil, err
	}
	return doc.Names(), nil
}

// Names returns the package names of the document, sorted.
func (d Document) Names() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// save rewrites the whole document through a temporary file in the same directory.
func (r *Registry) save(doc Document) (err error) {
	dir := filepath.Dir(r.path)
	if err := fsutil.EnsureDir(dir); err != nil {
		return fmt.Errorf("failed to create registry directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(doc, "", jsonIndent)
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".installed-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to sync registry: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close registry: %w", err)
	}
	if err := os.Chmod(tmpPath, fsutil.FileModeDefault); err != nil {
		return fmt.Errorf("failed to set registry permissions: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		return fmt.Errorf("failed to replace registry %s: %w", r.path, err)
	}
	return nil
}

// FlattenKeys lists the keys of a nested JSON object as dotted paths. Objects are descended
// into; any other value, arrays included, ends a path. The registry schema is flat, so for a
// Document this is the same as its top-level keys.
func FlattenKeys(doc map[string]any) []string {
	var keys []string
	flatten(doc, "", &keys)
	sort.Strings(keys)
	return keys
}

func flatten(obj map[string]any, prefix string, keys *[]string) {
	for k, v := range obj {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(nested, key, keys)
			continue
		}
		*keys = append(*keys, key)
	}
}
