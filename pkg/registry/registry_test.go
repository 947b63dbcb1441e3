package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/yapm/pkg/errutils"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "config", "installed.json"))
}

func TestRegistry(t *testing.T) {
	reg := newTestRegistry(t)

	t.Run("Load missing file", func(t *testing.T) {
		doc, err := reg.Load()
		require.NoError(t, err)
		assert.Empty(t, doc)
		assert.NoFileExists(t, reg.Path(), "loading does not create the file")
	})

	t.Run("RecordInstall", func(t *testing.T) {
		require.NoError(t, reg.RecordInstall("foo", []string{"foo"}))
		require.NoError(t, reg.RecordInstall("bar", []string{"bin/bar", "share/bar.1"}))

		doc, err := reg.Load()
		require.NoError(t, err)
		assert.Equal(t, Document{
			"foo": {"foo"},
			"bar": {"bin/bar", "share/bar.1"},
		}, doc)
	})

	t.Run("Lookup", func(t *testing.T) {
		files, err := reg.Lookup("bar")
		require.NoError(t, err)
		assert.Equal(t, []string{"bin/bar", "share/bar.1"}, files)

		_, err = reg.Lookup("baz")
		assert.ErrorIs(t, err, errutils.ErrPackageNotFound)
	})

	t.Run("ListPackageNames", func(t *testing.T) {
		names, err := reg.ListPackageNames()
		require.NoError(t, err)
		assert.Equal(t, []string{"bar", "foo"}, names)
	})

	t.Run("Reinstall overwrites entry", func(t *testing.T) {
		require.NoError(t, reg.RecordInstall("foo", []string{"foo", "foo-helper"}))

		files, err := reg.Lookup("foo")
		require.NoError(t, err)
		assert.Equal(t, []string{"foo", "foo-helper"}, files)
	})

	t.Run("Remove", func(t *testing.T) {
		files, err := reg.Remove("foo")
		require.NoError(t, err)
		assert.Equal(t, []string{"foo", "foo-helper"}, files)

		_, err = reg.Remove("foo")
		assert.ErrorIs(t, err, errutils.ErrPackageNotFound)

		names, err := reg.ListPackageNames()
		require.NoError(t, err)
		assert.Equal(t, []string{"bar"}, names)
	})
}

func TestRegistry_RemoveUnknownLeavesDocumentUntouched(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.RecordInstall("foo", []string{"foo"}))

	before, err := os.ReadFile(reg.Path())
	require.NoError(t, err)

	_, err = reg.Remove("nonexistent")
	require.ErrorIs(t, err, errutils.ErrPackageNotFound)

	after, err := os.ReadFile(reg.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRegistry_FileFormat(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.RecordInstall("foo", []string{"foo"}))

	data, err := os.ReadFile(reg.Path())
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"foo\": [\n        \"foo\"\n    ]\n}", string(data))

	_, err = reg.Remove("foo")
	require.NoError(t, err)

	data, err = os.ReadFile(reg.Path())
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(reg.Path()), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestRegistry_EmptyFileListIsArray(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.RecordInstall("meta", nil))

	data, err := os.ReadFile(reg.Path())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, []any{}, raw["meta"])
}

func TestRegistry_ReadsExistingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "installed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"foo": ["foo"], "bar": []}`), 0o644))

	names, err := New(path).ListPackageNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"bar", "foo"}, names)
}

func TestRegistry_Corrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "installed: foo"},
		{name: "wrong shape", content: `{"foo": "foo"}`},
		{name: "truncated", content: `{"foo": [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "installed.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			reg := New(path)

			_, err := reg.Load()
			assert.ErrorIs(t, err, errutils.ErrRegistryCorrupt)

			err = reg.RecordInstall("bar", []string{"bar"})
			assert.ErrorIs(t, err, errutils.ErrRegistryCorrupt)

			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(content), "a corrupt registry is never overwritten")
		})
	}
}

func TestRegistry_NullDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "installed.json")
	require.NoError(t, os.WriteFile(path, []byte("null"), 0o644))

	reg := New(path)
	require.NoError(t, reg.RecordInstall("foo", []string{"foo"}))

	files, err := reg.Lookup("foo")
	require.NoError(t, err)
	assert.Equal(t, []string{"foo"}, files)
}

func TestRegistry_ConcurrentRecords(t *testing.T) {
	reg := newTestRegistry(t)
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			assert.NoError(t, reg.RecordInstall(name, []string{name}))
		}(name)
	}
	wg.Wait()

	got, err := reg.ListPackageNames()
	require.NoError(t, err)
	assert.Equal(t, names, got)
}

func TestDocument_Names(t *testing.T) {
	doc := Document{"zlib": nil, "curl": {"curl"}, "bash": {"bash"}}
	assert.Equal(t, []string{"bash", "curl", "zlib"}, doc.Names())
	assert.Empty(t, Document{}.Names())
}

func TestFlattenKeys(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]any
		want []string
	}{
		{
			name: "empty",
			doc:  map[string]any{},
			want: nil,
		},
		{
			name: "flat registry",
			doc: map[string]any{
				"foo": []any{"foo"},
				"bar": []any{},
			},
			want: []string{"bar", "foo"},
		},
		{
			name: "nested objects",
			doc: map[string]any{
				"tools": map[string]any{
					"cc": []any{"bin/cc"},
					"ld": map[string]any{
						"gold": []any{"bin/gold"},
					},
				},
				"foo":   []any{"foo"},
				"empty": map[string]any{},
			},
			want: []string{"foo", "tools.cc", "tools.ld.gold"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FlattenKeys(tt.doc))
		})
	}
}
