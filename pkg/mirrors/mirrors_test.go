package mirrors

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/yapm/pkg/download"
	"github.com/glorpus-work/yapm/pkg/errutils"
	"github.com/glorpus-work/yapm/test/testutil"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.json")
	require.NoError(t, os.WriteFile(valid, []byte(`{"packages": ["hello", "zlib"], "updated": "2024-01-01"}`), 0o644))
	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte(`{"packages": "hello"}`), 0o644))

	l, err := Load(valid)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "zlib"}, l.Packages)

	_, err = Load(filepath.Join(dir, "absent.json"))
	assert.ErrorIs(t, err, errutils.ErrMirrorsMissing)

	_, err = Load(corrupt)
	assert.ErrorIs(t, err, errutils.ErrMirrorsCorrupt)
}

func TestList_Search(t *testing.T) {
	l := &List{Packages: []string{"hello", "hello-world", "libfoo", "foobar", "zlib"}}

	tests := []struct {
		name  string
		query string
		mode  Mode
		want  []string
	}{
		{name: "regex substring", query: "foo", mode: ModeRegex, want: []string{"libfoo", "foobar"}},
		{name: "regex anchored", query: "^lib", mode: ModeRegex, want: []string{"libfoo"}},
		{name: "regex pattern", query: "hel+o$", mode: ModeRegex, want: []string{"hello"}},
		{name: "regex alternation", query: "zlib|bar", mode: ModeRegex, want: []string{"foobar", "zlib"}},
		{name: "regex no match", query: "python", mode: ModeRegex, want: nil},
		{name: "default mode is regex", query: "world", mode: "", want: []string{"hello-world"}},
		{name: "glob prefix", query: "lib*", mode: ModeGlob, want: []string{"libfoo"}},
		{name: "glob suffix", query: "*lib", mode: ModeGlob, want: []string{"zlib"}},
		{name: "glob matches whole names", query: "foo", mode: ModeGlob, want: nil},
		{name: "glob single char", query: "hell?", mode: ModeGlob, want: []string{"hello"}},
		{name: "fuzzy", query: "hw", mode: ModeFuzzy, want: []string{"hello-world"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.Search(tt.query, tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestList_Search_FuzzyRanksBestFirst(t *testing.T) {
	l := &List{Packages: []string{"libfoo", "zlib", "foobar"}}

	got, err := l.Search("foo", ModeFuzzy)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "foobar", got[0])
	assert.ElementsMatch(t, []string{"foobar", "libfoo"}, got)
}

func TestList_Search_InvalidQuery(t *testing.T) {
	l := &List{Packages: []string{"hello"}}

	_, err := l.Search("(", ModeRegex)
	assert.ErrorIs(t, err, errutils.ErrValidation)

	_, err = l.Search("hello", Mode("soundex"))
	assert.ErrorIs(t, err, errutils.ErrValidation)
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes {
		got, err := ParseMode(string(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	got, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeRegex, got)

	_, err = ParseMode("exact")
	assert.ErrorIs(t, err, errutils.ErrValidation)
}

func TestInstall(t *testing.T) {
	repo := testutil.NewRepo(t)
	repo.PublishFile(t, FileName, `{"packages": ["hello", "zlib"]}`)
	client := download.NewClient(repo.URL, 10*time.Second, "yapm-test")

	workDir := t.TempDir()
	dest := filepath.Join(t.TempDir(), "config", FileName)

	require.NoError(t, Install(context.Background(), client, workDir, dest))

	l, err := Load(dest)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "zlib"}, l.Packages)
	assert.NoFileExists(t, filepath.Join(workDir, FileName))
}

func TestInstall_CorruptDownloadKeepsInstalledList(t *testing.T) {
	repo := testutil.NewRepo(t)
	repo.PublishFile(t, FileName, `<html>not json</html>`)
	client := download.NewClient(repo.URL, 10*time.Second, "yapm-test")

	dest := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(dest, []byte(`{"packages": ["old"]}`), 0o644))

	err := Install(context.Background(), client, t.TempDir(), dest)
	require.ErrorIs(t, err, errutils.ErrMirrorsCorrupt)

	l, err := Load(dest)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, l.Packages)
}

func TestInstall_NotPublished(t *testing.T) {
	repo := testutil.NewRepo(t)
	client := download.NewClient(repo.URL, 10*time.Second, "yapm-test")

	dest := filepath.Join(t.TempDir(), FileName)
	err := Install(context.Background(), client, t.TempDir(), dest)
	require.ErrorIs(t, err, errutils.ErrFetchFailed)
	assert.NoFileExists(t, dest)
}
