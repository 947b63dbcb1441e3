package cli

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/yapm/pkg/installer"
)

func TestProgressBar(t *testing.T) {
	var out bytes.Buffer
	bar := newProgressBar(&out)

	bar.Update("foo.tar.gz", 0, 200)
	bar.Update("foo.tar.gz", 1, 200) // same cell count and percentage, not redrawn
	bar.Update("foo.tar.gz", 100, 200)
	bar.Update("foo.tar.gz", 200, 200)

	lines := strings.Split(out.String(), "\r")
	require.Len(t, lines, 4)
	assert.Equal(t, "["+strings.Repeat(" ", ProgressBarWidth)+"] 0%", lines[1])
	assert.Equal(t, "["+strings.Repeat("#", 25)+strings.Repeat(" ", 25)+"] 50%", lines[2])
	assert.Equal(t, "["+strings.Repeat("#", ProgressBarWidth)+"] 100%\n", lines[3])
}

func TestProgressBar_UnknownLength(t *testing.T) {
	var out bytes.Buffer
	newProgressBar(&out).Update("mirrors.json", 512, -1)
	assert.Equal(t, "\rmirrors.json: 512 bytes", out.String())
}

func TestIsTerminal_NonFileWriter(t *testing.T) {
	assert.False(t, isTerminal(&bytes.Buffer{}))
}

func TestPrintEvent(t *testing.T) {
	tests := []struct {
		event installer.Event
		want  string
	}{
		{installer.Event{Phase: installer.PhaseFetching, ID: "foo", Msg: "foo.tar.gz"}, "foo: downloading foo.tar.gz\n"},
		{installer.Event{Phase: installer.PhaseDependencies, ID: "foo", Msg: "bar, baz"}, "foo: installing dependencies bar, baz\n"},
		{installer.Event{Phase: installer.PhaseBuildOutput, ID: "foo", Msg: "cc -o foo"}, "cc -o foo\n"},
		{installer.Event{Phase: installer.PhaseBuildOutput, ID: "foo", Msg: "ok\n"}, "ok\n"},
		{installer.Event{Phase: installer.PhaseNotFound, ID: "foo", Msg: "/p/foo"}, "foo: /p/foo not found, skipping\n"},
		{installer.Event{Phase: installer.PhaseWarning, ID: "foo", Msg: "build.sh exited with status 2"}, "foo: warning: build.sh exited with status 2\n"},
		{installer.Event{Phase: installer.PhaseDone, ID: "foo"}, "foo: done\n"},
		{installer.Event{Phase: installer.PhaseError, ID: "foo", Msg: "boom"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.event.Phase, func(t *testing.T) {
			var out bytes.Buffer
			eventHooks(&out).OnEvent(tt.event)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestLinePrompter(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "answer with newline", input: "y\n", want: "y\n"},
		{name: "answer without newline", input: "yes", want: "yes"},
		{name: "reads a single line", input: "n\ny\n", want: "n\n"},
		{name: "closed input", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			answer, err := newPrompter(strings.NewReader(tt.input), &out).Prompt("Continue?")
			assert.Equal(t, "Continue? [y/n]: ", out.String())
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, io.EOF))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, answer)
		})
	}
}

func TestSummarizeFiles(t *testing.T) {
	assert.Equal(t, "a, b", summarizeFiles([]string{"a", "b"}))
	assert.Equal(t, "", summarizeFiles(nil))
	assert.Equal(t, "1, 2, 3, 4, 5, ... (+2)", summarizeFiles([]string{"1", "2", "3", "4", "5", "6", "7"}))
}
