package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/glorpus-work/yapm/pkg/installer"
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// progressBar redraws a single status line for the running download.
type progressBar struct {
	out      io.Writer
	lastDraw string
}

func newProgressBar(out io.Writer) *progressBar {
	return &progressBar{out: out}
}

// Update implements download.ProgressFunc.
func (p *progressBar) Update(name string, received, total int64) {
	var line string
	if total <= 0 {
		line = fmt.Sprintf("\r%s: %d bytes", name, received)
	} else {
		pct := int(received * percent / total)
		if pct > percent {
			pct = percent
		}
		filled := pct * ProgressBarWidth / percent
		line = fmt.Sprintf("\r[%s%s] %d%%", strings.Repeat("#", filled), strings.Repeat(" ", ProgressBarWidth-filled), pct)
	}
	if line == p.lastDraw {
		return
	}
	p.lastDraw = line
	_, _ = io.WriteString(p.out, line)

	if total > 0 && received >= total {
		_, _ = io.WriteString(p.out, "\n")
		p.lastDraw = ""
	}
}

// eventHooks prints installer progress. Errors are left to the caller, which reports the
// whole chain once.
func eventHooks(out io.Writer) installer.Hooks {
	return installer.Hooks{OnEvent: func(e installer.Event) {
		printEvent(out, e)
	}}
}

func printEvent(out io.Writer, e installer.Event) {
	switch e.Phase {
	case installer.PhaseError:
		return
	case installer.PhaseBuildOutput:
		_, _ = io.WriteString(out, e.Msg)
		if !strings.HasSuffix(e.Msg, "\n") {
			_, _ = io.WriteString(out, "\n")
		}
	case installer.PhaseFetching:
		_, _ = fmt.Fprintf(out, "%s: downloading %s\n", e.ID, e.Msg)
	case installer.PhaseExtracting:
		_, _ = fmt.Fprintf(out, "%s: unpacking\n", e.ID)
	case installer.PhaseDependencies:
		_, _ = fmt.Fprintf(out, "%s: installing dependencies %s\n", e.ID, e.Msg)
	case installer.PhaseHook:
		_, _ = fmt.Fprintf(out, "%s: running %s hook\n", e.ID, e.Msg)
	case installer.PhaseBuilding:
		_, _ = fmt.Fprintf(out, "%s: building with %s\n", e.ID, e.Msg)
	case installer.PhaseRelocating:
		_, _ = fmt.Fprintf(out, "%s: moving files to %s\n", e.ID, e.Msg)
	case installer.PhaseRecording:
		_, _ = fmt.Fprintf(out, "%s: updating registry\n", e.ID)
	case installer.PhaseSkipped:
		_, _ = fmt.Fprintf(out, "%s: skipped, %s\n", e.ID, e.Msg)
	case installer.PhaseRemoved:
		_, _ = fmt.Fprintf(out, "%s: deleted %s\n", e.ID, e.Msg)
	case installer.PhaseNotFound:
		_, _ = fmt.Fprintf(out, "%s: %s not found, skipping\n", e.ID, e.Msg)
	case installer.PhaseWarning:
		_, _ = fmt.Fprintf(out, "%s: warning: %s\n", e.ID, e.Msg)
	case installer.PhaseDone:
		_, _ = fmt.Fprintf(out, "%s: done\n", e.ID)
	default:
		_, _ = fmt.Fprintf(out, "%s: %s %s\n", e.ID, e.Phase, e.Msg)
	}
}
