// Package build runs a package's build script.
package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/glorpus-work/yapm/internal/logger"
	"github.com/glorpus-work/yapm/pkg/errutils"
)

// Result is the outcome of a build script that could be started.
type Result struct {
	Output   string
	ExitCode int
}

// Executor runs build scripts through a shell.
type Executor struct {
	shell  string
	stream io.Writer
}

// Option configures an Executor.
type Option func(*Executor)

// WithStream copies build output to w while the script runs.
func WithStream(w io.Writer) Option {
	return func(e *Executor) { e.stream = w }
}

// NewExecutor creates an executor that runs scripts as "<shell> <script>".
func NewExecutor(shell string, opts ...Option) *Executor {
	e := &Executor{shell: shell}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Build runs script with workDir as its working directory and captures its combined
// output. A nonzero exit status is reported in Result.ExitCode and is not an error;
// ErrBuildFailed is returned only when the script could not be started or was canceled.
func (e *Executor) Build(ctx context.Context, script, workDir string) (*Result, error) {
	cmd := exec.CommandContext(ctx, e.shell, script)
	cmd.Dir = workDir

	var buf bytes.Buffer
	var out io.Writer = &buf
	if e.stream != nil {
		out = io.MultiWriter(&buf, e.stream)
	}
	cmd.Stdout = out
	cmd.Stderr = out

	logger.Debug("Running build script", logger.Fields{"shell": e.shell, "script": script, "dir": workDir})

	err := cmd.Run()
	res := &Result{Output: buf.String()}
	if err == nil {
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", errutils.ErrBuildFailed, script, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		if res.ExitCode == 0 {
			// terminated by a signal
			res.ExitCode = -1
		}
		logger.Debug("Build script exited with nonzero status", logger.Fields{"script": script, "exit_code": res.ExitCode})
		return res, nil
	}

	return nil, fmt.Errorf("%w: cannot run %s %s in %s: %w", errutils.ErrBuildFailed, e.shell, script, workDir, err)
}
