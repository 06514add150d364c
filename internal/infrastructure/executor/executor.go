package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

// LocalExecutor runs helper commands directly, without a shell.
type LocalExecutor struct {
	timeout time.Duration
}

// NewLocalExecutor builds an executor; timeout bounds every command and defaults
// to domain.DefaultCommandTimeout.
func NewLocalExecutor(timeout time.Duration) *LocalExecutor {
	if timeout <= 0 {
		timeout = domain.DefaultCommandTimeout
	}
	return &LocalExecutor{timeout: timeout}
}

// Run implements ports.CommandRunner. A non-zero exit is reported in the result;
// the error is reserved for commands that could not be started or were cancelled.
func (e *LocalExecutor) Run(ctx context.Context, dir string, name string, args ...string) (domain.CommandResult, error) {
	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	c := exec.CommandContext(cctx, name, args...)
	if dir != "" {
		c.Dir = dir
	}
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	err := c.Run()
	result := domain.CommandResult{
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		DurationMS: time.Since(start).Milliseconds(),
	}
	if cerr := cctx.Err(); cerr != nil {
		result.ExitCode = -1
		return result, cerr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	if err != nil {
		result.ExitCode = -1
		return result, err
	}
	return result, nil
}

var _ ports.CommandRunner = (*LocalExecutor)(nil)
