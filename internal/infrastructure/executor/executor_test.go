package executor

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func TestRunCapturesOutput(t *testing.T) {
	requireTool(t, "sh")
	dir := t.TempDir()

	result, err := NewLocalExecutor(0).Run(context.Background(), dir, "sh", "-c", "pwd; echo oops >&2")
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Contains(t, result.Stdout, dir)
	assert.Equal(t, "oops\n", result.Stderr)
}

func TestRunReportsNonZeroExit(t *testing.T) {
	requireTool(t, "sh")

	result, err := NewLocalExecutor(0).Run(context.Background(), "", "sh", "-c", "exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, result.ExitCode)
}

func TestRunMissingBinary(t *testing.T) {
	_, err := NewLocalExecutor(0).Run(context.Background(), "", "vitals-definitely-missing-binary")
	assert.Error(t, err)
}

func TestRunTimeout(t *testing.T) {
	requireTool(t, "sleep")

	result, err := NewLocalExecutor(50*time.Millisecond).Run(context.Background(), "", "sleep", "5")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, -1, result.ExitCode)
}
