package shellexec

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modrun/modrun/internal/core/domain"
)

func newTestRunner(stdout, stderr *bytes.Buffer) *Runner {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), WithOutput(stdout, stderr))
}

func TestRunCapturesExitZero(t *testing.T) {
	var stdout, stderr bytes.Buffer
	runner := newTestRunner(&stdout, &stderr)

	res, err := runner.Run(context.Background(), domain.NewCommandLineUnsafe("echo hello"))
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n", stdout.String())
	assert.Greater(t, res.Duration, time.Duration(0))
}

func TestRunReportsNonZeroExitCode(t *testing.T) {
	var stdout, stderr bytes.Buffer
	runner := newTestRunner(&stdout, &stderr)

	res, err := runner.Run(context.Background(), domain.NewCommandLineUnsafe("exit 7"))
	require.NoError(t, err, "a failing command is a result, not an error")
	assert.Equal(t, 7, res.ExitCode)
}

func TestRunSeparatesStderr(t *testing.T) {
	var stdout, stderr bytes.Buffer
	runner := newTestRunner(&stdout, &stderr)

	_, err := runner.Run(context.Background(), domain.NewCommandLineUnsafe("echo oops >&2"))
	require.NoError(t, err)

	assert.Empty(t, stdout.String())
	assert.Equal(t, "oops\n", stderr.String())
}

func TestRunShellInterpretsCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	runner := newTestRunner(&stdout, &stderr)

	res, err := runner.Run(context.Background(), domain.NewCommandLineUnsafe("x=3; echo $((x+4))"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "7\n", stdout.String())
}

func TestRunCancelledContextKillsCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	runner := newTestRunner(&stdout, &stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := runner.Run(ctx, domain.NewCommandLineUnsafe("sleep 30"))
	require.Error(t, err)
	assert.Less(t, time.Since(start), 10*time.Second, "cancellation must not wait out the sleep")
}

func TestRunMissingShellFails(t *testing.T) {
	var stdout, stderr bytes.Buffer
	runner := New(slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithShell("/nonexistent/shell-binary"),
		WithOutput(&stdout, &stderr))

	_, err := runner.Run(context.Background(), domain.NewCommandLineUnsafe("echo hi"))
	require.Error(t, err)
}

func TestRunRejectsEmptyCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	runner := newTestRunner(&stdout, &stderr)

	_, err := runner.Run(context.Background(), domain.CommandLine{})
	require.Error(t, err)
}
