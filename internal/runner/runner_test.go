package runner

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/axiom/scriptgen/internal/telemetry"
)

// newShellRunner runs scripts with /bin/sh in place of node.
func newShellRunner(t *testing.T, timeout time.Duration, maxOutput int) *Runner {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
	return New(Config{
		NodeBinary: "/bin/sh",
		WorkDir:    t.TempDir(),
		Timeout:    timeout,
		MaxOutput:  maxOutput,
	}, zap.NewNop(), telemetry.MustNewMetrics(prometheus.NewRegistry()))
}

func TestRunPass(t *testing.T) {
	r := newShellRunner(t, 10*time.Second, 0)
	id := uuid.New()

	res, err := r.Run(context.Background(), "echo CHECKED=true\necho warn >&2\n", &id)
	require.NoError(t, err)

	assert.True(t, res.Pass)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "CHECKED=true\n", res.Stdout)
	assert.Equal(t, "warn\n", res.Stderr)
	assert.Equal(t, &id, res.GenerationID)
	assert.False(t, res.TimedOut)
}

func TestRunFailureIsData(t *testing.T) {
	r := newShellRunner(t, 10*time.Second, 0)

	res, err := r.Run(context.Background(), "echo NO_CHECKBOXES >&2\nexit 3\n", nil)
	require.NoError(t, err)

	assert.False(t, res.Pass)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "NO_CHECKBOXES\n", res.Stderr)
	assert.Nil(t, res.GenerationID)
}

func TestRunTimeout(t *testing.T) {
	r := newShellRunner(t, 100*time.Millisecond, 0)

	res, err := r.Run(context.Background(), "exec sleep 5\n", nil)
	require.NoError(t, err)

	assert.False(t, res.Pass)
	assert.True(t, res.TimedOut)
	assert.Less(t, res.DurationMS, int64(5000))
}

func TestRunCapsOutput(t *testing.T) {
	r := newShellRunner(t, 10*time.Second, 16)

	res, err := r.Run(context.Background(), "i=0; while [ $i -lt 100 ]; do echo 0123456789; i=$((i+1)); done\n", nil)
	require.NoError(t, err)

	assert.True(t, res.Pass)
	assert.True(t, strings.HasPrefix(res.Stdout, "0123456789\n01234"))
	assert.True(t, strings.HasSuffix(res.Stdout, "[output truncated]"))
}

func TestRunMissingBinary(t *testing.T) {
	r := New(Config{NodeBinary: "/nonexistent/node", WorkDir: t.TempDir()}, nil, nil)

	_, err := r.Run(context.Background(), "console.log(1)", nil)
	assert.Error(t, err)
}

func TestCappedBuffer(t *testing.T) {
	b := &cappedBuffer{limit: 4}
	n, err := b.Write([]byte("abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "abcd\n[output truncated]", b.String())
}
