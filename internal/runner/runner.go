// Package runner executes generated scripts in a throwaway directory.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/axiom/scriptgen/internal/models"
	"github.com/axiom/scriptgen/internal/telemetry"
)

const (
	// DefaultMaxOutput caps captured stdout and stderr, each.
	DefaultMaxOutput = 10 << 20
	scriptName       = "test.js"
	tempPrefix       = "scriptgen-run-"
	waitDelay        = 5 * time.Second
)

// Config controls how scripts are executed.
type Config struct {
	NodeBinary string
	// WorkDir is the process working directory. Its node_modules is added to
	// NODE_PATH so require('playwright') resolves from the temp script.
	WorkDir   string
	Timeout   time.Duration
	MaxOutput int
}

// Runner runs one script per call as a separate process.
type Runner struct {
	cfg     Config
	logger  *zap.Logger
	metrics *telemetry.Metrics
}

// New creates a Runner, filling unset fields with defaults.
func New(cfg Config, logger *zap.Logger, metrics *telemetry.Metrics) *Runner {
	if cfg.NodeBinary == "" {
		cfg.NodeBinary = "node"
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = "."
	}
	if cfg.MaxOutput <= 0 {
		cfg.MaxOutput = DefaultMaxOutput
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{cfg: cfg, logger: logger, metrics: metrics}
}

// Run writes code to a fresh temp directory and executes it. A script that
// fails is reported through RunResult; the error is reserved for problems
// preparing or starting the process.
func (r *Runner) Run(ctx context.Context, code string, generationID *uuid.UUID) (models.RunResult, error) {
	dir, err := os.MkdirTemp("", tempPrefix)
	if err != nil {
		return models.RunResult{}, fmt.Errorf("create run directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			r.logger.Warn("failed to remove run directory", zap.String("dir", dir), zap.Error(err))
		}
	}()

	file := filepath.Join(dir, scriptName)
	if err := os.WriteFile(file, []byte(code), 0o600); err != nil {
		return models.RunResult{}, fmt.Errorf("write script: %w", err)
	}

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	stdout := &cappedBuffer{limit: r.cfg.MaxOutput}
	stderr := &cappedBuffer{limit: r.cfg.MaxOutput}

	cmd := exec.CommandContext(ctx, r.cfg.NodeBinary, file)
	cmd.Dir = r.cfg.WorkDir
	cmd.Env = r.environ()
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	result := models.RunResult{
		ID:           uuid.New(),
		GenerationID: generationID,
		StartedAt:    time.Now().UTC(),
	}

	err = cmd.Run()
	duration := time.Since(result.StartedAt)

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.Pass = true
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.ExitCode = -1
	default:
		return models.RunResult{}, fmt.Errorf("start %s: %w", r.cfg.NodeBinary, err)
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result.Pass = false
		result.TimedOut = true
	}

	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	result.DurationMS = duration.Milliseconds()

	r.metrics.ObserveRun(result.Pass, result.TimedOut, duration)
	r.logger.Info("script finished",
		zap.String("run_id", result.ID.String()),
		zap.Bool("pass", result.Pass),
		zap.Int("exit_code", result.ExitCode),
		zap.Bool("timed_out", result.TimedOut),
		zap.Duration("duration", duration),
	)
	return result, nil
}

func (r *Runner) environ() []string {
	env := os.Environ()
	modules, err := filepath.Abs(filepath.Join(r.cfg.WorkDir, "node_modules"))
	if err != nil {
		return env
	}
	paths := []string{modules}
	for _, kv := range env {
		if v, ok := strings.CutPrefix(kv, "NODE_PATH="); ok && v != "" {
			paths = append(paths, v)
		}
	}
	return append(env, "NODE_PATH="+strings.Join(paths, string(os.PathListSeparator)))
}

// cappedBuffer keeps the first limit bytes written and discards the rest
// while still reporting full writes, so the child never blocks on a pipe.
type cappedBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.limit - b.buf.Len(); room < len(p) {
		b.truncated = true
		if room > 0 {
			b.buf.Write(p[:room])
		}
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.truncated {
		return b.buf.String() + "\n[output truncated]"
	}
	return b.buf.String()
}
