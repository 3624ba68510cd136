package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/axiom/scriptgen/internal/telemetry"
)

var tracer = otel.Tracer("github.com/axiom/scriptgen/internal/llm")

const (
	maxResponseBytes = 8 << 20
	snippetLength    = 300
	probePrompt      = "ping"
	probeMaxTokens   = 10
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config lists every option the gateway recognises.
type Config struct {
	LocalURL    string
	LocalModel  string
	RemoteKey   string
	RemoteURL   string
	RemoteModel string
	Options     GenerationOptions

	// CandidateTimeout bounds a single attempt; Budget bounds the whole cascade.
	CandidateTimeout time.Duration
	Budget           time.Duration
}

// Outcome classifies a single attempt.
type Outcome string

const (
	OutcomeAnswer   Outcome = "answer"
	OutcomeNoAnswer Outcome = "no_answer"
)

// Attempt is the typed result of trying one target.
type Attempt struct {
	Target     Target        `json:"target"`
	Outcome    Outcome       `json:"outcome"`
	Text       string        `json:"-"`
	Reason     string        `json:"reason,omitempty"`
	StatusCode int           `json:"status_code,omitempty"`
	Latency    time.Duration `json:"latency_ns"`
}

// Result is what Generate hands back. Text is never empty.
type Result struct {
	Text        string    `json:"text"`
	Source      string    `json:"source"`
	Placeholder bool      `json:"placeholder"`
	Attempts    []Attempt `json:"attempts"`
}

// ProbeReport describes one candidate's reaction to a ping prompt.
type ProbeReport struct {
	URL        string  `json:"url"`
	Dialect    Dialect `json:"dialect"`
	Label      string  `json:"label"`
	StatusCode int     `json:"status,omitempty"`
	OK         bool    `json:"ok"`
	Snippet    string  `json:"snippet,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// Gateway asks a cascade of model endpoints for text, falling back to the
// placeholder script when none of them answers.
type Gateway struct {
	cfg     Config
	client  Doer
	logger  *zap.Logger
	metrics *telemetry.Metrics
}

// NewGateway creates a gateway. A nil client uses http.DefaultClient and a nil
// logger discards output.
func NewGateway(cfg Config, client Doer, logger *zap.Logger, metrics *telemetry.Metrics) *Gateway {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{cfg: cfg, client: client, logger: logger, metrics: metrics}
}

// LocalTargets returns the ordered local candidates for the configured URL.
func (g *Gateway) LocalTargets() []Target {
	return Candidates(g.cfg.LocalURL)
}

func (g *Gateway) remoteTarget() (Target, bool) {
	if g.cfg.RemoteKey == "" || g.cfg.RemoteURL == "" {
		return Target{}, false
	}
	return Target{URL: g.cfg.RemoteURL, Dialect: DialectChat, Label: "remote"}, true
}

// Generate runs the cascade for prompt. It never fails: transport and decode
// problems become no-answer attempts and exhaustion yields PlaceholderScript.
// Caller cancellation is ignored once started; only the configured budget
// stops the cascade early.
func (g *Gateway) Generate(ctx context.Context, prompt string) Result {
	ctx = context.WithoutCancel(ctx)
	if g.cfg.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Budget)
		defer cancel()
	}

	ctx, span := tracer.Start(ctx, "llm.Generate")
	defer span.End()

	var attempts []Attempt
	for _, target := range g.LocalTargets() {
		attempt := g.attempt(ctx, target, g.cfg.LocalModel, "", prompt, g.cfg.Options)
		attempts = append(attempts, attempt)
		if attempt.Outcome == OutcomeAnswer {
			span.SetAttributes(attribute.String("llm.source", sourceOf(target)))
			return Result{Text: attempt.Text, Source: sourceOf(target), Attempts: attempts}
		}
	}

	if target, ok := g.remoteTarget(); ok {
		attempt := g.attempt(ctx, target, g.cfg.RemoteModel, g.cfg.RemoteKey, prompt, g.cfg.Options)
		attempts = append(attempts, attempt)
		if attempt.Outcome == OutcomeAnswer {
			span.SetAttributes(attribute.String("llm.source", sourceOf(target)))
			return Result{Text: attempt.Text, Source: sourceOf(target), Attempts: attempts}
		}
	}

	g.metrics.IncPlaceholder()
	g.logger.Warn("no model endpoint answered, using placeholder script",
		zap.Int("attempts", len(attempts)),
	)
	span.SetAttributes(attribute.String("llm.source", "placeholder"))
	return Result{Text: PlaceholderScript, Source: "placeholder", Placeholder: true, Attempts: attempts}
}

func sourceOf(t Target) string {
	return t.Label + ":" + string(t.Dialect)
}

func (g *Gateway) attempt(ctx context.Context, target Target, model, apiKey, prompt string, opts GenerationOptions) Attempt {
	ctx, span := tracer.Start(ctx, "llm.attempt")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.url", target.URL),
		attribute.String("llm.dialect", string(target.Dialect)),
	)

	start := time.Now()
	text, status, err := g.post(ctx, target, model, apiKey, prompt, opts)
	attempt := Attempt{Target: target, StatusCode: status, Latency: time.Since(start)}

	if err != nil {
		attempt.Outcome = OutcomeNoAnswer
		attempt.Reason = err.Error()
		span.SetStatus(codes.Error, attempt.Reason)
		g.logger.Warn("model endpoint gave no answer",
			zap.String("url", target.URL),
			zap.String("dialect", string(target.Dialect)),
			zap.Int("status", status),
			zap.Duration("latency", attempt.Latency),
			zap.Error(err),
		)
	} else {
		attempt.Outcome = OutcomeAnswer
		attempt.Text = text
		g.logger.Info("model endpoint answered",
			zap.String("url", target.URL),
			zap.String("dialect", string(target.Dialect)),
			zap.Duration("latency", attempt.Latency),
			zap.Int("chars", len(text)),
		)
	}

	span.SetAttributes(attribute.String("llm.outcome", string(attempt.Outcome)))
	g.metrics.ObserveAttempt(string(target.Dialect), string(attempt.Outcome), attempt.Latency)
	return attempt
}

// post performs one request and returns the trimmed answer text.
func (g *Gateway) post(ctx context.Context, target Target, model, apiKey, prompt string, opts GenerationOptions) (string, int, error) {
	if g.cfg.CandidateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.CandidateTimeout)
		defer cancel()
	}

	status, body, err := g.send(ctx, target, model, apiKey, prompt, opts)
	if err != nil {
		return "", status, err
	}
	if status < 200 || status >= 300 {
		return "", status, fmt.Errorf("status %d: %s", status, snippet(body))
	}

	text, err := ExtractText(target.Dialect, body)
	if err != nil {
		return "", status, err
	}
	return strings.TrimSpace(text), status, nil
}

func (g *Gateway) send(ctx context.Context, target Target, model, apiKey, prompt string, opts GenerationOptions) (int, []byte, error) {
	payload, err := BuildRequest(target.Dialect, model, prompt, opts)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// Probe pings every candidate, including the remote provider when a key is
// configured, and reports how each one reacted. Unlike Generate it does not
// stop at the first success.
func (g *Gateway) Probe(ctx context.Context) []ProbeReport {
	targets := g.LocalTargets()
	if target, ok := g.remoteTarget(); ok {
		targets = append(targets, target)
	}

	opts := GenerationOptions{MaxTokens: probeMaxTokens, Temperature: g.cfg.Options.Temperature}
	reports := make([]ProbeReport, 0, len(targets))
	for _, target := range targets {
		model, key := g.cfg.LocalModel, ""
		if target.Label == "remote" {
			model, key = g.cfg.RemoteModel, g.cfg.RemoteKey
		}

		attemptCtx := ctx
		cancel := func() {}
		if g.cfg.CandidateTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, g.cfg.CandidateTimeout)
		}
		status, body, err := g.send(attemptCtx, target, model, key, probePrompt, opts)
		cancel()

		report := ProbeReport{URL: target.URL, Dialect: target.Dialect, Label: target.Label, StatusCode: status}
		if err != nil {
			report.Error = err.Error()
		} else {
			report.OK = status >= 200 && status < 300
			report.Snippet = snippet(body)
		}
		reports = append(reports, report)
	}
	return reports
}

// snippet trims body to at most snippetLength bytes without splitting a rune.
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) <= snippetLength {
		return s
	}
	n := snippetLength
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
