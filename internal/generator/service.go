// Package generator turns a scenario into a runnable script by combining the
// model gateway, the normalization pipeline and built-in fallbacks.
package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/axiom/scriptgen/internal/llm"
	"github.com/axiom/scriptgen/internal/models"
	"github.com/axiom/scriptgen/internal/script"
	"github.com/axiom/scriptgen/internal/telemetry"
)

// MaxSuggestions caps the number of follow-up ideas returned by Suggest.
const MaxSuggestions = 10

// SourceCanned marks a generation that fell back to a built-in script.
const SourceCanned = "canned"

// Gateway produces model text for a prompt. *llm.Gateway satisfies it.
type Gateway interface {
	Generate(ctx context.Context, prompt string) llm.Result
}

// Normalizer repairs sanitized model output. *script.Pipeline satisfies it.
type Normalizer interface {
	Normalize(code, scenarioHint string) string
}

// Service produces scripts and suggestions.
type Service struct {
	gateway    Gateway
	normalizer Normalizer
	targetSite string
	logger     *zap.Logger
	metrics    *telemetry.Metrics
}

// NewService wires a generation service.
func NewService(gateway Gateway, normalizer Normalizer, targetSite string, logger *zap.Logger, metrics *telemetry.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		gateway:    gateway,
		normalizer: normalizer,
		targetSite: targetSite,
		logger:     logger,
		metrics:    metrics,
	}
}

// Produce returns a generation for scenario. It never fails: when no model
// answers, the script is one of the canned ones.
func (s *Service) Produce(ctx context.Context, scenario string) models.Generation {
	start := time.Now()
	res := s.gateway.Generate(ctx, GenerationPrompt(s.targetSite, scenario))

	gen := models.Generation{
		ID:          uuid.New(),
		Scenario:    scenario,
		Source:      res.Source,
		Attempts:    summarize(res.Attempts),
		Suggestions: []string{},
		CreatedAt:   start.UTC(),
	}

	code := script.Sanitize(res.Text)
	if res.Placeholder || llm.IsPlaceholder(code) || strings.TrimSpace(code) == "" {
		gen.Script = CannedScript(scenario, s.targetSite)
		gen.Source = SourceCanned
		gen.Canned = true
	} else {
		gen.Script = s.normalizer.Normalize(code, scenario)
	}

	sum := sha256.Sum256([]byte(gen.Script))
	gen.ScriptHash = hex.EncodeToString(sum[:])
	gen.LatencyMS = time.Since(start).Milliseconds()

	s.metrics.IncGeneration(gen.Canned)
	s.logger.Info("script generated",
		zap.String("generation_id", gen.ID.String()),
		zap.String("source", gen.Source),
		zap.Bool("canned", gen.Canned),
		zap.Int("attempts", len(gen.Attempts)),
		zap.Int64("latency_ms", gen.LatencyMS),
	)
	return gen
}

// Suggest asks the model for edge-case ideas about script, one per non-empty
// line of the answer. Keyword heuristics stand in when no model answered.
func (s *Service) Suggest(ctx context.Context, scenario, code string) []string {
	res := s.gateway.Generate(ctx, SuggestionPrompt(scenario, code))
	if res.Placeholder || llm.IsPlaceholder(res.Text) {
		return HeuristicSuggestions(scenario)
	}

	suggestions := make([]string, 0, MaxSuggestions)
	for _, line := range strings.Split(res.Text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		suggestions = append(suggestions, line)
		if len(suggestions) == MaxSuggestions {
			break
		}
	}
	return suggestions
}

func summarize(attempts []llm.Attempt) []models.Attempt {
	out := make([]models.Attempt, len(attempts))
	for i, a := range attempts {
		out[i] = models.Attempt{
			URL:        a.Target.URL,
			Dialect:    string(a.Target.Dialect),
			Label:      a.Target.Label,
			Outcome:    string(a.Outcome),
			Reason:     a.Reason,
			StatusCode: a.StatusCode,
			LatencyMS:  a.Latency.Milliseconds(),
		}
	}
	return out
}
