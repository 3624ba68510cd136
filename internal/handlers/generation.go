package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/axiom/scriptgen/internal/eventbus"
	"github.com/axiom/scriptgen/internal/middleware"
	"github.com/axiom/scriptgen/internal/models"
	"github.com/axiom/scriptgen/internal/script"
	"github.com/axiom/scriptgen/internal/store"
)

// Producer generates scripts and follow-up suggestions. *generator.Service
// satisfies it.
type Producer interface {
	Produce(ctx context.Context, scenario string) models.Generation
	Suggest(ctx context.Context, scenario, code string) []string
}

// Executor runs a script once. *runner.Runner satisfies it.
type Executor interface {
	Run(ctx context.Context, code string, generationID *uuid.UUID) (models.RunResult, error)
}

// GenerationHandler serves the generate, run and history endpoints.
type GenerationHandler struct {
	producer    Producer
	executor    Executor
	generations store.Generations
	runs        store.Runs
	events      eventbus.Publisher
	logger      *zap.Logger
}

// NewGenerationHandler creates a new generation handler. Nil stores disable
// history and a nil publisher disables events.
func NewGenerationHandler(producer Producer, executor Executor, generations store.Generations, runs store.Runs, events eventbus.Publisher, logger *zap.Logger) *GenerationHandler {
	if events == nil {
		events = eventbus.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationHandler{
		producer:    producer,
		executor:    executor,
		generations: generations,
		runs:        runs,
		events:      events,
		logger:      logger,
	}
}

// Generate produces a script for a scenario.
func (h *GenerationHandler) Generate(c *gin.Context) {
	scenario, ok := bindScenario(c)
	if !ok {
		return
	}

	gen := h.produce(c.Request.Context(), scenario)
	c.JSON(http.StatusOK, models.GenerateResponse{
		ID:          gen.ID,
		Code:        gen.Script,
		Suggestions: gen.Suggestions,
		Source:      gen.Source,
		Canned:      gen.Canned,
	})
}

// Run executes caller-supplied code. Markdown fences are stripped first.
func (h *GenerationHandler) Run(c *gin.Context) {
	var req models.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		middleware.BadRequest(c, "code required")
		return
	}

	result, err := h.execute(c.Request.Context(), script.Sanitize(req.Code), req.GenerationID)
	if err != nil {
		middleware.ExecutionError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GenerateAndRun produces a script and executes it immediately.
func (h *GenerationHandler) GenerateAndRun(c *gin.Context) {
	scenario, ok := bindScenario(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	gen := h.produce(ctx, scenario)
	result, err := h.execute(ctx, gen.Script, &gen.ID)
	if err != nil {
		middleware.ExecutionError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.GenerateAndRunResponse{
		ID:          gen.ID,
		Code:        gen.Script,
		Suggestions: gen.Suggestions,
		Result:      &result,
	})
}

// ListGenerations returns recent generations, newest first.
func (h *GenerationHandler) ListGenerations(c *gin.Context) {
	if h.generations == nil {
		c.JSON(http.StatusOK, gin.H{"generations": []models.Generation{}})
		return
	}

	limit := store.DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			middleware.BadRequest(c, "limit must be an integer")
			return
		}
		limit = n
	}

	gens, err := h.generations.List(c.Request.Context(), store.ClampLimit(limit))
	if err != nil {
		h.logger.Error("failed to list generations", zap.Error(err))
		middleware.StorageError(c, err)
		return
	}
	if gens == nil {
		gens = []models.Generation{}
	}
	c.JSON(http.StatusOK, gin.H{"generations": gens})
}

// GetGeneration returns one stored generation.
func (h *GenerationHandler) GetGeneration(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if h.generations == nil {
		middleware.NotFound(c, "generation not found")
		return
	}

	gen, err := h.generations.Get(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		middleware.NotFound(c, "generation not found")
		return
	}
	if err != nil {
		middleware.StorageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gen)
}

// GetRun returns one stored run result while it has not expired.
func (h *GenerationHandler) GetRun(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if h.runs == nil {
		middleware.NotFound(c, "run not found")
		return
	}

	res, err := h.runs.Get(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		middleware.NotFound(c, "run not found")
		return
	}
	if err != nil {
		middleware.StorageError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// produce generates, attaches suggestions and records the generation. Storage
// and publish failures are logged only.
func (h *GenerationHandler) produce(ctx context.Context, scenario string) models.Generation {
	gen := h.producer.Produce(ctx, scenario)
	gen.Suggestions = h.producer.Suggest(ctx, scenario, gen.Script)
	if gen.Suggestions == nil {
		gen.Suggestions = []string{}
	}

	if h.generations != nil {
		if err := h.generations.Save(ctx, gen); err != nil {
			h.logger.Error("failed to save generation", zap.String("generation_id", gen.ID.String()), zap.Error(err))
		}
	}
	if err := h.events.Publish(ctx, eventbus.SubjectGenerationCompleted, gen); err != nil {
		h.logger.Warn("failed to publish generation event", zap.Error(err))
	}
	return gen
}

func (h *GenerationHandler) execute(ctx context.Context, code string, generationID *uuid.UUID) (models.RunResult, error) {
	result, err := h.executor.Run(ctx, code, generationID)
	if err != nil {
		h.logger.Error("failed to execute script", zap.Error(err))
		return models.RunResult{}, err
	}

	if h.runs != nil {
		if err := h.runs.Save(ctx, result); err != nil {
			h.logger.Error("failed to save run result", zap.String("run_id", result.ID.String()), zap.Error(err))
		}
	}
	if err := h.events.Publish(ctx, eventbus.SubjectRunCompleted, result); err != nil {
		h.logger.Warn("failed to publish run event", zap.Error(err))
	}
	return result, nil
}

func bindScenario(c *gin.Context) (string, bool) {
	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Scenario) == "" {
		middleware.BadRequest(c, "scenario required")
		return "", false
	}
	return strings.TrimSpace(req.Scenario), true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		middleware.BadRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
