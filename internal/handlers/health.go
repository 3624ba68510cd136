package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/axiom/scriptgen/internal/llm"
)

const (
	serviceName    = "scriptgen"
	serviceVersion = "0.1.0"
)

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db     Pinger
	redis  Pinger
	llmURL string
	client *http.Client
}

// NewHealthHandler creates a new health handler. Nil dependencies are reported
// as not configured.
func NewHealthHandler(db, redis Pinger, llmURL string) *HealthHandler {
	return &HealthHandler{
		db:     db,
		redis:  redis,
		llmURL: llmURL,
		client: &http.Client{Timeout: 3 * time.Second},
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status       string            `json:"status"`
	Service      string            `json:"service"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
}

// Health returns basic health status
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// DeepHealth returns health status with dependency checks. An unreachable
// model server does not degrade the service since generation falls back to
// canned scripts.
func (h *HealthHandler) DeepHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	deps := make(map[string]string)
	allHealthy := true

	for name, dep := range map[string]Pinger{"database": h.db, "redis": h.redis} {
		if dep == nil {
			deps[name] = "not configured"
			continue
		}
		if err := dep.Ping(ctx); err != nil {
			deps[name] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			deps[name] = "healthy"
		}
	}

	switch {
	case h.llmURL == "":
		deps["llm"] = "not configured"
	case h.checkLLM(ctx):
		deps["llm"] = "healthy"
	default:
		deps["llm"] = "unreachable"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:       status,
		Service:      serviceName,
		Version:      serviceVersion,
		Dependencies: deps,
	})
}

// checkLLM reports whether the model host answers HTTP at all.
func (h *HealthHandler) checkLLM(ctx context.Context) bool {
	root := llm.Classify(h.llmURL).HostRoot
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, root+"/", nil)
	if err != nil {
		return false
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < http.StatusInternalServerError
}
