package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/axiom/scriptgen/internal/llm"
)

// Prober pings every model candidate. *llm.Gateway satisfies it.
type Prober interface {
	Probe(ctx context.Context) []llm.ProbeReport
}

// DebugHandler exposes connectivity diagnostics for the model endpoints.
type DebugHandler struct {
	prober   Prober
	localURL string
	model    string
}

// NewDebugHandler creates a new debug handler
func NewDebugHandler(prober Prober, localURL, model string) *DebugHandler {
	return &DebugHandler{prober: prober, localURL: localURL, model: model}
}

// ProbeResponse is the body of GET /debug/llm.
type ProbeResponse struct {
	Base    string            `json:"base"`
	Model   string            `json:"model"`
	Results []llm.ProbeReport `json:"results"`
}

// ProbeLLM sends a short prompt to each candidate and reports how it reacted.
func (h *DebugHandler) ProbeLLM(c *gin.Context) {
	if h.localURL == "" {
		c.JSON(http.StatusOK, gin.H{"error": "LOCAL_LLM_URL not set"})
		return
	}
	c.JSON(http.StatusOK, ProbeResponse{
		Base:    h.localURL,
		Model:   h.model,
		Results: h.prober.Probe(c.Request.Context()),
	})
}
