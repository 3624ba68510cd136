package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/axiom/scriptgen/internal/middleware"
)

// Router holds everything the HTTP API is assembled from.
type Router struct {
	Generation *GenerationHandler
	Health     *HealthHandler
	Debug      *DebugHandler

	// JWTSecret protects the routes that execute code. Empty leaves them open.
	JWTSecret   string
	RateLimiter *middleware.RateLimiter
	// Metrics serves /metrics; nil uses the default Prometheus registry.
	Metrics http.Handler
	Logger  *zap.Logger
}

// Engine builds the gin engine with middleware and routes.
func (r Router) Engine() *gin.Engine {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limiter := r.RateLimiter
	if limiter == nil {
		limiter = middleware.NewGenerationRateLimiter()
	}
	metrics := r.Metrics
	if metrics == nil {
		metrics = promhttp.Handler()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS())

	router.GET("/health", r.Health.Health)
	router.GET("/health/deep", r.Health.DeepHealth)
	router.GET("/metrics", gin.WrapH(metrics))
	router.GET("/debug/llm", r.Debug.ProbeLLM)

	auth := middleware.Auth(r.JWTSecret, logger)
	limit := middleware.RateLimitMiddleware(limiter)

	register := func(g *gin.RouterGroup) {
		g.POST("/generate", limit, r.Generation.Generate)
		g.POST("/run", auth, r.Generation.Run)
		g.POST("/generate-and-run", auth, limit, r.Generation.GenerateAndRun)
	}

	v1 := router.Group("/api/v1")
	{
		register(v1)
		v1.GET("/generations", r.Generation.ListGenerations)
		v1.GET("/generations/:id", r.Generation.GetGeneration)
		v1.GET("/runs/:id", r.Generation.GetRun)
	}

	// Unversioned paths kept for existing clients.
	register(router.Group(""))

	return router
}
