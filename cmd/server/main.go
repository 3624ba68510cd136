package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/axiom/scriptgen/internal/app"
	"github.com/axiom/scriptgen/internal/config"
	"github.com/axiom/scriptgen/internal/database"
	"github.com/axiom/scriptgen/internal/eventbus"
	"github.com/axiom/scriptgen/internal/handlers"
	"github.com/axiom/scriptgen/internal/middleware"
	"github.com/axiom/scriptgen/internal/store"
	"github.com/axiom/scriptgen/internal/telemetry"
)

func main() {
	ctx := context.Background()

	zapConfig := zap.NewProductionConfig()
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger.Info("scriptgen starting",
		zap.String("environment", cfg.Environment),
		zap.String("target_site", cfg.TargetSite),
		zap.Bool("local_llm", cfg.LocalLLMURL != ""),
		zap.Bool("remote_llm", cfg.RemoteAPIKey != ""),
	)

	shutdownTelemetry, err := telemetry.InitTracer(ctx, "scriptgen", cfg.OTELEndpoint)
	if err != nil {
		// The collector being down must not stop the API.
		logger.Error("failed to initialize telemetry", zap.Error(err))
	} else {
		defer func() {
			if err := shutdownTelemetry(ctx); err != nil {
				logger.Error("failed to shutdown telemetry", zap.Error(err))
			}
		}()
	}

	metrics := telemetry.Default()
	components := app.New(cfg, &http.Client{}, logger, metrics)

	var (
		generations store.Generations = store.NewMemoryGenerations(0)
		runs        store.Runs        = store.NewMemoryRuns(cfg.RunResultTTL)
		dbPinger    handlers.Pinger
		redisPinger handlers.Pinger
	)

	if cfg.DatabaseURL != "" {
		if err := database.RunMigrations(cfg.DatabaseURL, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		db, err := database.OpenHistory(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		generations = store.NewPostgresGenerations(db.Pool())
		dbPinger = db
		logger.Info("generation history stored in postgres")
	}

	if cfg.RedisURL != "" {
		rdb, err := database.OpenRunCache(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		runs = store.NewRedisRuns(rdb.Client(), cfg.RunResultTTL)
		redisPinger = rdb
		logger.Info("run results stored in redis")
	}

	var events eventbus.Publisher = eventbus.NopPublisher{}
	if cfg.NATSURL != "" {
		publisher, err := eventbus.Connect(cfg.NATSURL, logger)
		if err != nil {
			logger.Error("failed to connect to NATS, events disabled", zap.Error(err))
		} else {
			defer publisher.Close()
			events = publisher
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handlers.Router{
		Generation:  handlers.NewGenerationHandler(components.Service, components.Runner, generations, runs, events, logger),
		Health:      handlers.NewHealthHandler(dbPinger, redisPinger, cfg.LocalLLMURL),
		Debug:       handlers.NewDebugHandler(components.Gateway, cfg.LocalLLMURL, cfg.LocalLLMModel),
		JWTSecret:   cfg.JWTSecret,
		RateLimiter: middleware.NewGenerationRateLimiter(),
		Logger:      logger,
	}.Engine()

	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, run endpoints accept unauthenticated requests")
	}

	// Generation may walk the whole cascade and a run may take RUN_TIMEOUT,
	// so the write timeout covers both.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.GenerationBudget + cfg.RunTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited gracefully")
}
