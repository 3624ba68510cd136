// Package app assembles the generation and execution components from config.
package app

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/axiom/scriptgen/internal/config"
	"github.com/axiom/scriptgen/internal/generator"
	"github.com/axiom/scriptgen/internal/llm"
	"github.com/axiom/scriptgen/internal/runner"
	"github.com/axiom/scriptgen/internal/script"
	"github.com/axiom/scriptgen/internal/telemetry"
)

// Components are the pieces shared by the HTTP server and the CLI.
type Components struct {
	Gateway  *llm.Gateway
	Pipeline *script.Pipeline
	Service  *generator.Service
	Runner   *runner.Runner
}

// GatewayConfig maps service configuration onto the gateway's options.
func GatewayConfig(cfg *config.Config) llm.Config {
	return llm.Config{
		LocalURL:    cfg.LocalLLMURL,
		LocalModel:  cfg.LocalLLMModel,
		RemoteKey:   cfg.RemoteAPIKey,
		RemoteURL:   cfg.RemoteURL,
		RemoteModel: cfg.RemoteModel,
		Options: llm.GenerationOptions{
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		},
		CandidateTimeout: cfg.CandidateTimeout,
		Budget:           cfg.GenerationBudget,
	}
}

// New builds the components. A nil client uses http.DefaultClient.
func New(cfg *config.Config, client *http.Client, logger *zap.Logger, metrics *telemetry.Metrics) *Components {
	if logger == nil {
		logger = zap.NewNop()
	}

	var doer llm.Doer
	if client != nil {
		doer = client
	}
	gateway := llm.NewGateway(GatewayConfig(cfg), doer, logger.Named("llm"), metrics)

	pipeline := script.NewPipeline(script.Options{
		TargetSite:    cfg.TargetSite,
		Headless:      cfg.LaunchHeadless,
		FixtureRepair: cfg.FixtureRepair,
	})

	return &Components{
		Gateway:  gateway,
		Pipeline: pipeline,
		Service:  generator.NewService(gateway, pipeline, cfg.TargetSite, logger.Named("generator"), metrics),
		Runner: runner.New(runner.Config{
			NodeBinary: cfg.NodeBinary,
			WorkDir:    cfg.RunWorkDir,
			Timeout:    cfg.RunTimeout,
		}, logger.Named("runner"), metrics),
	}
}
