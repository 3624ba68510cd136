package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service. It is loaded once at start
// and passed explicitly to the components that need it.
type Config struct {
	// Server
	Port        string
	Environment string

	// Local model server
	LocalLLMURL   string
	LocalLLMModel string

	// Remote provider
	RemoteAPIKey string
	RemoteURL    string
	RemoteModel  string

	// Generation
	TargetSite       string
	MaxTokens        int
	Temperature      float64
	CandidateTimeout time.Duration
	GenerationBudget time.Duration
	LaunchHeadless   bool
	FixtureRepair    bool

	// Execution
	NodeBinary   string
	RunWorkDir   string
	RunTimeout   time.Duration
	RunResultTTL time.Duration

	// Optional infrastructure
	DatabaseURL  string
	RedisURL     string
	NATSURL      string
	OTELEndpoint string

	// Security
	JWTSecret string
}

var defaults = map[string]any{
	"port":                        "3000",
	"go_env":                      "development",
	"local_llm_url":               "",
	"local_llm_model":             "llama3.1:8b",
	"openai_api_key":              "",
	"remote_llm_url":              "https://api.openai.com/v1/chat/completions",
	"remote_llm_model":            "gpt-4o-mini",
	"target_site":                 "https://the-internet.herokuapp.com",
	"llm_max_tokens":              1200,
	"llm_temperature":             0.2,
	"llm_candidate_timeout":       "60s",
	"llm_generation_budget":       "3m",
	"launch_headless":             false,
	"fixture_repair":              false,
	"node_bin":                    "node",
	"run_workdir":                 ".",
	"run_timeout":                 "2m",
	"run_result_ttl":              "24h",
	"database_url":                "",
	"redis_url":                   "",
	"nats_url":                    "",
	"otel_exporter_otlp_endpoint": "",
	"jwt_secret":                  "",
}

// Load reads configuration from the working directory's .env.example and .env
// files and from the environment. Environment variables win over .env, which
// wins over .env.example.
func Load() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	return LoadFrom(wd)
}

// LoadFrom is Load with an explicit directory for the env files.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetConfigType("env")

	for _, name := range []string{".env.example", ".env"} {
		if err := mergeEnvFile(v, filepath.Join(dir, name)); err != nil {
			return nil, err
		}
	}

	v.AutomaticEnv()
	for key := range defaults {
		// AutomaticEnv only consults keys viper already knows about; binding
		// explicitly keeps lookups stable when a file omits a key.
		_ = v.BindEnv(key, strings.ToUpper(key))
	}

	return fromViper(v), nil
}

func mergeEnvFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Port:             v.GetString("port"),
		Environment:      v.GetString("go_env"),
		LocalLLMURL:      strings.TrimSpace(v.GetString("local_llm_url")),
		LocalLLMModel:    v.GetString("local_llm_model"),
		RemoteAPIKey:     strings.TrimSpace(v.GetString("openai_api_key")),
		RemoteURL:        v.GetString("remote_llm_url"),
		RemoteModel:      v.GetString("remote_llm_model"),
		TargetSite:       v.GetString("target_site"),
		MaxTokens:        v.GetInt("llm_max_tokens"),
		Temperature:      v.GetFloat64("llm_temperature"),
		CandidateTimeout: v.GetDuration("llm_candidate_timeout"),
		GenerationBudget: v.GetDuration("llm_generation_budget"),
		LaunchHeadless:   v.GetBool("launch_headless"),
		FixtureRepair:    v.GetBool("fixture_repair"),
		NodeBinary:       v.GetString("node_bin"),
		RunWorkDir:       v.GetString("run_workdir"),
		RunTimeout:       v.GetDuration("run_timeout"),
		RunResultTTL:     v.GetDuration("run_result_ttl"),
		DatabaseURL:      v.GetString("database_url"),
		RedisURL:         v.GetString("redis_url"),
		NATSURL:          v.GetString("nats_url"),
		OTELEndpoint:     v.GetString("otel_exporter_otlp_endpoint"),
		JWTSecret:        v.GetString("jwt_secret"),
	}
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
