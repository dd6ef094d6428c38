// Package config assembles process configuration from the environment, the
// embedded §6 tool-catalog JSON files, and production-ready defaults — the
// teacher's pkg/config.Config "umbrella object" shape, pared down from
// agent/chain/MCP-server/LLM-provider registries to what this spec's
// conductor actually needs (store + LLM gateway + runtime knobs).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/codeready-toolchain/conductor/pkg/llmgateway"
	"github.com/codeready-toolchain/conductor/pkg/store"
)

// Config is the process-wide configuration object returned by LoadFromEnv.
type Config struct {
	ServerAddr string

	Store store.Config
	LLM   llmgateway.Config

	MaxToolIters          int
	MaxConcurrentLLMCalls int
	EvictionSweepInterval time.Duration

	RAIEnabled bool
}

// LoadFromEnv loads a .env file if present (teacher's godotenv convention,
// pkg/config/config.go), then reads every setting from the environment,
// collecting every validation error rather than failing on the first one
// (teacher's pkg/config/validator.go "collect every error" style) so an
// operator sees the whole list of problems in one run.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load() // optional; missing .env is not an error

	var errs []error

	serverAddr := getEnvOrDefault("SERVER_ADDR", ":8080")

	storeCfg, err := store.LoadConfigFromEnv()
	if err != nil {
		errs = append(errs, fmt.Errorf("store config: %w", err))
	}

	llmCfg := llmgateway.Config{
		BaseURL: getEnvOrDefault("LLM_BASE_URL", "https://api.openai.com/v1"),
		APIKey:  os.Getenv("LLM_API_KEY"),
		Model:   getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
	}
	if llmCfg.APIKey == "" {
		errs = append(errs, &ValidationError{Field: "LLM_API_KEY", Err: ErrMissingRequiredField})
	}
	if timeout, tErr := parseDurationOrDefault("LLM_TIMEOUT", "60s"); tErr != nil {
		errs = append(errs, &ValidationError{Field: "LLM_TIMEOUT", Err: tErr})
	} else {
		llmCfg.Timeout = timeout
	}

	maxToolIters, err := parseIntOrDefault("MAX_TOOL_ITERS", 8)
	if err != nil {
		errs = append(errs, &ValidationError{Field: "MAX_TOOL_ITERS", Err: err})
	}
	maxConcurrentLLM, err := parseIntOrDefault("MAX_CONCURRENT_LLM_CALLS", 16)
	if err != nil {
		errs = append(errs, &ValidationError{Field: "MAX_CONCURRENT_LLM_CALLS", Err: err})
	}
	llmCfg.MaxConcurrent = maxConcurrentLLM
	evictionInterval, err := parseDurationOrDefault("SESSION_EVICTION_INTERVAL", "10m")
	if err != nil {
		errs = append(errs, &ValidationError{Field: "SESSION_EVICTION_INTERVAL", Err: err})
	}

	raiEnabled := getEnvOrDefault("RAI_GATE_ENABLED", "true") == "true"

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Config{
		ServerAddr:            serverAddr,
		Store:                 storeCfg,
		LLM:                   llmCfg,
		MaxToolIters:          maxToolIters,
		MaxConcurrentLLMCalls: maxConcurrentLLM,
		EvictionSweepInterval: evictionInterval,
		RAIEnabled:            raiEnabled,
	}, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func parseIntOrDefault(key string, defaultVal int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return v, nil
}

func parseDurationOrDefault(key, defaultVal string) (time.Duration, error) {
	raw := getEnvOrDefault(key, defaultVal)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return d, nil
}
