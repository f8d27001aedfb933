// Package config loads the ambient configuration for the briefbot-server
// binary: the process's own port/log level, its LLM credentials, and its
// response-cache location and TTLs. The research pipeline itself takes
// these as explicit parameters rather than reading the environment, so
// this package only exists at the cmd/briefbot-server boundary.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

// Config is the full process configuration.
type Config struct {
	Server      ServerConfig
	Credentials CredentialsConfig
	Cache       CacheConfig
	Sampling    SamplingConfig
}

// ServerConfig controls the HTTP surface in cmd/briefbot-server.
type ServerConfig struct {
	Port          int
	LogLevel      string
	EnableSwagger bool
}

// CredentialsConfig holds the API keys and model-selection policy shared
// by every provider that calls an LLM.
type CredentialsConfig struct {
	OpenAIAPIKey string
	XAIAPIKey    string
	ModelPolicy  string // "pinned", "auto", or "latest"
	OpenAIPin    string
	XAIPin       string
}

// CacheConfig describes the file-backed response cache. cmd/briefbot-server
// passes Dir to the cache store. The two TTL values are validated here but
// not read elsewhere: the pipeline uses a fixed 20-hour response TTL and the
// cache package a fixed 4-day model-preference TTL.
type CacheConfig struct {
	Dir              string
	ResponseTTLHrs   int
	ModelPrefsTTLHrs int
}

// SamplingConfig holds the configured default result-volume tier. It is
// validated at load but not read by the HTTP handler, which treats a
// request without a tier as "standard".
type SamplingConfig struct {
	DefaultTier string // "lite", "standard", or "dense"
}

// Load loads and validates configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:          getEnvAsInt("BRIEFBOT_PORT", 8080),
			LogLevel:      getEnv("BRIEFBOT_LOG_LEVEL", "info"),
			EnableSwagger: getEnvAsBool("BRIEFBOT_ENABLE_SWAGGER", true),
		},
		Credentials: CredentialsConfig{
			OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
			XAIAPIKey:    getEnv("XAI_API_KEY", ""),
			ModelPolicy:  getEnv("BRIEFBOT_MODEL_POLICY", "auto"),
			OpenAIPin:    getEnv("BRIEFBOT_OPENAI_MODEL_PIN", ""),
			XAIPin:       getEnv("BRIEFBOT_XAI_MODEL_PIN", ""),
		},
		Cache: CacheConfig{
			Dir:              getEnv("BRIEFBOT_CACHE_DIR", "/data/briefbot-cache"),
			ResponseTTLHrs:   getEnvAsInt("BRIEFBOT_CACHE_TTL_HOURS", 20),
			ModelPrefsTTLHrs: getEnvAsInt("BRIEFBOT_MODEL_PREFS_TTL_HOURS", 96),
		},
		Sampling: SamplingConfig{
			DefaultTier: getEnv("BRIEFBOT_DEFAULT_SAMPLING", "standard"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s=%s, using default %d", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	valueStr = strings.ToLower(strings.TrimSpace(valueStr))

	switch valueStr {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		log.Printf("Warning: Invalid boolean for %s=%s, using default %v", key, valueStr, defaultValue)
		return defaultValue
	}
}

// Validate validates the entire configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("BRIEFBOT_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Server.LogLevel] {
		return fmt.Errorf("BRIEFBOT_LOG_LEVEL must be one of [debug, info, warn, error], got '%s'", c.Server.LogLevel)
	}

	validPolicies := map[string]bool{"pinned": true, "auto": true, "latest": true}
	if !validPolicies[c.Credentials.ModelPolicy] {
		return fmt.Errorf("BRIEFBOT_MODEL_POLICY must be one of [pinned, auto, latest], got '%s'", c.Credentials.ModelPolicy)
	}
	if c.Credentials.ModelPolicy == "pinned" && c.Credentials.OpenAIPin == "" && c.Credentials.XAIPin == "" {
		return fmt.Errorf("BRIEFBOT_MODEL_POLICY=pinned requires at least one of BRIEFBOT_OPENAI_MODEL_PIN or BRIEFBOT_XAI_MODEL_PIN")
	}

	if c.Cache.Dir == "" {
		return fmt.Errorf("BRIEFBOT_CACHE_DIR is required")
	}
	if c.Cache.ResponseTTLHrs <= 0 {
		return fmt.Errorf("BRIEFBOT_CACHE_TTL_HOURS must be positive, got %d", c.Cache.ResponseTTLHrs)
	}
	if c.Cache.ModelPrefsTTLHrs <= 0 {
		return fmt.Errorf("BRIEFBOT_MODEL_PREFS_TTL_HOURS must be positive, got %d", c.Cache.ModelPrefsTTLHrs)
	}

	validTiers := map[string]bool{"lite": true, "standard": true, "dense": true}
	if !validTiers[c.Sampling.DefaultTier] {
		return fmt.Errorf("BRIEFBOT_DEFAULT_SAMPLING must be one of [lite, standard, dense], got '%s'", c.Sampling.DefaultTier)
	}

	return nil
}
