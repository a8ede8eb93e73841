// Package config provides configuration loading for the intent core.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// Load reads configuration from an optional YAML file, then overrides with
// environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (APPROVAL_TIMEOUT_MINUTES, MATCHER_DEFAULT_THRESHOLD, ...)
//  2. YAML config file (configPath; skipped when empty or missing)
//  3. Defaults
//
// Environment variables map section-first: the first underscore separates
// the section from the field, remaining underscores stay in the field name.
//
//	APPROVAL_TIMEOUT_MINUTES -> approval.timeout_minutes
//	EMBEDDINGS_BASE_URL      -> embeddings.base_url
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		info, err := os.Stat(configPath)
		if err != nil {
			return nil, fmt.Errorf("stat config file: %w", err)
		}
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
		}

		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envTransform maps MATCHER_DEFAULT_THRESHOLD to matcher.default_threshold.
func envTransform(s string) string {
	lower := strings.ToLower(s)
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

// applyDefaults fills in unset fields.
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Embeddings.Provider == "" {
		cfg.Embeddings.Provider = "fastembed"
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "BAAI/bge-small-en-v1.5"
	}
	if cfg.Embeddings.BaseURL == "" {
		cfg.Embeddings.BaseURL = "http://localhost:8080"
	}

	if cfg.Matcher.DefaultThreshold == 0 {
		cfg.Matcher.DefaultThreshold = 0.60
	}

	if cfg.Approval.TimeoutMinutes == 0 {
		cfg.Approval.TimeoutMinutes = 30
	}
	if cfg.Approval.SweepInterval == 0 {
		cfg.Approval.SweepInterval = 5 * time.Minute
	}
	if cfg.Approval.AutoSendThreshold == 0 {
		cfg.Approval.AutoSendThreshold = 0.80
	}
	if cfg.Approval.SensitiveIntents == nil {
		cfg.Approval.SensitiveIntents = []string{"complaint", "booking"}
	}
}
