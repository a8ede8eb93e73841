package config

import (
	"fmt"
	"time"
)

// Config is the full application configuration.
type Config struct {
	Logging    LoggingConfig    `koanf:"logging"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	Matcher    MatcherConfig    `koanf:"matcher"`
	Approval   ApprovalConfig   `koanf:"approval"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is "json" or "console".
	Format string `koanf:"format"`
}

// EmbeddingsConfig selects and configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider is "fastembed" (local ONNX) or "tei" (HTTP server).
	Provider string `koanf:"provider"`
	// Model is the embedding model name.
	Model string `koanf:"model"`
	// BaseURL is the TEI server URL (tei provider only).
	BaseURL string `koanf:"base_url"`
	// CacheDir caches downloaded model files (fastembed provider only).
	CacheDir string `koanf:"cache_dir"`
}

// MatcherConfig tunes the semantic intent matcher.
type MatcherConfig struct {
	// DefaultThreshold is the similarity floor used when callers do not
	// pass an explicit threshold.
	DefaultThreshold float64 `koanf:"default_threshold"`
	// CatalogPath points at a YAML intent catalog. Empty means the
	// built-in catalog.
	CatalogPath string `koanf:"catalog_path"`
}

// ApprovalConfig tunes the human-review queue.
type ApprovalConfig struct {
	// TimeoutMinutes is how long an approval stays live without a
	// decision.
	TimeoutMinutes int `koanf:"timeout_minutes"`
	// SweepInterval is the period of the automatic expiry sweep.
	SweepInterval time.Duration `koanf:"sweep_interval"`
	// AutoSendThreshold is the confidence above which replies are sent
	// without review.
	AutoSendThreshold float64 `koanf:"auto_send_threshold"`
	// SensitiveIntents are always held for review regardless of
	// confidence.
	SensitiveIntents []string `koanf:"sensitive_intents"`
}

// Timeout returns the approval TTL as a duration.
func (c ApprovalConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMinutes) * time.Minute
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}

	switch c.Embeddings.Provider {
	case "fastembed", "tei":
	default:
		return fmt.Errorf("embeddings.provider must be fastembed or tei, got %q", c.Embeddings.Provider)
	}

	if c.Matcher.DefaultThreshold < 0 || c.Matcher.DefaultThreshold > 1 {
		return fmt.Errorf("matcher.default_threshold must be in [0,1], got %v", c.Matcher.DefaultThreshold)
	}
	if c.Approval.AutoSendThreshold < 0 || c.Approval.AutoSendThreshold > 1 {
		return fmt.Errorf("approval.auto_send_threshold must be in [0,1], got %v", c.Approval.AutoSendThreshold)
	}
	if c.Approval.TimeoutMinutes <= 0 {
		return fmt.Errorf("approval.timeout_minutes must be positive, got %d", c.Approval.TimeoutMinutes)
	}
	if c.Approval.SweepInterval <= 0 {
		return fmt.Errorf("approval.sweep_interval must be positive, got %v", c.Approval.SweepInterval)
	}
	return nil
}
