// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over those defaults.
// - Validation failures wrap ErrInvalidConfig; source failures wrap ErrLoadConfig.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ModelKind selects the predictor: none, file or remote.
	ModelKind string `koanf:"model_kind"`

	// ModelPath points at the YAML model artifact when ModelKind is file.
	ModelPath string `koanf:"model_path"`

	// ModelURL is the prediction endpoint when ModelKind is remote.
	ModelURL string `koanf:"model_url"`

	// ModelTimeoutMS bounds a single remote model call.
	ModelTimeoutMS int `koanf:"model_timeout_ms"`

	// ModelRequired turns model failures into startup and request errors
	// instead of degrading to rule-only scoring.
	ModelRequired bool `koanf:"model_required"`

	// BreakerMaxFailures and BreakerOpenTimeoutMS tune the remote model circuit breaker.
	BreakerMaxFailures   int `koanf:"breaker_max_failures"`
	BreakerOpenTimeoutMS int `koanf:"breaker_open_timeout_ms"`

	// PauseThresholdMS is the keydown gap counted as a pause by the keystroke extractor.
	PauseThresholdMS float64 `koanf:"pause_threshold_ms"`

	// RateLimitRPS enables token-bucket limiting of predict routes when > 0.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// BatchMaxSize caps samples per batch request; BatchWorkers bounds batch concurrency.
	BatchMaxSize int `koanf:"batch_max_size"`
	BatchWorkers int `koanf:"batch_workers"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		ModelKind:            "none",
		ModelTimeoutMS:       500,
		BreakerMaxFailures:   5,
		BreakerOpenTimeoutMS: 30_000,
		PauseThresholdMS:     300,
		RateLimitBurst:       50,
		MaxBodyBytes:         1 << 20,
		BatchMaxSize:         256,
		BatchWorkers:         runtime.NumCPU(),
	}
}

// ModelTimeout returns ModelTimeoutMS as a duration.
func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.ModelTimeoutMS) * time.Millisecond
}

// BreakerOpenTimeout returns BreakerOpenTimeoutMS as a duration.
func (c *Config) BreakerOpenTimeout() time.Duration {
	return time.Duration(c.BreakerOpenTimeoutMS) * time.Millisecond
}
