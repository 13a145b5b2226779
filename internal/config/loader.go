package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. KEYMOOD_ADDR.
const EnvPrefix = "KEYMOOD_"

// EnvConfigFile names the variable holding an optional YAML config path.
const EnvConfigFile = EnvPrefix + "CONFIG"

var validModelKinds = map[string]bool{"none": true, "file": true, "remote": true} //nolint:gochecknoglobals // lookup table

var validLogFormats = map[string]bool{"text": true, "json": true} //nolint:gochecknoglobals // lookup table

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if KEYMOOD_CONFIG is set
//  3. env (prefix KEYMOOD_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// KEYMOOD_MODEL_KIND -> model_kind. Underscores are kept to match the flat koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case !validLogFormats[c.LogFormat]:
		return fmt.Errorf("%w: log_format %q must be text or json", ErrInvalidConfig, c.LogFormat)
	case !validModelKinds[c.ModelKind]:
		return fmt.Errorf("%w: model_kind %q must be none, file or remote", ErrInvalidConfig, c.ModelKind)
	case c.ModelKind == "file" && c.ModelPath == "":
		return fmt.Errorf("%w: model_path is required for model_kind file", ErrInvalidConfig)
	case c.ModelKind == "remote" && c.ModelURL == "":
		return fmt.Errorf("%w: model_url is required for model_kind remote", ErrInvalidConfig)
	case c.ModelKind == "none" && c.ModelRequired:
		return fmt.Errorf("%w: model_required needs a model_kind other than none", ErrInvalidConfig)
	case c.ModelTimeoutMS <= 0:
		return fmt.Errorf("%w: model_timeout_ms must be positive", ErrInvalidConfig)
	case c.BreakerMaxFailures <= 0:
		return fmt.Errorf("%w: breaker_max_failures must be positive", ErrInvalidConfig)
	case c.BreakerOpenTimeoutMS <= 0:
		return fmt.Errorf("%w: breaker_open_timeout_ms must be positive", ErrInvalidConfig)
	case c.PauseThresholdMS <= 0:
		return fmt.Errorf("%w: pause_threshold_ms must be positive", ErrInvalidConfig)
	case c.RateLimitRPS < 0:
		return fmt.Errorf("%w: rate_limit_rps must not be negative", ErrInvalidConfig)
	case c.RateLimitRPS > 0 && c.RateLimitBurst <= 0:
		return fmt.Errorf("%w: rate_limit_burst must be positive when rate limiting", ErrInvalidConfig)
	case c.MaxBodyBytes <= 0:
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	case c.BatchMaxSize <= 0:
		return fmt.Errorf("%w: batch_max_size must be positive", ErrInvalidConfig)
	case c.BatchWorkers <= 0:
		return fmt.Errorf("%w: batch_workers must be positive", ErrInvalidConfig)
	}
	return nil
}
