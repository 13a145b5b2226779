package config_test

import (
	"errors"
	"os"
	"testing"

	"github.com/okian/keymood/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.ModelKind, convey.ShouldEqual, "none")
				convey.So(cfg.PauseThresholdMS, convey.ShouldEqual, 300)
				convey.So(cfg.BatchMaxSize, convey.ShouldEqual, 256)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("KEYMOOD_ADDR", ":8080")
			_ = os.Setenv("KEYMOOD_LOG_FORMAT", "json")
			_ = os.Setenv("KEYMOOD_MODEL_KIND", "remote")
			_ = os.Setenv("KEYMOOD_MODEL_URL", "http://tfserving:8501/v1/models/keymood:predict")
			_ = os.Setenv("KEYMOOD_MODEL_REQUIRED", "true")
			_ = os.Setenv("KEYMOOD_PAUSE_THRESHOLD_MS", "250.5")
			_ = os.Setenv("KEYMOOD_RATE_LIMIT_RPS", "20")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.ModelKind, convey.ShouldEqual, "remote")
				convey.So(cfg.ModelURL, convey.ShouldEqual, "http://tfserving:8501/v1/models/keymood:predict")
				convey.So(cfg.ModelRequired, convey.ShouldBeTrue)
				convey.So(cfg.PauseThresholdMS, convey.ShouldEqual, 250.5)
				convey.So(cfg.RateLimitRPS, convey.ShouldEqual, 20)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
model_kind: file
model_path: /models/keymood.yaml
batch_max_size: 64
batch_workers: 4
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("KEYMOOD_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.ModelKind, convey.ShouldEqual, "file")
				convey.So(cfg.ModelPath, convey.ShouldEqual, "/models/keymood.yaml")
				convey.So(cfg.BatchMaxSize, convey.ShouldEqual, 64)
				convey.So(cfg.BatchWorkers, convey.ShouldEqual, 4)
				convey.So(cfg.ModelTimeoutMS, convey.ShouldEqual, 500) // From defaults
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
batch_workers: 4
max_body_bytes: 4096
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("KEYMOOD_CONFIG", tmpFile)
			_ = os.Setenv("KEYMOOD_ADDR", ":8080")
			_ = os.Setenv("KEYMOOD_BATCH_WORKERS", "8")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")      // Overridden by env
				convey.So(cfg.BatchWorkers, convey.ShouldEqual, 8)    // Overridden by env
				convey.So(cfg.MaxBodyBytes, convey.ShouldEqual, 4096) // From file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("KEYMOOD_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("KEYMOOD_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("KEYMOOD_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("KEYMOOD_BATCH_WORKERS", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a required model has no source", func() {
			_ = os.Setenv("KEYMOOD_MODEL_KIND", "file")
			_ = os.Setenv("KEYMOOD_MODEL_REQUIRED", "true")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then validation rejects it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "model_path")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"KEYMOOD_CONFIG",
		"KEYMOOD_ADDR",
		"KEYMOOD_LOG_FORMAT",
		"KEYMOOD_MODEL_KIND",
		"KEYMOOD_MODEL_URL",
		"KEYMOOD_MODEL_REQUIRED",
		"KEYMOOD_PAUSE_THRESHOLD_MS",
		"KEYMOOD_RATE_LIMIT_RPS",
		"KEYMOOD_BATCH_WORKERS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "keymood-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
