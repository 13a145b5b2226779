package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/keymood/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.ModelKind, convey.ShouldEqual, "none")
			convey.So(cfg.ModelRequired, convey.ShouldBeFalse)
			convey.So(cfg.PauseThresholdMS, convey.ShouldEqual, 300)
			convey.So(cfg.RateLimitRPS, convey.ShouldEqual, 0)
			convey.So(cfg.BatchWorkers, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then durations are derived from milliseconds", func() {
			convey.So(cfg.ModelTimeout(), convey.ShouldEqual, 500*time.Millisecond)
			convey.So(cfg.BreakerOpenTimeout(), convey.ShouldEqual, 30*time.Second)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with inconsistent settings", t, func() {
		cases := []struct {
			name   string
			mutate func(c *config.Config)
			want   string
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }, "addr must not be empty"},
			{"bad log format", func(c *config.Config) { c.LogFormat = "xml" }, "log_format"},
			{"unknown model kind", func(c *config.Config) { c.ModelKind = "onnx" }, "model_kind"},
			{"file without path", func(c *config.Config) { c.ModelKind = "file" }, "model_path"},
			{"remote without url", func(c *config.Config) { c.ModelKind = "remote" }, "model_url"},
			{"required without model", func(c *config.Config) { c.ModelRequired = true }, "model_required"},
			{"zero pause threshold", func(c *config.Config) { c.PauseThresholdMS = 0 }, "pause_threshold_ms"},
			{"negative rps", func(c *config.Config) { c.RateLimitRPS = -1 }, "rate_limit_rps"},
			{"rps without burst", func(c *config.Config) { c.RateLimitRPS = 10; c.RateLimitBurst = 0 }, "rate_limit_burst"},
			{"zero batch size", func(c *config.Config) { c.BatchMaxSize = 0 }, "batch_max_size"},
			{"zero batch workers", func(c *config.Config) { c.BatchWorkers = 0 }, "batch_workers"},
		}

		for _, tc := range cases {
			convey.Convey("When "+tc.name, func() {
				cfg := config.New()
				tc.mutate(cfg)
				err := cfg.Validate()

				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, tc.want)
			})
		}
	})
}
