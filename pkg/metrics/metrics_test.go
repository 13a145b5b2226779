package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a custom registry and options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_ns"),
				WithSubsystem("test_sub"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.predictions.WithLabelValues("Calm", "default").Inc()

			Convey("Then its metrics are registered under the namespace", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				for _, f := range families {
					So(strings.HasPrefix(f.GetName(), "test_ns_test_sub_"), ShouldBeTrue)
				}
			})

			Convey("And constant labels are attached", func() {
				So(testutil.ToFloat64(manager.predictions.WithLabelValues("Calm", "default")), ShouldEqual, 1)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() != "test_ns_test_sub_predictions_total" {
						continue
					}
					for _, lp := range f.GetMetric()[0].GetLabel() {
						if lp.GetName() == "env" && lp.GetValue() == "test" {
							found = true
						}
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording a prediction", func() {
			c := globalManager.predictions.WithLabelValues("Happy", "rules")
			before := testutil.ToFloat64(c)
			RecordPrediction("Happy", "rules")

			Convey("Then the labelled counter increases", func() {
				So(testutil.ToFloat64(c), ShouldEqual, before+1)
			})
		})

		Convey("When recording model calls", func() {
			c := globalManager.modelCalls.WithLabelValues("unavailable")
			before := testutil.ToFloat64(c)
			RecordModelCall("unavailable", 12)
			So(testutil.ToFloat64(c), ShouldEqual, before+1)
		})

		Convey("When updating model gauges", func() {
			UpdateModelLoaded(true)
			So(testutil.ToFloat64(globalManager.modelLoaded), ShouldEqual, 1)
			UpdateModelLoaded(false)
			So(testutil.ToFloat64(globalManager.modelLoaded), ShouldEqual, 0)

			UpdateModelBreakerState("open")
			So(testutil.ToFloat64(globalManager.modelBreakerState), ShouldEqual, 2)
			UpdateModelBreakerState("half-open")
			So(testutil.ToFloat64(globalManager.modelBreakerState), ShouldEqual, 1)
			UpdateModelBreakerState("closed")
			So(testutil.ToFloat64(globalManager.modelBreakerState), ShouldEqual, 0)
		})

		Convey("When recording request-level metrics", func() {
			So(func() {
				RecordScoringLatency(0.2)
				RecordMissingInput()
				RecordInvalidKeystrokes()
				RecordBatchSize(16)
				RecordHTTPRequest("predict", "POST", "200")
				RecordHTTPRequestDuration("predict", "POST", "200", 1.5)
				RecordErrorByEndpoint("predict", "POST", "client_error")
				RecordRateLimited()
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("When metrics are disabled", func() {
			SetEnabled(false)
			defer SetEnabled(true)

			before := testutil.ToFloat64(globalManager.missingInput)
			RecordMissingInput()

			Convey("Then nothing is recorded", func() {
				So(testutil.ToFloat64(globalManager.missingInput), ShouldEqual, before)
			})
		})

		Convey("Then the registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
