package loadgen

import (
	"context"
	"math/rand"

	"github.com/okian/keymood/internal/domain/model"
	"github.com/okian/keymood/pkg/logger"
)

// GenerateSamples draws n feature sets uniformly from
// [0,80) x [0,300) x [0,1000) x [0,200). The same seed yields the same samples.
func GenerateSamples(n int, seed int64) []Sample {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible load, not security sensitive

	samples := make([]Sample, n)
	for i := range samples {
		var v [model.NumFeatures]float64
		for j := range v {
			v[j] = rng.Float64() * featureRanges[j]
		}
		samples[i] = Sample{Index: i, Features: model.FeatureSetFromVector(v)}
	}
	return samples
}

func generateSamples(ctx context.Context, config *Config, stats *Stats) []Sample {
	logger.Get().Info(ctx, "generating samples",
		logger.Int("numSamples", config.NumSamples),
		logger.Any("seed", config.Seed))

	samples := GenerateSamples(config.NumSamples, config.Seed)
	stats.SamplesGenerated = len(samples)
	return samples
}
