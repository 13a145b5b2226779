package predictor_test

import (
	"context"
	"math"
	"testing"

	"github.com/okian/keymood/internal/domain/model"
	"github.com/okian/keymood/internal/domain/predictor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactPredictor(t *testing.T) {
	ctx := context.Background()
	p, err := predictor.LoadArtifactPredictor(ctx, "testdata/model.yaml")
	require.NoError(t, err)

	t.Run("inputs at the scaler mean give a uniform distribution", func(t *testing.T) {
		probs, err := p.Predict(ctx, [model.NumFeatures]float64{40, 150, 500, 100})
		require.NoError(t, err)
		for _, v := range probs {
			assert.InDelta(t, 0.25, v, 1e-12)
		}
	})

	t.Run("fast typing favors Happy", func(t *testing.T) {
		probs, err := p.Predict(ctx, [model.NumFeatures]float64{100, 150, 500, 100})
		require.NoError(t, err)
		e3 := math.Exp(3)
		assert.InDelta(t, e3/(e3+3), probs[model.Happy], 1e-12)

		pred, err := predictor.Decide(probs)
		require.NoError(t, err)
		assert.Equal(t, model.Happy, pred.Emotion)
	})

	t.Run("probabilities sum to one", func(t *testing.T) {
		probs, err := p.Predict(ctx, [model.NumFeatures]float64{12, 400, 1200, 7})
		require.NoError(t, err)
		var sum float64
		for _, v := range probs {
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-12)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := p.Predict(cctx, [model.NumFeatures]float64{})
		assert.ErrorIs(t, err, predictor.ErrModelUnavailable)
	})
}

func TestArtifactLabelOrder(t *testing.T) {
	a, err := predictor.ParseArtifact([]byte(`
labels: [Stressed, Calm, Sad, Happy]
layers:
  - activation: softmax
    weights: [[0, 0, 0, 0], [0, 0, 0, 0], [0, 0, 0, 0], [1, 0, 0, 0]]
    bias: [0, 0, 0, 0]
`))
	require.NoError(t, err)
	p, err := predictor.NewArtifactPredictor(a)
	require.NoError(t, err)
	assert.Equal(t, "artifact", p.Name())

	probs, err := p.Predict(context.Background(), [model.NumFeatures]float64{5, 0, 0, 0})
	require.NoError(t, err)
	// The fourth output unit is labelled Happy.
	pred, err := predictor.Decide(probs)
	require.NoError(t, err)
	assert.Equal(t, model.Happy, pred.Emotion)
}

func TestParseArtifact_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":      "layers: [",
		"no layers":     "name: empty",
		"wrong labels":  "labels: [Happy, Sad]\nlayers: [{activation: softmax, weights: [[0,0,0,0],[0,0,0,0],[0,0,0,0],[0,0,0,0]], bias: [0,0,0,0]}]",
		"dup labels":    "labels: [Happy, Happy, Calm, Sad]\nlayers: [{activation: softmax, weights: [[0,0,0,0],[0,0,0,0],[0,0,0,0],[0,0,0,0]], bias: [0,0,0,0]}]",
		"bad scaler":    "scaler: {mean: [1, 2]}\nlayers: [{activation: softmax, weights: [[0,0,0,0],[0,0,0,0],[0,0,0,0],[0,0,0,0]], bias: [0,0,0,0]}]",
		"bad input dim": "layers: [{activation: softmax, weights: [[0,0,0],[0,0,0],[0,0,0],[0,0,0]], bias: [0,0,0,0]}]",
		"bias mismatch": "layers: [{activation: softmax, weights: [[0,0,0,0],[0,0,0,0],[0,0,0,0],[0,0,0,0]], bias: [0]}]",
		"wrong outputs": "layers: [{activation: softmax, weights: [[0,0,0,0],[0,0,0,0]], bias: [0,0]}]",
		"not softmax":   "layers: [{activation: relu, weights: [[0,0,0,0],[0,0,0,0],[0,0,0,0],[0,0,0,0]], bias: [0,0,0,0]}]",
		"bad act":       "layers: [{activation: gelu, weights: [[0,0,0,0],[0,0,0,0],[0,0,0,0],[0,0,0,0]], bias: [0,0,0,0]}]",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := predictor.ParseArtifact([]byte(doc))
			assert.ErrorIs(t, err, predictor.ErrInvalidArtifact)
		})
	}
}
