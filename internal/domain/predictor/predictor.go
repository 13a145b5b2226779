// Package predictor defines the contract for the optional trained emotion model
// and the implementations the service can be configured with.
package predictor

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/okian/keymood/internal/domain/model"
)

// Sentinel error kinds for this package.
var (
	// ErrModelUnavailable means the model could not produce a prediction:
	// artifact not loaded, endpoint down, breaker open or deadline exceeded.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrInvalidPrediction means the model answered with something that is not
	// a probability vector over the four emotions.
	ErrInvalidPrediction = errors.New("invalid model prediction")
	// ErrInvalidArtifact means a model artifact failed validation.
	ErrInvalidArtifact = errors.New("invalid model artifact")
	// ErrUnknownKind means the configured predictor kind is not supported.
	ErrUnknownKind = errors.New("unknown predictor kind")
)

// Predictor maps a feature vector to class probabilities ordered
// Happy, Sad, Calm, Stressed.
type Predictor interface {
	Predict(ctx context.Context, vec [model.NumFeatures]float64) ([]float64, error)
	Name() string
}

// probabilitySumTolerance bounds how far a probability vector may sum from 1.
const probabilitySumTolerance = 1e-6

// Decide validates a probability vector and picks its argmax. Ties go to the
// earliest emotion in stable order.
func Decide(probs []float64) (model.ModelPrediction, error) {
	if len(probs) != model.NumEmotions {
		return model.ModelPrediction{}, fmt.Errorf("%w: got %d classes, want %d", ErrInvalidPrediction, len(probs), model.NumEmotions)
	}
	var dist model.ScoreMap
	for i, p := range probs {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return model.ModelPrediction{}, fmt.Errorf("%w: class %d has probability %v", ErrInvalidPrediction, i, p)
		}
		dist[i] = p
	}
	if sum := dist.Sum(); math.Abs(sum-1) > probabilitySumTolerance {
		return model.ModelPrediction{}, fmt.Errorf("%w: probabilities sum to %v", ErrInvalidPrediction, sum)
	}
	best, confidence := dist.Best()
	return model.ModelPrediction{
		Probabilities: dist,
		Emotion:       best,
		Confidence:    confidence,
	}, nil
}

// Predict runs p and converts its output with Decide.
func Predict(ctx context.Context, p Predictor, fs model.FeatureSet) (*model.ModelPrediction, error) {
	probs, err := p.Predict(ctx, fs.Vector())
	if err != nil {
		return nil, err
	}
	pred, err := Decide(probs)
	if err != nil {
		return nil, err
	}
	return &pred, nil
}
