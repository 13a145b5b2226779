package loadgen

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/keymood/internal/domain/model"
	"github.com/okian/keymood/internal/domain/scoring"
	"github.com/okian/keymood/internal/domain/types"
)

// ErrMismatch reports a response that disagrees with the local scorer or is malformed.
var ErrMismatch = errors.New("response mismatch")

// verifyResponse checks that pr is well formed and, for rule and default
// decisions, that it agrees with scoring the same features locally. Model
// fallbacks depend on the served model and are only checked for shape.
func verifyResponse(scorer scoring.Scorer, sample Sample, pr types.PredictResponse) error {
	emotion, err := model.ParseEmotion(pr.Emotion)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMismatch, err)
	}
	if pr.Confidence < 0 || pr.Confidence > 1 || math.IsNaN(pr.Confidence) {
		return fmt.Errorf("%w: confidence %v outside [0,1]", ErrMismatch, pr.Confidence)
	}
	if pr.PredictionID == "" {
		return fmt.Errorf("%w: missing prediction id", ErrMismatch)
	}

	switch model.Decision(pr.Decision) {
	case model.DecisionModelFallback:
		return nil
	case model.DecisionRules, model.DecisionDefault:
	default:
		return fmt.Errorf("%w: unknown decision %q", ErrMismatch, pr.Decision)
	}

	want := scorer.Score(sample.Features, nil)
	if want.Decision != model.Decision(pr.Decision) {
		return fmt.Errorf("%w: decision %s, local scorer says %s", ErrMismatch, pr.Decision, want.Decision)
	}
	if want.Emotion != emotion {
		return fmt.Errorf("%w: emotion %s, local scorer says %s", ErrMismatch, emotion, want.Emotion)
	}
	if math.Abs(want.Confidence-pr.Confidence) > confidenceTolerance {
		return fmt.Errorf("%w: confidence %v, local scorer says %v", ErrMismatch, pr.Confidence, want.Confidence)
	}
	return nil
}
