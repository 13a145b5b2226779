// Package scoring maps keystroke features to an emotion using threshold rules.
package scoring

import (
	"math"

	"github.com/okian/keymood/internal/domain/model"
)

// Scorer computes a PredictionResult from features and an optional model prediction.
// Implementations must be safe for concurrent use.
type Scorer interface {
	Score(fs model.FeatureSet, pred *model.ModelPrediction) model.PredictionResult
}

// Option applies a configuration option to the RuleScorer.
type Option func(*RuleScorer)

// WithRules replaces the rule table. Intended for tests; production code uses DefaultRules.
func WithRules(rules []Rule) Option {
	return func(s *RuleScorer) {
		if len(rules) > 0 {
			s.rules = rules
		}
	}
}

// RuleScorer implements Scorer. It holds no mutable state.
type RuleScorer struct {
	rules []Rule
}

// NewRuleScorer creates a scorer with the default rule table.
func NewRuleScorer(opts ...Option) *RuleScorer {
	s := &RuleScorer{rules: DefaultRules()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate runs every rule and returns the raw, unnormalized scores.
// An emotion hit by more than one rule keeps the highest score.
func (s *RuleScorer) Evaluate(fs model.FeatureSet) model.ScoreMap {
	var scores model.ScoreMap
	for _, r := range s.rules {
		scores[r.Emotion] = math.Max(scores[r.Emotion], r.Eval(fs))
	}
	return scores
}

// Score implements Scorer.
func (s *RuleScorer) Score(fs model.FeatureSet, pred *model.ModelPrediction) model.PredictionResult {
	return Decide(s.Evaluate(fs), pred)
}

// Decide turns raw rule scores into a result.
//
// When any rule fired the normalized rules pick the label and pred is only
// attached for reference. When none fired, pred's label and confidence are
// used unchanged, or Calm with confidence 1 if pred is nil.
func Decide(raw model.ScoreMap, pred *model.ModelPrediction) model.PredictionResult {
	normalized, ok := raw.Normalize()
	if !ok {
		if pred == nil {
			return model.PredictionResult{
				Emotion:    model.Calm,
				Confidence: 1.0,
				Decision:   model.DecisionDefault,
			}
		}
		return model.PredictionResult{
			Emotion:    pred.Emotion,
			Confidence: pred.Confidence,
			Decision:   model.DecisionModelFallback,
			Model:      pred,
		}
	}

	best, confidence := normalized.Best()
	return model.PredictionResult{
		Emotion:    best,
		Confidence: confidence,
		Decision:   model.DecisionRules,
		Scores:     normalized,
		Model:      pred,
	}
}
