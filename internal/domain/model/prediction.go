package model

// ScoreMap holds one non-negative score per Emotion, indexed by Emotion.
type ScoreMap [NumEmotions]float64

// Get returns the score for e.
func (s ScoreMap) Get(e Emotion) float64 { return s[e] }

// Sum adds all scores.
func (s ScoreMap) Sum() float64 {
	var total float64
	for _, v := range s {
		total += v
	}
	return total
}

// Normalize divides every score by the sum. The second return is false, and the
// map is returned unchanged, when the sum is zero.
func (s ScoreMap) Normalize() (ScoreMap, bool) {
	total := s.Sum()
	if total == 0 {
		return s, false
	}
	var out ScoreMap
	for i, v := range s {
		out[i] = v / total
	}
	return out, true
}

// Best returns the highest-scoring emotion. Only a strictly greater score
// displaces an earlier label, so ties go to the first label in stable order.
func (s ScoreMap) Best() (Emotion, float64) {
	best := Happy
	for _, e := range Emotions() {
		if s[e] > s[best] {
			best = e
		}
	}
	return best, s[best]
}

// Map renders the scores keyed by label, for JSON output.
func (s ScoreMap) Map() map[string]float64 {
	out := make(map[string]float64, NumEmotions)
	for _, e := range Emotions() {
		out[e.String()] = s[e]
	}
	return out
}

// ModelPrediction is the output of an external scoring function.
type ModelPrediction struct {
	Probabilities ScoreMap
	Emotion       Emotion
	Confidence    float64
}

// Decision tags how a PredictionResult's emotion was chosen.
type Decision string

const (
	// DecisionRules means at least one rule fired and the rules picked the label.
	DecisionRules Decision = "rules"
	// DecisionModelFallback means no rule fired and the model's label was used as is.
	DecisionModelFallback Decision = "model_fallback"
	// DecisionDefault means no rule fired and no model prediction was available.
	DecisionDefault Decision = "default"
)

// PredictionResult is the outcome of scoring a single FeatureSet.
type PredictionResult struct {
	Emotion    Emotion
	Confidence float64
	Decision   Decision
	// Scores is the normalized rule distribution; all zero when no rule fired.
	Scores ScoreMap
	// Model is the prediction consulted for this result, if any.
	Model *ModelPrediction
}
