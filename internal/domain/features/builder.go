// Package features turns caller input into model.FeatureSet values.
package features

import "github.com/okian/keymood/internal/domain/model"

// FromMap builds a FeatureSet from named signals. Missing keys default to 0 and
// unknown keys are ignored. Values are not range-checked.
// A nil map means no features payload was sent and yields ErrMissingInput.
func FromMap(m map[string]float64) (model.FeatureSet, error) {
	if m == nil {
		return model.FeatureSet{}, ErrMissingInput
	}
	return model.FeatureSet{
		TypingSpeedWPM:   m[model.KeyTypingSpeedWPM],
		AvgKeyIntervalMS: m[model.KeyAvgKeyIntervalMS],
		AvgPauseMS:       m[model.KeyAvgPauseMS],
		NumKeyEvents:     m[model.KeyNumKeyEvents],
	}, nil
}

// ToMap is the inverse of FromMap.
func ToMap(fs model.FeatureSet) map[string]float64 {
	return map[string]float64{
		model.KeyTypingSpeedWPM:   fs.TypingSpeedWPM,
		model.KeyAvgKeyIntervalMS: fs.AvgKeyIntervalMS,
		model.KeyAvgPauseMS:       fs.AvgPauseMS,
		model.KeyNumKeyEvents:     fs.NumKeyEvents,
	}
}
