package scoring

import "github.com/okian/keymood/internal/domain/model"

// Rule scores. The thresholds below and these two values are fixed.
const (
	StrongScore = 0.9
	WeakScore   = 0.6
)

// Rule assigns a score to one emotion: StrongScore when Strong matches,
// otherwise WeakScore when Weak matches, otherwise zero.
type Rule struct {
	Emotion model.Emotion
	Strong  func(model.FeatureSet) bool
	Weak    func(model.FeatureSet) bool
}

// Eval returns the rule's score for fs. Weak is only consulted when Strong fails.
func (r Rule) Eval(fs model.FeatureSet) float64 {
	switch {
	case r.Strong(fs):
		return StrongScore
	case r.Weak(fs):
		return WeakScore
	default:
		return 0
	}
}

// DefaultRules returns the keystroke threshold rules.
func DefaultRules() []Rule {
	return []Rule{
		{
			Emotion: model.Happy,
			Strong: func(f model.FeatureSet) bool {
				return f.TypingSpeedWPM > 45 && f.AvgKeyIntervalMS < 130 && f.AvgPauseMS < 350
			},
			Weak: func(f model.FeatureSet) bool {
				return f.TypingSpeedWPM > 40
			},
		},
		{
			Emotion: model.Sad,
			Strong: func(f model.FeatureSet) bool {
				return f.TypingSpeedWPM < 25 && f.AvgPauseMS > 800
			},
			Weak: func(f model.FeatureSet) bool {
				return f.TypingSpeedWPM < 28
			},
		},
		{
			Emotion: model.Stressed,
			Strong: func(f model.FeatureSet) bool {
				return f.TypingSpeedWPM > 45 && (f.AvgKeyIntervalMS > 200 || f.AvgPauseMS > 700)
			},
			Weak: func(f model.FeatureSet) bool {
				return f.AvgKeyIntervalMS > 220
			},
		},
		{
			Emotion: model.Calm,
			Strong: func(f model.FeatureSet) bool {
				return between(f.TypingSpeedWPM, 28, 40) && between(f.AvgKeyIntervalMS, 120, 180) && f.AvgPauseMS < 600
			},
			Weak: func(f model.FeatureSet) bool {
				return between(f.TypingSpeedWPM, 28, 42)
			},
		},
	}
}

// between reports lo <= v <= hi.
func between(v, lo, hi float64) bool {
	return lo <= v && v <= hi
}
