package model

// Feature keys accepted on the wire.
const (
	KeyTypingSpeedWPM   = "typing_speed_wpm"
	KeyAvgKeyIntervalMS = "avg_key_interval_ms"
	KeyAvgPauseMS       = "avg_pause_ms"
	KeyNumKeyEvents     = "num_key_events"
)

// NumFeatures is the length of a feature vector.
const NumFeatures = 4

// FeatureSet holds the keystroke-timing signals for one request.
type FeatureSet struct {
	TypingSpeedWPM   float64 `json:"typing_speed_wpm"`
	AvgKeyIntervalMS float64 `json:"avg_key_interval_ms"`
	AvgPauseMS       float64 `json:"avg_pause_ms"`
	NumKeyEvents     float64 `json:"num_key_events"`
}

// Vector returns the features in the fixed order [wpm, interval, pause, eventCount].
func (f FeatureSet) Vector() [NumFeatures]float64 {
	return [NumFeatures]float64{f.TypingSpeedWPM, f.AvgKeyIntervalMS, f.AvgPauseMS, f.NumKeyEvents}
}

// FeatureSetFromVector is the inverse of Vector.
func FeatureSetFromVector(v [NumFeatures]float64) FeatureSet {
	return FeatureSet{
		TypingSpeedWPM:   v[0],
		AvgKeyIntervalMS: v[1],
		AvgPauseMS:       v[2],
		NumKeyEvents:     v[3],
	}
}
