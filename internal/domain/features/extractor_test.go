package features_test

import (
	"testing"

	"github.com/okian/keymood/internal/domain/features"
	"github.com/okian/keymood/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func down(ms float64) features.KeyEvent { return features.KeyEvent{Type: "keydown", Key: "a", TimeMS: ms} }
func up(ms float64) features.KeyEvent   { return features.KeyEvent{Type: "keyup", Key: "a", TimeMS: ms} }

func TestExtractor_Extract(t *testing.T) {
	tests := []struct {
		name   string
		events []features.KeyEvent
		text   string
		want   model.FeatureSet
	}{
		{
			name:   "single event has no span",
			events: []features.KeyEvent{down(10)},
			text:   "a",
			want:   model.FeatureSet{NumKeyEvents: 1},
		},
		{
			name:   "intervals and one pause",
			events: []features.KeyEvent{down(0), up(50), down(100), up(150), down(600), up(660)},
			text:   "hello world",
			want: model.FeatureSet{
				TypingSpeedWPM:   2 / (660.0 / 60_000),
				AvgKeyIntervalMS: 132,
				AvgPauseMS:       500,
				NumKeyEvents:     6,
			},
		},
		{
			name:   "non-positive gaps are skipped",
			events: []features.KeyEvent{down(0), up(0), down(40), up(30)},
			text:   "   ",
			want: model.FeatureSet{
				AvgKeyIntervalMS: 40,
				NumKeyEvents:     4,
			},
		},
		{
			name:   "gap equal to threshold is not a pause",
			events: []features.KeyEvent{down(0), down(300), down(1000)},
			text:   "one two three",
			want: model.FeatureSet{
				TypingSpeedWPM:   3 / (1000.0 / 60_000),
				AvgKeyIntervalMS: 500,
				AvgPauseMS:       700,
				NumKeyEvents:     3,
			},
		},
	}

	ex := features.NewExtractor()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ex.Extract(tc.events, tc.text)
			require.NoError(t, err)
			assert.InDelta(t, tc.want.TypingSpeedWPM, got.TypingSpeedWPM, 1e-9)
			assert.InDelta(t, tc.want.AvgKeyIntervalMS, got.AvgKeyIntervalMS, 1e-9)
			assert.InDelta(t, tc.want.AvgPauseMS, got.AvgPauseMS, 1e-9)
			assert.Equal(t, tc.want.NumKeyEvents, got.NumKeyEvents)
		})
	}
}

func TestExtractor_Errors(t *testing.T) {
	ex := features.NewExtractor()

	_, err := ex.Extract(nil, "text")
	require.ErrorIs(t, err, features.ErrNoKeyEvents)

	_, err = ex.Extract([]features.KeyEvent{down(0), {Type: "keypress", TimeMS: 5}}, "x")
	require.ErrorIs(t, err, features.ErrInvalidKeyEvent)
	assert.Contains(t, err.Error(), "event 1")
}

func TestExtractor_PauseThreshold(t *testing.T) {
	ex := features.NewExtractor(features.WithPauseThreshold(100))
	assert.Equal(t, 100.0, ex.PauseThreshold())

	got, err := ex.Extract([]features.KeyEvent{down(0), down(150), down(200)}, "")
	require.NoError(t, err)
	assert.Equal(t, 150.0, got.AvgPauseMS)

	// Non-positive thresholds keep the default.
	assert.Equal(t, 300.0, features.NewExtractor(features.WithPauseThreshold(0)).PauseThreshold())
}
