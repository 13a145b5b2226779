package features

import (
	"fmt"
	"strings"

	"github.com/okian/keymood/internal/domain/model"
)

// Key event types.
const (
	EventKeyDown = "keydown"
	EventKeyUp   = "keyup"
)

const (
	defaultPauseThresholdMS = 300
	msPerMinute             = 60_000
)

// KeyEvent is a single captured key transition. TimeMS is a monotonic
// timestamp in milliseconds (e.g. performance.now() in a browser).
type KeyEvent struct {
	Type   string  `json:"type"`
	Key    string  `json:"key"`
	TimeMS float64 `json:"time"`
}

// Option applies a configuration option to the Extractor.
type Option func(*Extractor)

// WithPauseThreshold sets the minimum keydown gap, in milliseconds, counted as a pause.
func WithPauseThreshold(ms float64) Option {
	return func(e *Extractor) {
		if ms > 0 {
			e.pauseThresholdMS = ms
		}
	}
}

// Extractor derives timing statistics from raw key events.
type Extractor struct {
	pauseThresholdMS float64
}

// NewExtractor creates an Extractor with a 300 ms pause threshold unless overridden.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{pauseThresholdMS: defaultPauseThresholdMS}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PauseThreshold returns the configured pause threshold in milliseconds.
func (e *Extractor) PauseThreshold() float64 { return e.pauseThresholdMS }

// Extract computes a FeatureSet from events, taken in the order given, and the typed text.
//
//   - interval: mean of positive gaps between consecutive events of any type
//   - pause: mean of keydown-to-keydown gaps above the pause threshold
//   - wpm: words in text over the first-to-last event span
func (e *Extractor) Extract(events []KeyEvent, text string) (model.FeatureSet, error) {
	if len(events) == 0 {
		return model.FeatureSet{}, ErrNoKeyEvents
	}

	var (
		intervalSum, pauseSum  float64
		intervalCount, pauses  int
		lastTime, lastKeyDown  float64
		haveLast, haveLastDown bool
	)
	for i, ev := range events {
		switch ev.Type {
		case EventKeyDown, EventKeyUp:
		default:
			return model.FeatureSet{}, fmt.Errorf("%w: event %d has type %q", ErrInvalidKeyEvent, i, ev.Type)
		}

		if haveLast {
			if diff := ev.TimeMS - lastTime; diff > 0 {
				intervalSum += diff
				intervalCount++
			}
		}
		lastTime, haveLast = ev.TimeMS, true

		if ev.Type == EventKeyDown {
			if haveLastDown {
				if diff := ev.TimeMS - lastKeyDown; diff > e.pauseThresholdMS {
					pauseSum += diff
					pauses++
				}
			}
			lastKeyDown, haveLastDown = ev.TimeMS, true
		}
	}

	fs := model.FeatureSet{NumKeyEvents: float64(len(events))}
	if intervalCount > 0 {
		fs.AvgKeyIntervalMS = intervalSum / float64(intervalCount)
	}
	if pauses > 0 {
		fs.AvgPauseMS = pauseSum / float64(pauses)
	}

	minutes := (events[len(events)-1].TimeMS - events[0].TimeMS) / msPerMinute
	if minutes > 0 {
		fs.TypingSpeedWPM = float64(len(strings.Fields(text))) / minutes
	}
	return fs, nil
}
