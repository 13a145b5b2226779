// Package loadgen drives a running keymood service with synthetic samples
// and checks every answer against a local rule scorer.
package loadgen

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/keymood/internal/domain/model"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL    string        // Base URL of the service
	NumSamples int           // Number of samples to generate
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Seed       int64         // Generator seed
	OutputFile string        // Optional JSON dump of the generated samples
	Verbose    bool          // Log every mismatch
}

// Sample is one generated feature set and its position in the run.
type Sample struct {
	Index    int              `json:"index"`
	Features model.FeatureSet `json:"features"`
}

// Stats holds run statistics. The tallies are guarded by mu.
type Stats struct {
	RunID             string
	SamplesGenerated  int
	SamplesSubmitted  int
	SamplesSuccessful int
	SamplesMismatched int
	SamplesFailed     int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration

	mu         sync.Mutex
	byEmotion  map[string]int
	byDecision map[string]int
}

func newStats() *Stats {
	return &Stats{
		RunID:      uuid.NewString(),
		StartTime:  time.Now(),
		byEmotion:  make(map[string]int, model.NumEmotions),
		byDecision: make(map[string]int),
	}
}

func (s *Stats) tally(emotion, decision string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byEmotion[emotion]++
	s.byDecision[decision]++
}

// ByEmotion returns a copy of the per-emotion tally.
func (s *Stats) ByEmotion() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.byEmotion))
	for k, v := range s.byEmotion {
		out[k] = v
	}
	return out
}

// ByDecision returns a copy of the per-decision tally.
func (s *Stats) ByDecision() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.byDecision))
	for k, v := range s.byDecision {
		out[k] = v
	}
	return out
}
