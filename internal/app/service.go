// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/keymood/internal/domain/features"
	"github.com/okian/keymood/internal/domain/model"
	"github.com/okian/keymood/internal/domain/predictor"
	"github.com/okian/keymood/internal/domain/scoring"
	"github.com/okian/keymood/pkg/logger"
	"github.com/okian/keymood/pkg/metrics"
)

// ErrNotStarted is returned by prediction calls made before Start.
var ErrNotStarted = errors.New("service not started")

// Prediction is a scored sample together with the features it was scored on.
type Prediction struct {
	ID       string
	Features model.FeatureSet
	model.PredictionResult
}

// BatchItem is the outcome of one batch sample. Err is set when the sample
// could not be scored; the other samples are unaffected.
type BatchItem struct {
	Prediction
	Err error
}

// Service composes feature building, the optional model and rule scoring.
type Service struct {
	mu sync.RWMutex

	// Core components
	extractor *features.Extractor
	scorer    scoring.Scorer
	predictor predictor.Predictor

	// Configuration
	predictorSpec    *predictor.Spec
	modelKind        string
	modelRequired    bool
	pauseThresholdMS float64
	batchWorkers     int

	// State
	started bool

	// Counters
	total         atomic.Int64
	byEmotion     [model.NumEmotions]atomic.Int64
	byDecision    sync.Map // model.Decision -> *atomic.Int64
	modelFailures atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPredictor installs an already built predictor. It takes precedence over
// WithPredictorSpec.
func WithPredictor(p predictor.Predictor) Option {
	return func(s *Service) {
		if p != nil {
			s.predictor = p
			s.modelKind = "custom"
		}
	}
}

// WithPredictorSpec makes Start open the described predictor.
func WithPredictorSpec(spec predictor.Spec) Option {
	return func(s *Service) {
		s.predictorSpec = &spec
	}
}

// WithModelRequired turns model failures into errors instead of rule-only degradation.
func WithModelRequired(required bool) Option {
	return func(s *Service) {
		s.modelRequired = required
	}
}

// WithPauseThreshold sets the keystroke pause threshold in milliseconds.
func WithPauseThreshold(ms float64) Option {
	return func(s *Service) {
		if ms > 0 {
			s.pauseThresholdMS = ms
		}
	}
}

// WithBatchWorkers bounds how many batch samples are scored concurrently.
func WithBatchWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchWorkers = n
		}
	}
}

// WithScorer replaces the default rule scorer.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		modelKind:        predictor.KindNone,
		pauseThresholdMS: 300,
		batchWorkers:     runtime.NumCPU(),
		logger:           nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.scorer == nil {
		s.scorer = scoring.NewRuleScorer()
	}
	s.extractor = features.NewExtractor(features.WithPauseThreshold(s.pauseThresholdMS))
	return s
}

// Start opens the configured predictor. When the model is required a load
// failure is returned; otherwise the service starts in rule-only mode.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Named("service")
	}

	s.logger.Info(ctx, "starting keymood service...")

	if s.predictor == nil && s.predictorSpec != nil {
		spec := *s.predictorSpec
		s.modelKind = spec.Kind
		hook := spec.OnBreakerStateChange
		spec.OnBreakerStateChange = func(from, to string) {
			metrics.UpdateModelBreakerState(to)
			s.logger.Warn(context.Background(), "model circuit breaker changed state",
				logger.String("from", from),
				logger.String("to", to),
			)
			if hook != nil {
				hook(from, to)
			}
		}

		p, err := predictor.Open(ctx, spec)
		switch {
		case err != nil && s.modelRequired:
			return fmt.Errorf("open predictor: %w", err)
		case err != nil:
			s.logger.Warn(ctx, "model unavailable, scoring with rules only",
				logger.String("kind", spec.Kind),
				logger.Error(err),
			)
		default:
			s.predictor = p
		}
	}
	if s.predictor == nil && s.modelRequired {
		return fmt.Errorf("open predictor: %w: no model configured", predictor.ErrModelUnavailable)
	}
	metrics.UpdateModelLoaded(s.predictor != nil)

	s.started = true
	s.logger.Info(ctx, "keymood service started",
		logger.String("modelKind", s.modelKind),
		logger.String("model", s.modelName()),
		logger.Bool("modelRequired", s.modelRequired),
		logger.Float64("pauseThresholdMS", s.pauseThresholdMS),
		logger.Int("batchWorkers", s.batchWorkers),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping keymood service...")

	if closer, ok := s.predictor.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(context.Background(), "failed to close predictor", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "keymood service stopped")
}

// Predict scores a raw feature mapping. Unknown keys are ignored and absent
// ones default to zero; a nil mapping is rejected with features.ErrMissingInput.
func (s *Service) Predict(ctx context.Context, raw map[string]float64) (Prediction, error) {
	if err := s.checkStarted(); err != nil {
		return Prediction{}, err
	}
	fs, err := features.FromMap(raw)
	if err != nil {
		metrics.RecordMissingInput()
		return Prediction{}, err
	}
	return s.score(ctx, fs)
}

// PredictKeystrokes extracts features from raw key events and scores them.
func (s *Service) PredictKeystrokes(ctx context.Context, events []features.KeyEvent, text string) (Prediction, error) {
	if err := s.checkStarted(); err != nil {
		return Prediction{}, err
	}
	fs, err := s.extractor.Extract(events, text)
	if err != nil {
		metrics.RecordInvalidKeystrokes()
		return Prediction{}, err
	}
	return s.score(ctx, fs)
}

// PredictBatch scores independent samples concurrently. Results keep the
// input order and a failing sample does not affect the others.
func (s *Service) PredictBatch(ctx context.Context, raws []map[string]float64) []BatchItem {
	items := make([]BatchItem, len(raws))
	metrics.RecordBatchSize(len(raws))

	var g errgroup.Group
	g.SetLimit(s.batchWorkers)
	for i, raw := range raws {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				items[i].Err = err
				return nil
			}
			p, err := s.Predict(ctx, raw)
			items[i] = BatchItem{Prediction: p, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return items
}

func (s *Service) checkStarted() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

func (s *Service) score(ctx context.Context, fs model.FeatureSet) (Prediction, error) {
	start := time.Now()

	pred, err := s.consultModel(ctx, fs)
	if err != nil {
		return Prediction{}, err
	}
	res := s.scorer.Score(fs, pred)

	s.record(res)
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)

	p := Prediction{
		ID:               uuid.NewString(),
		Features:         fs,
		PredictionResult: res,
	}
	s.logger.Debug(ctx, "prediction scored",
		logger.String("predictionID", p.ID),
		logger.String("emotion", res.Emotion.String()),
		logger.Float64("confidence", res.Confidence),
		logger.String("decision", string(res.Decision)),
	)
	return p, nil
}

// consultModel returns the model's prediction for fs, or nil when no model is
// configured or it failed and rule-only degradation is allowed.
func (s *Service) consultModel(ctx context.Context, fs model.FeatureSet) (*model.ModelPrediction, error) {
	if s.predictor == nil {
		return nil, nil
	}

	start := time.Now()
	pred, err := predictor.Predict(ctx, s.predictor, fs)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000
	if err == nil {
		metrics.RecordModelCall("ok", latencyMs)
		return pred, nil
	}

	outcome := "unavailable"
	if errors.Is(err, predictor.ErrInvalidPrediction) {
		outcome = "invalid"
	}
	metrics.RecordModelCall(outcome, latencyMs)
	s.modelFailures.Add(1)

	if s.modelRequired {
		if !errors.Is(err, predictor.ErrModelUnavailable) {
			err = fmt.Errorf("%w: %w", predictor.ErrModelUnavailable, err)
		}
		return nil, err
	}
	s.logger.Warn(ctx, "model prediction failed, scoring with rules only",
		logger.String("model", s.predictor.Name()),
		logger.Error(err),
	)
	return nil, nil
}

func (s *Service) record(res model.PredictionResult) {
	s.total.Add(1)
	if res.Emotion.Valid() {
		s.byEmotion[res.Emotion].Add(1)
	}
	c, _ := s.byDecision.LoadOrStore(res.Decision, new(atomic.Int64))
	c.(*atomic.Int64).Add(1)
	metrics.RecordPrediction(res.Emotion.String(), string(res.Decision))
}

func (s *Service) modelName() string {
	if s.predictor == nil {
		return ""
	}
	return s.predictor.Name()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byEmotion := make(map[string]int64, model.NumEmotions)
	for _, e := range model.Emotions() {
		byEmotion[e.String()] = s.byEmotion[e].Load()
	}
	byDecision := map[string]int64{
		string(model.DecisionRules):         0,
		string(model.DecisionModelFallback): 0,
		string(model.DecisionDefault):       0,
	}
	s.byDecision.Range(func(k, v any) bool {
		byDecision[string(k.(model.Decision))] = v.(*atomic.Int64).Load()
		return true
	})

	stats := map[string]interface{}{
		"started":          s.started,
		"modelKind":        s.modelKind,
		"model":            s.modelName(),
		"modelLoaded":      s.predictor != nil,
		"modelRequired":    s.modelRequired,
		"modelFailures":    s.modelFailures.Load(),
		"pauseThresholdMS": s.pauseThresholdMS,
		"batchWorkers":     s.batchWorkers,
		"predictionsTotal": s.total.Load(),
		"byEmotion":        byEmotion,
		"byDecision":       byDecision,
	}
	if r, ok := s.predictor.(interface{ State() string }); ok {
		stats["modelBreakerState"] = r.State()
	}

	return stats
}
