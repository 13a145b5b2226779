package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/keymood/internal/domain/model"
	"github.com/sony/gobreaker"
)

// Default remote predictor configuration constants.
const (
	defaultRemoteTimeout      = 500 * time.Millisecond
	defaultBreakerMaxFailures = 5
	defaultBreakerOpenTimeout = 30 * time.Second
	maxResponseBytes          = 1 << 20
)

// RemoteOption applies a configuration option to the RemotePredictor.
type RemoteOption func(*RemotePredictor)

// WithTimeout bounds each prediction call.
func WithTimeout(d time.Duration) RemoteOption {
	return func(r *RemotePredictor) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *RemotePredictor) {
		if c != nil {
			r.client = c
		}
	}
}

// WithBreaker sets how many consecutive failures open the breaker and how long it stays open.
func WithBreaker(maxFailures uint32, openTimeout time.Duration) RemoteOption {
	return func(r *RemotePredictor) {
		if maxFailures > 0 {
			r.maxFailures = maxFailures
		}
		if openTimeout > 0 {
			r.openTimeout = openTimeout
		}
	}
}

// WithStateChangeHook is called whenever the breaker changes state.
func WithStateChangeHook(fn func(from, to string)) RemoteOption {
	return func(r *RemotePredictor) {
		r.onStateChange = fn
	}
}

// WithName overrides the predictor name reported in results and stats.
func WithName(name string) RemoteOption {
	return func(r *RemotePredictor) {
		if name != "" {
			r.name = name
		}
	}
}

// RemotePredictor calls a model server speaking the TF Serving REST predict
// format, guarded by a circuit breaker.
type RemotePredictor struct {
	url           string
	name          string
	client        *http.Client
	timeout       time.Duration
	maxFailures   uint32
	openTimeout   time.Duration
	onStateChange func(from, to string)
	breaker       *gobreaker.CircuitBreaker
}

type predictRequest struct {
	Instances [][]float64 `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
}

// NewRemotePredictor creates a RemotePredictor for the given predict URL.
func NewRemotePredictor(url string, opts ...RemoteOption) *RemotePredictor {
	r := &RemotePredictor{
		url:         url,
		name:        "remote",
		client:      &http.Client{},
		timeout:     defaultRemoteTimeout,
		maxFailures: defaultBreakerMaxFailures,
		openTimeout: defaultBreakerOpenTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        r.name,
		MaxRequests: 1,
		Timeout:     r.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= r.maxFailures
		},
		// A caller that gives up says nothing about the model server.
		// Deadlines from r.timeout still count as failures.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			if r.onStateChange != nil {
				r.onStateChange(from.String(), to.String())
			}
		},
	})
	return r
}

// Name implements Predictor.
func (r *RemotePredictor) Name() string { return r.name }

// State reports the breaker state: "closed", "half-open" or "open".
func (r *RemotePredictor) State() string { return r.breaker.State().String() }

// Predict implements Predictor. Transport failures, non-2xx answers and an
// open breaker are reported as ErrModelUnavailable.
func (r *RemotePredictor) Predict(ctx context.Context, vec [model.NumFeatures]float64) ([]float64, error) {
	out, err := r.breaker.Execute(func() (interface{}, error) {
		return r.call(ctx, vec)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
		}
		return nil, err
	}
	return out.([]float64), nil
}

func (r *RemotePredictor) call(ctx context.Context, vec [model.NumFeatures]float64) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	body, err := json.Marshal(predictRequest{Instances: [][]float64{vec[:]}})
	if err != nil {
		return nil, fmt.Errorf("encode predict request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("%w: model server returned %d", ErrModelUnavailable, resp.StatusCode)
	}

	var pr predictResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&pr); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrInvalidPrediction, err)
	}
	if len(pr.Predictions) != 1 {
		return nil, fmt.Errorf("%w: got %d predictions for one instance", ErrInvalidPrediction, len(pr.Predictions))
	}
	return pr.Predictions[0], nil
}
