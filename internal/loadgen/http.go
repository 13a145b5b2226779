package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/keymood/internal/domain/features"
	"github.com/okian/keymood/internal/domain/scoring"
	"github.com/okian/keymood/internal/domain/types"
	"github.com/okian/keymood/pkg/logger"
)

// Outcomes of a single submission.
const (
	outcomeSuccess  = "success"
	outcomeMismatch = "mismatch"
	outcomeFailed   = "failed"
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// submitSamples posts samples concurrently using a worker pool and verifies each answer.
func submitSamples(ctx context.Context, config *Config, samples []Sample, stats *Stats) {
	logger.Get().Info(ctx, "submitting samples",
		logger.Int("samples", len(samples)),
		logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/predict"
	scorer := scoring.NewRuleScorer()

	var successful, mismatched, failed, submitted int64

	sampleChan := make(chan Sample, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for sample := range sampleChan {
				if ctx.Err() != nil {
					continue
				}
				outcome := submitSingleSample(ctx, client, url, scorer, sample, stats, config.Verbose)

				atomic.AddInt64(&submitted, 1)
				switch outcome {
				case outcomeSuccess:
					atomic.AddInt64(&successful, 1)
				case outcomeMismatch:
					atomic.AddInt64(&mismatched, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	go func() {
		defer close(sampleChan)
		for _, sample := range samples {
			select {
			case <-ctx.Done():
				return
			case sampleChan <- sample:
			}
		}
	}()

	wg.Wait()

	stats.SamplesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.SamplesSuccessful = int(atomic.LoadInt64(&successful))
	stats.SamplesMismatched = int(atomic.LoadInt64(&mismatched))
	stats.SamplesFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "sample submission completed",
		logger.Int("successful", stats.SamplesSuccessful),
		logger.Int("mismatched", stats.SamplesMismatched),
		logger.Int("failed", stats.SamplesFailed))
}

// submitSingleSample posts one sample and classifies the answer.
func submitSingleSample(ctx context.Context, client *HTTPClient, url string, scorer scoring.Scorer, sample Sample, stats *Stats, verbose bool) string {
	log := logger.Get()

	resp, err := client.Post(ctx, url, types.PredictRequest{Features: features.ToMap(sample.Features)})
	if err != nil {
		if verbose {
			log.Warn(ctx, "request failed", logger.Int("index", sample.Index), logger.Error(err))
		}
		return outcomeFailed
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != StatusOK {
		if verbose {
			log.Warn(ctx, "unexpected response",
				logger.Int("index", sample.Index),
				logger.Int("status", resp.StatusCode),
				logger.String("body", string(body)))
		}
		return outcomeFailed
	}

	var pr types.PredictResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return outcomeFailed
	}
	stats.tally(pr.Emotion, pr.Decision)

	if err := verifyResponse(scorer, sample, pr); err != nil {
		if verbose {
			log.Warn(ctx, "response mismatch", logger.Int("index", sample.Index), logger.Error(err))
		}
		return outcomeMismatch
	}
	return outcomeSuccess
}
