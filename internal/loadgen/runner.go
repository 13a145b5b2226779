package loadgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/keymood/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// ErrRunFailed reports a run that completed with mismatched or failed samples.
var ErrRunFailed = errors.New("load run failed")

// Run checks service health, submits NumSamples generated feature sets and
// verifies every answer. It returns the final statistics and ErrRunFailed if
// any sample failed or disagreed with the local scorer.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := newStats()

	logger.Get().Info(ctx, "starting keymood load run",
		logger.String("runID", stats.RunID),
		logger.String("baseURL", config.BaseURL),
		logger.Int("samples", config.NumSamples),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Any("seed", config.Seed),
		logger.Bool("verbose", config.Verbose))

	if err := checkServiceHealth(ctx, config); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	samples := generateSamples(ctx, config, stats)

	if config.OutputFile != "" {
		if err := saveSamplesToFile(ctx, config.OutputFile, samples); err != nil {
			logger.Get().Warn(ctx, "failed to save samples to file", logger.Error(err))
		}
	}

	submitSamples(ctx, config, samples, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("load run interrupted: %w", err)
	}
	if stats.SamplesMismatched > 0 || stats.SamplesFailed > 0 {
		return stats, fmt.Errorf("%w: %d mismatched, %d failed",
			ErrRunFailed, stats.SamplesMismatched, stats.SamplesFailed)
	}

	logger.Get().Info(ctx, "load run completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// /healthz serves Prometheus metrics; any 200 counts as healthy
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveSamplesToFile writes the generated samples as an indented JSON array.
func saveSamplesToFile(ctx context.Context, filename string, samples []Sample) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(samples, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal samples: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "samples saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, samplesPerSecond float64

	if stats.SamplesSubmitted > 0 {
		successRate = float64(stats.SamplesSuccessful) / float64(stats.SamplesSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		samplesPerSecond = float64(stats.SamplesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.String("runID", stats.RunID),
		logger.Int("samplesGenerated", stats.SamplesGenerated),
		logger.Int("samplesSubmitted", stats.SamplesSubmitted),
		logger.Int("samplesSuccessful", stats.SamplesSuccessful),
		logger.Int("samplesMismatched", stats.SamplesMismatched),
		logger.Int("samplesFailed", stats.SamplesFailed),
		logger.Any("byEmotion", stats.ByEmotion()),
		logger.Any("byDecision", stats.ByDecision()),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("samplesPerSecond", samplesPerSecond))
}
