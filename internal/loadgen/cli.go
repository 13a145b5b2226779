package loadgen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/keymood/pkg/logger"
)

// Default flag values.
const (
	defaultBaseURL       = "http://localhost:9080"
	defaultNumSamples    = 10000
	defaultWorkersFactor = 2 // multiplier for runtime.NumCPU()
	defaultTimeout       = 30 * time.Second
	defaultSeed          = 1
	defaultRunTimeout    = 10 * time.Minute
)

// NewCommand builds the keymood-load command.
func NewCommand() *cobra.Command {
	config := &Config{}
	var logFormat string

	cmd := &cobra.Command{
		Use:   "keymood-load",
		Short: "Drive a keymood service with synthetic feature sets",
		Long: `keymood-load generates reproducible random feature sets, posts them to
/predict concurrently and checks each answer against the local rule scorer.
Model fallback answers are checked for shape only.`,
		Example: `  keymood-load
  keymood-load --samples 50000 --workers 16 --url http://localhost:8080
  keymood-load --seed 42 --output samples.json --verbose`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithFormat(logFormat), logger.WithWriter(cmd.OutOrStdout())); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			if config.Workers <= 0 || config.NumSamples < 0 {
				return errors.New("workers must be positive and samples non-negative")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
			defer cancel()

			_, err := Run(ctx, config)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&config.BaseURL, "url", defaultBaseURL, "Base URL of the service")
	flags.IntVar(&config.NumSamples, "samples", defaultNumSamples, "Number of samples to generate and submit")
	flags.IntVar(&config.Workers, "workers", runtime.NumCPU()*defaultWorkersFactor, "Number of concurrent workers")
	flags.DurationVar(&config.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	flags.Int64Var(&config.Seed, "seed", defaultSeed, "Generator seed")
	flags.StringVar(&config.OutputFile, "output", "", "Write the generated samples to this JSON file")
	flags.BoolVarP(&config.Verbose, "verbose", "v", false, "Log every failed or mismatched sample")
	flags.StringVar(&logFormat, "log-format", logger.FormatText, "Log format: text or json")

	return cmd
}
