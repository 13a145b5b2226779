package predictor

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Kinds of predictor the service can be configured with.
const (
	KindNone   = "none"
	KindFile   = "file"
	KindRemote = "remote"
)

// Spec describes which predictor to build.
type Spec struct {
	Kind               string
	Path               string
	URL                string
	Timeout            time.Duration
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration

	// OnBreakerStateChange observes remote breaker transitions.
	OnBreakerStateChange func(from, to string)
}

// Open builds the predictor described by spec. KindNone yields a nil Predictor
// and a nil error. Load failures are wrapped with ErrModelUnavailable.
func Open(ctx context.Context, spec Spec) (Predictor, error) {
	switch strings.ToLower(strings.TrimSpace(spec.Kind)) {
	case "", KindNone:
		return nil, nil
	case KindFile:
		p, err := LoadArtifactPredictor(ctx, spec.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
		}
		return p, nil
	case KindRemote:
		if spec.URL == "" {
			return nil, fmt.Errorf("%w: remote predictor needs a url", ErrModelUnavailable)
		}
		return NewRemotePredictor(spec.URL,
			WithTimeout(spec.Timeout),
			WithBreaker(spec.BreakerMaxFailures, spec.BreakerOpenTimeout),
			WithStateChangeHook(spec.OnBreakerStateChange),
		), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, spec.Kind)
	}
}
