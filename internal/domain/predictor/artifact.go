package predictor

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/okian/keymood/internal/domain/model"
	"gopkg.in/yaml.v3"
)

// Supported layer activations.
const (
	ActivationLinear  = "linear"
	ActivationReLU    = "relu"
	ActivationTanh    = "tanh"
	ActivationSoftmax = "softmax"
)

// Artifact is the on-disk form of a trained model: a standard scaler followed
// by dense layers. Weights are stored row-major, one row per output unit.
type Artifact struct {
	Name   string   `yaml:"name"`
	Labels []string `yaml:"labels"`
	Scaler Scaler   `yaml:"scaler"`
	Layers []Layer  `yaml:"layers"`
}

// Scaler standardizes inputs as (x - mean) / scale.
type Scaler struct {
	Mean  []float64 `yaml:"mean"`
	Scale []float64 `yaml:"scale"`
}

// Layer is a fully connected layer.
type Layer struct {
	Activation string      `yaml:"activation"`
	Weights    [][]float64 `yaml:"weights"`
	Bias       []float64   `yaml:"bias"`
}

// ParseArtifact decodes and validates a YAML artifact.
func ParseArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Validate checks shapes and activations.
func (a *Artifact) Validate() error {
	if len(a.Labels) != 0 {
		if len(a.Labels) != model.NumEmotions {
			return fmt.Errorf("%w: %d labels, want %d", ErrInvalidArtifact, len(a.Labels), model.NumEmotions)
		}
		seen := make(map[model.Emotion]bool, model.NumEmotions)
		for _, l := range a.Labels {
			e, err := model.ParseEmotion(l)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
			}
			if seen[e] {
				return fmt.Errorf("%w: duplicate label %s", ErrInvalidArtifact, e)
			}
			seen[e] = true
		}
	}
	if len(a.Scaler.Mean) != 0 && len(a.Scaler.Mean) != model.NumFeatures {
		return fmt.Errorf("%w: scaler mean has %d entries, want %d", ErrInvalidArtifact, len(a.Scaler.Mean), model.NumFeatures)
	}
	if len(a.Scaler.Scale) != 0 && len(a.Scaler.Scale) != model.NumFeatures {
		return fmt.Errorf("%w: scaler scale has %d entries, want %d", ErrInvalidArtifact, len(a.Scaler.Scale), model.NumFeatures)
	}
	if len(a.Layers) == 0 {
		return fmt.Errorf("%w: no layers", ErrInvalidArtifact)
	}

	in := model.NumFeatures
	for i, l := range a.Layers {
		switch l.Activation {
		case ActivationLinear, ActivationReLU, ActivationTanh, ActivationSoftmax:
		default:
			return fmt.Errorf("%w: layer %d has activation %q", ErrInvalidArtifact, i, l.Activation)
		}
		if len(l.Weights) == 0 || len(l.Weights) != len(l.Bias) {
			return fmt.Errorf("%w: layer %d has %d weight rows and %d biases", ErrInvalidArtifact, i, len(l.Weights), len(l.Bias))
		}
		for j, row := range l.Weights {
			if len(row) != in {
				return fmt.Errorf("%w: layer %d row %d has %d inputs, want %d", ErrInvalidArtifact, i, j, len(row), in)
			}
		}
		in = len(l.Weights)
	}

	last := a.Layers[len(a.Layers)-1]
	if in != model.NumEmotions {
		return fmt.Errorf("%w: output layer has %d units, want %d", ErrInvalidArtifact, in, model.NumEmotions)
	}
	if last.Activation != ActivationSoftmax {
		return fmt.Errorf("%w: output layer must use softmax, got %q", ErrInvalidArtifact, last.Activation)
	}
	return nil
}

// ArtifactPredictor runs an Artifact in process. It is immutable after load.
type ArtifactPredictor struct {
	artifact *Artifact
	// order maps output unit i to the emotion it scores.
	order [model.NumEmotions]model.Emotion
}

// NewArtifactPredictor wraps a validated artifact.
func NewArtifactPredictor(a *Artifact) (*ArtifactPredictor, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	p := &ArtifactPredictor{artifact: a, order: model.Emotions()}
	for i, l := range a.Labels {
		e, _ := model.ParseEmotion(l)
		p.order[i] = e
	}
	return p, nil
}

// LoadArtifactPredictor reads an artifact file from disk.
func LoadArtifactPredictor(_ context.Context, path string) (*ArtifactPredictor, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty artifact path", ErrInvalidArtifact)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	a, err := ParseArtifact(data)
	if err != nil {
		return nil, err
	}
	return NewArtifactPredictor(a)
}

// Name returns the artifact name.
func (p *ArtifactPredictor) Name() string {
	if p.artifact.Name == "" {
		return "artifact"
	}
	return p.artifact.Name
}

// Predict implements Predictor.
func (p *ArtifactPredictor) Predict(ctx context.Context, vec [model.NumFeatures]float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}

	x := p.scale(vec)
	for _, l := range p.artifact.Layers {
		x = l.forward(x)
	}

	out := make([]float64, model.NumEmotions)
	for i, v := range x {
		out[p.order[i]] = v
	}
	return out, nil
}

func (p *ArtifactPredictor) scale(vec [model.NumFeatures]float64) []float64 {
	s := p.artifact.Scaler
	x := make([]float64, model.NumFeatures)
	for i, v := range vec {
		if len(s.Mean) > 0 {
			v -= s.Mean[i]
		}
		// Zero-variance features are left unscaled.
		if len(s.Scale) > 0 && s.Scale[i] != 0 {
			v /= s.Scale[i]
		}
		x[i] = v
	}
	return x
}

func (l Layer) forward(in []float64) []float64 {
	out := make([]float64, len(l.Weights))
	for i, row := range l.Weights {
		sum := l.Bias[i]
		for j, w := range row {
			sum += w * in[j]
		}
		out[i] = sum
	}

	switch l.Activation {
	case ActivationReLU:
		for i, v := range out {
			out[i] = math.Max(0, v)
		}
	case ActivationTanh:
		for i, v := range out {
			out[i] = math.Tanh(v)
		}
	case ActivationSoftmax:
		softmax(out)
	}
	return out
}

// softmax normalizes v in place, shifting by the max for numerical stability.
func softmax(v []float64) {
	peak := math.Inf(-1)
	for _, x := range v {
		peak = math.Max(peak, x)
	}
	var sum float64
	for i, x := range v {
		v[i] = math.Exp(x - peak)
		sum += v[i]
	}
	for i := range v {
		v[i] /= sum
	}
}
