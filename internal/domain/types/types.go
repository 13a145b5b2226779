// Package types contains the JSON shapes exchanged over the HTTP API.
package types

import (
	"github.com/okian/keymood/internal/domain/features"
	"github.com/okian/keymood/internal/domain/model"
)

// PredictRequest is the body of POST /predict. A nil Features map means the
// caller sent no features at all.
type PredictRequest struct {
	Features map[string]float64 `json:"features"`
}

// KeystrokeRequest is the body of POST /predict/keystrokes.
type KeystrokeRequest struct {
	Events []features.KeyEvent `json:"events"`
	Text   string              `json:"text"`
}

// BatchRequest is the body of POST /predict/batch.
type BatchRequest struct {
	Samples []PredictRequest `json:"samples"`
}

// PredictResponse describes a single prediction.
type PredictResponse struct {
	PredictionID    string             `json:"prediction_id"`
	Emotion         string             `json:"emotion"`
	Confidence      float64            `json:"confidence"`
	Decision        string             `json:"decision"`
	Scores          map[string]float64 `json:"scores"`
	ModelEmotion    string             `json:"model_emotion,omitempty"`
	ModelConfidence *float64           `json:"model_confidence,omitempty"`
	Features        map[string]float64 `json:"features,omitempty"`
}

// BatchResult is one entry of a batch response: either a prediction or an error.
type BatchResult struct {
	Index int `json:"index"`
	*PredictResponse
	Error *ErrorResponse `json:"error,omitempty"`
}

// BatchResponse is the body returned by POST /predict/batch, in request order.
type BatchResponse struct {
	Results []BatchResult `json:"results"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewPredictResponse renders a scored result under the given prediction id.
func NewPredictResponse(id string, res model.PredictionResult) PredictResponse {
	out := PredictResponse{
		PredictionID: id,
		Emotion:      res.Emotion.String(),
		Confidence:   res.Confidence,
		Decision:     string(res.Decision),
		Scores:       res.Scores.Map(),
	}
	if res.Model != nil {
		conf := res.Model.Confidence
		out.ModelEmotion = res.Model.Emotion.String()
		out.ModelConfidence = &conf
	}
	return out
}
