package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	service "github.com/okian/keymood/internal/app"
	"github.com/okian/keymood/internal/domain/features"
	"github.com/okian/keymood/internal/domain/types"
)

// PredictHandler handles the emotion prediction routes.
type PredictHandler struct {
	deps         Dependencies
	batchMaxSize int
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps Dependencies, batchMaxSize int) *PredictHandler {
	return &PredictHandler{deps: deps, batchMaxSize: batchMaxSize}
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	var req types.PredictRequest
	if err := decodeBody(r, &req); err != nil {
		writeClassified(w, wrapDecode(op, err))
		return
	}

	p, err := h.deps.Predict(r.Context(), req.Features)
	if err != nil {
		writeClassified(w, err)
		return
	}
	writeJSON(w, http.StatusOK, render(p))
}

// HandlePredictKeystrokes handles POST /predict/keystrokes requests.
func (h *PredictHandler) HandlePredictKeystrokes(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict_keystrokes"
	var req types.KeystrokeRequest
	if err := decodeBody(r, &req); err != nil {
		writeClassified(w, wrapDecode(op, err))
		return
	}

	p, err := h.deps.PredictKeystrokes(r.Context(), req.Events, req.Text)
	if err != nil {
		writeClassified(w, err)
		return
	}
	resp := render(p)
	resp.Features = features.ToMap(p.Features)
	writeJSON(w, http.StatusOK, resp)
}

// HandlePredictBatch handles POST /predict/batch requests. Per-sample
// failures are reported inline; the request itself still succeeds.
func (h *PredictHandler) HandlePredictBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict_batch"
	var req types.BatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeClassified(w, wrapDecode(op, err))
		return
	}
	if req.Samples == nil {
		writeClassified(w, fmt.Errorf("%s: %w", op, features.ErrMissingInput))
		return
	}
	if len(req.Samples) > h.batchMaxSize {
		writeClassified(w, fmt.Errorf("%s: %w: %d samples, limit %d", op, ErrBatchTooLarge, len(req.Samples), h.batchMaxSize))
		return
	}

	raws := make([]map[string]float64, len(req.Samples))
	for i, s := range req.Samples {
		raws[i] = s.Features
	}
	items := h.deps.PredictBatch(r.Context(), raws)

	resp := types.BatchResponse{Results: make([]types.BatchResult, len(items))}
	for i, item := range items {
		resp.Results[i].Index = i
		if item.Err != nil {
			status, code := classify(item.Err)
			body := errorBody(status, code, item.Err)
			resp.Results[i].Error = &body
			continue
		}
		out := render(item.Prediction)
		resp.Results[i].PredictResponse = &out
	}
	writeJSON(w, http.StatusOK, resp)
}

func render(p service.Prediction) types.PredictResponse {
	return types.NewPredictResponse(p.ID, p.PredictionResult)
}

// decodeBody decodes a single JSON value. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// wrapDecode keeps body-size errors distinguishable from malformed JSON.
func wrapDecode(op string, err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return wrapKind(op, ErrPayloadTooLarge, err)
	}
	return wrapKind(op, ErrBadRequest, err)
}
