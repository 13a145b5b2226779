package api

import (
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/keymood/internal/app"
	"github.com/okian/keymood/internal/domain/features"
	"github.com/okian/keymood/internal/domain/predictor"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrBatchTooLarge   = errors.New("batch too large")
	ErrRateLimited     = errors.New("rate limited")
)

// Error codes returned in the code field of error bodies.
const (
	codeMissingInput     = "missing_input"
	codeBadRequest       = "bad_request"
	codePayloadTooLarge  = "payload_too_large"
	codeBatchTooLarge    = "batch_too_large"
	codeRateLimited      = "rate_limited"
	codeModelUnavailable = "model_unavailable"
	codeNotReady         = "not_ready"
	codeInternal         = "internal"
)

// wrapKind tags err with an operation name and an API error kind.
func wrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// classify maps a service error to its HTTP status and error code.
func classify(err error) (int, string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, features.ErrMissingInput):
		return http.StatusBadRequest, codeMissingInput
	case errors.Is(err, features.ErrNoKeyEvents), errors.Is(err, features.ErrInvalidKeyEvent):
		return http.StatusBadRequest, codeBadRequest
	case errors.As(err, &maxBytes), errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, codePayloadTooLarge
	case errors.Is(err, ErrBatchTooLarge):
		return http.StatusBadRequest, codeBatchTooLarge
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, predictor.ErrModelUnavailable):
		return http.StatusServiceUnavailable, codeModelUnavailable
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, codeNotReady
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

func writeClassified(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}
