// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	service "github.com/okian/keymood/internal/app"
	"github.com/okian/keymood/internal/domain/features"
	"github.com/okian/keymood/internal/domain/types"
)

const (
	defaultMaxBodyBytes = 1 << 20
	defaultBatchMaxSize = 256
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Predict(ctx context.Context, raw map[string]float64) (service.Prediction, error)
	PredictKeystrokes(ctx context.Context, events []features.KeyEvent, text string) (service.Prediction, error)
	PredictBatch(ctx context.Context, raws []map[string]float64) []service.BatchItem
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxBodyBytes caps request bodies on the predict routes.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithBatchMaxSize caps the number of samples per batch request.
func WithBatchMaxSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.batchMaxSize = n
		}
	}
}

// WithRateLimit enables token-bucket limiting of the predict routes.
// A non-positive rps leaves them unlimited.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		s.rateLimitRPS = rps
		s.rateLimitBurst = burst
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	predictHandler *PredictHandler

	maxBodyBytes   int64
	batchMaxSize   int
	rateLimitRPS   float64
	rateLimitBurst int
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		maxBodyBytes: defaultMaxBodyBytes,
		batchMaxSize: defaultBatchMaxSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.predictHandler = NewPredictHandler(deps, s.batchMaxSize)
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Group(func(r chi.Router) {
		if s.rateLimitRPS > 0 {
			r.Use(RateLimitMiddleware(s.rateLimitRPS, s.rateLimitBurst))
		}
		r.Use(middleware.RequestSize(s.maxBodyBytes))

		r.Post("/predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
		r.Post("/predict/keystrokes", MetricsMiddleware(s.predictHandler.HandlePredictKeystrokes, "predict_keystrokes"))
		r.Post("/predict/batch", MetricsMiddleware(s.predictHandler.HandlePredictBatch, "predict_batch"))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, errorBody(status, code, err))
}

func errorBody(status int, code string, err error) types.ErrorResponse {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	return types.ErrorResponse{Code: code, Message: msg}
}
