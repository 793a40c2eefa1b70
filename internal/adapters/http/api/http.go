// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/claimmix/internal/app"
	"github.com/okian/claimmix/internal/domain/severity"
	"github.com/okian/claimmix/internal/domain/types"
	"github.com/okian/claimmix/pkg/logger"
)

// Default request limits.
const (
	defaultMaxBodyBytes = 4 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	DecomposeDependencies
	AverageDependencies
	BatchDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	decomposeHandler *DecomposeHandler
	batchHandler     *BatchHandler
	averageHandler   *AverageHandler
	maxBodyBytes     int64
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithMaxBodyBytes caps the size of request bodies.
func WithMaxBodyBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		decomposeHandler: NewDecomposeHandler(deps),
		batchHandler:     NewBatchHandler(deps),
		averageHandler:   NewAverageHandler(deps),
		maxBodyBytes:     defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	limit := func(h http.HandlerFunc) http.HandlerFunc { return BodyLimitMiddleware(h, s.maxBodyBytes) }

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/v1/decompose", MetricsMiddleware(limit(s.decomposeHandler.HandleDecompose), "decompose"))
	mux.HandleFunc("/v1/decompose/batch", MetricsMiddleware(limit(s.batchHandler.HandleBatch), "decompose_batch"))
	mux.HandleFunc("/v1/average-severity", MetricsMiddleware(limit(s.averageHandler.HandleAverage), "average_severity"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v before committing the status so an encoding failure
// becomes a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logger.Get().Error(context.Background(), "failed to encode response", logger.Error(err))
		http.Error(w, `{"code":"internal_error","message":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeBody reads a JSON body into v, rejecting unknown fields and trailing data.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

// writeDecodeError maps body decoding failures to 400 or 413.
func writeDecodeError(w http.ResponseWriter, op string, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", WrapKind(op, ErrPayloadTooLarge, err))
		return
	}
	writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
}

// writeServiceError translates service and engine errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	case errors.Is(err, service.ErrTooManyPairs), errors.Is(err, service.ErrTooManyBuckets):
		writeError(w, http.StatusRequestEntityTooLarge, "limit_exceeded", Wrap(op, err))
	case errors.Is(err, severity.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, service.Outcome(err), Wrap(op, err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "canceled", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// Compile-time check that the service satisfies the handler dependencies.
var _ Dependencies = (*service.Service)(nil)

// Shared payload types used in handler signatures.
type (
	Decomposition = types.Decomposition
	Average       = types.Average
	Pair          = types.Pair
	BatchItem     = types.BatchItem
)
