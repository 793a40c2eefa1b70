package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/claimmix/internal/domain/severity"
)

// AverageDependencies defines the interface for the standalone average calculator.
type AverageDependencies interface {
	AverageSeverity(ctx context.Context, p severity.Period) (Average, error)
}

// AverageHandler handles average severity requests.
type AverageHandler struct {
	deps AverageDependencies
}

// NewAverageHandler creates a new average handler.
func NewAverageHandler(deps AverageDependencies) *AverageHandler {
	return &AverageHandler{deps: deps}
}

type averageRequest struct {
	Period severity.Period `json:"period"`
}

// HandleAverage handles POST /v1/average-severity requests.
func (h *AverageHandler) HandleAverage(w http.ResponseWriter, r *http.Request) {
	const op = "api.average_severity"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req averageRequest
	if err := decodeBody(r, &req); err != nil {
		writeDecodeError(w, op, err)
		return
	}
	if req.Period == nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing period")))
		return
	}

	avg, err := h.deps.AverageSeverity(r.Context(), req.Period)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, avg)
}
