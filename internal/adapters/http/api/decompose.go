package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/claimmix/internal/domain/severity"
)

// DecomposeDependencies defines the interface for single decompositions.
type DecomposeDependencies interface {
	Decompose(ctx context.Context, baseline, comparison severity.Period, detail bool) (Decomposition, error)
}

// DecomposeHandler handles decomposition requests.
type DecomposeHandler struct {
	deps DecomposeDependencies
}

// NewDecomposeHandler creates a new decompose handler.
func NewDecomposeHandler(deps DecomposeDependencies) *DecomposeHandler {
	return &DecomposeHandler{deps: deps}
}

// decomposeRequest is the body of POST /v1/decompose.
type decomposeRequest struct {
	Baseline   severity.Period `json:"baseline"`
	Comparison severity.Period `json:"comparison"`
}

func (d decomposeRequest) validate() error {
	switch {
	case d.Baseline == nil:
		return errors.New("missing baseline")
	case d.Comparison == nil:
		return errors.New("missing comparison")
	}
	return nil
}

// HandleDecompose handles POST /v1/decompose[?detail=true] requests.
func (h *DecomposeHandler) HandleDecompose(w http.ResponseWriter, r *http.Request) {
	const op = "api.decompose"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	detail := false
	if raw := r.URL.Query().Get("detail"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("detail must be a boolean")))
			return
		}
		detail = v
	}

	var req decomposeRequest
	if err := decodeBody(r, &req); err != nil {
		writeDecodeError(w, op, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.Decompose(r.Context(), req.Baseline, req.Comparison, detail)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
