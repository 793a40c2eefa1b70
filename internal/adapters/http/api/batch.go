package api

import (
	"context"
	"errors"
	"net/http"
)

// BatchDependencies defines the interface for batch decompositions.
type BatchDependencies interface {
	DecomposeBatch(ctx context.Context, pairs []Pair) ([]BatchItem, error)
}

// BatchHandler handles batch decomposition requests.
type BatchHandler struct {
	deps BatchDependencies
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(deps BatchDependencies) *BatchHandler {
	return &BatchHandler{deps: deps}
}

type batchRequest struct {
	Pairs []Pair `json:"pairs"`
}

type batchResponse struct {
	Items     []BatchItem `json:"items"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// HandleBatch handles POST /v1/decompose/batch requests.
// Individual pair failures are reported per item with a 200 response.
func (h *BatchHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.decompose_batch"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req batchRequest
	if err := decodeBody(r, &req); err != nil {
		writeDecodeError(w, op, err)
		return
	}
	if len(req.Pairs) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing pairs")))
		return
	}

	items, err := h.deps.DecomposeBatch(r.Context(), req.Pairs)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}

	resp := batchResponse{Items: items}
	for _, it := range items {
		if it.Error != nil {
			resp.Failed++
		} else {
			resp.Succeeded++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
