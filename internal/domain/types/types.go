// Package types contains the records exchanged between the service and its callers.
package types

import (
	"time"

	"github.com/okian/claimmix/internal/domain/severity"
)

// Decomposition is a decomposition result stamped with an identifier.
type Decomposition struct {
	ID         string    `json:"id"`
	ComputedAt time.Time `json:"computed_at"`
	Cached     bool      `json:"cached"`
	severity.Result
	Paths *severity.Paths `json:"paths,omitempty"`
}

// Average is the standalone average-severity record for one period.
type Average struct {
	AverageSeverity float64 `json:"average_severity"`
	TotalVolume     float64 `json:"total_volume"`
	TotalCost       float64 `json:"total_cost"`
	Categories      int     `json:"categories"`
}

// Pair is one baseline/comparison input.
type Pair struct {
	Baseline   severity.Period `json:"baseline" yaml:"baseline"`
	Comparison severity.Period `json:"comparison" yaml:"comparison"`
}

// BatchItem is the outcome of one pair within a batch. Exactly one of
// Decomposition and Error is set.
type BatchItem struct {
	Index         int            `json:"index"`
	Decomposition *Decomposition `json:"decomposition,omitempty"`
	Error         *ItemError     `json:"error,omitempty"`
}

// ItemError describes why a batch item failed.
type ItemError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
