// Package decomposecli runs a single decomposition from a scenario file,
// either in-process or against a running server.
package decomposecli

import (
	"errors"
	"time"

	"github.com/okian/claimmix/internal/domain/severity"
	"github.com/okian/claimmix/internal/domain/types"
)

// Error constants.
var (
	ErrNoInput      = errors.New("no scenario input")
	ErrScenario     = errors.New("invalid scenario")
	ErrRemote       = errors.New("remote decomposition failed")
	ErrUnknownInput = errors.New("unknown scenario format")
)

// Config holds configuration for one CLI run.
type Config struct {
	Input   string        // Scenario path; "-" reads JSON from stdin
	BaseURL string        // Base URL of a running server; empty runs in-process
	Sample  bool          // Use the built-in scenario instead of Input
	Detail  bool          // Include both substitution paths
	Timeout time.Duration // Request timeout
	Verbose bool          // Enable debug logging
}

// SamplePair returns the built-in five-line auto scenario.
func SamplePair() types.Pair {
	return types.Pair{
		Baseline:   severity.SampleBaseline(),
		Comparison: severity.SampleComparison(),
	}
}
