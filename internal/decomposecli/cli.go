package decomposecli

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/claimmix/pkg/logger"
)

// SetupLogging sends logs to w so stdout carries only the result.
func SetupLogging(w io.Writer, verbose bool) error {
	if err := logger.InitWith(w, logger.FormatText); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logger.SetLevelString(level)
}

// ShowHelp prints usage information for the decompose tool.
func ShowHelp() {
	os.Stdout.WriteString(`Claim Mix Decompose Tool
========================

Splits the change in average claim severity between two periods into a
severity effect and a mix effect.

Usage:
  go run ./cmd/decompose [options]

Options:
  -input string
        Scenario file (.json, .yaml, .yml) or "-" for JSON on stdin
  -sample
        Use the built-in five-line auto scenario
  -url string
        Base URL of a running server; runs in-process when empty
  -detail
        Include both substitution paths in the result
  -timeout duration
        HTTP request timeout (default 10s)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Scenario format (YAML):
  baseline:
    - {category: Collision, volume: 420, severity: 2800}
  comparison:
    - {category: Collision, volume: 380, severity: 3100}

Examples:
  # Decompose the built-in scenario
  go run ./cmd/decompose -sample

  # Decompose a file against a running server
  go run ./cmd/decompose -input q3.yaml -url http://localhost:9080 -detail
`)
}
