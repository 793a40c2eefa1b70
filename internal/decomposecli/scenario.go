package decomposecli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/claimmix/internal/domain/types"
)

// Scenario formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// formatFor picks the decoder from a file extension.
func formatFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownInput, filepath.Ext(path))
	}
}

// LoadScenario reads a baseline/comparison pair from path, or from stdin
// as JSON when path is "-".
func LoadScenario(path string, stdin io.Reader) (types.Pair, error) {
	if path == "" {
		return types.Pair{}, ErrNoInput
	}
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return types.Pair{}, fmt.Errorf("read stdin: %w", err)
		}
		return DecodeScenario(data, FormatJSON)
	}

	format, err := formatFor(path)
	if err != nil {
		return types.Pair{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Pair{}, fmt.Errorf("read scenario: %w", err)
	}
	return DecodeScenario(data, format)
}

// DecodeScenario parses data in the given format and checks both periods are present.
func DecodeScenario(data []byte, format string) (types.Pair, error) {
	var pair types.Pair
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&pair); err != nil {
			return types.Pair{}, fmt.Errorf("%w: %w", ErrScenario, err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&pair); err != nil {
			return types.Pair{}, fmt.Errorf("%w: %w", ErrScenario, err)
		}
	default:
		return types.Pair{}, fmt.Errorf("%w: %q", ErrUnknownInput, format)
	}

	switch {
	case pair.Baseline == nil:
		return types.Pair{}, fmt.Errorf("%w: missing baseline", ErrScenario)
	case pair.Comparison == nil:
		return types.Pair{}, fmt.Errorf("%w: missing comparison", ErrScenario)
	}
	return pair, nil
}
