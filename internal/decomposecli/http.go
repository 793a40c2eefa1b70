package decomposecli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/claimmix/internal/domain/types"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// errorBody mirrors the server's error payload.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Decompose posts pair to the server's /v1/decompose endpoint.
func (c *HTTPClient) Decompose(ctx context.Context, pair types.Pair, detail bool) (types.Decomposition, error) {
	body, err := json.Marshal(pair)
	if err != nil {
		return types.Decomposition{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := c.baseURL + "/v1/decompose"
	if detail {
		url += "?detail=true"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return types.Decomposition{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return types.Decomposition{}, fmt.Errorf("%w: %w", ErrRemote, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.Decomposition{}, fmt.Errorf("%w: read body: %w", ErrRemote, err)
	}

	if resp.StatusCode != http.StatusOK {
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil && eb.Code != "" {
			return types.Decomposition{}, fmt.Errorf("%w: %d %s: %s", ErrRemote, resp.StatusCode, eb.Code, eb.Message)
		}
		return types.Decomposition{}, fmt.Errorf("%w: status %d", ErrRemote, resp.StatusCode)
	}

	var out types.Decomposition
	if err := json.Unmarshal(data, &out); err != nil {
		return types.Decomposition{}, fmt.Errorf("%w: decode response: %w", ErrRemote, err)
	}
	return out, nil
}
