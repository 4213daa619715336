// Package analyzer is the HTTP client for the remote smell analysis service.
//
// The service itself is an external collaborator: this package only speaks
// its wire contract (detect + health) and maps outcomes onto the error
// taxonomy the cache core reacts to.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"smelt/internal/errors"
	"smelt/internal/filters"
	"smelt/internal/logging"
	"smelt/internal/smells"
)

// Client is the analyzer contract consumed by the detection orchestrator
type Client interface {
	// Detect analyzes one file with the given enabled-smell configuration.
	// Any non-2xx response is an explicit AnalysisFailed error, never
	// inferred from empty findings.
	Detect(ctx context.Context, path string, enabled map[string]filters.Selection) ([]smells.Smell, error)

	// IsReachable reports backend liveness
	IsReachable(ctx context.Context) bool
}

const (
	defaultTimeout     = 60 * time.Second
	defaultMaxRetries  = 2
	defaultRetryDelay  = 250 * time.Millisecond
	defaultMaxBodySize = 16 << 20
)

// HTTPClient talks to the analyzer service over HTTP
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *logging.Logger
}

// NewHTTPClient creates a client for the analyzer at baseURL
func NewHTTPClient(baseURL string, timeout time.Duration, logger *logging.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// detectRequest is the detect endpoint payload
type detectRequest struct {
	FilePath      string                       `json:"file_path"`
	EnabledSmells map[string]filters.Selection `json:"enabled_smells"`
}

// detectResponse is the detect endpoint result
type detectResponse struct {
	Smells []smells.Smell `json:"smells"`
}

// Detect implements Client
func (c *HTTPClient) Detect(ctx context.Context, path string, enabled map[string]filters.Selection) ([]smells.Smell, error) {
	body, err := json.Marshal(detectRequest{
		FilePath:      path,
		EnabledSmells: enabled,
	})
	if err != nil {
		return nil, errors.Wrap(errors.AnalysisFailed, "failed to encode detect request", err)
	}

	data, statusCode, err := c.post(ctx, "/smells/detect", body)
	if err != nil {
		return nil, errors.Wrap(errors.AnalysisFailed, "detect request failed", err)
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, errors.Newf(errors.AnalysisFailed, "analyzer returned status %d: %s", statusCode, truncate(data, 200))
	}

	var resp detectResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrap(errors.AnalysisFailed, "failed to decode detect response", err)
	}
	if resp.Smells == nil {
		resp.Smells = []smells.Smell{}
	}
	return resp.Smells, nil
}

// IsReachable implements Client via the health endpoint
func (c *HTTPClient) IsReachable(ctx context.Context) bool {
	u, err := url.JoinPath(c.baseURL, "/health")
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close() //nolint:errcheck // drained below
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// post performs a POST with retry on network and 5xx errors.
// 4xx responses are returned to the caller without retrying.
func (c *HTTPClient) post(ctx context.Context, path string, body []byte) ([]byte, int, error) {
	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid analyzer URL: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= defaultMaxRetries; attempt++ {
		if attempt > 0 {
			delay := defaultRetryDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(delay):
			}
			c.logger.Debug("Retrying analyzer request", map[string]interface{}{
				"path":    path,
				"attempt": attempt + 1,
			})
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
		if err != nil {
			return nil, 0, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", uuid.New().String())

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		data, readErr := io.ReadAll(io.LimitReader(resp.Body, defaultMaxBodySize))
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("failed to read response: %w", readErr)
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		}

		return data, resp.StatusCode, nil
	}

	return nil, 0, fmt.Errorf("request failed after %d retries: %w", defaultMaxRetries, lastErr)
}

func truncate(data []byte, max int) string {
	if len(data) > max {
		return string(data[:max]) + "..."
	}
	return string(data)
}
