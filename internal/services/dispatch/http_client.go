package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/models"
	"github.com/ternarybob/serendib/internal/planner"
)

// HTTPClient forwards trip plans to a remote email-dispatch endpoint
// that speaks the same JSON contract as POST /api/send-trip-plan.
type HTTPClient struct {
	url    string
	client *http.Client
	logger arbor.ILogger
}

var _ planner.Dispatcher = (*HTTPClient)(nil)

// NewHTTPClient creates a client for url. timeout <= 0 uses 30s.
func NewHTTPClient(url string, timeout time.Duration, logger arbor.ILogger) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Dispatch POSTs req and decodes the DispatchResult
func (c *HTTPClient) Dispatch(ctx context.Context, req models.TripPlanRequest) (*models.DispatchResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode trip plan: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build dispatch request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if ip := ClientIPFromContext(ctx); ip != "" {
		httpReq.Header.Set("X-Forwarded-For", ip)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Str("url", c.url).Msg("Dispatch request failed")
		return nil, fmt.Errorf("dispatch request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &models.DispatchResult{Success: false, Error: ErrRateLimited.Error()}, ErrRateLimited
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read dispatch response: %w", err)
	}

	var result models.DispatchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("dispatch endpoint returned %d: %w", resp.StatusCode, err)
	}

	if resp.StatusCode >= 300 && result.Success {
		return nil, fmt.Errorf("dispatch endpoint returned %d", resp.StatusCode)
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Bool("success", result.Success).
		Str("email_id", result.EmailID).
		Msg("Dispatch response received")

	return &result, nil
}
