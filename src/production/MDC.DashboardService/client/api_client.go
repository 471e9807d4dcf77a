package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	config "gitlab.com/maplesense1/mdc.dashboard_client/src/production/MDC.Config"
	logger "gitlab.com/maplesense1/mdc.dashboard_client/src/production/MDC.Logger"
)

// APIKeyHeader carries the dashboard API key on every request
const APIKeyHeader = "X-Cisco-Meraki-API-Key"

// maxErrorBody caps how much of an error response is kept
const maxErrorBody = 4096

// StatusError is returned when the dashboard answers with a 4xx or 5xx status
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("dashboard returned status %d for %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("dashboard returned status %d for %s: %s", e.StatusCode, e.URL, e.Body)
}

// TransportError wraps DNS, connection and timeout failures
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError is returned when a successful response does not carry JSON
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DashboardClient handles communication with the Meraki Dashboard API
type DashboardClient struct {
	baseURL    string
	httpClient *http.Client
	headers    http.Header
	logger     *logger.Logger
}

// NewHeaders builds the authentication headers for dashboard requests
func NewHeaders(apiKey string) http.Header {
	headers := make(http.Header)
	headers.Set(APIKeyHeader, apiKey)
	headers.Set("Content-Type", "application/json")
	return headers
}

// New creates a new dashboard client. The API key is taken from cfg; the
// client never reads the environment itself.
func New(cfg config.DashboardConfig, log *logger.Logger) *DashboardClient {
	headers := NewHeaders(cfg.APIKey)
	if cfg.UserAgent != "" {
		headers.Set("User-Agent", cfg.UserAgent)
	}

	return &DashboardClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		headers: headers,
		logger:  log.WithComponent("dashboard_client"),
	}
}

// BaseURL returns the API root requests are issued against
func (c *DashboardClient) BaseURL() string {
	return c.baseURL
}

// Get issues an authenticated GET for path and returns the JSON body verbatim.
func (c *DashboardClient) Get(ctx context.Context, path string) (json.RawMessage, error) {
	url := c.baseURL + path
	log := c.logger.WithRequestID(uuid.NewString()).WithField("url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = c.headers.Clone()

	log.Debug("Sending dashboard request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			URL:        url,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	if !json.Valid(body) {
		return nil, &DecodeError{URL: url, Err: fmt.Errorf("body is not valid JSON (%d bytes)", len(body))}
	}

	log.Logger.Debug().Int("status", resp.StatusCode).Int("bytes", len(body)).Msg("Dashboard request succeeded")
	return json.RawMessage(body), nil
}

// MakeAPIRequest is Get with every failure logged and collapsed to nil.
func (c *DashboardClient) MakeAPIRequest(ctx context.Context, path string) json.RawMessage {
	body, err := c.Get(ctx, path)
	if err != nil {
		c.logRequestError(path, err)
		return nil
	}
	return body
}

func (c *DashboardClient) logRequestError(path string, err error) {
	log := c.logger.WithField("path", path)

	var statusErr *StatusError
	var transportErr *TransportError
	switch {
	case errors.As(err, &statusErr):
		log.Logger.Error().Err(err).Int("status", statusErr.StatusCode).Msg("HTTP error occurred")
	case errors.As(err, &transportErr):
		log.ErrorWithError(err, "Request error occurred")
	default:
		log.ErrorWithError(err, "Unexpected error")
	}
}
