// Package client provides HTTP clients for calling the UI service's admin API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/constants"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/models"
)

// BaseClient provides core HTTP client functionality.
// It handles request/response marshaling, bearer authentication, error parsing, and logging.
type BaseClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *logrus.Logger
}

// NewBaseClient creates a new BaseClient for HTTP operations.
//
// Parameters:
//   - baseURL: Base URL for the service (e.g., "http://localhost:8080/admin")
//   - apiKey: Bearer key sent on every request; empty sends no Authorization header
//   - timeout: HTTP request timeout duration
//   - logger: Structured logger for HTTP operations
func NewBaseClient(
	baseURL string,
	apiKey string,
	timeout time.Duration,
	logger *logrus.Logger,
) *BaseClient {
	return &BaseClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  logger,
	}
}

// Do executes an HTTP request with JSON marshaling.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - method: HTTP method (GET, POST, PUT, DELETE, etc.)
//   - path: Path relative to baseURL (e.g., "/sessions/stats")
//   - body: Request body to be JSON-encoded (nil for GET requests)
//
// Returns the HTTP response. Caller is responsible for closing response body.
func (c *BaseClient) Do(
	ctx context.Context,
	method string,
	path string,
	body any,
) (*http.Response, error) {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	if body != nil {
		req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	}
	req.Header.Set(constants.HeaderAccept, constants.ContentTypeJSON)
	if c.apiKey != "" {
		req.Header.Set(constants.HeaderAuthorization, "Bearer "+c.apiKey)
	}

	c.logger.WithFields(logrus.Fields{
		"method": method,
		"url":    url,
	}).Debug("Sending HTTP request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"method": method,
			"url":    url,
			"error":  err,
		}).Error("HTTP request failed")
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"method": method,
		"url":    url,
		"status": resp.StatusCode,
	}).Debug("Received HTTP response")

	return resp, nil
}

// DoJSON executes a request and decodes a response with wantStatus into out.
// Any other status is returned as an error built by ParseErrorResponse.
func (c *BaseClient) DoJSON(
	ctx context.Context,
	method string,
	path string,
	body any,
	wantStatus int,
	out any,
) error {
	resp, err := c.Do(ctx, method, path, body)
	if err != nil {
		return err
	}

	if resp.StatusCode != wantStatus {
		return c.ParseErrorResponse(resp)
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// BaseURL returns the configured base URL for this client.
func (c *BaseClient) BaseURL() string {
	return c.baseURL
}

// ParseErrorResponse parses an error response body into a structured error.
// The returned error wraps *models.APIError when the body is in the service's error format.
func (c *BaseClient) ParseErrorResponse(resp *http.Response) error {
	defer resp.Body.Close()

	var apiErr models.APIError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Code == "" {
		return fmt.Errorf("HTTP %d: failed to parse error response", resp.StatusCode)
	}
	apiErr.StatusCode = resp.StatusCode

	return fmt.Errorf("HTTP %d: %w", resp.StatusCode, &apiErr)
}
