// Package platform is the HTTP adapter for the MeetUs identity service.
//
// Every request carries JSON headers, a request ID, and the stored bearer
// token when one exists. Failures are normalized into *Error. A 401 on any
// request clears the stored token, so a later Revalidate starts anonymous.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/meetus/internal/log"
	"github.com/felixgeelhaar/meetus/internal/tokenstore"
	"github.com/felixgeelhaar/meetus/internal/version"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// Config describes the identity service endpoint.
type Config struct {
	BaseURL      string
	LoginPath    string
	UserInfoPath string
	Timeout      time.Duration
	UserAgent    string
}

// DefaultConfig returns the production paths against baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:      baseURL,
		LoginPath:    "/v1/yeshtery/token",
		UserInfoPath: "/v1/user/info",
		Timeout:      DefaultTimeout,
		UserAgent:    version.GetInfo().UserAgent(),
	}
}

// Client is the identity service API client
type Client struct {
	cfg        Config
	httpClient *http.Client
	tokens     tokenstore.Store
	logger     *log.Logger
}

// NewClient creates a client that reads and clears tokens through tokens.
func NewClient(cfg Config, tokens tokenstore.Store) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = version.GetInfo().UserAgent()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		tokens: tokens,
		logger: log.DefaultLogger(),
	}
}

// WithLogger sets the logger used for request tracing.
func (c *Client) WithLogger(logger *log.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// ErrorResponse is the error body shape returned by the service.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Do performs one request. body is encoded as JSON when non-nil and a 2xx
// response is decoded into out when out is non-nil. Requests are never
// retried.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	requestID := uuid.NewString()
	ctx = log.ContextWithRequestID(ctx, requestID)
	logger := c.logger.WithContext(ctx).With("method", method, "path", path)

	req, err := c.newRequest(ctx, method, path, body, requestID)
	if err != nil {
		logger.Debug("request not sent", "error", err)
		return newClientError(err)
	}

	start := time.Now()
	logger.Debug("sending request", "authenticated", req.Header.Get("Authorization") != "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("request cancelled")
			return newClientError(err)
		}
		logger.Warn("no response received", "error", err, "duration", time.Since(start))
		return &Error{Kind: KindNetwork, Message: msgNetwork, Cause: err}
	}
	defer resp.Body.Close()

	logger.Debug("response received", "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.handleErrorResponse(ctx, logger, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		logger.Warn("invalid response body", "status", resp.StatusCode, "error", err)
		return &Error{Kind: KindServer, Status: resp.StatusCode, Message: msgInvalidPayload, Cause: err}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, requestID string) (*http.Request, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("X-Request-ID", requestID)

	token, err := c.tokens.Get(ctx)
	switch {
	case err == nil:
		req.Header.Set("Authorization", "Bearer "+token)
	case errors.Is(err, tokenstore.ErrNotFound):
	default:
		return nil, fmt.Errorf("failed to read stored token: %w", err)
	}
	return req, nil
}

func (c *Client) handleErrorResponse(ctx context.Context, logger *log.Logger, resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		logger.Debug("failed to read error response body", "status", resp.StatusCode, "read_bytes", len(data), "error", err)
	}

	msg := msgServerDefault
	var errResp ErrorResponse
	if err := json.Unmarshal(data, &errResp); err == nil {
		switch {
		case errResp.Message != "":
			msg = errResp.Message
		case errResp.Error != "":
			msg = errResp.Error
		}
	}

	status := resp.StatusCode
	switch {
	case status == http.StatusUnauthorized:
		// The token is dropped even when the caller did not send one.
		if err := c.tokens.Clear(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("unauthorized, failed to clear stored token", "error", err)
		} else {
			logger.Warn("unauthorized, stored token cleared")
		}
	case status == http.StatusForbidden:
		logger.Warn("access forbidden")
	case status == http.StatusNotFound:
		logger.Warn("resource not found")
	case status >= 500:
		logger.Warn("server error", "status", status)
	default:
		logger.Debug("request rejected", "status", status)
	}

	return &Error{Kind: KindServer, Status: status, Message: msg}
}
