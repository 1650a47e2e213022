package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/escconf/internal/escsettings"
	"github.com/muurk/escconf/internal/logging"
	"github.com/muurk/escconf/internal/server"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed requests
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 5 * time.Second
)

// Health is the body of GET /health
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Client talks to a running edit server
type Client struct {
	// BaseURL is the base URL of the server (e.g., "http://192.168.1.20:8484")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for failed requests
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	// UseExponentialBackoff doubles RetryDelay after every attempt
	UseExponentialBackoff bool
}

// NewClient creates a client for the server at host:port
func NewClient(host string, port int) *Client {
	return NewClientWithURL("http://" + net.JoinHostPort(host, strconv.Itoa(port)))
}

// NewClientWithURL creates a client for a full base URL
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:               baseURL,
		HTTPClient:            &http.Client{Timeout: DefaultTimeout},
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// Ping checks that an escconf edit server answers at BaseURL
func (c *Client) Ping(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return nil, err
	}
	if h.Status != "ok" {
		return nil, newParseError(fmt.Sprintf("unexpected health status %q", h.Status), nil)
	}
	return &h, nil
}

// Settings returns the numeric common settings as the server's form shows them
func (c *Client) Settings(ctx context.Context) ([]escsettings.SettingView, error) {
	var views []escsettings.SettingView
	if err := c.do(ctx, http.MethodGet, "/api/settings", nil, &views); err != nil {
		return nil, err
	}
	return views, nil
}

// View returns every setting of every ESC
func (c *Client) View(ctx context.Context) (*escsettings.View, error) {
	var view escsettings.View
	if err := c.do(ctx, http.MethodGet, "/api/view", nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Commit commits display text to a numeric setting. The server clamps and
// snaps it; the returned Applied holds the stored value.
func (c *Client) Commit(ctx context.Context, name, display string) (*escsettings.Applied, error) {
	var applied escsettings.Applied
	path := "/api/settings/" + url.PathEscape(name)
	if err := c.do(ctx, http.MethodPost, path, server.CommitRequest{Display: display}, &applied); err != nil {
		return nil, err
	}
	return &applied, nil
}

// do performs a request, retrying retryable failures with backoff
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var lastErr error
	currentDelay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return classifyNetworkError("request cancelled", ctx.Err())
			case <-time.After(currentDelay):
			}

			if c.UseExponentialBackoff {
				currentDelay = min(currentDelay*2, c.MaxRetryDelay)
			}
		}

		err := c.attempt(ctx, method, path, body, out)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) || ctx.Err() != nil {
			return err
		}
		logging.Debug("Retrying request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	return lastErr
}

// attempt performs a single request
func (c *Client) attempt(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return newParseError("failed to encode request", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return classifyNetworkError("failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return classifyNetworkError(method+" "+path+" failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyNetworkError("failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e server.ErrorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return newHTTPError(resp.StatusCode, e.Error, e.Hint)
		}
		return newHTTPError(resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode), "")
	}

	if err := json.Unmarshal(data, out); err != nil {
		return newParseError("failed to parse JSON response", err)
	}
	return nil
}
