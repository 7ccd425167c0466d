package portalclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/wifiprov/internal/gateway"
	"github.com/muurk/wifiprov/internal/logging"
	"github.com/muurk/wifiprov/internal/radio"
	"github.com/muurk/wifiprov/internal/supervisor"
)

const (
	// DefaultTimeout covers a portal scan, which blocks for a few seconds
	DefaultTimeout = 15 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed requests
	DefaultMaxRetries = 2

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 5 * time.Second

	// DefaultPollInterval is how often WaitForState polls /status
	DefaultPollInterval = 500 * time.Millisecond
)

// Client talks to a provisioning portal's HTTP API.
type Client struct {
	// BaseURL is the portal base URL (e.g., "http://192.168.4.1:80")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries applies to idempotent requests only
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration
}

// New creates a client for the portal at baseURL. A bare host or
// host:port gets the http scheme.
func New(baseURL string) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		HTTPClient:    &http.Client{Timeout: DefaultTimeout},
		MaxRetries:    DefaultMaxRetries,
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// Scan asks the portal for nearby networks.
func (c *Client) Scan(ctx context.Context) ([]radio.AccessPointRecord, error) {
	var resp gateway.ScanResponse
	if err := c.getJSON(ctx, "/scan", &resp); err != nil {
		return nil, err
	}
	if resp.Status != gateway.StatusSuccess {
		return nil, &PortalError{Type: ErrTypeScan, Message: resp.Message}
	}
	if resp.Networks == nil {
		resp.Networks = []radio.AccessPointRecord{}
	}
	return resp.Networks, nil
}

// Status returns the portal's connection status.
func (c *Client) Status(ctx context.Context) (supervisor.Status, error) {
	var st supervisor.Status
	err := c.getJSON(ctx, "/status", &st)
	return st, err
}

// Configure submits credentials. It is not retried: a timed-out request
// may already have been queued by the portal.
func (c *Client) Configure(ctx context.Context, ssid, password string) (string, error) {
	if err := ValidateSSID(ssid); err != nil {
		return "", err
	}
	if err := ValidatePassword(password); err != nil {
		return "", err
	}

	payload, err := json.Marshal(map[string]string{"ssid": ssid, "password": password})
	if err != nil {
		return "", newParseError("failed to encode credentials", err)
	}
	if len(payload) > gateway.MaxConfigureBody {
		return "", newValidationError(fmt.Sprintf("credentials encode to %d bytes (portal accepts %d)", len(payload), gateway.MaxConfigureBody))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/configure", bytes.NewReader(payload))
	if err != nil {
		return "", classifyNetworkError("failed to create configure request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var resp gateway.ConfigureResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", newParseError("failed to parse configure response", err)
	}
	logging.Debug("Credentials submitted", zap.String("portal", c.BaseURL), zap.String("ssid", ssid))
	return resp.Message, nil
}

// WaitForState polls /status until done returns true or ctx ends. Transient
// network errors are tolerated; the device's radio may be switching modes.
func (c *Client) WaitForState(ctx context.Context, interval time.Duration, done func(supervisor.Status) bool) (supervisor.Status, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last supervisor.Status
	for {
		st, err := c.Status(ctx)
		switch {
		case err == nil:
			last = st
			if done(st) {
				return st, nil
			}
		case !IsNetworkError(err):
			return last, err
		default:
			logging.Debug("Status poll failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Watch streams status snapshots from /events until ctx ends or the portal
// closes the stream. The returned channel is closed on exit.
func (c *Client) Watch(ctx context.Context) (<-chan supervisor.Status, error) {
	u, err := url.Parse(c.BaseURL + "/events")
	if err != nil {
		return nil, newValidationError(fmt.Sprintf("invalid portal URL %q", c.BaseURL))
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, newHTTPError(resp.StatusCode, "websocket upgrade refused")
		}
		return nil, classifyNetworkError("failed to open status stream", err)
	}

	out := make(chan supervisor.Status)
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			var st supervisor.Status
			if err := conn.ReadJSON(&st); err != nil {
				logging.Debug("Status stream closed", zap.Error(err))
				return
			}
			select {
			case out <- st:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v interface{}) error {
	var lastErr error
	delay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.MaxRetryDelay {
				delay = c.MaxRetryDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
		if err != nil {
			return classifyNetworkError("failed to create request", err)
		}
		body, err := c.do(req)
		if err == nil {
			if err := json.Unmarshal(body, v); err != nil {
				return newParseError(fmt.Sprintf("failed to parse %s response", path), err)
			}
			return nil
		}

		lastErr = err
		if !IsRetryable(err) || ctx.Err() != nil {
			return err
		}
		logging.Debug("Retrying portal request", zap.String("path", path), zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return lastErr
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, classifyNetworkError(fmt.Sprintf("%s %s failed", req.Method, req.URL.Path), err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyNetworkError("failed to read response body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newHTTPError(resp.StatusCode, string(body))
	}
	return body, nil
}
