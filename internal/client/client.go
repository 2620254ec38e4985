// Package client implements the conference backend API client: five
// well-defined operations against a per-conference base URL, with
// per-operation timeouts, bounded retries and a closed error taxonomy.
//
// The client is stateless: it holds only the immutable base URL and
// its configuration. The conference secret token is embedded in the
// base URL by construction, so there is no session or auth handshake.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/confscan/confscan/internal/models"
)

// HTTPClient is the transport the client issues requests through.
// *http.Client satisfies it; tests substitute a mock.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Timeouts holds the per-operation request timeouts. A zero field
// falls back to the default for that operation.
type Timeouts struct {
	Status time.Duration
	Lookup time.Duration
	Search time.Duration
	Store  time.Duration
	Stats  time.Duration
}

// DefaultTimeouts returns the per-operation defaults.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Status: 5 * time.Second,
		Lookup: 10 * time.Second,
		Search: 10 * time.Second,
		Store:  15 * time.Second,
		Stats:  20 * time.Second,
	}
}

// Client talks to one conference backend. Construct with New; all
// methods are safe for concurrent use since the client holds no
// mutable state.
type Client struct {
	baseURL  string
	http     HTTPClient
	logger   *zap.Logger
	retry    RetryPolicy
	timeouts Timeouts
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the transport.
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger attaches a logger; the default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithTimeouts overrides the per-operation timeout defaults. Zero
// fields keep their defaults. A caller-supplied context deadline
// always takes precedence over the configured timeout.
func WithTimeouts(t Timeouts) Option {
	return func(c *Client) {
		defaults := DefaultTimeouts()
		if t.Status == 0 {
			t.Status = defaults.Status
		}
		if t.Lookup == 0 {
			t.Lookup = defaults.Lookup
		}
		if t.Search == 0 {
			t.Search = defaults.Search
		}
		if t.Store == 0 {
			t.Store = defaults.Store
		}
		if t.Stats == 0 {
			t.Stats = defaults.Stats
		}
		c.timeouts = t
	}
}

// New creates a client for the given per-conference base URL. The URL
// is normalized to end with a single trailing slash; all operations
// append their relative path to it.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/") + "/",
		http:     &http.Client{},
		logger:   zap.NewNop(),
		retry:    DefaultRetryPolicy(),
		timeouts: DefaultTimeouts(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Status fetches backend status, confirming the conference URL and
// token are usable.
func (c *Client) Status(ctx context.Context) (*models.StatusResponse, error) {
	var out models.StatusResponse
	if err := c.get(ctx, "api/status/", nil, c.timeouts.Status, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Lookup fetches the attendee registration for a scanned token. The
// raw scanned value is passed through as the lookup query parameter.
func (c *Client) Lookup(ctx context.Context, qrRawValue string) (*models.Registration, error) {
	query := url.Values{"lookup": {qrRawValue}}
	var out models.LookupResponse
	if err := c.get(ctx, "api/lookup/", query, c.timeouts.Lookup, &out); err != nil {
		return nil, err
	}
	return &out.Reg, nil
}

// Search finds registrations matching a free-text query.
func (c *Client) Search(ctx context.Context, query string) ([]models.Registration, error) {
	q := url.Values{"search": {query}}
	var out models.SearchResponse
	if err := c.get(ctx, "api/search/", q, c.timeouts.Search, &out); err != nil {
		return nil, err
	}
	return out.Regs, nil
}

// Store submits a check-in or badge-scan event. A 412 response means
// the backend rejected the event with an authoritative user-facing
// message ("Already checked in.", "Check-in not open"); it is never
// retried.
func (c *Client) Store(ctx context.Context, req models.StoreRequest) (*models.Registration, error) {
	form := url.Values{"token": {req.Token}}
	if req.Note != "" {
		form.Set("note", req.Note)
	}
	var out models.StoreResponse
	if err := c.postForm(ctx, "api/store/", form, c.timeouts.Store, &out); err != nil {
		return nil, err
	}
	return &out.Reg, nil
}

// Stats fetches the backend's statistics tables.
func (c *Client) Stats(ctx context.Context) (models.StatsResponse, error) {
	var out models.StatsResponse
	if err := c.get(ctx, "api/stats/", nil, c.timeouts.Stats, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, timeout time.Duration, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, timeout, out)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, timeout time.Duration, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, form, timeout, out)
}

// do runs one operation: build the request, issue it through the
// transport, retry per policy, and map any failure onto the APIError
// taxonomy. The configured timeout bounds the whole operation,
// backoff included, unless the caller's context already carries a
// deadline.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, form url.Values, timeout time.Duration, out any) error {
	if _, ok := ctx.Deadline(); !ok && timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var lastErr *models.APIError
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			backoff := c.retry.Backoff(attempt - 1)
			c.logger.Debug("retrying request",
				zap.String("url", reqURL),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
			)
			if err := sleep(ctx, backoff); err != nil {
				return lastErr
			}
		}

		var body io.Reader
		if form != nil {
			body = strings.NewReader(form.Encode())
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
		if err != nil {
			return &models.APIError{Kind: models.ErrorKindUnknown, Message: err.Error()}
		}
		if form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}

		resp, doErr := c.http.Do(req)
		if doErr != nil {
			lastErr = classifyTransportError(ctx, doErr)
			c.logger.Debug("request failed",
				zap.String("url", reqURL),
				zap.Int("attempt", attempt),
				zap.Error(doErr),
			)
			if ctx.Err() != nil || !c.retry.Retryable(0, doErr) {
				return lastErr
			}
			continue
		}

		apiErr := c.handleResponse(resp, out)
		if apiErr == nil {
			return nil
		}
		lastErr = apiErr
		if !c.retry.Retryable(resp.StatusCode, nil) {
			return lastErr
		}
		c.logger.Debug("server error, will retry",
			zap.String("url", reqURL),
			zap.Int("attempt", attempt),
			zap.Int("status", resp.StatusCode),
		)
	}
	return lastErr
}

// handleResponse consumes resp and either decodes a 2xx body into out
// or maps the failure onto the taxonomy.
func (c *Client) handleResponse(resp *http.Response, out any) *models.APIError {
	defer resp.Body.Close()
	body, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if readErr != nil {
			return &models.APIError{
				Kind:    models.ErrorKindInvalidResponse,
				Message: fmt.Sprintf("reading response body: %v", readErr),
				Status:  resp.StatusCode,
			}
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return &models.APIError{
				Kind:    models.ErrorKindInvalidResponse,
				Message: fmt.Sprintf("decoding response: %v", err),
				Status:  resp.StatusCode,
			}
		}
		return nil
	}
	return classifyStatus(resp.StatusCode, body)
}

// classifyStatus maps a non-2xx response onto the error taxonomy.
// Total: every status resolves to exactly one kind.
func classifyStatus(status int, body []byte) *models.APIError {
	switch {
	case status == http.StatusNotFound:
		return &models.APIError{Kind: models.ErrorKindNotFound, Status: status}
	case status == http.StatusForbidden:
		return &models.APIError{Kind: models.ErrorKindForbidden, Status: status}
	case status == http.StatusPreconditionFailed:
		// The body text is the authoritative user-facing message
		// ("Already checked in.", "Check-in not open").
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = "precondition failed"
		}
		return &models.APIError{Kind: models.ErrorKindPreconditionFailed, Message: msg, Status: status}
	case status >= 500 && status <= 504:
		return &models.APIError{Kind: models.ErrorKindServerError, Status: status}
	case status >= 300:
		return &models.APIError{Kind: models.ErrorKindInvalidResponse, Status: status}
	default:
		return &models.APIError{Kind: models.ErrorKindUnknown, Status: status}
	}
}

// classifyTransportError maps a transport-level failure (no HTTP
// response received) onto network_error or timeout.
func classifyTransportError(ctx context.Context, err error) *models.APIError {
	var netErr net.Error
	timedOut := errors.Is(err, context.DeadlineExceeded) ||
		ctx.Err() == context.DeadlineExceeded ||
		(errors.As(err, &netErr) && netErr.Timeout())
	if timedOut {
		return &models.APIError{Kind: models.ErrorKindTimeout, Message: err.Error()}
	}
	return &models.APIError{Kind: models.ErrorKindNetwork, Message: err.Error()}
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
