package transport

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

	"github.com/charmbracelet/log"
	"github.com/desertthunder/hypertrack/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL        = "http://127.0.0.1:8000"
	DefaultAuthTimeout    = 30 * time.Second
	DefaultRequestTimeout = 60 * time.Second

	// maxErrorBody bounds how much of a failed response is read for its detail.
	maxErrorBody = 1 << 20
)

// Options configures a [Client]. Zero values select the defaults.
type Options struct {
	BaseURL           string
	ServiceKey        string
	AuthTimeout       time.Duration
	RequestTimeout    time.Duration // negative disables the resource deadline
	RequestsPerSecond float64       // zero disables pacing
	Burst             int
	HTTPClient        *http.Client
	Logger            *log.Logger
}

// OptionsFromConfig maps the [api] config section onto [Options].
func OptionsFromConfig(cfg shared.APIConfig) Options {
	opts := Options{
		BaseURL:           cfg.BaseURL,
		ServiceKey:        cfg.APIKey,
		AuthTimeout:       cfg.AuthTimeout(),
		RequestTimeout:    cfg.RequestTimeout(),
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	}
	if cfg.RequestTimeoutMS == 0 {
		opts.RequestTimeout = -1
	}
	return opts
}

// Client sends requests to the backend.
type Client struct {
	baseURL        string
	serviceKey     string
	authTimeout    time.Duration
	requestTimeout time.Duration
	limiter        *rate.Limiter
	httpClient     *http.Client
	logger         *log.Logger
}

// Request describes one call.
type Request struct {
	Method string
	Path   string // relative to "/api", with a leading slash
	Body   any    // JSON-encoded when non-nil
	Token  string // bearer token, attached when non-empty

	// ServiceKey attaches the x-api-key header.
	ServiceKey bool
	// Auth marks a call to an /auth endpoint: it gets the auth deadline and a 404 becomes [*EndpointMissingError].
	Auth bool
}

// New creates a new [Client].
func New(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:        baseURL,
		serviceKey:     opts.ServiceKey,
		authTimeout:    opts.AuthTimeout,
		requestTimeout: opts.RequestTimeout,
		httpClient:     opts.HTTPClient,
		logger:         opts.Logger,
	}

	if c.authTimeout <= 0 {
		c.authTimeout = DefaultAuthTimeout
	}
	switch {
	case c.requestTimeout == 0:
		c.requestTimeout = DefaultRequestTimeout
	case c.requestTimeout < 0:
		c.requestTimeout = 0
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), max(opts.Burst, 1))
	}

	return c
}

// BaseURL returns the resolved backend origin without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Describe converts err into a user-facing message for this client's base URL.
func (c *Client) Describe(err error) string {
	return Describe(err, c.baseURL)
}

// URL resolves path against the backend's API root.
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + "/api" + path
}

// Do sends r and decodes a successful JSON response into out, which may be nil.
func (c *Client) Do(ctx context.Context, r Request, out any) error {
	body, err := c.send(ctx, r)
	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", r.Method, r.Path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, r Request) ([]byte, error) {
	timeout := c.requestTimeout
	if r.Auth {
		timeout = c.authTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, r)
	if err != nil {
		return nil, err
	}

	requestID := req.Header.Get("X-Request-ID")
	logger := shared.WithLogger(c.logger, "method", r.Method, "path", r.Path, "request_id", requestID)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug("request failed", "error", err, "elapsed", time.Since(start))
		return nil, c.classify(ctx, err)
	}
	defer resp.Body.Close()

	logger.Debug("response", "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if r.Auth && resp.StatusCode == http.StatusNotFound {
			return nil, &EndpointMissingError{BaseURL: c.baseURL}
		}
		return nil, &RejectedError{Status: resp.StatusCode, Message: detailMessage(resp.StatusCode, data)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.classify(ctx, err)
	}
	return data, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return c.classify(ctx, ctx.Err())
		}
		// the limiter refuses up front when the wait would outlast the deadline
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	var body io.Reader
	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(r.Path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", shared.GenerateID())
	if r.ServiceKey && c.serviceKey != "" {
		req.Header.Set("x-api-key", c.serviceKey)
	}
	if r.Token != "" {
		(&oauth2.Token{AccessToken: r.Token, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	return req, nil
}

// classify maps a failed exchange onto the transport error kinds. Caller cancellation is returned as is.
func (c *Client) classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w after waiting on %s", ErrTimeout, c.baseURL)
	case errors.Is(ctx.Err(), context.Canceled):
		return ctx.Err()
	default:
		return &UnreachableError{BaseURL: c.baseURL, Err: err}
	}
}

// detailMessage extracts the "detail" field of an error body. Strings are used verbatim, other values are JSON-encoded.
func detailMessage(status int, body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 && string(payload.Detail) != "null" {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			if s != "" {
				return s
			}
		} else {
			var compact bytes.Buffer
			if err := json.Compact(&compact, payload.Detail); err == nil {
				return compact.String()
			}
			return string(payload.Detail)
		}
	}

	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}
