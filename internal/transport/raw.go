package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/hypertrack/internal/shared"
	"golang.org/x/oauth2"
)

// RawResponse is an undecoded response returned by [Client.Raw].
type RawResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Raw sends body to path and returns the response without interpreting its status.
//
// Used by the debugging commands; the service key is always attached and token when non-empty.
// path is relative to the API root, and a leading "/api" is accepted and dropped.
func (c *Client) Raw(ctx context.Context, method, path string, body []byte, token string) (*RawResponse, error) {
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(apiRelative(path)), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", shared.GenerateID())
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.serviceKey != "" {
		req.Header.Set("x-api-key", c.serviceKey)
	}
	if token != "" {
		(&oauth2.Token{AccessToken: token}).SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classify(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("raw response", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	raw := &RawResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		raw.IsJSON = true
		raw.JSONData = jsonData
	}

	return raw, nil
}

// apiRelative strips an "/api" prefix so "/api/config" and "/config" name the same endpoint.
func apiRelative(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "api" {
		return "/"
	}
	if rest, ok := strings.CutPrefix(trimmed, "api/"); ok {
		return "/" + rest
	}
	return path
}
