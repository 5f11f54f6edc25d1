// Package httpx is a JSON-over-HTTP client that never returns an error.
//
// Transport failures, non-2xx statuses and undecodable bodies are logged and
// turned into a safe fallback value, so callers of a best-effort job never
// need failure branches.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/kevinmichaelchen/trend-watch/internal/logging"
)

const defaultTimeout = 30 * time.Second

// EmptyItems is the search-shaped fallback returned for failed requests.
func EmptyItems() map[string]any {
	return map[string]any{"items": []any{}}
}

// Request describes one call. Body, when non-nil, is JSON-encoded.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    any
}

// Response is the outcome of Do. OK is true for 2xx statuses. Value holds the
// decoded JSON, the raw text when a 2xx body is not JSON, or EmptyItems() on
// failure.
type Response struct {
	StatusCode int
	OK         bool
	Value      any
	Raw        []byte
}

// Decode unmarshals the raw body into v and reports whether it succeeded.
// It always fails for non-OK responses.
func (r *Response) Decode(v any) bool {
	if r == nil || !r.OK {
		return false
	}
	return json.Unmarshal(r.Raw, v) == nil
}

type Client struct {
	httpClient *http.Client
}

// NewClient wraps hc; nil gets a client with a 30s timeout.
func NewClient(hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{httpClient: hc}
}

func (c *Client) Do(ctx context.Context, r Request) *Response {
	logger := logging.FromContext(ctx)

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			logger.Error("encoding request body", "url", r.URL, "err", err)
			return failed(0)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		logger.Error("creating request", "url", r.URL, "err", err)
		return failed(0)
	}
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("request network error", "url", r.URL, "err", err)
		return failed(0)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("reading response", "url", r.URL, "err", err)
		return failed(resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn("request returned non-success status",
			"url", r.URL, "status", resp.StatusCode, "body", snippet(raw, 100))
		out := failed(resp.StatusCode)
		out.Raw = raw
		return out
	}

	out := &Response{StatusCode: resp.StatusCode, OK: true, Raw: raw}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		out.Value = string(raw)
		return out
	}
	out.Value = v
	return out
}

func failed(status int) *Response {
	return &Response{StatusCode: status, Value: EmptyItems()}
}

func snippet(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
