package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/papercomputeco/streamline/pkg/logger"
)

// maxErrorBody bounds how much of a non-2xx response body is kept.
const maxErrorBody = 4 * 1024

// HTTP is a Transport over net/http. Streams are long-lived, so the client
// carries no overall timeout; the request context bounds every stream.
type HTTP struct {
	client *http.Client
	logger *slog.Logger
}

// HTTPOption configures an HTTP transport.
type HTTPOption func(*HTTP)

// WithClient overrides the http.Client.
func WithClient(c *http.Client) HTTPOption {
	return func(h *HTTP) {
		h.client = c
	}
}

// WithLogger sets the logger. Defaults to logger.Nop().
func WithLogger(l *slog.Logger) HTTPOption {
	return func(h *HTTP) {
		h.logger = l
	}
}

// NewHTTP returns an HTTP transport.
func NewHTTP(opts ...HTTPOption) *HTTP {
	h := &HTTP{
		client: &http.Client{},
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Open issues req and returns the response body once a 2xx status arrives.
func (h *HTTP) Open(ctx context.Context, req *Request) (io.ReadCloser, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, &Error{Op: "open", URL: req.URL, Err: fmt.Errorf("creating request: %w", err)}
	}

	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	httpReq.Header.Set("Cache-Control", "no-cache")

	h.logger.Debug("opening stream",
		"method", method,
		"url", req.URL,
	)

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, &Error{Op: "open", URL: req.URL, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &Error{
			Op:     "open",
			URL:    req.URL,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(respBody)),
		}
	}

	return resp.Body, nil
}
