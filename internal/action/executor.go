package action

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// HTTPExecutor executes api.call actions over HTTP with JSON bodies.
// Notification delivery belongs to the surrounding application; this
// executor records toasts on the log so server-side submits still leave
// an audit trail.
type HTTPExecutor struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPExecutor creates an executor resolving relative endpoints against
// baseURL.
func NewHTTPExecutor(baseURL string, logger *slog.Logger) *HTTPExecutor {
	return &HTTPExecutor{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// CallAPI performs the HTTP request. Any non-2xx status is an error; the
// dispatcher decides what happens next, not the executor.
func (e *HTTPExecutor) CallAPI(ctx context.Context, call APICall) error {
	var body io.Reader
	if call.Body != nil {
		data, err := json.Marshal(call.Body)
		if err != nil {
			return fmt.Errorf("marshaling call body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	url := call.Endpoint
	if strings.HasPrefix(url, "/") {
		url = e.baseURL + url
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, url, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s %s: %w", call.Method, call.Endpoint, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("calling %s %s: status %d", call.Method, call.Endpoint, resp.StatusCode)
	}
	return nil
}

// Notify logs the notification.
func (e *HTTPExecutor) Notify(_ context.Context, note Notification) error {
	if note.Err != nil {
		e.logger.Warn("submit notification", "message", note.Message, "variant", note.Variant, "error", note.Err)
		return nil
	}
	e.logger.Info("submit notification", "message", note.Message, "variant", note.Variant)
	return nil
}
