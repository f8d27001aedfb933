// Package httpclient is a small JSON-over-HTTP client with retry,
// exponential backoff + jitter, and a typed transport error, generalized
// from the retry loop in the teacher's Gemini client to any JSON API.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const userAgent = "briefbot/1.0 (+research-pipeline)"

// TransportError carries the last observed status/body/url once retries
// are exhausted.
type TransportError struct {
	Message string
	Status  int
	Body    string
	URL     string
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("httpclient: %s (status=%d url=%s)", e.Message, e.Status, e.URL)
	}
	return fmt.Sprintf("httpclient: %s (url=%s)", e.Message, e.URL)
}

// Client wraps http.Client with BriefBot's retry policy. Debug, when set,
// receives one structured line per attempt.
type Client struct {
	HTTP    *http.Client
	Debug   bool
	Logger  *slog.Logger
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Jitter    time.Duration
}

// NewClient returns a Client with the default policy: 500ms base delay,
// 20s cap, 250ms jitter.
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		HTTP:      &http.Client{},
		Logger:    logger,
		BaseDelay: 500 * time.Millisecond,
		MaxDelay:  20 * time.Second,
		Jitter:    250 * time.Millisecond,
	}
}

func isRetryableStatus(status int) bool {
	switch status {
	case 408, 425, 429:
		return true
	}
	if status >= 500 && status <= 504 {
		return true
	}
	if status >= 520 {
		return true
	}
	return false
}

// RequestJSON performs method against url with the given headers and JSON
// body, retrying up to `retries` attempts on transport failure or a
// retryable status code. The parsed JSON object is returned; if the
// top-level value is not an object it is wrapped as {"data": value}.
func (c *Client) RequestJSON(ctx context.Context, method, rawURL string, headers map[string]string, body any, timeout time.Duration, retries int) (map[string]any, error) {
	var bodyBytes []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("httpclient: marshal request body: %w", err)
		}
		bodyBytes = b
	}

	var lastErr error
	var lastStatus int
	var lastBody string

	for attempt := 1; attempt <= retries; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		req, err := http.NewRequestWithContext(reqCtx, method, rawURL, bytes.NewReader(bodyBytes))
		if err != nil {
			cancel()
			return nil, fmt.Errorf("httpclient: build request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")
		if len(bodyBytes) > 0 {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.HTTP.Do(req)
		if err != nil {
			cancel()
			lastErr = err
			c.logAttempt(attempt, rawURL, 0, err)
			c.sleepBackoff(ctx, attempt)
			continue
		}
		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()
		if readErr != nil {
			lastErr = readErr
			c.logAttempt(attempt, rawURL, resp.StatusCode, readErr)
			c.sleepBackoff(ctx, attempt)
			continue
		}

		lastStatus = resp.StatusCode
		lastBody = string(respBody)
		c.logAttempt(attempt, rawURL, resp.StatusCode, nil)

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return parseJSONObject(respBody)
		}
		if !isRetryableStatus(resp.StatusCode) {
			return nil, &TransportError{Message: "non-retryable status", Status: resp.StatusCode, Body: lastBody, URL: rawURL}
		}
		lastErr = fmt.Errorf("retryable status %d", resp.StatusCode)
		c.sleepBackoff(ctx, attempt)
	}

	msg := "retries exhausted"
	if lastErr != nil {
		msg = lastErr.Error()
	}
	return nil, &TransportError{Message: msg, Status: lastStatus, Body: lastBody, URL: rawURL}
}

func (c *Client) sleepBackoff(ctx context.Context, attempt int) {
	delay := c.BaseDelay * time.Duration(1<<uint(attempt-1))
	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	if c.Jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(c.Jitter)))
	}
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

func (c *Client) logAttempt(attempt int, url string, status int, err error) {
	if !c.Debug {
		return
	}
	if err != nil {
		c.Logger.Debug("httpclient attempt", "attempt", attempt, "url", url, "error", err)
		return
	}
	c.Logger.Debug("httpclient attempt", "attempt", attempt, "url", url, "status", status)
}

func parseJSONObject(raw []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("httpclient: decode response: %w", err)
	}
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	return map[string]any{"data": v}, nil
}

// RedditThreadJSONURL turns a thread path or full URL into Reddit's public
// JSON endpoint for that thread.
func RedditThreadJSONURL(pathOrURL string) (string, error) {
	p := pathOrURL
	if u, err := url.Parse(pathOrURL); err == nil && u.Host != "" {
		p = u.Path
	}
	p = strings.TrimSuffix(p, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if !strings.HasSuffix(p, ".json") {
		p += ".json"
	}
	return "https://www.reddit.com" + p + "?raw_json=1&context=0&depth=1&limit=50&sort=top", nil
}
