// Package transport is the shared fetch-JSON layer every provider adapter
// calls through. It owns the request timeout and the retry policy:
// server-class failures (5xx, network errors) retry with exponential
// backoff up to a bounded attempt count, client-class failures (4xx) never
// retry.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DevNDanger/MyPinballStats/internal/constants"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/valyala/fasthttp"
)

// StatusError carries the final HTTP status and raw body of a failed fetch.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, truncate(e.Body, 200))
}

type Client struct {
	http        *fasthttp.Client
	logger      zerolog.Logger
	timeout     time.Duration
	backoffBase time.Duration
	maxRetries  uint64
}

func NewClient(logger zerolog.Logger) *Client {
	return &Client{
		http: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger:      logger,
		timeout:     constants.ExternalAPITimeout,
		backoffBase: constants.FetchBackoffBase,
		maxRetries:  constants.FetchMaxRetries,
	}
}

// GetJSON fetches url and unmarshals the response body into out. headers is
// optional; a nil map sends no extra headers.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.backoffBase))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		body, err := c.doOnce(ctx, url, headers)
		if err != nil {
			if isRetryable(err) {
				c.logger.Warn().Err(err).Str("url", url).Int("attempt", attempt).Msg("retryable fetch failure")
				return retry.RetryableError(err)
			}
			return err
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response from %s: %w", url, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	return nil
}

func (c *Client) doOnce(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, err
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		body := make([]byte, len(resp.Body()))
		copy(body, resp.Body())
		return nil, &StatusError{StatusCode: status, Body: body}
	}

	// Body is owned by the pooled response, copy before release.
	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}

// isRetryable treats network-level failures and 5xx responses as transient.
func isRetryable(err error) bool {
	if se, ok := err.(*StatusError); ok {
		return se.StatusCode >= 500
	}
	return true
}

func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
