// Package upstream provides rate-limited, retrying HTTP clients for the
// token data sources (DexScreener as primary, GeckoTerminal as enrichment).
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"solana-token-feed/internal/observability"
)

// DefaultTimeout is the per-request HTTP timeout.
const DefaultTimeout = 15 * time.Second

// Client is the transport shared by the source clients: every attempt waits
// on the rate limiter, then runs under the retry policy.
type Client struct {
	source    string
	baseURL   string
	http      *http.Client
	limiter   *RateLimiter
	retry     RetryPolicy
	userAgent string
	logger    logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRateLimit sets the allowed requests per minute.
func WithRateLimit(requestsPerMinute int) Option {
	return func(c *Client) {
		c.limiter = NewRateLimiter(requestsPerMinute)
	}
}

// WithRetryPolicy sets the retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		c.retry = p
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

func newClient(source, baseURL string, requestsPerMinute int, opts ...Option) *Client {
	c := &Client{
		source:    source,
		baseURL:   baseURL,
		http:      &http.Client{Timeout: DefaultTimeout},
		limiter:   NewRateLimiter(requestsPerMinute),
		retry:     DefaultRetryPolicy(),
		userAgent: "solana-token-feed/1.0",
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithField("source", source)
	return c
}

// Source returns the upstream name.
func (c *Client) Source() string {
	return c.source
}

// getJSON performs a GET with rate limiting and retries, decoding the body into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	return c.retry.Do(ctx, func(ctx context.Context) error {
		waited, err := c.limiter.Wait(ctx)
		observability.RecordRateLimitWait(c.source, waited.Seconds())
		if err != nil {
			return Permanent(fmt.Errorf("rate limiter: %w", err))
		}

		body, err := c.do(ctx, fullURL)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && !apiErr.IsRetryable() {
				return Permanent(err)
			}
			if ctx.Err() != nil {
				return Permanent(err)
			}
			return err
		}

		if err := json.Unmarshal(body, out); err != nil {
			return Permanent(fmt.Errorf("unmarshal response: %w", err))
		}
		return nil
	}, func(err error, attempt int, delay time.Duration) {
		c.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"backoff": delay,
			"path":    path,
		}).WithError(err).Warn("retrying upstream request")
	})
}

// do performs a single HTTP request.
func (c *Client) do(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.RecordUpstreamRequest(c.source, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	observability.RecordUpstreamRequest(c.source, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Source:     c.source,
			StatusCode: resp.StatusCode,
			Body:       body,
		}
	}
	return body, nil
}
