package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/upsync/internal/domain"
	"github.com/MrSnakeDoc/upsync/internal/logger"
	"github.com/MrSnakeDoc/upsync/internal/metrics"
	"github.com/MrSnakeDoc/upsync/internal/utils"
)

const (
	DefaultAPIVersion = "2024-01"

	// Shopify REST allows a bucket of 40 requests refilled at 2/s per store.
	DefaultRateLimit  = 2.0
	DefaultBurst      = 40
	DefaultMaxRetries = 3

	maxBodyBytes = 16 << 20
)

// Options configures every client built by a Factory.
type Options struct {
	APIVersion string
	RateLimit  float64 // requests per second per shop
	Burst      int
	MaxRetries int // retries on 429 and idempotent 5xx
	Timeout    time.Duration

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
	// BaseURL overrides https://<shop> (tests).
	BaseURL string
}

// Factory builds per-session clients. Clients for the same shop share one limiter, so
// concurrent requests and background runs stay within the store's budget together.
type Factory struct {
	opts   Options
	http   *http.Client
	logger logger.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewFactory creates a new client factory.
func NewFactory(opts Options, log logger.Logger) *Factory {
	if opts.APIVersion == "" {
		opts.APIVersion = DefaultAPIVersion
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRateLimit
	}
	if opts.Burst <= 0 {
		opts.Burst = DefaultBurst
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	return &Factory{
		opts:     opts,
		http:     hc,
		logger:   log.Named("shopify"),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Client returns a client bound to one shop and its access token.
func (f *Factory) Client(shop, accessToken string) *Client {
	base := f.opts.BaseURL
	if base == "" {
		base = "https://" + shop
	}
	return &Client{
		shop:       shop,
		token:      accessToken,
		base:       strings.TrimRight(base, "/") + "/admin/api/" + f.opts.APIVersion + "/",
		http:       f.http,
		limiter:    f.limiter(shop),
		maxRetries: f.opts.MaxRetries,
		logger:     f.logger.With(logger.String("shop", shop)),
	}
}

func (f *Factory) limiter(shop string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, ok := f.limiters[shop]
	if !ok {
		l = rate.NewLimiter(rate.Limit(f.opts.RateLimit), f.opts.Burst)
		f.limiters[shop] = l
	}
	return l
}

// Client talks to the Admin REST API of one shop.
type Client struct {
	shop       string
	token      string
	base       string
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
	logger     logger.Logger
}

// Shop returns the myshopify domain the client is bound to.
func (c *Client) Shop() string { return c.shop }

// APIError is a non-2xx answer from Shopify.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Is maps authentication failures to domain.ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	return target == domain.ErrUnauthorized &&
		(e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden)
}

// Get issues GET <path>.json and decodes the body into out. The response headers are
// returned for pagination.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) (http.Header, error) {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues POST <path>.json with a JSON body.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	_, err := c.do(ctx, http.MethodPost, path, nil, in, out)
	return err
}

// Put issues PUT <path>.json with a JSON body.
func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	_, err := c.do(ctx, http.MethodPut, path, nil, in, out)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) (http.Header, error) {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", path, err)
		}
		payload = b
	}

	endpoint := c.base + strings.TrimPrefix(path, "/") + ".json"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		status, header, body, err := c.send(ctx, method, endpoint, payload)
		if err != nil {
			return nil, fmt.Errorf("shopify %s %s: %w", method, path, err)
		}

		if status >= 200 && status < 300 {
			if out != nil && len(body) > 0 {
				if err := json.Unmarshal(body, out); err != nil {
					return nil, fmt.Errorf("decode %s response: %w", path, err)
				}
			}
			return header, nil
		}

		if attempt < c.maxRetries && retryable(method, status) {
			wait := retryAfter(header, attempt)
			c.logger.Warn("shopify request throttled, retrying",
				logger.String("method", method),
				logger.String("path", path),
				logger.Int("status", status),
				logger.Int("attempt", attempt+1),
				logger.Duration("wait", wait))

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
			continue
		}

		return nil, &APIError{Method: method, Path: path, Status: status, Body: snippet(body)}
	}
}

func (c *Client) send(ctx context.Context, method, endpoint string, payload []byte) (int, http.Header, []byte, error) {
	var reader io.Reader = http.NoBody
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, nil, err
	}
	req.Header.Set("X-Shopify-Access-Token", c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveShopify(method, 0, time.Since(start))
		return 0, nil, nil, err
	}
	defer utils.Close(resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.ObserveShopify(method, resp.StatusCode, time.Since(start))
	if err != nil {
		return 0, nil, nil, fmt.Errorf("read body: %w", err)
	}

	return resp.StatusCode, resp.Header, body, nil
}

// retryable reports whether a failed status may be retried. POST is only retried on 429
// because Shopify rejected it before doing any work.
func retryable(method string, status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500 && method != http.MethodPost
}

// retryAfter honours the Retry-After header (seconds, possibly fractional) and falls
// back to exponential backoff.
func retryAfter(h http.Header, attempt int) time.Duration {
	if v := strings.TrimSpace(h.Get("Retry-After")); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs >= 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return time.Duration(1<<uint(attempt)) * 500 * time.Millisecond
}

func snippet(b []byte) string {
	const limit = 300
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
