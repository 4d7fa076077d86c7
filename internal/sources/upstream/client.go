package upstream

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
	"time"

	"github.com/MrSnakeDoc/upsync/internal/domain"
	"github.com/MrSnakeDoc/upsync/internal/logger"
	"github.com/MrSnakeDoc/upsync/internal/utils"
)

const (
	productsPath = "all-products"

	// DefaultMaxPages bounds a run against an upstream that never stops returning next_url.
	DefaultMaxPages = 10000
	maxBodyBytes    = 32 << 20
)

// Options configures the upstream client.
type Options struct {
	BaseURL  string        // ex: https://erp.example.com/api/upecommerce/single-vendor/v1
	Timeout  time.Duration // per page request
	MaxPages int           // 0 => DefaultMaxPages

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Client fetches products from the upstream commerce backend, one page at a time.
type Client struct {
	baseURL  string
	maxPages int
	http     *http.Client
	mapper   *Mapper
	logger   logger.Logger
}

// NewClient creates a new upstream client.
func NewClient(opts Options, log logger.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("%w: upstream base url", domain.ErrConfigMissing)
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("%w: upstream base url: %v", domain.ErrConfigMissing, err)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	return &Client{
		baseURL:  base,
		maxPages: maxPages,
		http:     hc,
		mapper:   NewMapper(),
		logger:   log.Named("upstream"),
	}, nil
}

// FetchPage retrieves one page of products for a business.
// Any transport, status or decode failure is reported as ErrSourceUnavailable.
func (c *Client) FetchPage(ctx context.Context, businessCode string, page int) (domain.Page, error) {
	if businessCode == "" {
		return domain.Page{}, fmt.Errorf("%w: business code", domain.ErrConfigMissing)
	}

	q := url.Values{}
	q.Set("business_code", businessCode)
	q.Set("page", strconv.Itoa(page))
	endpoint := c.baseURL + "/" + productsPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, http.NoBody)
	if err != nil {
		return domain.Page{}, c.unavailable(businessCode, page, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Page{}, c.unavailable(businessCode, page, err)
	}
	defer utils.Close(resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.Page{}, c.unavailable(businessCode, page, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Page{}, c.unavailable(businessCode, page,
			fmt.Errorf("status %d: %s", resp.StatusCode, snippet(body)))
	}

	var payload pageResponse
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&payload); err != nil {
		return domain.Page{}, c.unavailable(businessCode, page, fmt.Errorf("decode body: %w", err))
	}

	products, rejected := c.mapper.MapPage(page, payload.Data)
	result := domain.Page{
		Number:   page,
		Products: products,
		Rejected: rejected,
		HasNext:  payload.NextURL != nil && *payload.NextURL != "",
	}

	c.logger.Debug("fetched upstream page",
		logger.String("business_code", businessCode),
		logger.Int("page", page),
		logger.Int("products", len(products)),
		logger.Int("rejected", len(rejected)),
		logger.Bool("has_next", result.HasNext),
		logger.Duration("duration", time.Since(start)))

	for _, r := range rejected {
		c.logger.Warn("rejected upstream record",
			logger.String("business_code", businessCode),
			logger.Int("page", r.Page),
			logger.Int("index", r.Index),
			logger.String("code", r.Code),
			logger.String("reason", r.Reason))
	}

	return result, nil
}

// Each streams pages starting at 1 until HasNext is false, fn returns an error or a
// fetch fails. The page that failed to fetch is never passed to fn.
func (c *Client) Each(ctx context.Context, businessCode string, fn func(domain.Page) error) error {
	for page := 1; page <= c.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		p, err := c.FetchPage(ctx, businessCode, page)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
		if !p.HasNext {
			return nil
		}
	}

	return c.unavailable(businessCode, c.maxPages,
		fmt.Errorf("page limit %d reached", c.maxPages))
}

// FetchAll accumulates every page for a business.
func (c *Client) FetchAll(ctx context.Context, businessCode string) ([]domain.ExternalProduct, []domain.RejectedRecord, error) {
	var (
		products []domain.ExternalProduct
		rejected []domain.RejectedRecord
	)
	err := c.Each(ctx, businessCode, func(p domain.Page) error {
		products = append(products, p.Products...)
		rejected = append(rejected, p.Rejected...)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if products == nil {
		products = []domain.ExternalProduct{}
	}
	return products, rejected, nil
}

func (c *Client) unavailable(businessCode string, page int, err error) error {
	c.logger.Warn("upstream fetch failed",
		logger.String("business_code", businessCode),
		logger.Int("page", page),
		logger.Error(err))
	return domain.NewOpError(domain.ErrSourceUnavailable, "fetch upstream page",
		businessCode+"#"+strconv.Itoa(page), err)
}

func snippet(b []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
