// Package scraper implements the fetch layer: a paginated JSON API client
// and an HTML catalog crawler. Both produce raw, untyped records for the
// cleaner; neither interprets the data beyond basic field extraction.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/harvestlab/ecomharvest/internal/config"
	"github.com/harvestlab/ecomharvest/internal/domain"
)

// Logger is the logging sink injected into the fetch layer. *log.Logger
// satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

const rateLimitWait = 60 * time.Second

// APIClient fetches product records from a DummyJSON-style paginated API.
type APIClient struct {
	baseURL      string
	client       *http.Client
	pageSize     int
	requestDelay time.Duration
	retryTimes   int
	logger       Logger
}

// NewAPIClient builds an API client from configuration. A nil logger falls
// back to the process default.
func NewAPIClient(cfg config.APIConfig, logger Logger) *APIClient {
	if logger == nil {
		logger = log.Default()
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	return &APIClient{
		baseURL:      cfg.BaseURL,
		client:       &http.Client{Timeout: cfg.Timeout},
		pageSize:     pageSize,
		requestDelay: cfg.RequestDelay,
		retryTimes:   cfg.RetryTimes,
		logger:       logger,
	}
}

type productsPage struct {
	Products []domain.RawRecord `json:"products"`
	Total    int                `json:"total"`
	Skip     int                `json:"skip"`
	Limit    int                `json:"limit"`
}

// FetchProducts pages through /products until maxProducts records are
// collected or the API is exhausted. Individual page failures after retries
// end the pagination with whatever was collected so far and an error.
func (c *APIClient) FetchProducts(ctx context.Context, maxProducts int) ([]domain.RawRecord, error) {
	c.logger.Printf("[api] fetching up to %d products", maxProducts)

	var all []domain.RawRecord
	skip := 0
	for len(all) < maxProducts {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(c.pageSize))
		params.Set("skip", strconv.Itoa(skip))

		var page productsPage
		if err := c.getJSON(ctx, "/products", params, &page); err != nil {
			return all, fmt.Errorf("fetch products page (skip=%d): %w", skip, err)
		}
		if len(page.Products) == 0 {
			c.logger.Printf("[api] no more products available")
			break
		}
		all = append(all, page.Products...)
		c.logger.Printf("[api] progress: %d/%d products", len(all), maxProducts)

		if len(all) >= maxProducts {
			all = all[:maxProducts]
			break
		}
		if page.Total > 0 && len(all) >= page.Total {
			break
		}
		skip += c.pageSize
		if err := sleepCtx(ctx, c.requestDelay); err != nil {
			return all, err
		}
	}

	c.logger.Printf("[api] fetch completed: %d products", len(all))
	return all, nil
}

// Categories returns the catalog's category slugs. The endpoint has served
// both plain strings and objects over time, so both shapes are accepted.
func (c *APIClient) Categories(ctx context.Context) ([]string, error) {
	var raw []any
	if err := c.getJSON(ctx, "/products/categories", nil, &raw); err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}
	categories := make([]string, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			categories = append(categories, v)
		case map[string]any:
			if slug, ok := v["slug"].(string); ok {
				categories = append(categories, slug)
			} else if name, ok := v["name"].(string); ok {
				categories = append(categories, name)
			}
		}
	}
	c.logger.Printf("[api] %d categories retrieved", len(categories))
	return categories, nil
}

// SearchProducts returns up to maxResults records matching the query.
func (c *APIClient) SearchProducts(ctx context.Context, query string, maxResults int) ([]domain.RawRecord, error) {
	params := url.Values{}
	params.Set("q", query)

	var page productsPage
	if err := c.getJSON(ctx, "/products/search", params, &page); err != nil {
		return nil, fmt.Errorf("search products %q: %w", query, err)
	}
	products := page.Products
	if maxResults > 0 && len(products) > maxResults {
		products = products[:maxResults]
	}
	c.logger.Printf("[api] search %q: %d products found", query, len(products))
	return products, nil
}

// getJSON performs one GET with retry: linear backoff on server errors and
// transport failures, a long pause on 429, immediate failure on 404.
func (c *APIClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryTimes; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, c.requestDelay*time.Duration(attempt)); err != nil {
				return err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			c.logger.Printf("[api] request to %s failed (attempt %d/%d): %v", endpoint, attempt+1, c.retryTimes+1, err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			err = json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("decode response from %s: %w", endpoint, err)
			}
			return nil
		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			c.logger.Printf("[api] rate limit reached, waiting %s", rateLimitWait)
			lastErr = fmt.Errorf("rate limited by %s", endpoint)
			if err := sleepCtx(ctx, rateLimitWait); err != nil {
				return err
			}
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return fmt.Errorf("endpoint not found: %s", endpoint)
		default:
			resp.Body.Close()
			lastErr = fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
			c.logger.Printf("[api] %v (attempt %d/%d)", lastErr, attempt+1, c.retryTimes+1)
		}
	}
	return lastErr
}

// sleepCtx waits for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
