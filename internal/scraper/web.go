package scraper

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/harvestlab/ecomharvest/internal/config"
	"github.com/harvestlab/ecomharvest/internal/domain"
)

// CatalogCrawler walks a books.toscrape-style HTML catalog: listing pages
// linked by a "next" pager, each listing a set of product detail pages.
type CatalogCrawler struct {
	baseURL      *url.URL
	client       *http.Client
	requestDelay time.Duration
	retryTimes   int
	userAgents   []string
	logger       Logger

	requestCount int
}

// NewCatalogCrawler builds a crawler from configuration. It fails only when
// the configured base URL does not parse.
func NewCatalogCrawler(cfg config.WebConfig, logger Logger) (*CatalogCrawler, error) {
	if logger == nil {
		logger = log.Default()
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL %q: %w", cfg.BaseURL, err)
	}
	return &CatalogCrawler{
		baseURL:      base,
		client:       &http.Client{Timeout: cfg.Timeout},
		requestDelay: cfg.RequestDelay,
		retryTimes:   cfg.RetryTimes,
		userAgents:   cfg.UserAgents,
		logger:       logger,
	}, nil
}

var (
	priceRe   = regexp.MustCompile(`[\d.]+`)
	reviewsRe = regexp.MustCompile(`(\d+)\s+review`)
	stockRe   = regexp.MustCompile(`(\d+)\s+available`)
)

var starWords = map[string]int{
	"One":   1,
	"Two":   2,
	"Three": 3,
	"Four":  4,
	"Five":  5,
}

// CrawlProducts walks listing pages starting at catalogue/page-1.html and
// scrapes each product detail page, up to maxProducts products and maxPages
// listing pages (0 means unbounded). A detail page that fails to fetch is
// logged and skipped; a listing page failure ends the crawl with the
// products collected so far.
func (c *CatalogCrawler) CrawlProducts(ctx context.Context, maxProducts, maxPages int) ([]domain.RawRecord, error) {
	c.logger.Printf("[web] crawling up to %d products", maxProducts)

	var records []domain.RawRecord
	pageURL := c.resolve("catalogue/page-1.html")
	pages := 0

	for pageURL != "" && len(records) < maxProducts {
		if maxPages > 0 && pages >= maxPages {
			c.logger.Printf("[web] page limit reached (%d pages)", maxPages)
			break
		}

		doc, err := c.fetchDocument(ctx, pageURL)
		if err != nil {
			if len(records) == 0 {
				return nil, fmt.Errorf("fetch listing page %s: %w", pageURL, err)
			}
			c.logger.Printf("[web] listing page %s failed, stopping crawl: %v", pageURL, err)
			break
		}
		pages++

		var detailURLs []string
		doc.Find(".product_pod h3 a").Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok {
				return
			}
			detailURLs = append(detailURLs, c.resolveFrom(pageURL, href))
		})
		if len(detailURLs) == 0 {
			c.logger.Printf("[web] no products found on %s", pageURL)
			break
		}

		for _, detailURL := range detailURLs {
			if len(records) >= maxProducts {
				break
			}
			record, err := c.scrapeProduct(ctx, detailURL)
			if err != nil {
				c.logger.Printf("[web] skipping product %s: %v", detailURL, err)
				continue
			}
			records = append(records, record)
		}
		c.logger.Printf("[web] progress: %d/%d products (%d pages)", len(records), maxProducts, pages)

		next := doc.Find(".pager .next a")
		if href, ok := next.Attr("href"); ok {
			pageURL = c.resolveFrom(pageURL, href)
		} else {
			pageURL = ""
		}
	}

	c.logger.Printf("[web] crawl completed: %d products from %d pages", len(records), pages)
	return records, nil
}

// scrapeProduct extracts one raw record from a product detail page.
func (c *CatalogCrawler) scrapeProduct(ctx context.Context, detailURL string) (domain.RawRecord, error) {
	doc, err := c.fetchDocument(ctx, detailURL)
	if err != nil {
		return nil, err
	}

	main := doc.Find(".product_main")
	record := domain.RawRecord{
		"title":       cleanText(main.Find("h1").Text()),
		"product_url": detailURL,
	}

	priceText := main.Find(".price_color").Text()
	if price, ok := parsePrice(priceText); ok {
		record["price"] = price
		if currency := currencySymbol(priceText); currency != "" {
			record["price_currency"] = currency
		}
	}
	if rating, ok := starRating(main.Find(".star-rating")); ok {
		record["rating"] = rating
	}

	availability := cleanText(main.Find(".availability").Text())
	record["in_stock"] = strings.Contains(strings.ToLower(availability), "in stock")
	if m := stockRe.FindStringSubmatch(availability); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			record["num_available"] = n
		}
	}

	description := cleanText(doc.Find("#product_description").NextFiltered("p").Text())
	if description != "" {
		record["description"] = description
	}

	category := cleanText(doc.Find(".breadcrumb li").Eq(2).Text())
	if category != "" {
		record["category"] = category
	}

	doc.Find(".table.table-striped tr").Each(func(_ int, row *goquery.Selection) {
		key := cleanText(row.Find("th").Text())
		value := cleanText(row.Find("td").Text())
		switch key {
		case "UPC":
			record["upc"] = value
		case "Product Type":
			record["product_type"] = value
		case "Tax":
			if tax, ok := parsePrice(value); ok {
				record["tax"] = tax
			}
		case "Number of reviews":
			if n, err := strconv.Atoi(value); err == nil {
				record["num_reviews"] = n
			}
		}
	})

	if src, ok := doc.Find(".item.active img").Attr("src"); ok {
		record["image_url"] = c.resolveFrom(detailURL, src)
	}

	if _, present := record["num_reviews"]; !present {
		if m := reviewsRe.FindStringSubmatch(main.Find("p").Text()); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				record["num_reviews"] = n
			}
		}
	}

	return record, nil
}

// fetchDocument GETs a page with a rotating User-Agent and parses it. Server
// errors and transport failures are retried with linear backoff.
func (c *CatalogCrawler) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retryTimes; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, c.requestDelay*time.Duration(attempt)); err != nil {
				return nil, err
			}
		} else if c.requestCount > 0 {
			if err := sleepCtx(ctx, c.requestDelay); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", c.nextUserAgent())
		c.requestCount++

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			c.logger.Printf("[web] request to %s failed (attempt %d/%d): %v", pageURL, attempt+1, c.retryTimes+1, err)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("unexpected status %d from %s", resp.StatusCode, pageURL)
			if resp.StatusCode == http.StatusNotFound {
				return nil, lastErr
			}
			c.logger.Printf("[web] %v (attempt %d/%d)", lastErr, attempt+1, c.retryTimes+1)
			continue
		}

		doc, err := goquery.NewDocumentFromReader(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", pageURL, err)
		}
		return doc, nil
	}
	return nil, lastErr
}

func (c *CatalogCrawler) nextUserAgent() string {
	if len(c.userAgents) == 0 {
		return "Mozilla/5.0"
	}
	return c.userAgents[c.requestCount%len(c.userAgents)]
}

// resolve resolves a path against the crawler's base URL.
func (c *CatalogCrawler) resolve(ref string) string {
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return c.baseURL.ResolveReference(parsed).String()
}

// resolveFrom resolves a possibly relative href against the page it
// appeared on.
func (c *CatalogCrawler) resolveFrom(pageURL, ref string) string {
	page, err := url.Parse(pageURL)
	if err != nil {
		return c.resolve(ref)
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return page.ResolveReference(parsed).String()
}

// parsePrice extracts the numeric part of a price string like "£51.77".
func parsePrice(text string) (float64, bool) {
	m := priceRe.FindString(text)
	if m == "" {
		return 0, false
	}
	price, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

// currencySymbol returns the non-numeric prefix of a price string, "£" for
// "£51.77".
func currencySymbol(text string) string {
	text = strings.TrimSpace(text)
	if i := priceRe.FindStringIndex(text); i != nil {
		return strings.TrimSpace(text[:i[0]])
	}
	return ""
}

// starRating maps the star-rating class word ("Three") to its numeric value.
func starRating(sel *goquery.Selection) (int, bool) {
	class, ok := sel.Attr("class")
	if !ok {
		return 0, false
	}
	for _, field := range strings.Fields(class) {
		if rating, ok := starWords[field]; ok {
			return rating, true
		}
	}
	return 0, false
}

// cleanText collapses whitespace runs and trims the result.
func cleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
