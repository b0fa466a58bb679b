package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harvestlab/ecomharvest/internal/config"
)

const listingPage1 = `<html><body>
<article class="product_pod"><h3><a href="book-one/index.html">Book One</a></h3></article>
<article class="product_pod"><h3><a href="book-two/index.html">Book Two</a></h3></article>
<ul class="pager"><li class="next"><a href="page-2.html">next</a></li></ul>
</body></html>`

const listingPage2 = `<html><body>
<article class="product_pod"><h3><a href="book-three/index.html">Book Three</a></h3></article>
</body></html>`

func detailPage(title string) string {
	return fmt.Sprintf(`<html><body>
<ul class="breadcrumb"><li>Home</li><li>Books</li><li>Poetry</li><li class="active">%[1]s</li></ul>
<div class="item active"><img src="../../media/%[1]s.jpg"/></div>
<div class="product_main">
  <h1>%[1]s</h1>
  <p class="price_color">£51.77</p>
  <p class="star-rating Three"></p>
  <p class="availability">In stock (22 available)</p>
</div>
<div id="product_description"><h2>Product Description</h2></div>
<p>A timeless tale told well.</p>
<table class="table table-striped">
  <tr><th>UPC</th><td>a897fe39b1053632</td></tr>
  <tr><th>Product Type</th><td>Books</td></tr>
  <tr><th>Tax</th><td>£0.00</td></tr>
  <tr><th>Number of reviews</th><td>0</td></tr>
</table>
</body></html>`, title)
}

func catalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/catalogue/page-1.html", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage1)
	})
	mux.HandleFunc("/catalogue/page-2.html", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage2)
	})
	for _, book := range []string{"book-one", "book-two", "book-three"} {
		book := book
		mux.HandleFunc("/catalogue/"+book+"/index.html", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, detailPage(book))
		})
	}
	return httptest.NewServer(mux)
}

func webConfig(baseURL string) config.WebConfig {
	return config.WebConfig{
		BaseURL:      baseURL,
		RequestDelay: time.Millisecond,
		RetryTimes:   1,
		Timeout:      5 * time.Second,
		UserAgents:   []string{"test-agent-a", "test-agent-b"},
	}
}

func TestCrawlProductsWalksListingPages(t *testing.T) {
	srv := catalogServer(t)
	defer srv.Close()

	crawler, err := NewCatalogCrawler(webConfig(srv.URL), discardLogger{})
	if err != nil {
		t.Fatalf("build crawler: %v", err)
	}
	records, err := crawler.CrawlProducts(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("crawl returned error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 products over 2 pages, got %d", len(records))
	}
	if records[2]["title"] != "book-three" {
		t.Fatalf("expected second page product last, got %v", records[2]["title"])
	}
}

func TestCrawlProductsRespectsProductBudget(t *testing.T) {
	srv := catalogServer(t)
	defer srv.Close()

	crawler, err := NewCatalogCrawler(webConfig(srv.URL), discardLogger{})
	if err != nil {
		t.Fatalf("build crawler: %v", err)
	}
	records, err := crawler.CrawlProducts(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("crawl returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected crawl to stop at 2 products, got %d", len(records))
	}
}

func TestCrawlProductsRespectsPageBudget(t *testing.T) {
	srv := catalogServer(t)
	defer srv.Close()

	crawler, err := NewCatalogCrawler(webConfig(srv.URL), discardLogger{})
	if err != nil {
		t.Fatalf("build crawler: %v", err)
	}
	records, err := crawler.CrawlProducts(context.Background(), 10, 1)
	if err != nil {
		t.Fatalf("crawl returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected only first page's products, got %d", len(records))
	}
}

func TestScrapeProductExtractsFields(t *testing.T) {
	srv := catalogServer(t)
	defer srv.Close()

	crawler, err := NewCatalogCrawler(webConfig(srv.URL), discardLogger{})
	if err != nil {
		t.Fatalf("build crawler: %v", err)
	}
	records, err := crawler.CrawlProducts(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("crawl returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 product, got %d", len(records))
	}
	record := records[0]

	if record["title"] != "book-one" {
		t.Fatalf("unexpected title: %v", record["title"])
	}
	if record["price"].(float64) != 51.77 {
		t.Fatalf("unexpected price: %v", record["price"])
	}
	if record["price_currency"] != "£" {
		t.Fatalf("unexpected currency: %v", record["price_currency"])
	}
	if record["rating"].(int) != 3 {
		t.Fatalf("unexpected rating: %v", record["rating"])
	}
	if record["in_stock"] != true {
		t.Fatalf("expected in_stock true, got %v", record["in_stock"])
	}
	if record["num_available"].(int) != 22 {
		t.Fatalf("unexpected num_available: %v", record["num_available"])
	}
	if record["category"] != "Poetry" {
		t.Fatalf("unexpected category: %v", record["category"])
	}
	if record["upc"] != "a897fe39b1053632" {
		t.Fatalf("unexpected upc: %v", record["upc"])
	}
	if record["product_type"] != "Books" {
		t.Fatalf("unexpected product_type: %v", record["product_type"])
	}
	if record["tax"].(float64) != 0 {
		t.Fatalf("unexpected tax: %v", record["tax"])
	}
	if record["num_reviews"].(int) != 0 {
		t.Fatalf("unexpected num_reviews: %v", record["num_reviews"])
	}
	if record["description"] != "A timeless tale told well." {
		t.Fatalf("unexpected description: %v", record["description"])
	}
	wantURL := srv.URL + "/catalogue/book-one/index.html"
	if record["product_url"] != wantURL {
		t.Fatalf("unexpected product_url: %v", record["product_url"])
	}
	wantImage := srv.URL + "/media/book-one.jpg"
	if record["image_url"] != wantImage {
		t.Fatalf("unexpected image_url: %v", record["image_url"])
	}
}

func TestCrawlSkipsFailingDetailPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/catalogue/page-1.html", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage1)
	})
	mux.HandleFunc("/catalogue/book-one/index.html", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/catalogue/book-two/index.html", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, detailPage("book-two"))
	})
	mux.HandleFunc("/catalogue/page-2.html", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage2)
	})
	mux.HandleFunc("/catalogue/book-three/index.html", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, detailPage("book-three"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	crawler, err := NewCatalogCrawler(webConfig(srv.URL), discardLogger{})
	if err != nil {
		t.Fatalf("build crawler: %v", err)
	}
	records, err := crawler.CrawlProducts(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("crawl returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected the broken product to be skipped, got %d records", len(records))
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"£51.77", 51.77, true},
		{"$19.99", 19.99, true},
		{"free", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := parsePrice(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("parsePrice(%q) = %v,%v want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
