package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/harvestlab/ecomharvest/internal/config"
)

type discardLogger struct{}

func (discardLogger) Printf(string, ...any) {}

func apiConfig(baseURL string, pageSize int) config.APIConfig {
	return config.APIConfig{
		BaseURL:      baseURL,
		PageSize:     pageSize,
		RequestDelay: time.Millisecond,
		RetryTimes:   2,
		Timeout:      5 * time.Second,
	}
}

func productsHandler(total int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))

		var products []map[string]any
		for i := skip; i < skip+limit && i < total; i++ {
			products = append(products, map[string]any{
				"id":    i + 1,
				"title": fmt.Sprintf("Product %d", i+1),
				"price": float64(i) + 0.99,
			})
		}
		json.NewEncoder(w).Encode(map[string]any{
			"products": products,
			"total":    total,
			"skip":     skip,
			"limit":    limit,
		})
	}
}

func TestFetchProductsPaginates(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		productsHandler(5)(w, r)
	}))
	defer srv.Close()

	client := NewAPIClient(apiConfig(srv.URL, 2), discardLogger{})
	products, err := client.FetchProducts(context.Background(), 5)
	if err != nil {
		t.Fatalf("fetch returned error: %v", err)
	}
	if len(products) != 5 {
		t.Fatalf("expected 5 products, got %d", len(products))
	}
	if requests != 3 {
		t.Fatalf("expected 3 page requests, got %d", requests)
	}
	if title, _ := products[4]["title"].(string); title != "Product 5" {
		t.Fatalf("unexpected last product: %v", products[4])
	}
}

func TestFetchProductsTruncatesToLimit(t *testing.T) {
	srv := httptest.NewServer(productsHandler(100))
	defer srv.Close()

	client := NewAPIClient(apiConfig(srv.URL, 30), discardLogger{})
	products, err := client.FetchProducts(context.Background(), 45)
	if err != nil {
		t.Fatalf("fetch returned error: %v", err)
	}
	if len(products) != 45 {
		t.Fatalf("expected exactly 45 products, got %d", len(products))
	}
}

func TestFetchProductsStopsWhenExhausted(t *testing.T) {
	srv := httptest.NewServer(productsHandler(3))
	defer srv.Close()

	client := NewAPIClient(apiConfig(srv.URL, 10), discardLogger{})
	products, err := client.FetchProducts(context.Background(), 50)
	if err != nil {
		t.Fatalf("fetch returned error: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("expected 3 products from an exhausted API, got %d", len(products))
	}
}

func TestFetchProductsRetriesServerErrors(t *testing.T) {
	failures := 2
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failures > 0 {
			failures--
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		productsHandler(2)(w, r)
	}))
	defer srv.Close()

	client := NewAPIClient(apiConfig(srv.URL, 10), discardLogger{})
	products, err := client.FetchProducts(context.Background(), 2)
	if err != nil {
		t.Fatalf("fetch should recover after retries, got error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products after recovery, got %d", len(products))
	}
}

func TestFetchProductsGivesUpAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewAPIClient(apiConfig(srv.URL, 10), discardLogger{})
	if _, err := client.FetchProducts(context.Background(), 2); err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
}

func TestCategoriesAcceptsBothShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]any{
			"laptops",
			map[string]any{"slug": "smartphones", "name": "Smartphones"},
		})
	}))
	defer srv.Close()

	client := NewAPIClient(apiConfig(srv.URL, 10), discardLogger{})
	categories, err := client.Categories(context.Background())
	if err != nil {
		t.Fatalf("categories returned error: %v", err)
	}
	if len(categories) != 2 || categories[0] != "laptops" || categories[1] != "smartphones" {
		t.Fatalf("unexpected categories: %v", categories)
	}
}

func TestSearchProductsCapsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "phone" {
			t.Errorf("unexpected query: %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"products": []map[string]any{
				{"id": 1, "title": "Phone A"},
				{"id": 2, "title": "Phone B"},
				{"id": 3, "title": "Phone C"},
			},
			"total": 3,
		})
	}))
	defer srv.Close()

	client := NewAPIClient(apiConfig(srv.URL, 10), discardLogger{})
	products, err := client.SearchProducts(context.Background(), "phone", 2)
	if err != nil {
		t.Fatalf("search returned error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected capped result of 2, got %d", len(products))
	}
}

func TestFetchProductsHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(productsHandler(100))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewAPIClient(apiConfig(srv.URL, 10), discardLogger{})
	if _, err := client.FetchProducts(ctx, 50); err == nil {
		t.Fatalf("expected context error")
	}
}
