package repository

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/harvestlab/ecomharvest/internal/domain"
)

func TestUpsertArgsSplitsWellKnownColumns(t *testing.T) {
	row := domain.Row{
		"id":          int64(42),
		"data_source": domain.SourceAPI,
		"title":       "Wireless Mouse",
		"price":       24.99,
		"rating":      4.5,
		"category":    "electronics",
		"brand":       "Acme",
		"in_stock":    true,
		"scraped_at":  "2026-01-15 12:00:00",
		"upc":         "abc123",
		"num_reviews": int64(3),
	}

	args, err := upsertArgs(row)
	if err != nil {
		t.Fatalf("upsertArgs returned error: %v", err)
	}
	if len(args) != 10 {
		t.Fatalf("expected 10 args, got %d", len(args))
	}
	if args[0].(int64) != 42 || args[1].(string) != domain.SourceAPI || args[2].(string) != "Wireless Mouse" {
		t.Fatalf("unexpected key args: %v", args[:3])
	}
	if *args[3].(*float64) != 24.99 || *args[4].(*float64) != 4.5 {
		t.Fatalf("unexpected numeric args: %v %v", args[3], args[4])
	}
	if *args[7].(*bool) != true {
		t.Fatalf("unexpected in_stock arg: %v", args[7])
	}

	scrapedAt := args[8].(*time.Time)
	want := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	if scrapedAt == nil || !scrapedAt.Equal(want) {
		t.Fatalf("unexpected scraped_at: %v", scrapedAt)
	}

	var properties map[string]any
	if err := json.Unmarshal(args[9].([]byte), &properties); err != nil {
		t.Fatalf("properties blob not JSON: %v", err)
	}
	if properties["upc"] != "abc123" {
		t.Fatalf("expected upc in properties, got %v", properties)
	}
	if _, leaked := properties["title"]; leaked {
		t.Fatalf("well-known column leaked into properties")
	}
}

func TestUpsertArgsRejectsRowsWithoutKey(t *testing.T) {
	if _, err := upsertArgs(domain.Row{"data_source": domain.SourceAPI}); err == nil {
		t.Fatalf("expected error for missing id")
	}
	if _, err := upsertArgs(domain.Row{"id": int64(1)}); err == nil {
		t.Fatalf("expected error for missing data_source")
	}
}

func TestUpsertArgsToleratesMissingOptionalColumns(t *testing.T) {
	args, err := upsertArgs(domain.Row{"id": int64(1), "data_source": domain.SourceWeb})
	if err != nil {
		t.Fatalf("upsertArgs returned error: %v", err)
	}
	if p := args[3].(*float64); p != nil {
		t.Fatalf("expected nil price, got %v", *p)
	}
	if ts, ok := args[8].(*time.Time); ok && ts != nil {
		t.Fatalf("expected nil scraped_at, got %v", ts)
	}
}
