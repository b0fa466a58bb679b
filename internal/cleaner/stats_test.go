package cleaner

import (
	"math"
	"testing"

	"github.com/harvestlab/ecomharvest/internal/domain"
)

func TestStatisticsSummarizesTable(t *testing.T) {
	c := testCleaner()
	table := domain.NewTable("id", "price", "rating", "category", "data_source", "in_stock")
	table.Append(domain.Row{"id": int64(1), "price": 10.0, "rating": 4.0, "category": "books", "data_source": domain.SourceAPI, "in_stock": true})
	table.Append(domain.Row{"id": int64(2), "price": 30.0, "rating": 2.0, "category": "books", "data_source": domain.SourceWeb, "in_stock": false})
	table.Append(domain.Row{"id": int64(3), "price": 20.0, "rating": 3.0, "category": "toys", "data_source": domain.SourceAPI, "in_stock": true})

	stats := c.Statistics(table)

	if stats.TotalProducts != 3 || stats.TotalColumns != 6 {
		t.Fatalf("unexpected shape: %d products, %d columns", stats.TotalProducts, stats.TotalColumns)
	}
	if stats.PriceStats == nil {
		t.Fatalf("expected price stats")
	}
	if stats.PriceStats.Mean != 20 || stats.PriceStats.Median != 20 || stats.PriceStats.Min != 10 || stats.PriceStats.Max != 30 {
		t.Fatalf("unexpected price stats: %+v", stats.PriceStats)
	}
	if stats.PriceStats.Std != 10 {
		t.Fatalf("expected sample std 10, got %v", stats.PriceStats.Std)
	}
	if stats.RatingStats == nil || stats.RatingStats.Mean != 3 {
		t.Fatalf("unexpected rating stats: %+v", stats.RatingStats)
	}
	if stats.CategoryDistribution["books"] != 2 || stats.CategoryDistribution["toys"] != 1 {
		t.Fatalf("unexpected category distribution: %v", stats.CategoryDistribution)
	}
	if stats.DataSourceDistribution[domain.SourceAPI] != 2 {
		t.Fatalf("unexpected source distribution: %v", stats.DataSourceDistribution)
	}
	if stats.StockStats == nil || stats.StockStats.InStock != 2 || stats.StockStats.OutOfStock != 1 {
		t.Fatalf("unexpected stock stats: %+v", stats.StockStats)
	}
	if math.Abs(stats.StockStats.InStockPercentage-66.666) > 0.01 {
		t.Fatalf("unexpected in-stock percentage: %v", stats.StockStats.InStockPercentage)
	}
	if stats.DataTypes["price"] != "float64" || stats.DataTypes["category"] != "string" || stats.DataTypes["in_stock"] != "bool" || stats.DataTypes["id"] != "int64" {
		t.Fatalf("unexpected data types: %v", stats.DataTypes)
	}
}

func TestStatisticsOmitsBlocksForAbsentColumns(t *testing.T) {
	c := testCleaner()
	table := domain.NewTable("id", "title")
	table.Append(domain.Row{"id": int64(1), "title": "No numbers here"})

	stats := c.Statistics(table)
	if stats.PriceStats != nil || stats.RatingStats != nil || stats.StockStats != nil {
		t.Fatalf("expected optional blocks to be absent: %+v", stats)
	}
	if stats.CategoryDistribution != nil {
		t.Fatalf("expected no category distribution")
	}
}

func TestStatisticsDegenerateSingleValue(t *testing.T) {
	c := testCleaner()
	table := domain.NewTable("id", "price")
	table.Append(domain.Row{"id": int64(1), "price": 42.0})

	stats := c.Statistics(table)
	if stats.PriceStats == nil {
		t.Fatalf("expected price stats for single row")
	}
	if stats.PriceStats.Std != 0 {
		t.Fatalf("single value std must be 0, got %v", stats.PriceStats.Std)
	}
	if stats.PriceStats.Min != 42 || stats.PriceStats.Max != 42 {
		t.Fatalf("unexpected degenerate stats: %+v", stats.PriceStats)
	}
}

func TestStatisticsCountsMissingValues(t *testing.T) {
	c := testCleaner()
	table := domain.NewTable("id", "brand")
	table.Append(domain.Row{"id": int64(1), "brand": "Acme"})
	table.Append(domain.Row{"id": int64(2), "brand": nil})
	table.Append(domain.Row{"id": int64(3)})

	stats := c.Statistics(table)
	if stats.MissingValues["brand"] != 2 {
		t.Fatalf("expected 2 missing brand values, got %d", stats.MissingValues["brand"])
	}
	if stats.MissingValues["id"] != 0 {
		t.Fatalf("expected no missing ids, got %d", stats.MissingValues["id"])
	}
}

func TestStatisticsEmptyTable(t *testing.T) {
	c := testCleaner()
	stats := c.Statistics(domain.NewTable())

	if stats.TotalProducts != 0 || stats.TotalColumns != 0 {
		t.Fatalf("unexpected stats for empty table: %+v", stats)
	}
	if stats.PriceStats != nil || stats.StockStats != nil {
		t.Fatalf("empty table must not produce aggregate blocks")
	}
}
