package cleaner

import (
	"github.com/montanaflynn/stats"

	"github.com/harvestlab/ecomharvest/internal/domain"
)

// Statistics computes a descriptive summary of the enriched table. It is a
// read-only pass: aggregate blocks appear only when their source column
// exists, and a column that exists but holds only policy-filled defaults
// still produces a (degenerate) block.
func (c *Cleaner) Statistics(t *domain.Table) domain.Statistics {
	c.logf("generating dataset statistics for %d rows", t.Len())

	summary := domain.Statistics{
		TotalProducts: t.Len(),
		TotalColumns:  len(t.Columns()),
		MissingValues: make(map[string]int, len(t.Columns())),
		DataTypes:     make(map[string]string, len(t.Columns())),
	}

	for _, col := range t.Columns() {
		values := t.Column(col)
		missing := 0
		for _, v := range values {
			if v == nil {
				missing++
			}
		}
		summary.MissingValues[col] = missing
		summary.DataTypes[col] = inferColumnType(values)
	}

	if t.HasColumn("price") {
		if block := priceBlock(t.Column("price")); block != nil {
			summary.PriceStats = block
		}
	}
	if t.HasColumn("rating") {
		if block := ratingBlock(t.Column("rating")); block != nil {
			summary.RatingStats = block
		}
	}
	if t.HasColumn("category") {
		summary.CategoryDistribution = valueCounts(t.Column("category"))
	}
	if t.HasColumn("data_source") {
		summary.DataSourceDistribution = valueCounts(t.Column("data_source"))
	}
	if t.HasColumn("in_stock") && t.Len() > 0 {
		summary.StockStats = stockBlock(t)
	}

	c.logf("statistics generated")
	return summary
}

// inferColumnType reports the observed value type of a column: one of
// int64, float64, bool, string, or object for mixed/empty columns.
func inferColumnType(values []any) string {
	var sawInt, sawFloat, sawBool, sawString, sawOther, sawValue bool
	for _, v := range values {
		if v == nil {
			continue
		}
		sawValue = true
		switch v.(type) {
		case int64, int:
			sawInt = true
		case float64, float32:
			sawFloat = true
		case bool:
			sawBool = true
		case string:
			sawString = true
		default:
			sawOther = true
		}
	}
	switch {
	case !sawValue || sawOther:
		return "object"
	case sawString && !sawInt && !sawFloat && !sawBool:
		return "string"
	case sawBool && !sawInt && !sawFloat && !sawString:
		return "bool"
	case sawFloat && !sawString && !sawBool:
		return "float64"
	case sawInt && !sawString && !sawBool:
		return "int64"
	default:
		return "object"
	}
}

// numericValues extracts the column's parseable numeric values.
func numericValues(values []any) []float64 {
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := toFloat(v); ok {
			nums = append(nums, f)
		}
	}
	return nums
}

func priceBlock(values []any) *domain.PriceStats {
	nums := numericValues(values)
	if len(nums) == 0 {
		return nil
	}
	mean, _ := stats.Mean(nums)
	median, _ := stats.Median(nums)
	min, _ := stats.Min(nums)
	max, _ := stats.Max(nums)
	std := float64(0)
	if len(nums) > 1 {
		std, _ = stats.StandardDeviationSample(nums)
	}
	return &domain.PriceStats{Mean: mean, Median: median, Min: min, Max: max, Std: std}
}

func ratingBlock(values []any) *domain.RatingStats {
	nums := numericValues(values)
	if len(nums) == 0 {
		return nil
	}
	mean, _ := stats.Mean(nums)
	median, _ := stats.Median(nums)
	min, _ := stats.Min(nums)
	max, _ := stats.Max(nums)
	return &domain.RatingStats{Mean: mean, Median: median, Min: min, Max: max}
}

// valueCounts tallies the column's values by their string form, skipping
// missing cells.
func valueCounts(values []any) map[string]int {
	counts := make(map[string]int)
	for _, v := range values {
		if v == nil {
			continue
		}
		counts[asString(v)]++
	}
	return counts
}

func stockBlock(t *domain.Table) *domain.StockStats {
	inStock := 0
	for i := 0; i < t.Len(); i++ {
		if b, ok := toBool(t.Row(i)["in_stock"]); ok && b {
			inStock++
		}
	}
	total := t.Len()
	return &domain.StockStats{
		InStock:           inStock,
		OutOfStock:        total - inStock,
		InStockPercentage: float64(inStock) / float64(total) * 100,
	}
}
