package export

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/harvestlab/ecomharvest/internal/domain"
)

// WriteReport renders a markdown analysis report of the dataset and returns
// the file path.
func (s *Service) WriteReport(table *domain.Table, stats domain.Statistics, name string) (string, error) {
	path, err := s.preparePath(name, "md")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	writeLine := func(format string, v ...any) {
		fmt.Fprintf(&b, format, v...)
		b.WriteByte('\n')
	}

	writeLine("# E-commerce Product Data Extraction - Analysis Report")
	writeLine("")
	writeLine("**Generated on:** %s", s.now().Format("2006-01-02 15:04:05"))
	writeLine("")

	writeLine("## Executive Summary")
	writeLine("")
	writeLine("This report presents the results of an automated data extraction run that collected product information from an API endpoint and a web catalog.")
	writeLine("")
	writeLine("- **Total Products Extracted:** %d", stats.TotalProducts)
	writeLine("- **Data Sources:** %d", len(stats.DataSourceDistribution))
	writeLine("- **Total Attributes:** %d", stats.TotalColumns)
	writeLine("")

	if len(stats.DataSourceDistribution) > 0 {
		writeLine("## Data Sources")
		writeLine("")
		for _, entry := range sortedCounts(stats.DataSourceDistribution) {
			writeLine("- **%s:** %d products (%.1f%%)", entry.key, entry.count, percentage(entry.count, stats.TotalProducts))
		}
		writeLine("")
	}

	if stats.PriceStats != nil {
		ps := stats.PriceStats
		writeLine("## Price Analysis")
		writeLine("")
		writeLine("- **Average Price:** $%.2f", ps.Mean)
		writeLine("- **Median Price:** $%.2f", ps.Median)
		writeLine("- **Price Range:** $%.2f - $%.2f", ps.Min, ps.Max)
		writeLine("- **Standard Deviation:** $%.2f", ps.Std)
		writeLine("")
		writeDistribution(&b, table, "price_category", "### Price Distribution by Category")
	}

	if stats.RatingStats != nil {
		rs := stats.RatingStats
		writeLine("## Rating Analysis")
		writeLine("")
		writeLine("- **Average Rating:** %.2f/5.0", rs.Mean)
		writeLine("- **Median Rating:** %.2f/5.0", rs.Median)
		writeLine("- **Rating Range:** %.1f - %.1f", rs.Min, rs.Max)
		writeLine("")
		writeDistribution(&b, table, "rating_category", "### Rating Distribution")
	}

	if len(stats.CategoryDistribution) > 0 {
		writeLine("## Category Analysis")
		writeLine("")
		writeLine("**Total Categories:** %d", len(stats.CategoryDistribution))
		writeLine("")
		writeLine("### Top 10 Categories by Product Count")
		writeLine("")
		entries := sortedCounts(stats.CategoryDistribution)
		if len(entries) > 10 {
			entries = entries[:10]
		}
		for i, entry := range entries {
			writeLine("%d. **%s:** %d products (%.1f%%)", i+1, entry.key, entry.count, percentage(entry.count, stats.TotalProducts))
		}
		writeLine("")
	}

	if stats.StockStats != nil {
		ss := stats.StockStats
		writeLine("## Stock Availability")
		writeLine("")
		writeLine("- **In Stock:** %d products (%.1f%%)", ss.InStock, ss.InStockPercentage)
		writeLine("- **Out of Stock:** %d products (%.1f%%)", ss.OutOfStock, 100-ss.InStockPercentage)
		writeLine("")
	}

	writeLine("## Data Quality")
	writeLine("")
	writeLine("### Missing Values Analysis")
	writeLine("")
	missing := sortedCounts(stats.MissingValues)
	var withMissing []countEntry
	for _, entry := range missing {
		if entry.count > 0 {
			withMissing = append(withMissing, entry)
		}
	}
	if len(withMissing) > 10 {
		withMissing = withMissing[:10]
	}
	if len(withMissing) == 0 {
		writeLine("No missing values detected in the dataset.")
	} else {
		for _, entry := range withMissing {
			writeLine("- **%s:** %d missing (%.1f%%)", entry.key, entry.count, percentage(entry.count, stats.TotalProducts))
		}
	}
	writeLine("")

	totalCells := stats.TotalProducts * stats.TotalColumns
	totalMissing := 0
	for _, count := range stats.MissingValues {
		totalMissing += count
	}
	completeness := 100.0
	if totalCells > 0 {
		completeness = float64(totalCells-totalMissing) / float64(totalCells) * 100
	}
	writeLine("**Overall Data Completeness:** %.2f%%", completeness)
	writeLine("")

	writeLine("## Key Insights")
	writeLine("")
	insight := 1
	writeLine("%d. Successfully extracted **%d products** from multiple sources", insight, stats.TotalProducts)
	insight++
	writeLine("%d. Data completeness rate of **%.1f%%**", insight, completeness)
	insight++
	if stats.PriceStats != nil {
		writeLine("%d. Average product price is **$%.2f**", insight, stats.PriceStats.Mean)
		insight++
	}
	if stats.RatingStats != nil {
		writeLine("%d. Products maintain an average rating of **%.2f/5.0**", insight, stats.RatingStats.Mean)
		insight++
	}
	if stats.StockStats != nil {
		writeLine("%d. **%.1f%%** of products are currently in stock", insight, stats.StockStats.InStockPercentage)
	}
	writeLine("")

	writeLine("## Data Processing Pipeline")
	writeLine("")
	writeLine("1. **Data Collection:** Multi-source extraction (API + Web)")
	writeLine("2. **Data Cleaning:** Handling missing values, type coercion")
	writeLine("3. **Data Normalization:** Standardizing column names, creating derived fields")
	writeLine("4. **Data Merging:** Combining datasets from multiple sources")
	writeLine("5. **Quality Assurance:** Duplicate removal, validation checks")
	writeLine("6. **Export:** Multiple formats (CSV, Excel, JSON)")
	writeLine("")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	s.logger.Printf("[export] wrote report to %s", path)
	return path, nil
}

// writeDistribution appends a value-count section for one table column.
func writeDistribution(b *strings.Builder, table *domain.Table, column, heading string) {
	if table == nil || !table.HasColumn(column) || table.Len() == 0 {
		return
	}
	counts := make(map[string]int)
	for _, value := range table.Column(column) {
		if s, ok := value.(string); ok && s != "" {
			counts[s]++
		}
	}
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(b, "%s\n\n", heading)
	for _, entry := range sortedCounts(counts) {
		fmt.Fprintf(b, "- **%s:** %d products (%.1f%%)\n", entry.key, entry.count, percentage(entry.count, table.Len()))
	}
	b.WriteString("\n")
}

type countEntry struct {
	key   string
	count int
}

// sortedCounts orders a count map by descending count, then key for
// deterministic output.
func sortedCounts(counts map[string]int) []countEntry {
	entries := make([]countEntry, 0, len(counts))
	for key, count := range counts {
		entries = append(entries, countEntry{key, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].key < entries[j].key
	})
	return entries
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}
