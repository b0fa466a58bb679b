package domain

// PriceStats summarizes the price column of a table.
type PriceStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Std    float64 `json:"std"`
}

// RatingStats summarizes the rating column of a table.
type RatingStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// StockStats summarizes the in_stock column of a table.
type StockStats struct {
	InStock           int     `json:"in_stock"`
	OutOfStock        int     `json:"out_of_stock"`
	InStockPercentage float64 `json:"in_stock_percentage"`
}

// Statistics is a one-shot descriptive summary of an enriched table.
// Aggregate blocks are present only when their source column exists in the
// table, so consumers must treat them as optional.
type Statistics struct {
	TotalProducts          int               `json:"total_products"`
	TotalColumns           int               `json:"total_columns"`
	MissingValues          map[string]int    `json:"missing_values"`
	DataTypes              map[string]string `json:"data_types"`
	PriceStats             *PriceStats       `json:"price_stats,omitempty"`
	RatingStats            *RatingStats      `json:"rating_stats,omitempty"`
	CategoryDistribution   map[string]int    `json:"category_distribution,omitempty"`
	DataSourceDistribution map[string]int    `json:"data_source_distribution,omitempty"`
	StockStats             *StockStats       `json:"stock_stats,omitempty"`
}
