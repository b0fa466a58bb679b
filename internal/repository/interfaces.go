// Package repository persists merged product tables and pipeline run
// records to PostgreSQL.
package repository

import (
	"context"

	"github.com/harvestlab/ecomharvest/internal/domain"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// SaveTable upserts every row of a merged table, keyed on
	// (product_id, data_source). It returns the number of rows written.
	SaveTable(ctx context.Context, table *domain.Table) (int, error)
	CountBySource(ctx context.Context) (map[string]int, error)
}

// RunRepository defines the interface for pipeline run bookkeeping
type RunRepository interface {
	Record(ctx context.Context, run domain.PipelineRun) error
}
