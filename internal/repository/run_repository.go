package repository

import (
	"context"
	"fmt"

	"github.com/harvestlab/ecomharvest/internal/db"
	"github.com/harvestlab/ecomharvest/internal/domain"
)

const insertRunSQL = `
INSERT INTO pipeline_runs (id, started_at, finished_at, status, api_products, web_products, total_products, total_columns)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// runRepository implements RunRepository on a pgx pool.
type runRepository struct {
	conn *db.Connection
}

// NewRunRepository creates a new pipeline run repository
func NewRunRepository(conn *db.Connection) RunRepository {
	return &runRepository{conn: conn}
}

// Record inserts one pipeline run row.
func (r *runRepository) Record(ctx context.Context, run domain.PipelineRun) error {
	_, err := r.conn.Pool.Exec(ctx, insertRunSQL,
		run.ID,
		run.StartedAt,
		run.FinishedAt,
		run.Status,
		run.APIProducts,
		run.WebProducts,
		run.TotalProducts,
		run.TotalColumns,
	)
	if err != nil {
		return fmt.Errorf("failed to record pipeline run: %w", err)
	}
	return nil
}
