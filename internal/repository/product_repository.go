package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/harvestlab/ecomharvest/internal/db"
	"github.com/harvestlab/ecomharvest/internal/domain"
)

// scrapedAtFormat matches the timestamp the cleaner tags rows with.
const scrapedAtFormat = "2006-01-02 15:04:05"

// wellKnownColumns are promoted to dedicated table columns; everything else
// lands in the JSONB properties blob.
var wellKnownColumns = map[string]struct{}{
	"id":          {},
	"data_source": {},
	"title":       {},
	"price":       {},
	"rating":      {},
	"category":    {},
	"brand":       {},
	"in_stock":    {},
	"scraped_at":  {},
}

const upsertProductSQL = `
INSERT INTO products (product_id, data_source, title, price, rating, category, brand, in_stock, scraped_at, properties, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
ON CONFLICT (product_id, data_source) DO UPDATE SET
    title = EXCLUDED.title,
    price = EXCLUDED.price,
    rating = EXCLUDED.rating,
    category = EXCLUDED.category,
    brand = EXCLUDED.brand,
    in_stock = EXCLUDED.in_stock,
    scraped_at = EXCLUDED.scraped_at,
    properties = EXCLUDED.properties,
    updated_at = now()`

// productRepository implements ProductRepository on a pgx pool.
type productRepository struct {
	conn *db.Connection
}

// NewProductRepository creates a new product repository
func NewProductRepository(conn *db.Connection) ProductRepository {
	return &productRepository{conn: conn}
}

// SaveTable upserts every table row inside one transaction.
func (r *productRepository) SaveTable(ctx context.Context, table *domain.Table) (int, error) {
	if table == nil || table.Len() == 0 {
		return 0, nil
	}

	written := 0
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		for i := 0; i < table.Len(); i++ {
			row := table.Row(i)
			args, err := upsertArgs(row)
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			if _, err := tx.Exec(ctx, upsertProductSQL, args...); err != nil {
				return fmt.Errorf("failed to upsert row %d: %w", i, err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// CountBySource returns stored product counts grouped by data source.
func (r *productRepository) CountBySource(ctx context.Context) (map[string]int, error) {
	rows, err := r.conn.Pool.Query(ctx, `SELECT data_source, count(*) FROM products GROUP BY data_source`)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("failed to scan product count: %w", err)
		}
		counts[source] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read product counts: %w", err)
	}
	return counts, nil
}

// upsertArgs splits a cleaned row into the upsert's positional arguments.
func upsertArgs(row domain.Row) ([]any, error) {
	productID, ok := asInt64(row["id"])
	if !ok {
		return nil, fmt.Errorf("missing or non-numeric id %v", row["id"])
	}
	source, _ := row["data_source"].(string)
	if source == "" {
		return nil, fmt.Errorf("missing data_source")
	}
	title, _ := row["title"].(string)

	var scrapedAt *time.Time
	if raw, ok := row["scraped_at"].(string); ok {
		if ts, err := time.Parse(scrapedAtFormat, raw); err == nil {
			scrapedAt = &ts
		}
	}

	properties := make(map[string]any)
	for key, value := range row {
		if _, known := wellKnownColumns[key]; known {
			continue
		}
		properties[key] = value
	}
	blob, err := json.Marshal(properties)
	if err != nil {
		return nil, fmt.Errorf("encode properties: %w", err)
	}

	return []any{
		productID,
		source,
		title,
		asNullableFloat(row["price"]),
		asNullableFloat(row["rating"]),
		asNullableString(row["category"]),
		asNullableString(row["brand"]),
		asNullableBool(row["in_stock"]),
		scrapedAt,
		blob,
	}, nil
}

func asInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

func asNullableFloat(value any) *float64 {
	switch v := value.(type) {
	case float64:
		return &v
	case int64:
		f := float64(v)
		return &f
	case int:
		f := float64(v)
		return &f
	default:
		return nil
	}
}

func asNullableString(value any) *string {
	if s, ok := value.(string); ok {
		return &s
	}
	return nil
}

func asNullableBool(value any) *bool {
	if b, ok := value.(bool); ok {
		return &b
	}
	return nil
}
