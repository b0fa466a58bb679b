// Package cleaner implements the normalization and merge engine: it turns
// raw heterogeneous product records from the fetch layer into one consistent
// table with derived analytic columns and summary statistics.
package cleaner

import (
	"fmt"
	"hash/fnv"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/harvestlab/ecomharvest/internal/domain"
)

// Logger is the logging sink injected into the cleaner. *log.Logger
// satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

// timeFormat matches the capture timestamp format of the exported datasets.
const timeFormat = "2006-01-02 15:04:05"

// synthesizedIDRange bounds ids synthesized for records without a natural
// key. Collisions are tolerated; the merge key disambiguates by source.
const synthesizedIDRange = 1_000_000

// Cleaner normalizes per-source record batches, merges them, enriches the
// merged table and summarizes it. It holds no state between calls.
type Cleaner struct {
	logger Logger
	now    func() time.Time
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithClock overrides the capture-timestamp clock.
func WithClock(now func() time.Time) Option {
	return func(c *Cleaner) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Cleaner. A nil logger falls back to the process default.
func New(logger Logger, opts ...Option) *Cleaner {
	c := &Cleaner{logger: logger, now: time.Now}
	if c.logger == nil {
		c.logger = log.Default()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cleaner) logf(format string, v ...any) {
	c.logger.Printf("[cleaner] "+format, v...)
}

// CleanAPIData normalizes a batch of API-sourced records: nested
// substructures are flattened into scalar columns, column names are
// standardized, rows are tagged with source and capture timestamp,
// duplicates by id are dropped (first occurrence wins), types are coerced
// and missing values filled. An empty input yields an empty table.
func (c *Cleaner) CleanAPIData(products []domain.RawRecord) *domain.Table {
	c.logf("cleaning %d products from API", len(products))
	if len(products) == 0 {
		c.logf("no API products to clean")
		return domain.NewTable()
	}

	scrapedAt := c.now().Format(timeFormat)
	table := domain.NewTable()
	for i, rec := range products {
		if rec == nil {
			c.logf("skipping unparseable API record at index %d", i)
			continue
		}
		row := flattenAPIRecord(rec)
		if id, ok := toInt(row["id"]); ok {
			row["id"] = id
		} else {
			row["id"] = nil
		}
		row["data_source"] = domain.SourceAPI
		row["scraped_at"] = scrapedAt
		registerRowColumns(table, row)
		table.Append(row)
	}

	deduped := dedupByID(table, c.logger)
	coerceColumns(deduped)
	fillMissing(deduped)
	c.logf("API data cleaned: %d products", deduped.Len())
	return deduped
}

// CleanWebData normalizes a batch of crawl-sourced records. These carry no
// natural identifier, so one is synthesized deterministically from title and
// product URL before deduplication.
func (c *Cleaner) CleanWebData(products []domain.RawRecord) *domain.Table {
	c.logf("cleaning %d products from web crawl", len(products))
	if len(products) == 0 {
		c.logf("no web products to clean")
		return domain.NewTable()
	}

	scrapedAt := c.now().Format(timeFormat)
	table := domain.NewTable()
	for i, rec := range products {
		if rec == nil {
			c.logf("skipping unparseable web record at index %d", i)
			continue
		}
		row := make(domain.Row, len(rec)+3)
		for k, v := range rec {
			row[normalizeColumn(k)] = v
		}
		row["id"] = SynthesizeID(asString(row["title"]), asString(row["product_url"]))
		row["data_source"] = domain.SourceWeb
		row["scraped_at"] = scrapedAt
		registerRowColumns(table, row)
		table.Append(row)
	}

	deduped := dedupByID(table, c.logger)
	coerceColumns(deduped)
	fillMissing(deduped)
	c.logf("web data cleaned: %d products", deduped.Len())
	return deduped
}

// SynthesizeID derives a stable identifier for a record without a natural
// key. It is a pure function of title and product URL, so the same record
// gets the same id across runs and processes. The bounded range means
// collisions are possible; uniqueness is only enforced per (id, data_source)
// at dedup time.
func SynthesizeID(title, productURL string) int64 {
	h := fnv.New32a()
	h.Write([]byte(title))
	h.Write([]byte{'_'})
	h.Write([]byte(productURL))
	return int64(h.Sum32() % synthesizedIDRange)
}

// normalizeColumn standardizes a column name: lower-case, spaces to
// underscores.
func normalizeColumn(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// flattenAPIRecord flattens the nested substructures of an API record into
// scalar derived columns and drops the opaque meta block. Substructures of
// unexpected shape are treated as missing rather than failing the record.
func flattenAPIRecord(rec domain.RawRecord) domain.Row {
	row := make(domain.Row, len(rec)+4)
	for k, v := range rec {
		key := normalizeColumn(k)
		switch key {
		case "meta":
			// Opaque source metadata, discarded.
		case "dimensions":
			dims, ok := v.(map[string]any)
			if !ok {
				continue
			}
			for dk, dv := range dims {
				row["dimension_"+normalizeColumn(dk)] = dv
			}
		case "reviews":
			reviews, ok := v.([]any)
			if !ok {
				row["avg_review_rating"] = nil
				row["num_reviews"] = int64(0)
				continue
			}
			row["avg_review_rating"] = averageReviewRating(reviews)
			row["num_reviews"] = int64(len(reviews))
		case "images":
			images, ok := v.([]any)
			if !ok || len(images) == 0 {
				row["main_image"] = nil
				row["num_images"] = int64(0)
				continue
			}
			row["main_image"] = asString(images[0])
			row["num_images"] = int64(len(images))
		default:
			row[key] = v
		}
	}
	return row
}

// averageReviewRating returns the mean review rating, or nil when the
// record has no usable reviews (flowing into the missing-value policy).
func averageReviewRating(reviews []any) any {
	if len(reviews) == 0 {
		return nil
	}
	var sum float64
	var n int
	for _, r := range reviews {
		review, ok := r.(map[string]any)
		if !ok {
			continue
		}
		if rating, ok := toFloat(review["rating"]); ok {
			sum += rating
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return sum / float64(n)
}

// registerRowColumns registers the row's keys as table columns. New keys are
// added in sorted order so column order is deterministic regardless of map
// iteration.
func registerRowColumns(t *domain.Table, row domain.Row) {
	keys := make([]string, 0, len(row))
	for k := range row {
		if !t.HasColumn(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.AddColumn(k)
	}
}

// rowKey is the dedup key within one normalized table. A missing id forms
// its own bucket, so at most one id-less row survives.
type rowKey struct {
	id      int64
	missing bool
}

func keyForRow(row domain.Row) rowKey {
	if id, ok := toInt(row["id"]); ok {
		return rowKey{id: id}
	}
	return rowKey{missing: true}
}

// dedupByID keeps the first occurrence of each id, preserving input order.
func dedupByID(t *domain.Table, logger Logger) *domain.Table {
	out := domain.NewTable(t.Columns()...)
	seen := make(map[rowKey]struct{}, t.Len())
	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		key := keyForRow(row)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Append(row)
	}
	if removed := t.Len() - out.Len(); removed > 0 && logger != nil {
		logger.Printf("[cleaner] removed %d duplicate products", removed)
	}
	return out
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
