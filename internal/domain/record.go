package domain

import (
	"time"

	"github.com/google/uuid"
)

// RawRecord is a single untyped record as handed over by one fetch source.
// Keys and value types vary by source; the cleaner owns turning these into
// a consistent tabular shape.
type RawRecord map[string]any

// Source tags stamped into the data_source column of every normalized row.
const (
	SourceAPI = "DummyJSON_API"
	SourceWeb = "BooksToScrape_Web"
)

// PipelineRun captures one end-to-end execution of the extraction pipeline
// for persistence and auditing.
type PipelineRun struct {
	ID            uuid.UUID  `json:"id"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	Status        string     `json:"status"`
	APIProducts   int        `json:"api_products"`
	WebProducts   int        `json:"web_products"`
	TotalProducts int        `json:"total_products"`
	TotalColumns  int        `json:"total_columns"`
}

// NewPipelineRun starts a run record with a fresh identifier.
func NewPipelineRun(startedAt time.Time) PipelineRun {
	return PipelineRun{
		ID:        uuid.New(),
		StartedAt: startedAt,
		Status:    "running",
	}
}
