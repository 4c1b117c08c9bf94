// Package store persists run summaries so past evaluations can be listed,
// compared, and served over the API.
package store

import (
	"context"
	"time"

	"github.com/stellarlinkco/extract-eval/internal/report"
)

// RunRecord is one evaluation run's summary plus its full report.
type RunRecord struct {
	ID          string
	CreatedAt   time.Time
	Dataset     string
	Model       string
	K           int
	Concurrency int
	Dry         bool
	Cached      bool
	TotalItems  int
	FailedItems int
	Summary     report.Summary
	Report      *report.Report
}

// RunWriter persists run records.
type RunWriter interface {
	SaveRun(ctx context.Context, run *RunRecord) error
}

// RunReader reads run records back.
type RunReader interface {
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]*RunRecord, error)
}

// Store combines persistence and retrieval of evaluation runs.
type Store interface {
	RunWriter
	RunReader
	Close() error
}
