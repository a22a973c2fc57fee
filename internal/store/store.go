package store

import (
	"context"
	"time"

	"github.com/sells-group/departures-cli/internal/model"
)

// Run is one recorded pipeline run.
type Run struct {
	ID         string    `json:"id"`
	CapturedAt string    `json:"captured_at"`
	SourceURL  string    `json:"source_url"`
	Flights    int       `json:"flights"`
	OnTime     int       `json:"on_time"`
	Delayed    int       `json:"delayed"`
	Skipped    int       `json:"skipped"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store keeps a history of capture runs alongside the file sinks.
type Store interface {
	// RecordRun stores the batch and its counts and returns the new run.
	RecordRun(ctx context.Context, sourceURL string, batch model.CaptureBatch, skipped int) (*Run, error)
	// ListRuns returns the most recent runs first. limit <= 0 means all.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	// RunFlights returns a run's flights in capture order.
	RunFlights(ctx context.Context, runID string) ([]model.FlightRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}
