package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/departures-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS capture_runs (
	id          TEXT PRIMARY KEY,
	captured_at TEXT NOT NULL,
	source_url  TEXT NOT NULL,
	flights     INTEGER NOT NULL,
	on_time     INTEGER NOT NULL,
	delayed     INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS capture_flights (
	run_id             TEXT NOT NULL REFERENCES capture_runs(id) ON DELETE CASCADE,
	position           INTEGER NOT NULL,
	airline            TEXT NOT NULL,
	origin_destination TEXT NOT NULL,
	date_status        TEXT NOT NULL,
	sch                TEXT NOT NULL,
	actual_time        TEXT NOT NULL,
	flight_status      TEXT NOT NULL,
	terminal           TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_capture_runs_created_at ON capture_runs(created_at);
CREATE INDEX IF NOT EXISTS idx_capture_flights_status ON capture_flights(flight_status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RecordRun(ctx context.Context, sourceURL string, batch model.CaptureBatch, skipped int) (*Run, error) {
	onTime, delayed := model.StatusCounts(batch.Flights)
	run := &Run{
		ID:         uuid.New().String(),
		CapturedAt: batch.Timestamp,
		SourceURL:  sourceURL,
		Flights:    len(batch.Flights),
		OnTime:     onTime,
		Delayed:    delayed,
		Skipped:    skipped,
		CreatedAt:  time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO capture_runs (id, captured_at, source_url, flights, on_time, delayed, skipped, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CapturedAt, run.SourceURL, run.Flights, run.OnTime, run.Delayed, run.Skipped, run.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO capture_flights
		 (run_id, position, airline, origin_destination, date_status, sch, actual_time, flight_status, terminal)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: prepare flight insert")
	}
	defer stmt.Close() //nolint:errcheck

	for i, f := range batch.Flights {
		if _, err := stmt.ExecContext(ctx,
			run.ID, i, f.Airline, f.OriginDestination, f.DateStatus, f.SCH, f.ActualTime, string(f.FlightStatus), f.Terminal,
		); err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert flight %d", i)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit run")
	}
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, captured_at, source_url, flights, on_time, delayed, skipped, created_at
		FROM capture_runs ORDER BY created_at DESC, captured_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.CapturedAt, &r.SourceURL, &r.Flights, &r.OnTime, &r.Delayed, &r.Skipped, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func (s *SQLiteStore) RunFlights(ctx context.Context, runID string) ([]model.FlightRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT airline, origin_destination, date_status, sch, actual_time, flight_status, terminal
		 FROM capture_flights WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: run flights %s", runID)
	}
	defer rows.Close() //nolint:errcheck

	var flights []model.FlightRecord
	for rows.Next() {
		var f model.FlightRecord
		var status string
		if err := rows.Scan(&f.Airline, &f.OriginDestination, &f.DateStatus, &f.SCH, &f.ActualTime, &status, &f.Terminal); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan flight")
		}
		f.FlightStatus = model.FlightStatus(status)
		flights = append(flights, f)
	}
	return flights, eris.Wrap(rows.Err(), "sqlite: iterate flights")
}
