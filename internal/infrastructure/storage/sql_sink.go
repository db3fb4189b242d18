package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"NewsAggregator/internal/ports"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const insertChunk = 500

const schema = `
CREATE TABLE IF NOT EXISTS report_lines (
	run_id   TEXT    NOT NULL,
	report   TEXT    NOT NULL,
	position INTEGER NOT NULL,
	line     TEXT    NOT NULL,
	PRIMARY KEY (run_id, report, position)
);
CREATE TABLE IF NOT EXISTS runs (
	run_id          TEXT PRIMARY KEY,
	read_count      INTEGER NOT NULL,
	unique_count    INTEGER NOT NULL,
	duplicate_count INTEGER NOT NULL,
	failed_batches  INTEGER NOT NULL,
	finished_at     TEXT    NOT NULL
);`

// RunRecord is the persisted outcome of one aggregation run.
type RunRecord struct {
	Read       int
	Unique     int
	Duplicates int
	Failed     int
	FinishedAt time.Time
}

// SQLSink persists reports as ordered rows keyed by run and report name.
type SQLSink struct {
	db    *sql.DB
	runID string
	sb    sq.StatementBuilderType
}

var _ ports.ReportSink = (*SQLSink)(nil)

// Open connects to the database and prepares the schema.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// Concurrent writers would otherwise hit SQLITE_BUSY; ":memory:" also
		// needs a single connection to keep one database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// NewSQLSink wires an open database; driver selects the placeholder format.
func NewSQLSink(db *sql.DB, driver, runID string) *SQLSink {
	var format sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		format = sq.Dollar
	}
	return &SQLSink{
		db:    db,
		runID: runID,
		sb:    sq.StatementBuilder.PlaceholderFormat(format),
	}
}

// Migrate creates the report tables when missing.
func (s *SQLSink) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate report schema: %w", err)
	}
	return nil
}

// WriteReport replaces all lines of the named report for the current run.
func (s *SQLSink) WriteReport(ctx context.Context, name string, lines []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin report tx: %w", err)
	}

	_, err = s.sb.Delete("report_lines").
		Where(sq.Eq{"run_id": s.runID, "report": name}).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("truncate report %s: %w", name, err)
	}

	for start := 0; start < len(lines); start += insertChunk {
		end := min(start+insertChunk, len(lines))
		insert := s.sb.Insert("report_lines").Columns("run_id", "report", "position", "line")
		for i := start; i < end; i++ {
			insert = insert.Values(s.runID, name, i, lines[i])
		}
		if _, err := insert.RunWith(tx).ExecContext(ctx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert report %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit report %s: %w", name, err)
	}
	return nil
}

// Lines returns the stored lines of a report in order.
func (s *SQLSink) Lines(ctx context.Context, name string) ([]string, error) {
	rows, err := s.sb.Select("line").
		From("report_lines").
		Where(sq.Eq{"run_id": s.runID, "report": name}).
		OrderBy("position").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query report %s: %w", name, err)
	}

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan line: %w", err)
		}
		lines = append(lines, line)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return lines, nil
}

// RecordRun stores the run totals, replacing an earlier record of the same run.
func (s *SQLSink) RecordRun(ctx context.Context, run RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}

	if _, err := s.sb.Delete("runs").Where(sq.Eq{"run_id": s.runID}).RunWith(tx).ExecContext(ctx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear run: %w", err)
	}

	_, err = s.sb.Insert("runs").
		Columns("run_id", "read_count", "unique_count", "duplicate_count", "failed_batches", "finished_at").
		Values(s.runID, run.Read, run.Unique, run.Duplicates, run.Failed, run.FinishedAt.UTC().Format(time.RFC3339)).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}
