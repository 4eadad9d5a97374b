package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/HansBhatia/genderscan/internal/model"
)

// dbFileName is the SQLite file created inside the archive directory.
const dbFileName = "genderscan.db"

// DB provides SQLite-based storage for run history.
type DB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures DB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging. Recommended: the history
	// command can read while a run is writing.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the archive database under dir.
// With CreateIfNotExists unset, a missing database is an error instead;
// the history command uses that so it never creates an empty archive
// just to report nothing.
func Open(dir string, opts Options) (*DB, error) {
	dbPath := filepath.Join(dir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("archive not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check archive path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	// SQLite supports one writer; a single pooled connection avoids
	// SQLITE_BUSY churn during record inserts.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	adb := &DB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := adb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return adb, nil
}

// Close closes the database connection.
func (adb *DB) Close() error {
	return adb.db.Close()
}

// createTables creates the schema if it doesn't exist.
func (adb *DB) createTables() error {
	schema := `
	-- One row per finished run
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		input_total INTEGER NOT NULL,
		attempted INTEGER NOT NULL,
		processed INTEGER NOT NULL,
		male_found INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		batches INTEGER NOT NULL,
		elapsed_seconds REAL NOT NULL,
		drained INTEGER NOT NULL DEFAULT 0,
		summary_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- One row per record a run produced
	CREATE TABLE IF NOT EXISTS run_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		username TEXT NOT NULL,
		status TEXT NOT NULL,
		detail TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_username ON run_records(username);
	CREATE INDEX IF NOT EXISTS idx_records_run ON run_records(run_id);
	`

	_, err := adb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun archives one finished run and its records in a single
// transaction, so a half-saved run can never appear in history output.
func (adb *DB) SaveRun(ctx context.Context, summary *model.RunSummary, records []model.RunRecord) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to serialize run summary: %w", err)
	}

	tx, err := adb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin archive transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (id, started_at, finished_at, input_total, attempted, processed,
		male_found, errors, batches, elapsed_seconds, drained, summary_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		summary.RunID,
		summary.StartedAt.UTC().Format(time.RFC3339Nano),
		summary.FinishedAt.UTC().Format(time.RFC3339Nano),
		summary.InputTotal,
		summary.Attempted,
		summary.Processed,
		summary.MaleFound,
		summary.Errors(),
		summary.Batches,
		summary.ElapsedSeconds,
		summary.Drained,
		string(summaryJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO run_records (run_id, username, status, detail, created_at)
	VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			summary.RunID,
			r.Username,
			string(r.Status),
			r.Detail,
			r.Timestamp.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("failed to insert record for %s: %w", r.Username, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit archive transaction: %w", err)
	}
	return nil
}

// RunMeta summarizes one archived run for listing without loading the
// full summary JSON.
type RunMeta struct {
	// RunID is the run's unique identifier.
	RunID string

	// StartedAt is when the run began.
	StartedAt time.Time

	// FinishedAt is when the run ended.
	FinishedAt time.Time

	// Attempted is how many usernames the run examined.
	Attempted int

	// MaleFound is how many accepted_male records the run produced.
	MaleFound int

	// Errors is how many retryable records the run produced.
	Errors int

	// ElapsedSeconds is the run's wall-clock duration.
	ElapsedSeconds float64

	// Drained is true when the run was stopped early at a batch
	// boundary.
	Drained bool
}

// ListRuns returns all archived runs, newest first.
func (adb *DB) ListRuns(ctx context.Context) ([]RunMeta, error) {
	rows, err := adb.db.QueryContext(ctx, `
	SELECT id, started_at, finished_at, attempted, male_found, errors, elapsed_seconds, drained
	FROM runs
	ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunMeta
	for rows.Next() {
		var meta RunMeta
		var startedAt, finishedAt string

		if err := rows.Scan(
			&meta.RunID,
			&startedAt,
			&finishedAt,
			&meta.Attempted,
			&meta.MaleFound,
			&meta.Errors,
			&meta.ElapsedSeconds,
			&meta.Drained,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		meta.StartedAt = parseTimestamp(startedAt)
		meta.FinishedAt = parseTimestamp(finishedAt)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetRun retrieves a full run summary by ID. Returns nil when the run is
// not archived.
func (adb *DB) GetRun(ctx context.Context, runID string) (*model.RunSummary, error) {
	var summaryJSON string
	err := adb.db.QueryRowContext(ctx,
		`SELECT summary_json FROM runs WHERE id = ?`, runID).Scan(&summaryJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var summary model.RunSummary
	if err := json.Unmarshal([]byte(summaryJSON), &summary); err != nil {
		return nil, fmt.Errorf("failed to parse run summary: %w", err)
	}
	return &summary, nil
}

// RecordMeta is one archived record in a username's history.
type RecordMeta struct {
	// RunID is the run that produced this record.
	RunID string

	// Username is the examined username.
	Username string

	// Status is the outcome.
	Status model.Status

	// Detail is the status detail, possibly empty.
	Detail string

	// CreatedAt is when the record was produced.
	CreatedAt time.Time
}

// UsernameHistory returns every archived record for a username, oldest
// first, across all runs.
func (adb *DB) UsernameHistory(ctx context.Context, username string) ([]RecordMeta, error) {
	rows, err := adb.db.QueryContext(ctx, `
	SELECT run_id, username, status, detail, created_at
	FROM run_records
	WHERE username = ?
	ORDER BY created_at ASC, id ASC
	`, username)
	if err != nil {
		return nil, fmt.Errorf("failed to query username history: %w", err)
	}
	defer rows.Close()

	var results []RecordMeta
	for rows.Next() {
		var meta RecordMeta
		var status, createdAt string
		var detail sql.NullString

		if err := rows.Scan(&meta.RunID, &meta.Username, &status, &detail, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		meta.Status = model.Status(status)
		meta.Detail = detail.String
		meta.CreatedAt = parseTimestamp(createdAt)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// Totals aggregates the whole archive.
type Totals struct {
	// Runs is the number of archived runs.
	Runs int

	// Records is the number of archived records.
	Records int

	// Males is the number of accepted_male records.
	Males int

	// ByStatus is the per-status record count.
	ByStatus map[model.Status]int
}

// GetTotals computes archive-wide counts.
func (adb *DB) GetTotals(ctx context.Context) (*Totals, error) {
	totals := &Totals{ByStatus: make(map[model.Status]int)}

	if err := adb.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM runs`).Scan(&totals.Runs); err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}

	rows, err := adb.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM run_records GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		totals.ByStatus[model.Status(status)] = count
		totals.Records += count
		if model.Status(status).Accepted() {
			totals.Males += count
		}
	}

	return totals, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may
// return. The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
