package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sitemapgen/internal/model"
)

// dbFileName is the SQLite file created inside the data directory.
const dbFileName = "sitemapgen.db"

// HistoryDB stores completed crawl runs in a local SQLite file so that
// past sitemaps can be listed, re-printed and diffed.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures how the database file is opened.
type Options struct {
	// CreateIfNotExists creates the data directory and database file on
	// first use. Read-only commands set this to false so they fail
	// instead of leaving an empty database behind.
	CreateIfNotExists bool

	// EnableWAL switches the journal to write-ahead logging.
	EnableWAL bool
}

// DefaultOptions returns options suitable for saving runs: create on
// first use, WAL journaling.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens the run-history database inside dbDir, creating the
// directory, file and schema when opts allow it.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite takes the mode in the DSN: rw refuses to create
	// a missing file, rwc creates it.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; multiple readers gain little for
	// a history store this small.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close releases the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables applies the schema. Safe to call on every Open.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per completed crawl run.
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed_url TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL,
		url_count INTEGER NOT NULL,
		urls_json TEXT NOT NULL,
		stats_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_seed ON runs(seed_url);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a completed crawl run and returns its database ID.
func (hdb *HistoryDB) SaveRun(ctx context.Context, run *model.Run) (int64, error) {
	urlsJSON, err := json.Marshal(run.URLs)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize URL set: %w", err)
	}
	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize statistics: %w", err)
	}

	query := `
	INSERT INTO runs (seed_url, started_at, duration_ms, url_count, urls_json, stats_json)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := hdb.db.ExecContext(ctx, query,
		run.SeedURL,
		run.StartedAt.UTC().Format("2006-01-02 15:04:05"),
		run.Duration.Milliseconds(),
		len(run.URLs),
		string(urlsJSON),
		string(statsJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}

	return result.LastInsertId()
}

// GetRun retrieves a run by its database ID.
// Returns (nil, nil) when no run with that ID exists.
func (hdb *HistoryDB) GetRun(ctx context.Context, id int64) (*model.Run, error) {
	query := `
	SELECT id, seed_url, started_at, duration_ms, urls_json, stats_json
	FROM runs
	WHERE id = ?
	`

	run, err := hdb.scanRun(hdb.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

// LatestRun retrieves the most recent run for a seed URL.
// Returns (nil, nil) when the seed has no stored runs.
func (hdb *HistoryDB) LatestRun(ctx context.Context, seedURL string) (*model.Run, error) {
	query := `
	SELECT id, seed_url, started_at, duration_ms, urls_json, stats_json
	FROM runs
	WHERE seed_url = ?
	ORDER BY started_at DESC, id DESC
	LIMIT 1
	`

	run, err := hdb.scanRun(hdb.db.QueryRowContext(ctx, query, seedURL))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanRun.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun reads one run row into a model.Run.
func (hdb *HistoryDB) scanRun(row rowScanner) (*model.Run, error) {
	var run model.Run
	var startedAt string
	var durationMS int64
	var urlsJSON, statsJSON string

	if err := row.Scan(&run.ID, &run.SeedURL, &startedAt, &durationMS, &urlsJSON, &statsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.StartedAt = parseTimestamp(startedAt)
	run.Duration = time.Duration(durationMS) * time.Millisecond

	if err := json.Unmarshal([]byte(urlsJSON), &run.URLs); err != nil {
		return nil, fmt.Errorf("failed to parse URL set: %w", err)
	}
	if err := json.Unmarshal([]byte(statsJSON), &run.Stats); err != nil {
		return nil, fmt.Errorf("failed to parse statistics: %w", err)
	}

	return &run, nil
}

// RunMetadata contains summary information about a stored run.
// This is used for displaying run history without loading the URL set.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// SeedURL is the URL the crawl started from.
	SeedURL string

	// StartedAt is when the crawl began.
	StartedAt time.Time

	// Duration is how long the crawl took.
	Duration time.Duration

	// URLCount is the number of URLs the crawl collected.
	URLCount int
}

// ListRuns retrieves run metadata, newest first. An empty seedURL lists
// runs for every seed. This is more efficient than loading full runs when
// only the listing is needed.
func (hdb *HistoryDB) ListRuns(ctx context.Context, seedURL string) ([]RunMetadata, error) {
	query := `
	SELECT id, seed_url, started_at, duration_ms, url_count
	FROM runs
	`
	args := make([]any, 0, 1)
	if seedURL != "" {
		query += " WHERE seed_url = ?"
		args = append(args, seedURL)
	}
	query += " ORDER BY started_at DESC, id DESC"

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var startedAt string
		var durationMS int64

		if err := rows.Scan(&meta.ID, &meta.SeedURL, &startedAt, &durationMS, &meta.URLCount); err != nil {
			return nil, fmt.Errorf("failed to scan run metadata: %w", err)
		}

		meta.StartedAt = parseTimestamp(startedAt)
		meta.Duration = time.Duration(durationMS) * time.Millisecond
		results = append(results, meta)
	}

	return results, rows.Err()
}

// ListSeeds returns the distinct seed URLs that have stored runs.
func (hdb *HistoryDB) ListSeeds(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT seed_url FROM runs
	ORDER BY seed_url
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list seeds: %w", err)
	}
	defer rows.Close()

	var seeds []string
	for rows.Next() {
		var seed string
		if err := rows.Scan(&seed); err != nil {
			return nil, fmt.Errorf("failed to scan seed: %w", err)
		}
		seeds = append(seeds, seed)
	}

	return seeds, rows.Err()
}

// DeleteRun removes a stored run. Deleting a missing ID is not an error.
func (hdb *HistoryDB) DeleteRun(ctx context.Context, id int64) error {
	if _, err := hdb.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

// timestampFormats lists the layouts SQLite is known to hand back for
// DATETIME columns, most common first. We write the first layout ourselves
// but stay tolerant of databases written by other builds.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp tries each known layout and returns zero time when none
// matches rather than failing the whole row.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
