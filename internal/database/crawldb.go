package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/jobharvest/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "jobharvest.db"

// Record kinds stored in the jobs table.
const (
	KindJob  = "job"
	KindStub = "stub"
)

// ErrUnsupportedRecord is returned for records that are neither postings
// nor URL stubs.
var ErrUnsupportedRecord = errors.New("unsupported record type")

// CrawlDB provides SQLite-based storage for the dataset and run state.
type CrawlDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer; crawl workers share one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

func (cdb *CrawlDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		kind TEXT NOT NULL,
		title TEXT,
		company TEXT,
		location TEXT,
		salary TEXT,
		scraped_at TEXT NOT NULL,
		record_json TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_kind ON jobs(kind);
	CREATE INDEX IF NOT EXISTS idx_jobs_scraped_at ON jobs(scraped_at);

	CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// RecordID returns the row ID of a posting URL: the hex SHA3-256 of the URL.
func RecordID(url string) string {
	sum := sha3.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// InsertRecord inserts or replaces a posting or URL stub. A stub never
// overwrites a full posting for the same URL.
func (cdb *CrawlDB) InsertRecord(ctx context.Context, record model.Record) error {
	var (
		kind                             string
		title, company, location, salary sql.NullString
		scrapedAt                        time.Time
	)

	switch r := record.(type) {
	case *model.JobPosting:
		kind = KindJob
		title, company = nullString(r.Title), nullString(r.Company)
		location, salary = nullString(r.Location), nullString(r.Salary)
		scrapedAt = r.ScrapedAt
	case *model.URLStub:
		kind = KindStub
		scrapedAt = r.ScrapedAt
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedRecord, record)
	}

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	query := `
	INSERT INTO jobs (id, url, kind, title, company, location, salary, scraped_at, record_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		kind = excluded.kind,
		title = excluded.title,
		company = excluded.company,
		location = excluded.location,
		salary = excluded.salary,
		scraped_at = excluded.scraped_at,
		record_json = excluded.record_json,
		updated_at = CURRENT_TIMESTAMP
	WHERE excluded.kind = 'job' OR jobs.kind = 'stub'
	`

	_, err = cdb.db.ExecContext(ctx, query,
		RecordID(record.RecordURL()),
		record.RecordURL(),
		kind,
		title,
		company,
		location,
		salary,
		scrapedAt.UTC().Format(time.RFC3339Nano),
		string(recordJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// ListJobs returns up to limit postings, most recently scraped first.
// A limit of zero or less returns every posting.
func (cdb *CrawlDB) ListJobs(ctx context.Context, limit int) ([]*model.JobPosting, error) {
	query := `SELECT record_json FROM jobs WHERE kind = ? ORDER BY scraped_at DESC`
	args := []any{KindJob}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.JobPosting
	for rows.Next() {
		var recordJSON string
		if err := rows.Scan(&recordJSON); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		var job model.JobPosting
		if err := json.Unmarshal([]byte(recordJSON), &job); err != nil {
			continue // Skip malformed rows
		}
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}

// RecordCounts holds the number of stored rows per kind.
type RecordCounts struct {
	Jobs  int64 `json:"jobs"`
	Stubs int64 `json:"stubs"`
}

// CountRecords returns how many postings and stubs are stored.
func (cdb *CrawlDB) CountRecords(ctx context.Context) (RecordCounts, error) {
	query := `
	SELECT
		COALESCE(SUM(CASE WHEN kind = 'job' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN kind = 'stub' THEN 1 ELSE 0 END), 0)
	FROM jobs
	`

	var counts RecordCounts
	if err := cdb.db.QueryRowContext(ctx, query).Scan(&counts.Jobs, &counts.Stubs); err != nil {
		return RecordCounts{}, fmt.Errorf("failed to count records: %w", err)
	}
	return counts, nil
}

// GetValue decodes the JSON value stored under key into v. It reports
// false when the key does not exist.
func (cdb *CrawlDB) GetValue(ctx context.Context, key string, v any) (bool, error) {
	var raw string
	err := cdb.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get value %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("failed to parse value %q: %w", key, err)
	}
	return true, nil
}

// SetValue stores v as JSON under key, replacing any previous value.
func (cdb *CrawlDB) SetValue(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize value %q: %w", key, err)
	}

	query := `
	INSERT INTO kv_store (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		updated_at = CURRENT_TIMESTAMP
	`
	if _, err := cdb.db.ExecContext(ctx, query, key, string(raw)); err != nil {
		return fmt.Errorf("failed to set value %q: %w", key, err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
