// Package index persists extraction summaries into a SQLite database so
// a directory of images can be scanned once and queried later.
package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agentic-research/genmeta/api"
)

// Writer batches summary inserts inside a transaction, committing every
// batchSize rows. Safe for concurrent use.
type Writer struct {
	db        *sql.DB
	tx        *sql.Tx
	stmt      *sql.Stmt
	batchSize int
	count     int
	mu        sync.Mutex
}

// NewWriter opens (or creates) the index database and initializes its
// schema.
func NewWriter(dbPath string) (*Writer, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Bulk-insert tuning.
	if _, err := db.Exec("PRAGMA synchronous = OFF"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode = MEMORY"); err != nil {
		_ = db.Close()
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS summaries (
		fingerprint TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		model TEXT NOT NULL,
		sampler TEXT NOT NULL,
		extracted_at INTEGER NOT NULL,
		summary JSON NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_summaries_model ON summaries(model);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	w := &Writer{db: db, batchSize: 500}
	if err := w.beginTx(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) beginTx() error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO summaries
		(fingerprint, path, model, sampler, extracted_at, summary)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	w.tx = tx
	w.stmt = stmt
	return nil
}

// Add stores one summary. Re-adding a fingerprint replaces its row.
func (w *Writer) Add(fingerprint, path string, s api.Summary) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	blob, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if _, err := w.stmt.Exec(fingerprint, path, s.Model, s.Sampler, time.Now().Unix(), blob); err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	w.count++
	if w.count%w.batchSize == 0 {
		if err := w.commitLocked(); err != nil {
			return err
		}
		return w.beginTx()
	}
	return nil
}

func (w *Writer) commitLocked() error {
	_ = w.stmt.Close()
	if err := w.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close flushes the open batch and closes the database.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.commitLocked(); err != nil {
		_ = w.db.Close()
		return err
	}
	return w.db.Close()
}

// Record is one indexed summary.
type Record struct {
	Fingerprint string
	Path        string
	ExtractedAt time.Time
	Summary     api.Summary
}

// Load reads every record from an index database, ordered by path.
func Load(dbPath string) ([]Record, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.Query(`SELECT fingerprint, path, extracted_at, summary FROM summaries ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var r Record
		var ts int64
		var blob []byte
		if err := rows.Scan(&r.Fingerprint, &r.Path, &ts, &blob); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(blob, &r.Summary); err != nil {
			return nil, fmt.Errorf("unmarshal summary for %s: %w", r.Path, err)
		}
		r.ExtractedAt = time.Unix(ts, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}
