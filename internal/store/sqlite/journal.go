// Package sqlite records completed analysis cycles for operational
// inspection. The journal is write-only from the pipeline's point of
// view: nothing here is ever read back into the engine, which stays
// persistence-free.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"chartlens/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Journal appends one row per applied analysis cycle.
type Journal struct {
	db *sql.DB
}

// DB returns the underlying handle for health checks.
func (j *Journal) DB() *sql.DB { return j.db }

// New opens (or creates) the journal database with WAL mode and a
// single-writer connection pool.
func New(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[journal] opened database at %s", path)
	return &Journal{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_cycles (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol      TEXT    NOT NULL,
			generation  INTEGER NOT NULL,
			fetched_at  TEXT    NOT NULL,
			points      INTEGER NOT NULL,
			swing_count INTEGER NOT NULL,
			level_count INTEGER NOT NULL,
			trend_count INTEGER NOT NULL,
			levels      TEXT    NOT NULL,
			created_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);
		CREATE INDEX IF NOT EXISTS idx_cycles_symbol ON analysis_cycles(symbol, generation);
	`)
	return err
}

// Record appends one cycle. Level payloads are stored as JSON for ad
// hoc querying; failures are returned but callers treat them as
// non-fatal (the journal must never block a refresh).
func (j *Journal) Record(res *model.AnalysisResult) error {
	levelsJSON, err := json.Marshal(res.Levels)
	if err != nil {
		return fmt.Errorf("journal marshal levels: %w", err)
	}
	_, err = j.db.Exec(`
		INSERT INTO analysis_cycles
			(symbol, generation, fetched_at, points, swing_count, level_count, trend_count, levels)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.Symbol,
		res.Generation,
		res.FetchedAt.UTC().Format("2006-01-02T15:04:05Z"),
		len(res.Series),
		len(res.SwingHighs)+len(res.SwingLows),
		len(res.Levels),
		len(res.Trends),
		string(levelsJSON),
	)
	if err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}
	return nil
}

// Close flushes and closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
