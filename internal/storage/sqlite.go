package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// StateDB records which bundles earlier runs emitted.
type StateDB struct {
	db *sql.DB
}

// Emitted is one bundle written by a run.
type Emitted struct {
	Slug      string    `json:"slug"`
	TitleKey  string    `json:"title_key"`
	Title     string    `json:"title"`
	Year      int       `json:"year"`
	Source    string    `json:"source"`
	RunID     string    `json:"run_id"`
	EmittedAt time.Time `json:"emitted_at"`
}

// Run summarizes one invocation.
type Run struct {
	ID         string    `json:"id"`
	Mode       string    `json:"mode"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Written    int       `json:"written"`
}

// OpenStateDB opens or creates the state database at path.
func OpenStateDB(path string) (*StateDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &StateDB{db: db}, nil
}

// Close closes the database connection.
func (s *StateDB) Close() error {
	return s.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS emitted (
			slug TEXT PRIMARY KEY,
			title_key TEXT NOT NULL,
			title TEXT NOT NULL,
			year INTEGER NOT NULL,
			source TEXT NOT NULL,
			run_id TEXT NOT NULL,
			emitted_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_emitted_title_key ON emitted(title_key);

		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER,
			written INTEGER NOT NULL DEFAULT 0
		);
	`
	_, err := db.Exec(schema)
	return err
}

// BeginRun records the start of a run.
func (s *StateDB) BeginRun(id, mode string, at time.Time) error {
	_, err := s.db.Exec(`INSERT INTO runs (id, mode, started_at) VALUES (?, ?, ?)`, id, mode, at.Unix())
	if err != nil {
		return fmt.Errorf("recording run start: %w", err)
	}
	return nil
}

// FinishRun records the end of a run and how many bundles it wrote.
func (s *StateDB) FinishRun(id string, written int, at time.Time) error {
	_, err := s.db.Exec(`UPDATE runs SET finished_at = ?, written = ? WHERE id = ?`, at.Unix(), written, id)
	if err != nil {
		return fmt.Errorf("recording run end: %w", err)
	}
	return nil
}

// RecordEmitted upserts emitted bundles in one transaction.
func (s *StateDB) RecordEmitted(items []Emitted) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO emitted (slug, title_key, title, year, source, run_id, emitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title_key = excluded.title_key,
			title = excluded.title,
			year = excluded.year,
			source = excluded.source,
			run_id = excluded.run_id,
			emitted_at = excluded.emitted_at
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range items {
		if _, err := stmt.Exec(e.Slug, e.TitleKey, e.Title, e.Year, e.Source, e.RunID, e.EmittedAt.Unix()); err != nil {
			return fmt.Errorf("recording %s: %w", e.Slug, err)
		}
	}
	return tx.Commit()
}

// TitleKeys returns every distinct emitted title key.
func (s *StateDB) TitleKeys() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT title_key FROM emitted ORDER BY title_key`)
	if err != nil {
		return nil, fmt.Errorf("querying title keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning title key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// ListEmitted returns emitted bundles, newest year first. A limit of 0
// returns all.
func (s *StateDB) ListEmitted(limit int) ([]Emitted, error) {
	query := `SELECT slug, title_key, title, year, source, run_id, emitted_at
		FROM emitted ORDER BY year DESC, slug`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying emitted: %w", err)
	}
	defer rows.Close()

	var out []Emitted
	for rows.Next() {
		var e Emitted
		var at int64
		if err := rows.Scan(&e.Slug, &e.TitleKey, &e.Title, &e.Year, &e.Source, &e.RunID, &at); err != nil {
			return nil, fmt.Errorf("scanning emitted: %w", err)
		}
		e.EmittedAt = time.Unix(at, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Runs returns recorded runs, most recent first.
func (s *StateDB) Runs(limit int) ([]Run, error) {
	query := `SELECT id, mode, started_at, finished_at, written FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started int64
		var finished sql.NullInt64
		if err := rows.Scan(&r.ID, &r.Mode, &started, &finished, &r.Written); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt = time.Unix(started, 0).UTC()
		if finished.Valid {
			r.FinishedAt = time.Unix(finished.Int64, 0).UTC()
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
