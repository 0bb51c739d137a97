package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/store"
)

const defaultPath = "data/samples.db"

// Store keeps imported samples in a local SQLite file.
type Store struct {
	path string
	db   *sql.DB
}

// Open creates (if needed) and opens the SQLite database.
func Open(path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := ensureWAL(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	return &Store{path: path, db: db}, nil
}

func ensureWAL(db *sql.DB) error {
	const (
		maxAttempts = 5
		delay       = 200 * time.Millisecond
	)
	for i := 0; i < maxAttempts; i++ {
		if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			if strings.Contains(err.Error(), "database is locked") {
				time.Sleep(delay)
				continue
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("database is locked after retries")
}

// Path returns the path backing the store.
func (s *Store) Path() string {
	return s.path
}

// Close closes the DB.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS samples (
	id          TEXT PRIMARY KEY,
	prompt      TEXT NOT NULL,
	result      TEXT,
	valid       INTEGER NOT NULL,
	reason      TEXT NOT NULL,
	imported_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS sample_steps (
	sample_id  TEXT NOT NULL,
	step_index INTEGER NOT NULL,
	op         TEXT NOT NULL,
	params     TEXT NOT NULL,
	PRIMARY KEY (sample_id, step_index)
);
CREATE INDEX IF NOT EXISTS idx_sample_steps_op ON sample_steps(op);
`

// Migrate creates the sample tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return err
}

// ReplaceSamples swaps the whole sample set for samples in one transaction.
func (s *Store) ReplaceSamples(ctx context.Context, samples []store.Sample) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM sample_steps;`, `DELETE FROM samples;`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return 0, fmt.Errorf("clear samples: %w", err)
		}
	}

	insSample, err := tx.PrepareContext(ctx, `INSERT INTO samples (id, prompt, result, valid, reason, imported_at) VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return 0, err
	}
	defer insSample.Close()
	insStep, err := tx.PrepareContext(ctx, `INSERT INTO sample_steps (sample_id, step_index, op, params) VALUES (?,?,?,?)`)
	if err != nil {
		return 0, err
	}
	defer insStep.Close()

	for _, sm := range samples {
		var result any
		if len(sm.Result) > 0 {
			result = string(sm.Result)
		}
		ts := sm.ImportedAt.UTC().Format(time.RFC3339Nano)
		if _, err := insSample.ExecContext(ctx, sm.ID.String(), sm.Prompt, result, boolToInt(sm.Valid), sm.Reason, ts); err != nil {
			return 0, fmt.Errorf("insert sample: %w", err)
		}
		for _, st := range sm.Steps {
			if _, err := insStep.ExecContext(ctx, sm.ID.String(), st.Index, st.Op, string(st.Params)); err != nil {
				return 0, fmt.Errorf("insert step: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(samples), nil
}

// ListSamples returns the most recently imported samples without their steps.
func (s *Store) ListSamples(ctx context.Context, limit int) ([]store.Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, prompt, result, valid, reason, imported_at
		FROM samples
		ORDER BY imported_at DESC, prompt
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out []store.Sample
	for rows.Next() {
		var (
			id, prompt, reason, ts string
			result                 sql.NullString
			valid                  int
		)
		if err := rows.Scan(&id, &prompt, &result, &valid, &reason, &ts); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		sm := store.Sample{
			Prompt: prompt,
			Valid:  valid != 0,
			Reason: reason,
		}
		if sm.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse sample id: %w", err)
		}
		if result.Valid {
			sm.Result = []byte(result.String)
		}
		sm.ImportedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, sm)
	}
	return out, rows.Err()
}

// StepsForSample returns a sample's steps in index order.
func (s *Store) StepsForSample(ctx context.Context, id uuid.UUID) ([]store.StepRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT step_index, op, params
		FROM sample_steps
		WHERE sample_id = ?
		ORDER BY step_index ASC`, id.String())
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	var out []store.StepRow
	for rows.Next() {
		var st store.StepRow
		var params string
		if err := rows.Scan(&st.Index, &st.Op, &params); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		st.Params = []byte(params)
		out = append(out, st)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
