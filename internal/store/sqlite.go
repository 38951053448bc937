package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/goqe/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates the submissions table.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS submissions (
			workflow_id  TEXT PRIMARY KEY,
			filename     TEXT NOT NULL,
			file_kept    INTEGER NOT NULL DEFAULT 0,
			component    TEXT NOT NULL,
			step_count   INTEGER NOT NULL,
			state        TEXT NOT NULL,
			error        TEXT NOT NULL DEFAULT '',
			created_at   TEXT NOT NULL,
			completed_at TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at);
	`)
	return err
}

func (s *SQLiteStore) CreateSubmission(ctx context.Context, rec *model.SubmissionRecord) error {
	s.logger.Debug("sql", "op", "insert", "table", "submissions", "workflow_id", rec.WorkflowID)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (workflow_id, filename, file_kept, component, step_count, state, error, created_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		rec.WorkflowID, rec.Filename, boolToInt(rec.FileKept), rec.Component, rec.StepCount,
		string(rec.State), rec.Error, rec.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

func (s *SQLiteStore) GetSubmission(ctx context.Context, workflowID string) (*model.SubmissionRecord, error) {
	s.logger.Debug("sql", "op", "select", "table", "submissions", "workflow_id", workflowID)

	row := s.db.QueryRowContext(ctx,
		`SELECT workflow_id, filename, file_kept, component, step_count, state, error, created_at, completed_at
		 FROM submissions WHERE workflow_id = ?`, workflowID)

	rec, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

func (s *SQLiteStore) ListSubmissions(ctx context.Context, limit int) ([]*model.SubmissionRecord, error) {
	s.logger.Debug("sql", "op", "select", "table", "submissions", "limit", limit)

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT workflow_id, filename, file_kept, component, step_count, state, error, created_at, completed_at
		 FROM submissions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*model.SubmissionRecord
	for rows.Next() {
		rec, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *SQLiteStore) CompleteSubmission(ctx context.Context, workflowID string, state model.RunState, errText string) error {
	s.logger.Debug("sql", "op", "update", "table", "submissions",
		"workflow_id", workflowID, "state", state)

	if !model.RunStatePolling.CanTransitionTo(state) {
		return fmt.Errorf("cannot complete submission %s with non-terminal state %s", workflowID, state)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE submissions SET state = ?, error = ?, completed_at = ? WHERE workflow_id = ?`,
		string(state), errText, time.Now().UTC().Format(time.RFC3339Nano), workflowID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("submission %s not found", workflowID)
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (*model.SubmissionRecord, error) {
	var rec model.SubmissionRecord
	var state, createdAt string
	var fileKept int
	var completedAt sql.NullString

	err := row.Scan(&rec.WorkflowID, &rec.Filename, &fileKept, &rec.Component,
		&rec.StepCount, &state, &rec.Error, &createdAt, &completedAt)
	if err != nil {
		return nil, err
	}

	rec.FileKept = fileKept != 0
	rec.State = model.RunState(state)
	rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if completedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		rec.CompletedAt = &t
	}
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
