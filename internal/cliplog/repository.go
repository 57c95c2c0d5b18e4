package cliplog

import (
	"context"
	"database/sql"
	"time"

	"github.com/playbridge/playbridge/internal/clip"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// RecordLaunch inserts the extraction in 'running' state.
func (r *Repository) RecordLaunch(ctx context.Context, job clip.Job) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO extractions (id, command, kind, source_path, start_s, duration_s, dest_path, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.Command, job.Kind, job.Source, job.Start, job.Duration, job.Dest, StatusRunning, now, now)
	return err
}

// RecordOutcome transitions the extraction to its terminal state.
func (r *Repository) RecordOutcome(ctx context.Context, jobID string, success bool, errMsg string) error {
	status := StatusDone
	if !success {
		status = StatusFailed
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE extractions SET status = ?, error = ?, updated_at = datetime('now') WHERE id = ?
	`, status, nullString(errMsg), jobID)
	return err
}

func (r *Repository) GetExtraction(ctx context.Context, id string) (*Extraction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, command, kind, source_path, start_s, duration_s, dest_path, status, error, created_at, updated_at
		FROM extractions WHERE id = ?
	`, id)

	var e Extraction
	var errMsg sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(&e.ID, &e.Command, &e.Kind, &e.SourcePath, &e.StartS, &e.DurationS, &e.DestPath, &e.Status, &errMsg, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.Error = errMsg.String
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &e, nil
}

func (r *Repository) ListExtractions(ctx context.Context, limit int) ([]*Extraction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, command, kind, source_path, start_s, duration_s, dest_path, status, error, created_at, updated_at
		FROM extractions ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var extractions []*Extraction
	for rows.Next() {
		var e Extraction
		var errMsg sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&e.ID, &e.Command, &e.Kind, &e.SourcePath, &e.StartS, &e.DurationS, &e.DestPath, &e.Status, &errMsg, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		e.Error = errMsg.String
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		extractions = append(extractions, &e)
	}
	return extractions, rows.Err()
}

func (r *Repository) CountExtractions(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM extractions").Scan(&count)
	return count, err
}

func (r *Repository) RecordScreenshot(ctx context.Context, s *Screenshot) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO screenshots (id, source_path, position_s, dest_path, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.ID, s.SourcePath, s.PositionS, s.DestPath, s.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

func (r *Repository) ListScreenshots(ctx context.Context, limit int) ([]*Screenshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source_path, position_s, dest_path, created_at
		FROM screenshots ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shots []*Screenshot
	for rows.Next() {
		var s Screenshot
		var createdAt string
		if err := rows.Scan(&s.ID, &s.SourcePath, &s.PositionS, &s.DestPath, &createdAt); err != nil {
			return nil, err
		}
		s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		shots = append(shots, &s)
	}
	return shots, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
