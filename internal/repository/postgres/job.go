package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/deckforge/deckforge/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// JobRepository implements domain.JobRepository. Status transitions are
// guarded in SQL so a terminal row can never move backward.
type JobRepository struct {
	db *DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(ctx context.Context, job *domain.GenerationJob) error {
	query := `
		INSERT INTO jobs (request_id, session_id, kind, status, result_json, error_message, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Pool.Exec(ctx, query,
		job.RequestID,
		job.SessionID,
		job.Kind,
		job.Status,
		[]byte(job.Result),
		job.ErrorMessage,
		job.CreatedAt,
		job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (r *JobRepository) Get(ctx context.Context, requestID string) (*domain.GenerationJob, error) {
	query := `
		SELECT request_id, session_id, kind, status, result_json, error_message, created_at, completed_at
		FROM jobs
		WHERE request_id = $1
	`
	var j domain.GenerationJob
	var result []byte
	err := r.db.Pool.QueryRow(ctx, query, requestID).Scan(
		&j.RequestID,
		&j.SessionID,
		&j.Kind,
		&j.Status,
		&result,
		&j.ErrorMessage,
		&j.CreatedAt,
		&j.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	j.Result = json.RawMessage(result)
	return &j, nil
}

func (r *JobRepository) MarkProcessing(ctx context.Context, requestID string) error {
	query := `
		UPDATE jobs
		SET status = 'processing'
		WHERE request_id = $1 AND status = 'pending'
	`
	_, err := r.db.Pool.Exec(ctx, query, requestID)
	if err != nil {
		return fmt.Errorf("failed to mark job processing: %w", err)
	}
	return nil
}

func (r *JobRepository) Complete(ctx context.Context, requestID string, result json.RawMessage) error {
	query := `
		UPDATE jobs
		SET status = 'completed', result_json = $2, completed_at = NOW()
		WHERE request_id = $1 AND status IN ('pending', 'processing')
	`
	_, err := r.db.Pool.Exec(ctx, query, requestID, []byte(result))
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	return nil
}

func (r *JobRepository) Fail(ctx context.Context, requestID string, message string) error {
	query := `
		UPDATE jobs
		SET status = 'failed', error_message = $2, completed_at = NOW()
		WHERE request_id = $1 AND status IN ('pending', 'processing')
	`
	_, err := r.db.Pool.Exec(ctx, query, requestID, message)
	if err != nil {
		return fmt.Errorf("failed to fail job: %w", err)
	}
	return nil
}

// FailStale terminates every non-terminal job. Called once at startup:
// a job left processing across a restart would otherwise be stuck forever.
func (r *JobRepository) FailStale(ctx context.Context, message string) (int64, error) {
	query := `
		UPDATE jobs
		SET status = 'failed', error_message = $1, completed_at = NOW()
		WHERE status IN ('pending', 'processing')
	`
	tag, err := r.db.Pool.Exec(ctx, query, message)
	if err != nil {
		return 0, fmt.Errorf("failed to fail stale jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *JobRepository) DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `
		DELETE FROM jobs
		WHERE status IN ('completed', 'failed') AND completed_at < $1
	`
	tag, err := r.db.Pool.Exec(ctx, query, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *JobRepository) DeleteBySession(ctx context.Context, sessionID uuid.UUID) error {
	query := `DELETE FROM jobs WHERE session_id = $1`
	_, err := r.db.Pool.Exec(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete jobs: %w", err)
	}
	return nil
}
