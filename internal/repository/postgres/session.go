package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/deckforge/deckforge/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SessionRepository implements domain.SessionRepository
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	query := `
		INSERT INTO sessions (id, owner_id, title, visibility, profile, current_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Pool.Exec(ctx, query,
		session.ID,
		session.OwnerID,
		session.Title,
		session.Visibility,
		session.Profile,
		session.CurrentVersion,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	query := `
		SELECT id, owner_id, title, visibility, profile, current_version, created_at, updated_at
		FROM sessions
		WHERE id = $1
	`
	var s domain.Session
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.OwnerID,
		&s.Title,
		&s.Visibility,
		&s.Profile,
		&s.CurrentVersion,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) Rename(ctx context.Context, id uuid.UUID, title string) error {
	query := `
		UPDATE sessions
		SET title = $1, updated_at = NOW()
		WHERE id = $2
	`
	_, err := r.db.Pool.Exec(ctx, query, title, id)
	if err != nil {
		return fmt.Errorf("failed to rename session: %w", err)
	}
	return nil
}

func (r *SessionRepository) SetVisibility(ctx context.Context, id uuid.UUID, visibility domain.Visibility) error {
	query := `
		UPDATE sessions
		SET visibility = $1, updated_at = NOW()
		WHERE id = $2
	`
	_, err := r.db.Pool.Exec(ctx, query, visibility, id)
	if err != nil {
		return fmt.Errorf("failed to set visibility: %w", err)
	}
	return nil
}

func (r *SessionRepository) SetCurrentVersion(ctx context.Context, id uuid.UUID, version int) error {
	query := `
		UPDATE sessions
		SET current_version = $1, updated_at = NOW()
		WHERE id = $2
	`
	_, err := r.db.Pool.Exec(ctx, query, version, id)
	if err != nil {
		return fmt.Errorf("failed to set current version: %w", err)
	}
	return nil
}

// ListAccessible returns sessions the user owns, has an explicit user
// grant on, or can read through workspace visibility. Group grants are
// resolved lazily at access time, not in listings (the group directory
// supports only forward lookups).
func (r *SessionRepository) ListAccessible(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Session, error) {
	query := `
		SELECT DISTINCT s.id, s.owner_id, s.title, s.visibility, s.profile, s.current_version, s.created_at, s.updated_at
		FROM sessions s
		LEFT JOIN permissions p
		  ON p.session_id = s.id AND p.principal_type = 'user' AND p.principal_id = $1
		WHERE s.owner_id = $1
		   OR p.principal_id IS NOT NULL
		   OR s.visibility = 'workspace'
		ORDER BY s.updated_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(
			&s.ID,
			&s.OwnerID,
			&s.Title,
			&s.Visibility,
			&s.Profile,
			&s.CurrentVersion,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM sessions WHERE id = $1`
	_, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
