package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/deckforge/deckforge/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PermissionRepository implements domain.PermissionRepository
type PermissionRepository struct {
	db *DB
}

// NewPermissionRepository creates a new permission repository
func NewPermissionRepository(db *DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// Upsert inserts a grant, replacing any existing grant for the same
// principal: last grant wins.
func (r *PermissionRepository) Upsert(ctx context.Context, perm *domain.Permission) error {
	query := `
		INSERT INTO permissions (session_id, principal_type, principal_id, permission, granted_by, granted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, principal_type, principal_id)
		DO UPDATE SET permission = $4, granted_by = $5, granted_at = $6
	`
	_, err := r.db.Pool.Exec(ctx, query,
		perm.SessionID,
		perm.PrincipalType,
		perm.PrincipalID,
		perm.Permission,
		perm.GrantedBy,
		perm.GrantedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert permission: %w", err)
	}
	return nil
}

func (r *PermissionRepository) Get(ctx context.Context, sessionID uuid.UUID, principalType domain.PrincipalType, principalID uuid.UUID) (*domain.Permission, error) {
	query := `
		SELECT session_id, principal_type, principal_id, permission, granted_by, granted_at
		FROM permissions
		WHERE session_id = $1 AND principal_type = $2 AND principal_id = $3
	`
	var p domain.Permission
	err := r.db.Pool.QueryRow(ctx, query, sessionID, principalType, principalID).Scan(
		&p.SessionID,
		&p.PrincipalType,
		&p.PrincipalID,
		&p.Permission,
		&p.GrantedBy,
		&p.GrantedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get permission: %w", err)
	}
	return &p, nil
}

func (r *PermissionRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Permission, error) {
	query := `
		SELECT session_id, principal_type, principal_id, permission, granted_by, granted_at
		FROM permissions
		WHERE session_id = $1
		ORDER BY granted_at ASC
	`
	rows, err := r.db.Pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer rows.Close()

	var perms []domain.Permission
	for rows.Next() {
		var p domain.Permission
		if err := rows.Scan(
			&p.SessionID,
			&p.PrincipalType,
			&p.PrincipalID,
			&p.Permission,
			&p.GrantedBy,
			&p.GrantedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, nil
}

func (r *PermissionRepository) Delete(ctx context.Context, sessionID uuid.UUID, principalType domain.PrincipalType, principalID uuid.UUID) error {
	query := `
		DELETE FROM permissions
		WHERE session_id = $1 AND principal_type = $2 AND principal_id = $3
	`
	_, err := r.db.Pool.Exec(ctx, query, sessionID, principalType, principalID)
	if err != nil {
		return fmt.Errorf("failed to delete permission: %w", err)
	}
	return nil
}

func (r *PermissionRepository) DeleteBySession(ctx context.Context, sessionID uuid.UUID) error {
	query := `DELETE FROM permissions WHERE session_id = $1`
	_, err := r.db.Pool.Exec(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete permissions: %w", err)
	}
	return nil
}
