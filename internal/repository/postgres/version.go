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

// VersionRepository implements domain.VersionRepository over an
// append-only versions table.
type VersionRepository struct {
	db *DB
}

// NewVersionRepository creates a new version repository
func NewVersionRepository(db *DB) *VersionRepository {
	return &VersionRepository{db: db}
}

// Create allocates max(version_number)+1 and inserts the snapshot inside
// a single transaction, so concurrent readers of List never observe a
// partial version set and numbers stay monotonic even after a restore.
func (r *VersionRepository) Create(ctx context.Context, sessionID uuid.UUID, deck *domain.SlideDeck, chat []domain.ChatMessage, description string) (*domain.Version, error) {
	deckJSON, err := json.Marshal(deck)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deck snapshot: %w", err)
	}
	chatJSON, err := json.Marshal(chat)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat snapshot: %w", err)
	}

	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var number int
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(version_number), 0) + 1
		FROM versions
		WHERE session_id = $1
	`, sessionID).Scan(&number)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate version number: %w", err)
	}

	now := time.Now()
	_, err = tx.Exec(ctx, `
		INSERT INTO versions (session_id, version_number, description, deck_json, chat_json, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, sessionID, number, description, deckJSON, chatJSON, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit version: %w", err)
	}

	return &domain.Version{
		SessionID:     sessionID,
		VersionNumber: number,
		Description:   description,
		Deck:          deck,
		ChatHistory:   chat,
		CreatedAt:     now,
	}, nil
}

func (r *VersionRepository) List(ctx context.Context, sessionID uuid.UUID) ([]domain.VersionSummary, error) {
	query := `
		SELECT version_number, description, deck_json, created_at
		FROM versions
		WHERE session_id = $1
		ORDER BY version_number ASC
	`
	rows, err := r.db.Pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	var summaries []domain.VersionSummary
	for rows.Next() {
		var s domain.VersionSummary
		var deckJSON []byte
		if err := rows.Scan(&s.VersionNumber, &s.Description, &deckJSON, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		var deck domain.SlideDeck
		if err := json.Unmarshal(deckJSON, &deck); err != nil {
			return nil, fmt.Errorf("failed to unmarshal deck snapshot: %w", err)
		}
		s.SlideCount = deck.SlideCount
		summaries = append(summaries, s)
	}
	return summaries, nil
}

func (r *VersionRepository) GetByNumber(ctx context.Context, sessionID uuid.UUID, number int) (*domain.Version, error) {
	query := `
		SELECT session_id, version_number, description, deck_json, chat_json, created_at
		FROM versions
		WHERE session_id = $1 AND version_number = $2
	`
	var v domain.Version
	var deckJSON, chatJSON []byte
	err := r.db.Pool.QueryRow(ctx, query, sessionID, number).Scan(
		&v.SessionID,
		&v.VersionNumber,
		&v.Description,
		&deckJSON,
		&chatJSON,
		&v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get version: %w", err)
	}

	v.Deck = &domain.SlideDeck{}
	if err := json.Unmarshal(deckJSON, v.Deck); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deck snapshot: %w", err)
	}
	if err := json.Unmarshal(chatJSON, &v.ChatHistory); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat snapshot: %w", err)
	}
	return &v, nil
}

// RestoreSnapshot copies a version's deck and transcript into live
// state and points current_version at it, all in one transaction. A
// failure part way through rolls back, so live state is never a mix of
// the snapshot and what preceded it.
func (r *VersionRepository) RestoreSnapshot(ctx context.Context, version *domain.Version) error {
	deckJSON, err := json.Marshal(version.Deck)
	if err != nil {
		return fmt.Errorf("failed to marshal deck snapshot: %w", err)
	}

	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO slide_decks (session_id, deck_json, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (session_id) DO UPDATE SET deck_json = $2, updated_at = NOW()
	`, version.SessionID, deckJSON)
	if err != nil {
		return fmt.Errorf("failed to restore deck: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM messages WHERE session_id = $1`, version.SessionID); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	for _, m := range version.ChatHistory {
		_, err := tx.Exec(ctx, `
			INSERT INTO messages (id, session_id, role, content, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, m.ID, version.SessionID, m.Role, m.Content, m.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to restore message: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE sessions
		SET current_version = $2, updated_at = NOW()
		WHERE id = $1
	`, version.SessionID, version.VersionNumber)
	if err != nil {
		return fmt.Errorf("failed to set current version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit restore: %w", err)
	}
	return nil
}

func (r *VersionRepository) DeleteBySession(ctx context.Context, sessionID uuid.UUID) error {
	query := `DELETE FROM versions WHERE session_id = $1`
	_, err := r.db.Pool.Exec(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete versions: %w", err)
	}
	return nil
}
