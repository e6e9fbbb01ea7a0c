package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/deckforge/deckforge/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DeckRepository implements domain.DeckRepository. One live deck row per
// session, stored as JSON; version snapshots live in the versions table.
type DeckRepository struct {
	db *DB
}

// NewDeckRepository creates a new deck repository
func NewDeckRepository(db *DB) *DeckRepository {
	return &DeckRepository{db: db}
}

func (r *DeckRepository) GetLive(ctx context.Context, sessionID uuid.UUID) (*domain.SlideDeck, error) {
	query := `
		SELECT deck_json
		FROM slide_decks
		WHERE session_id = $1
	`
	var deckJSON []byte
	err := r.db.Pool.QueryRow(ctx, query, sessionID).Scan(&deckJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get live deck: %w", err)
	}

	var deck domain.SlideDeck
	if err := json.Unmarshal(deckJSON, &deck); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deck: %w", err)
	}
	return &deck, nil
}

func (r *DeckRepository) SaveLive(ctx context.Context, sessionID uuid.UUID, deck *domain.SlideDeck) error {
	deckJSON, err := json.Marshal(deck)
	if err != nil {
		return fmt.Errorf("failed to marshal deck: %w", err)
	}

	query := `
		INSERT INTO slide_decks (session_id, deck_json, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (session_id) DO UPDATE SET deck_json = $2, updated_at = NOW()
	`
	_, err = r.db.Pool.Exec(ctx, query, sessionID, deckJSON)
	if err != nil {
		return fmt.Errorf("failed to save live deck: %w", err)
	}
	return nil
}

func (r *DeckRepository) Delete(ctx context.Context, sessionID uuid.UUID) error {
	query := `DELETE FROM slide_decks WHERE session_id = $1`
	_, err := r.db.Pool.Exec(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete deck: %w", err)
	}
	return nil
}
