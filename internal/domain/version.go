package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Version is an immutable save point: deck plus chat transcript as they
// stood after a committed edit. Version numbers are per session, start at
// 1, and are never reused or reordered.
type Version struct {
	SessionID     uuid.UUID     `json:"session_id"`
	VersionNumber int           `json:"version_number"`
	Description   string        `json:"description"`
	Deck          *SlideDeck    `json:"deck"`
	ChatHistory   []ChatMessage `json:"chat_history"`
	CreatedAt     time.Time     `json:"created_at"`
}

// VersionSummary is the listing shape: everything but the snapshots
type VersionSummary struct {
	VersionNumber int       `json:"version_number"`
	Description   string    `json:"description"`
	SlideCount    int       `json:"slide_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// VersionRepository is an append-only log of save points per session.
// Create allocates max(version_number)+1 atomically; readers of List see
// either the old or the new version set, never a partial one.
// RestoreSnapshot copies a version's deck and transcript into live state
// and marks it current in one transaction, leaving the log untouched.
type VersionRepository interface {
	Create(ctx context.Context, sessionID uuid.UUID, deck *SlideDeck, chat []ChatMessage, description string) (*Version, error)
	List(ctx context.Context, sessionID uuid.UUID) ([]VersionSummary, error)
	GetByNumber(ctx context.Context, sessionID uuid.UUID, number int) (*Version, error)
	RestoreSnapshot(ctx context.Context, version *Version) error
	DeleteBySession(ctx context.Context, sessionID uuid.UUID) error
}
