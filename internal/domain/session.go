package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Visibility controls non-owner access to a session
type Visibility string

const (
	VisibilityPrivate   Visibility = "private"
	VisibilityShared    Visibility = "shared"
	VisibilityWorkspace Visibility = "workspace"
)

// ValidVisibility reports whether v is a known visibility level
func ValidVisibility(v Visibility) bool {
	return v == VisibilityPrivate || v == VisibilityShared || v == VisibilityWorkspace
}

// Session represents one conversational deck-building thread
type Session struct {
	ID             uuid.UUID  `json:"id"`
	OwnerID        uuid.UUID  `json:"owner_id"`
	Title          *string    `json:"title"`
	Visibility     Visibility `json:"visibility"`
	Profile        string     `json:"profile,omitempty"`
	CurrentVersion int        `json:"current_version"`
	// Busy is transient: served from the lock registry, never persisted.
	Busy      bool      `json:"busy"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionCreate represents session creation data. The ID is optional so
// clients can generate it ahead of first persistence.
type SessionCreate struct {
	ID      *uuid.UUID `json:"id,omitempty"`
	Title   string     `json:"title" validate:"omitempty,max=255"`
	Profile string     `json:"profile" validate:"omitempty,max=64"`
}

// SessionRepository defines the interface for session storage
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Rename(ctx context.Context, id uuid.UUID, title string) error
	SetVisibility(ctx context.Context, id uuid.UUID, visibility Visibility) error
	SetCurrentVersion(ctx context.Context, id uuid.UUID, version int) error
	// ListAccessible returns sessions the user owns, has an explicit grant
	// on, or can read through workspace visibility.
	ListAccessible(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
