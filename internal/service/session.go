package service

import (
	"context"
	"fmt"
	"time"

	"github.com/deckforge/deckforge/internal/domain"
	"github.com/deckforge/deckforge/internal/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SessionService handles session lifecycle and access to the live deck
type SessionService struct {
	sessionRepo domain.SessionRepository
	deckRepo    domain.DeckRepository
	messageRepo domain.MessageRepository
	resolver    *PermissionResolver
	locks       *session.Locks
}

// NewSessionService creates a new session service
func NewSessionService(
	sessionRepo domain.SessionRepository,
	deckRepo domain.DeckRepository,
	messageRepo domain.MessageRepository,
	resolver *PermissionResolver,
	locks *session.Locks,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		deckRepo:    deckRepo,
		messageRepo: messageRepo,
		resolver:    resolver,
		locks:       locks,
	}
}

// Create starts a new session owned by ownerID. A client-supplied ID is
// honored when present so the caller can reference the session before
// the create round trip completes.
func (s *SessionService) Create(ctx context.Context, ownerID uuid.UUID, input *domain.SessionCreate) (*domain.Session, error) {
	id := uuid.New()
	if input.ID != nil {
		id = *input.ID
	}

	var title *string
	if input.Title != "" {
		title = &input.Title
	}

	now := time.Now()
	sess := &domain.Session{
		ID:         id,
		OwnerID:    ownerID,
		Title:      title,
		Visibility: domain.VisibilityPrivate,
		Profile:    input.Profile,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return sess, nil
}

// Get fetches a session the user can read. The Busy flag reflects the
// in-memory lock registry at call time.
func (s *SessionService) Get(ctx context.Context, userID, sessionID uuid.UUID) (*domain.Session, error) {
	sess, err := s.authorize(ctx, userID, sessionID, domain.PermissionRead)
	if err != nil {
		return nil, err
	}
	sess.Busy = s.locks.Busy(sessionID)
	return sess, nil
}

// List returns sessions accessible to the user, most recently updated first
func (s *SessionService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Session, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	sessions, err := s.sessionRepo.ListAccessible(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	for i := range sessions {
		sessions[i].Busy = s.locks.Busy(sessions[i].ID)
	}
	return sessions, nil
}

// Rename updates the session title. Requires edit access.
func (s *SessionService) Rename(ctx context.Context, userID, sessionID uuid.UUID, title string) error {
	if _, err := s.authorize(ctx, userID, sessionID, domain.PermissionEdit); err != nil {
		return err
	}
	if err := s.sessionRepo.Rename(ctx, sessionID, title); err != nil {
		return fmt.Errorf("failed to rename session: %w", err)
	}
	return nil
}

// SetVisibility changes who can see the session. Owner only.
func (s *SessionService) SetVisibility(ctx context.Context, userID, sessionID uuid.UUID, visibility domain.Visibility) error {
	sess, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if sess == nil {
		return domain.ErrNotFound
	}
	if sess.OwnerID != userID {
		return domain.ErrPermissionDenied
	}
	if !domain.ValidVisibility(visibility) {
		return fmt.Errorf("invalid visibility: %s", visibility)
	}

	if err := s.sessionRepo.SetVisibility(ctx, sessionID, visibility); err != nil {
		return fmt.Errorf("failed to set visibility: %w", err)
	}
	return nil
}

// Delete removes the session and everything hanging off it. Owner only.
// Dependent rows go with the session via cascading foreign keys.
func (s *SessionService) Delete(ctx context.Context, userID, sessionID uuid.UUID) error {
	sess, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if sess == nil {
		return domain.ErrNotFound
	}
	if sess.OwnerID != userID {
		return domain.ErrPermissionDenied
	}
	if s.locks.Busy(sessionID) {
		return domain.ErrSessionBusy
	}

	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.locks.Forget(sessionID)

	log.Info().Str("session_id", sessionID.String()).Msg("session deleted")
	return nil
}

// GetDeck returns the live deck for a readable session. Never-generated
// sessions yield an empty deck rather than an error.
func (s *SessionService) GetDeck(ctx context.Context, userID, sessionID uuid.UUID) (*domain.SlideDeck, error) {
	if _, err := s.authorize(ctx, userID, sessionID, domain.PermissionRead); err != nil {
		return nil, err
	}

	deck, err := s.deckRepo.GetLive(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get deck: %w", err)
	}
	if deck == nil {
		deck = &domain.SlideDeck{Slides: []domain.Slide{}}
	}
	return deck, nil
}

// GetTranscript returns the chat history for a readable session
func (s *SessionService) GetTranscript(ctx context.Context, userID, sessionID uuid.UUID, limit int) ([]domain.ChatMessage, error) {
	if _, err := s.authorize(ctx, userID, sessionID, domain.PermissionRead); err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// authorize fetches the session and checks the required access level
func (s *SessionService) authorize(ctx context.Context, userID, sessionID uuid.UUID, need domain.PermissionLevel) (*domain.Session, error) {
	sess, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if sess == nil {
		return nil, domain.ErrNotFound
	}

	var allowed bool
	if need == domain.PermissionEdit {
		allowed, err = s.resolver.CanEdit(ctx, userID, sess)
	} else {
		allowed, err = s.resolver.CanRead(ctx, userID, sess)
	}
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, domain.ErrPermissionDenied
	}
	return sess, nil
}
