package service

import (
	"context"
	"fmt"

	"github.com/deckforge/deckforge/internal/domain"
	"github.com/deckforge/deckforge/internal/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// VersionService manages save points: listing, previewing, and restoring.
// New versions are only ever created by the job coordinator while it
// holds the session lock.
type VersionService struct {
	sessionRepo domain.SessionRepository
	versionRepo domain.VersionRepository
	resolver    *PermissionResolver
	locks       *session.Locks
}

// NewVersionService creates a new version service
func NewVersionService(
	sessionRepo domain.SessionRepository,
	versionRepo domain.VersionRepository,
	resolver *PermissionResolver,
	locks *session.Locks,
) *VersionService {
	return &VersionService{
		sessionRepo: sessionRepo,
		versionRepo: versionRepo,
		resolver:    resolver,
		locks:       locks,
	}
}

// List returns version summaries for a readable session, newest first,
// along with the session's current version number.
func (s *VersionService) List(ctx context.Context, userID, sessionID uuid.UUID) ([]domain.VersionSummary, int, error) {
	sess, err := s.authorize(ctx, userID, sessionID, domain.PermissionRead)
	if err != nil {
		return nil, 0, err
	}

	summaries, err := s.versionRepo.List(ctx, sessionID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list versions: %w", err)
	}
	return summaries, sess.CurrentVersion, nil
}

// Preview returns a version's full snapshot without touching live state
func (s *VersionService) Preview(ctx context.Context, userID, sessionID uuid.UUID, number int) (*domain.Version, error) {
	if _, err := s.authorize(ctx, userID, sessionID, domain.PermissionRead); err != nil {
		return nil, err
	}

	version, err := s.versionRepo.GetByNumber(ctx, sessionID, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get version: %w", err)
	}
	if version == nil {
		return nil, domain.ErrNotFound
	}
	return version, nil
}

// Restore overwrites the live deck and transcript with version number's
// snapshot and marks it current, in one transaction. The version log
// itself is untouched, so restoring never loses later versions.
// Requires edit access and the session lock.
func (s *VersionService) Restore(ctx context.Context, userID, sessionID uuid.UUID, number int) (*domain.SlideDeck, error) {
	if _, err := s.authorize(ctx, userID, sessionID, domain.PermissionEdit); err != nil {
		return nil, err
	}

	version, err := s.versionRepo.GetByNumber(ctx, sessionID, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get version: %w", err)
	}
	if version == nil {
		return nil, domain.ErrNotFound
	}

	if !s.locks.TryAcquire(sessionID) {
		return nil, domain.ErrSessionBusy
	}
	defer s.locks.Release(sessionID)

	if err := s.versionRepo.RestoreSnapshot(ctx, version); err != nil {
		return nil, fmt.Errorf("failed to restore snapshot: %w", err)
	}

	log.Info().
		Str("session_id", sessionID.String()).
		Int("version", number).
		Msg("session restored to save point")

	return version.Deck, nil
}

func (s *VersionService) authorize(ctx context.Context, userID, sessionID uuid.UUID, need domain.PermissionLevel) (*domain.Session, error) {
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
