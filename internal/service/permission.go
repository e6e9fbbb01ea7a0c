package service

import (
	"context"
	"fmt"
	"time"

	"github.com/deckforge/deckforge/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// GroupMembershipCache caches directory answers with a short TTL. The
// redis GroupCache implements it; a nil cache disables caching.
type GroupMembershipCache interface {
	Get(ctx context.Context, userID, groupID uuid.UUID) (bool, bool)
	Set(ctx context.Context, userID, groupID uuid.UUID, isMember bool) error
}

// PermissionResolver decides whether a principal may read or edit a
// session. Resolution order: owner, explicit user grant, group grant,
// workspace visibility, denied.
type PermissionResolver struct {
	permRepo   domain.PermissionRepository
	directory  domain.GroupDirectory
	groupCache GroupMembershipCache
}

// NewPermissionResolver creates a new permission resolver
func NewPermissionResolver(
	permRepo domain.PermissionRepository,
	directory domain.GroupDirectory,
	groupCache GroupMembershipCache,
) *PermissionResolver {
	return &PermissionResolver{
		permRepo:   permRepo,
		directory:  directory,
		groupCache: groupCache,
	}
}

// CanRead reports whether the user may read the session
func (r *PermissionResolver) CanRead(ctx context.Context, userID uuid.UUID, sess *domain.Session) (bool, error) {
	return r.resolve(ctx, userID, sess, domain.PermissionRead)
}

// CanEdit reports whether the user may mutate the session
func (r *PermissionResolver) CanEdit(ctx context.Context, userID uuid.UUID, sess *domain.Session) (bool, error) {
	return r.resolve(ctx, userID, sess, domain.PermissionEdit)
}

func levelSatisfies(have, need domain.PermissionLevel) bool {
	// Edit implies read.
	return have == domain.PermissionEdit || need == domain.PermissionRead
}

func (r *PermissionResolver) resolve(ctx context.Context, userID uuid.UUID, sess *domain.Session, need domain.PermissionLevel) (bool, error) {
	// Owner access is never deniable.
	if sess.OwnerID == userID {
		return true, nil
	}

	// Explicit per-user grant.
	grant, err := r.permRepo.Get(ctx, sess.ID, domain.PrincipalUser, userID)
	if err != nil {
		return false, fmt.Errorf("failed to get user grant: %w", err)
	}
	if grant != nil && levelSatisfies(grant.Permission, need) {
		return true, nil
	}

	// Group grants, resolved through the external directory.
	if r.directory != nil {
		perms, err := r.permRepo.ListBySession(ctx, sess.ID)
		if err != nil {
			return false, fmt.Errorf("failed to list grants: %w", err)
		}
		for _, p := range perms {
			if p.PrincipalType != domain.PrincipalGroup || !levelSatisfies(p.Permission, need) {
				continue
			}
			member, err := r.isMember(ctx, userID, p.PrincipalID)
			if err != nil {
				return false, err
			}
			if member {
				return true, nil
			}
		}
	}

	// Workspace visibility grants read only, never edit.
	if sess.Visibility == domain.VisibilityWorkspace && need == domain.PermissionRead {
		return true, nil
	}

	return false, nil
}

func (r *PermissionResolver) isMember(ctx context.Context, userID, groupID uuid.UUID) (bool, error) {
	if r.groupCache != nil {
		if member, found := r.groupCache.Get(ctx, userID, groupID); found {
			return member, nil
		}
	}

	member, err := r.directory.IsMember(ctx, userID, groupID)
	if err != nil {
		return false, fmt.Errorf("group directory lookup failed: %w", err)
	}

	if r.groupCache != nil {
		if err := r.groupCache.Set(ctx, userID, groupID, member); err != nil {
			log.Warn().Err(err).Str("group_id", groupID.String()).Msg("failed to cache group membership")
		}
	}

	return member, nil
}

// Grant adds or replaces a permission entry. Owner only.
func (r *PermissionResolver) Grant(ctx context.Context, granter uuid.UUID, sess *domain.Session, pType domain.PrincipalType, principalID uuid.UUID, level domain.PermissionLevel) error {
	if sess.OwnerID != granter {
		return domain.ErrPermissionDenied
	}
	if pType != domain.PrincipalUser && pType != domain.PrincipalGroup {
		return fmt.Errorf("invalid principal type: %s", pType)
	}
	if level != domain.PermissionRead && level != domain.PermissionEdit {
		return fmt.Errorf("invalid permission level: %s", level)
	}

	return r.permRepo.Upsert(ctx, &domain.Permission{
		SessionID:     sess.ID,
		PrincipalType: pType,
		PrincipalID:   principalID,
		Permission:    level,
		GrantedBy:     granter,
		GrantedAt:     time.Now(),
	})
}

// Revoke removes a permission entry. Owner only.
func (r *PermissionResolver) Revoke(ctx context.Context, granter uuid.UUID, sess *domain.Session, pType domain.PrincipalType, principalID uuid.UUID) error {
	if sess.OwnerID != granter {
		return domain.ErrPermissionDenied
	}
	return r.permRepo.Delete(ctx, sess.ID, pType, principalID)
}

// List returns the session's permission entries. Owner only.
func (r *PermissionResolver) List(ctx context.Context, requester uuid.UUID, sess *domain.Session) ([]domain.Permission, error) {
	if sess.OwnerID != requester {
		return nil, domain.ErrPermissionDenied
	}
	return r.permRepo.ListBySession(ctx, sess.ID)
}
