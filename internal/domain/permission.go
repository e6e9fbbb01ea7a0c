package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PrincipalType distinguishes user and group grants
type PrincipalType string

const (
	PrincipalUser  PrincipalType = "user"
	PrincipalGroup PrincipalType = "group"
)

// PermissionLevel is the access level of a grant. Edit implies read.
type PermissionLevel string

const (
	PermissionRead PermissionLevel = "read"
	PermissionEdit PermissionLevel = "edit"
)

// Permission is one grant on a session. At most one row exists per
// (session, principal_type, principal_id); re-granting replaces.
type Permission struct {
	SessionID     uuid.UUID       `json:"session_id"`
	PrincipalType PrincipalType   `json:"principal_type"`
	PrincipalID   uuid.UUID       `json:"principal_id"`
	Permission    PermissionLevel `json:"permission"`
	GrantedBy     uuid.UUID       `json:"granted_by"`
	GrantedAt     time.Time       `json:"granted_at"`
}

// PermissionRepository defines the interface for permission storage
type PermissionRepository interface {
	Upsert(ctx context.Context, perm *Permission) error
	Get(ctx context.Context, sessionID uuid.UUID, principalType PrincipalType, principalID uuid.UUID) (*Permission, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]Permission, error)
	Delete(ctx context.Context, sessionID uuid.UUID, principalType PrincipalType, principalID uuid.UUID) error
	DeleteBySession(ctx context.Context, sessionID uuid.UUID) error
}

// GroupDirectory is the external group-membership collaborator. Results
// are cached with a short TTL by the permission resolver, not here.
type GroupDirectory interface {
	IsMember(ctx context.Context, userID, groupID uuid.UUID) (bool, error)
}
