package handler

import (
	"encoding/json"
	"net/http"

	"github.com/deckforge/deckforge/internal/api/middleware"
	"github.com/deckforge/deckforge/internal/api/response"
	"github.com/deckforge/deckforge/internal/domain"
	"github.com/deckforge/deckforge/internal/service"
	"github.com/google/uuid"
)

// PermissionHandler handles sharing endpoints
type PermissionHandler struct {
	sessionRepo domain.SessionRepository
	resolver    *service.PermissionResolver
}

// NewPermissionHandler creates a new permission handler
func NewPermissionHandler(sessionRepo domain.SessionRepository, resolver *service.PermissionResolver) *PermissionHandler {
	return &PermissionHandler{sessionRepo: sessionRepo, resolver: resolver}
}

func (h *PermissionHandler) session(w http.ResponseWriter, r *http.Request) (*domain.Session, bool) {
	sessionID, _ := middleware.GetSessionID(r.Context())

	sess, err := h.sessionRepo.Get(r.Context(), sessionID)
	if err != nil {
		response.InternalError(w, "failed to load session")
		return nil, false
	}
	if sess == nil {
		response.NotFound(w, domain.ErrNotFound.Error())
		return nil, false
	}
	return sess, true
}

type grantInput struct {
	PrincipalType domain.PrincipalType   `json:"principal_type" validate:"required,oneof=user group"`
	PrincipalID   uuid.UUID              `json:"principal_id" validate:"required"`
	Permission    domain.PermissionLevel `json:"permission" validate:"required,oneof=read edit"`
}

// Grant adds or replaces a permission entry
func (h *PermissionHandler) Grant(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var input grantInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		if errors, ok := validationMessages(err); ok {
			response.BadRequest(w, errors)
			return
		}
		response.BadRequest(w, err.Error())
		return
	}

	err := h.resolver.Grant(r.Context(), userID, sess, input.PrincipalType, input.PrincipalID, input.Permission)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, map[string]any{
		"principal_type": input.PrincipalType,
		"principal_id":   input.PrincipalID,
		"permission":     input.Permission,
	})
}

// Revoke removes a permission entry
func (h *PermissionHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var input struct {
		PrincipalType domain.PrincipalType `json:"principal_type" validate:"required,oneof=user group"`
		PrincipalID   uuid.UUID            `json:"principal_id" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, "principal_type and principal_id are required")
		return
	}

	err := h.resolver.Revoke(r.Context(), userID, sess, input.PrincipalType, input.PrincipalID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}

// List returns the session's permission entries
func (h *PermissionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	perms, err := h.resolver.List(r.Context(), userID, sess)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, map[string]any{
		"permissions": perms,
		"count":       len(perms),
	})
}
