package handler

import (
	"net/http"
	"strconv"

	"github.com/deckforge/deckforge/internal/api/middleware"
	"github.com/deckforge/deckforge/internal/api/response"
	"github.com/deckforge/deckforge/internal/service"
	"github.com/go-chi/chi/v5"
)

// VersionHandler handles save-point endpoints
type VersionHandler struct {
	versions *service.VersionService
}

// NewVersionHandler creates a new version handler
func NewVersionHandler(versions *service.VersionService) *VersionHandler {
	return &VersionHandler{versions: versions}
}

func versionParam(r *http.Request) (int, bool) {
	number, err := strconv.Atoi(chi.URLParam(r, "versionNumber"))
	if err != nil || number < 1 {
		return 0, false
	}
	return number, true
}

// List returns version summaries plus the current version number
func (h *VersionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	sessionID, _ := middleware.GetSessionID(r.Context())

	summaries, current, err := h.versions.List(r.Context(), userID, sessionID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, map[string]any{
		"versions":        summaries,
		"current_version": current,
	})
}

// Preview returns a version snapshot without mutating live state
func (h *VersionHandler) Preview(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	sessionID, _ := middleware.GetSessionID(r.Context())

	number, ok := versionParam(r)
	if !ok {
		response.BadRequest(w, "invalid version number")
		return
	}

	version, err := h.versions.Preview(r.Context(), userID, sessionID, number)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, version)
}

// Restore overwrites live state with a version snapshot
func (h *VersionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	sessionID, _ := middleware.GetSessionID(r.Context())

	number, ok := versionParam(r)
	if !ok {
		response.BadRequest(w, "invalid version number")
		return
	}

	deck, err := h.versions.Restore(r.Context(), userID, sessionID, number)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, map[string]any{
		"restored_version": number,
		"deck":             deck,
	})
}
