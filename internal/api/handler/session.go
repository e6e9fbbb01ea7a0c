package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/deckforge/deckforge/internal/api/middleware"
	"github.com/deckforge/deckforge/internal/api/response"
	"github.com/deckforge/deckforge/internal/domain"
	"github.com/deckforge/deckforge/internal/service"
)

// SessionHandler handles session lifecycle endpoints
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Create handles session creation
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.SessionCreate
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

	sess, err := h.sessions.Create(r.Context(), userID, &input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, sess)
}

// List returns sessions accessible to the caller
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	sessions, err := h.sessions.List(r.Context(), userID, limit, offset)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, map[string]any{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// Get returns one session with its transient busy flag
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	sessionID, _ := middleware.GetSessionID(r.Context())

	sess, err := h.sessions.Get(r.Context(), userID, sessionID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, sess)
}

// Rename updates the session title
func (h *SessionHandler) Rename(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	sessionID, _ := middleware.GetSessionID(r.Context())

	var input struct {
		Title string `json:"title" validate:"required,max=255"`
	}
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

	if err := h.sessions.Rename(r.Context(), userID, sessionID, input.Title); err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, map[string]string{"title": input.Title})
}

// SetVisibility changes session visibility
func (h *SessionHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	sessionID, _ := middleware.GetSessionID(r.Context())

	var input struct {
		Visibility domain.Visibility `json:"visibility" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if !domain.ValidVisibility(input.Visibility) {
		response.BadRequest(w, "visibility must be private, shared, or workspace")
		return
	}

	if err := h.sessions.SetVisibility(r.Context(), userID, sessionID, input.Visibility); err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, map[string]any{"visibility": input.Visibility})
}

// Delete removes a session and all dependent state
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	sessionID, _ := middleware.GetSessionID(r.Context())

	if err := h.sessions.Delete(r.Context(), userID, sessionID); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}

// GetDeck returns the live deck
func (h *SessionHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	sessionID, _ := middleware.GetSessionID(r.Context())

	deck, err := h.sessions.GetDeck(r.Context(), userID, sessionID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, deck)
}

// GetTranscript returns the chat history
func (h *SessionHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	sessionID, _ := middleware.GetSessionID(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, err := h.sessions.GetTranscript(r.Context(), userID, sessionID, limit)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, map[string]any{
		"messages": messages,
		"count":    len(messages),
	})
}
