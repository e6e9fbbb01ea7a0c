package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/deckforge/deckforge/internal/api/middleware"
	"github.com/deckforge/deckforge/internal/api/response"
	"github.com/deckforge/deckforge/internal/domain"
	"github.com/deckforge/deckforge/internal/service"
	"github.com/go-chi/chi/v5"
)

// JobHandler handles async job submission and polling
type JobHandler struct {
	coordinator *service.JobCoordinator
}

// NewJobHandler creates a new job handler
func NewJobHandler(coordinator *service.JobCoordinator) *JobHandler {
	return &JobHandler{coordinator: coordinator}
}

// SubmitEdit accepts a conversational edit and returns the job record.
// A busy session still yields the failed job record, under 409.
func (h *JobHandler) SubmitEdit(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	sessionID, _ := middleware.GetSessionID(r.Context())

	var input service.EditInput
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

	job, err := h.coordinator.SubmitEdit(r.Context(), userID, sessionID, &input)
	if err != nil {
		if errors.Is(err, domain.ErrSessionBusy) && job != nil {
			response.Conflict(w, job)
			return
		}
		response.FromError(w, err)
		return
	}

	response.Accepted(w, job)
}

// SubmitExport accepts an export request and returns the job record
func (h *JobHandler) SubmitExport(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	sessionID, _ := middleware.GetSessionID(r.Context())

	var input service.ExportInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if input.Format == "" {
		response.BadRequest(w, "format is required")
		return
	}

	job, err := h.coordinator.SubmitExport(r.Context(), userID, sessionID, &input)
	if err != nil {
		if errors.Is(err, domain.ErrSessionBusy) && job != nil {
			response.Conflict(w, job)
			return
		}
		response.FromError(w, err)
		return
	}

	response.Accepted(w, job)
}

// Poll returns the current state of a job
func (h *JobHandler) Poll(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")
	if requestID == "" {
		response.BadRequest(w, "missing request ID")
		return
	}

	job, err := h.coordinator.Poll(r.Context(), requestID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, job)
}
