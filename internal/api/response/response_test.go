package response_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deckforge/deckforge/internal/api/response"
	"github.com/deckforge/deckforge/internal/domain"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("failed to get version: %w", domain.ErrNotFound), http.StatusNotFound},
		{"permission denied", domain.ErrPermissionDenied, http.StatusForbidden},
		{"session busy", domain.ErrSessionBusy, http.StatusConflict},
		{"invalid range", fmt.Errorf("%w: start index 9", domain.ErrInvalidRange), http.StatusBadRequest},
		{"external service", domain.ErrExternalService, http.StatusBadGateway},
		{"unknown error", errors.New("pool exhausted"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			response.FromError(rec, tt.err)

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}

			var resp response.Response
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Success {
				t.Error("expected success to be false")
			}
		})
	}
}

func TestFromError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	response.FromError(rec, errors.New("dial tcp 10.0.0.3:5432: connection refused"))

	var resp response.Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error != "internal server error" {
		t.Errorf("internal error details leaked: %v", resp.Error)
	}
}

func TestConflict_CarriesData(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Conflict(rec, map[string]string{"request_id": "01HV3"})

	if rec.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, rec.Code)
	}

	var resp response.Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Success {
		t.Error("expected success to be false")
	}
	data, ok := resp.Data.(map[string]any)
	if !ok || data["request_id"] != "01HV3" {
		t.Errorf("expected job data in conflict body, got %v", resp.Data)
	}
}
