// Package renderer defines the boundary to the external export-rendering
// service that turns a deck's HTML into a downloadable artifact.
package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/deckforge/deckforge/internal/domain"
)

// Format is an export target
type Format string

const (
	FormatPPTX Format = "pptx"
	FormatPDF  Format = "pdf"
)

// ValidFormat reports whether f is a supported export format
func ValidFormat(f Format) bool {
	return f == FormatPPTX || f == FormatPDF
}

// Renderer converts a deck into an export artifact
type Renderer interface {
	Render(ctx context.Context, deck *domain.SlideDeck, format Format) ([]byte, error)
}

// HTTPRenderer posts the deck to a rendering service endpoint
type HTTPRenderer struct {
	endpoint string
	client   *http.Client
}

// NewHTTPRenderer creates a renderer talking to the given endpoint
func NewHTTPRenderer(endpoint string, timeout time.Duration) *HTTPRenderer {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &HTTPRenderer{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type renderRequest struct {
	Deck   *domain.SlideDeck `json:"deck"`
	Format Format            `json:"format"`
}

// Render posts the deck and returns the rendered artifact bytes
func (r *HTTPRenderer) Render(ctx context.Context, deck *domain.SlideDeck, format Format) ([]byte, error) {
	if r.endpoint == "" {
		return nil, fmt.Errorf("%w: no rendering endpoint configured", domain.ErrExternalService)
	}

	body, err := json.Marshal(renderRequest{Deck: deck, Format: format})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal render request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", r.endpoint+"/render", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: renderer returned status %d", domain.ErrExternalService, resp.StatusCode)
	}

	artifact, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading artifact: %v", domain.ErrExternalService, err)
	}

	return artifact, nil
}
