// Package generator defines the boundary to the external slide-generation
// engine. Providers turn a conversational edit instruction plus the
// current deck into slide HTML and a replacement descriptor; everything
// about how they do that is opaque to the core.
package generator

import (
	"context"

	"github.com/deckforge/deckforge/internal/domain"
)

// Request contains slide-generation parameters
type Request struct {
	Prompt     string
	Deck       *domain.SlideDeck
	Transcript []domain.ChatMessage
	Profile    string
}

// Response contains the generation result. Replacement is consumed
// exactly once by the replacement engine.
type Response struct {
	Replacement *domain.ReplacementInfo
	CSS         string
	ScriptURLs  []string
	// Note is the assistant's conversational reply, recorded in the
	// session transcript.
	Note       string
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Provider defines the interface for generation providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// AvailableModels returns list of supported models
	AvailableModels() []string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// GenerateSlides produces slide HTML and a replacement descriptor
	// from a conversational instruction.
	GenerateSlides(ctx context.Context, req Request, model string) (*Response, error)
}

// Verifier is the judge-style scoring collaborator. Scores are cached by
// content hash so unchanged slides are never re-verified.
type Verifier interface {
	Score(ctx context.Context, html string) (float64, error)
}

// NopVerifier scores every slide as passing. Used when no verification
// service is deployed.
type NopVerifier struct{}

func (NopVerifier) Score(ctx context.Context, html string) (float64, error) {
	return 1.0, nil
}
