package domain

import (
	"context"

	"github.com/google/uuid"
)

// Slide is one positional slide in a deck snapshot. SlideID is derived
// from the index and regenerated on every merge; it is not a stable
// identity across edits.
type Slide struct {
	Index       int    `json:"index"`
	SlideID     string `json:"slide_id"`
	HTML        string `json:"html"`
	Scripts     string `json:"scripts,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
}

// SlideDeck is the ordered slide sequence plus deck-level assets.
// Slide indices are always dense 0..N-1 and SlideCount == len(Slides).
type SlideDeck struct {
	Slides     []Slide  `json:"slides"`
	CSS        string   `json:"css,omitempty"`
	Scripts    string   `json:"scripts,omitempty"`
	ScriptURLs []string `json:"script_urls,omitempty"`
	SlideCount int      `json:"slide_count"`
}

// ReplacementInfo describes one contiguous slide-range replacement. It is
// produced by the generation service and consumed exactly once by the
// replacement engine.
type ReplacementInfo struct {
	StartIndex         int      `json:"start_index"`
	OriginalCount      int      `json:"original_count"`
	ReplacementSlides  []string `json:"replacement_slides"`
	ReplacementScripts string   `json:"replacement_scripts,omitempty"`
}

// DeckRepository stores the single live deck row per session
type DeckRepository interface {
	GetLive(ctx context.Context, sessionID uuid.UUID) (*SlideDeck, error)
	SaveLive(ctx context.Context, sessionID uuid.UUID, deck *SlideDeck) error
	Delete(ctx context.Context, sessionID uuid.UUID) error
}
