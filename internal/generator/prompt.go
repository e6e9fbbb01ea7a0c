package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/deckforge/deckforge/internal/domain"
)

// Envelope is the JSON payload a provider's model must emit: the slides
// being produced plus the contiguous range of existing slides they
// replace.
type Envelope struct {
	StartIndex    int      `json:"start_index"`
	OriginalCount int      `json:"original_count"`
	Slides        []string `json:"slides"`
	Scripts       string   `json:"scripts,omitempty"`
	CSS           string   `json:"css,omitempty"`
	ScriptURLs    []string `json:"script_urls,omitempty"`
	Note          string   `json:"note,omitempty"`
}

// BuildPrompt creates the generation prompt for an edit turn
func BuildPrompt(req Request) string {
	var b strings.Builder

	b.WriteString(`You are an expert slide deck author. You edit HTML slide decks through conversation.

Rules:
1. Respond with ONLY a JSON object, no explanations outside it
2. The JSON shape is: {"start_index": int, "original_count": int, "slides": ["<section>...</section>", ...], "scripts": "", "css": "", "note": ""}
3. start_index and original_count describe the contiguous run of existing slides your slides replace
4. original_count 0 means insertion before start_index; an empty slides list means deletion
5. Each slide is one self-contained <section> HTML fragment
6. Put deck-wide styling in css only when generating a fresh deck
7. note is one short sentence describing what you changed
`)

	if req.Profile != "" {
		fmt.Fprintf(&b, "\nDeck profile: %s\n", req.Profile)
	}

	if req.Deck != nil && len(req.Deck.Slides) > 0 {
		b.WriteString("\nCurrent deck:\n")
		for _, s := range req.Deck.Slides {
			fmt.Fprintf(&b, "--- slide %d (%s) ---\n%s\n", s.Index, s.SlideID, s.HTML)
		}
	} else {
		b.WriteString("\nThe deck is empty; generate a complete new deck starting at index 0.\n")
	}

	if len(req.Transcript) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, m := range req.Transcript {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
	}

	fmt.Fprintf(&b, "\nInstruction: %s\n\nJSON:", req.Prompt)
	return b.String()
}

// ParseEnvelope extracts the JSON envelope from raw model output and
// validates it against the current deck size.
func ParseEnvelope(content string, deckSize int) (*Envelope, error) {
	raw := extractJSON(content)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object in model output", domain.ErrExternalService)
	}

	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("%w: malformed envelope: %v", domain.ErrExternalService, err)
	}

	if env.StartIndex < 0 || env.OriginalCount < 0 || env.StartIndex+env.OriginalCount > deckSize {
		return nil, fmt.Errorf("%w: envelope range [%d,%d) against deck of %d slides",
			domain.ErrInvalidRange, env.StartIndex, env.StartIndex+env.OriginalCount, deckSize)
	}

	return &env, nil
}

// Replacement converts the envelope into the descriptor the replacement
// engine consumes.
func (e *Envelope) Replacement() *domain.ReplacementInfo {
	return &domain.ReplacementInfo{
		StartIndex:         e.StartIndex,
		OriginalCount:      e.OriginalCount,
		ReplacementSlides:  e.Slides,
		ReplacementScripts: e.Scripts,
	}
}

// extractJSON pulls a JSON object out of model output, preferring fenced
// code blocks over bare braces.
func extractJSON(content string) string {
	for _, fence := range []string{"```json", "```"} {
		if start := strings.Index(content, fence); start != -1 {
			rest := content[start+len(fence):]
			if end := strings.Index(rest, "```"); end != -1 {
				candidate := strings.TrimSpace(rest[:end])
				if strings.HasPrefix(candidate, "{") {
					return candidate
				}
			}
		}
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return strings.TrimSpace(content[start : end+1])
}
