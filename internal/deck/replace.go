// Package deck implements the pure slide-range replacement engine: given
// a live deck and a replacement descriptor it produces the next deck
// without touching any store.
package deck

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/deckforge/deckforge/internal/domain"
)

// ContentHash returns the sha256 hex digest of a slide's HTML. It keys
// the verification cache so unchanged slides skip re-verification.
func ContentHash(html string) string {
	sum := sha256.Sum256([]byte(html))
	return hex.EncodeToString(sum[:])
}

// SlideID derives the positional slide id for an index. Slide identity is
// positional, regenerated on every merge.
func SlideID(index int) string {
	return fmt.Sprintf("slide-%d", index+1)
}

// IsContiguous reports whether the indices form an unbroken run when
// sorted. Empty and single-element sets are trivially contiguous.
func IsContiguous(indices []int) bool {
	if len(indices) <= 1 {
		return true
	}
	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Ints(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1]+1 {
			return false
		}
	}
	return true
}

// ReplacementFromIndices converts an explicit index list, as returned by
// the generation service, into a start/count descriptor. Non-contiguous
// index sets are rejected before any merge happens.
func ReplacementFromIndices(indices []int, slides []string, scripts string) (*domain.ReplacementInfo, error) {
	if !IsContiguous(indices) {
		return nil, fmt.Errorf("%w: replacement indices are not contiguous", domain.ErrInvalidRange)
	}
	start := 0
	if len(indices) > 0 {
		start = indices[0]
		for _, idx := range indices {
			if idx < start {
				start = idx
			}
		}
	}
	return &domain.ReplacementInfo{
		StartIndex:         start,
		OriginalCount:      len(indices),
		ReplacementSlides:  slides,
		ReplacementScripts: scripts,
	}, nil
}

// Delta reports the net slide-count change of a merge. Display only; it
// carries no invariant weight.
type Delta struct {
	NetChange int    `json:"net_change"`
	Summary   string `json:"summary"`
}

func describe(net int) string {
	switch {
	case net > 1:
		return fmt.Sprintf("+%d slides", net)
	case net == 1:
		return "+1 slide"
	case net == 0:
		return "no net change"
	case net == -1:
		return "-1 slide"
	default:
		return fmt.Sprintf("%d slides", net)
	}
}

// ApplyReplacement splices the replacement slides into the deck at
// StartIndex, removing OriginalCount existing slides, then renumbers
// every slide and regenerates ids and content hashes. The input deck is
// never mutated. Replacement scripts are appended to the deck scripts,
// never substituted: scripts are additive across edits.
func ApplyReplacement(d *domain.SlideDeck, info *domain.ReplacementInfo) (*domain.SlideDeck, Delta, error) {
	if info.StartIndex < 0 || info.OriginalCount < 0 {
		return nil, Delta{}, fmt.Errorf("%w: start=%d original=%d", domain.ErrInvalidRange, info.StartIndex, info.OriginalCount)
	}
	if info.StartIndex > len(d.Slides) {
		return nil, Delta{}, fmt.Errorf("%w: start index %d beyond deck of %d slides", domain.ErrInvalidRange, info.StartIndex, len(d.Slides))
	}
	if info.StartIndex+info.OriginalCount > len(d.Slides) {
		return nil, Delta{}, fmt.Errorf("%w: range [%d,%d) beyond deck of %d slides",
			domain.ErrInvalidRange, info.StartIndex, info.StartIndex+info.OriginalCount, len(d.Slides))
	}

	next := make([]domain.Slide, 0, len(d.Slides)-info.OriginalCount+len(info.ReplacementSlides))
	next = append(next, d.Slides[:info.StartIndex]...)
	for _, html := range info.ReplacementSlides {
		next = append(next, domain.Slide{HTML: html})
	}
	next = append(next, d.Slides[info.StartIndex+info.OriginalCount:]...)

	for i := range next {
		next[i].Index = i
		next[i].SlideID = SlideID(i)
		next[i].ContentHash = ContentHash(next[i].HTML)
	}

	scripts := d.Scripts
	if info.ReplacementScripts != "" {
		if scripts != "" {
			scripts += "\n\n" + info.ReplacementScripts
		} else {
			scripts = info.ReplacementScripts
		}
	}

	urls := make([]string, len(d.ScriptURLs))
	copy(urls, d.ScriptURLs)

	result := &domain.SlideDeck{
		Slides:     next,
		CSS:        d.CSS,
		Scripts:    scripts,
		ScriptURLs: urls,
		SlideCount: len(next),
	}

	net := len(info.ReplacementSlides) - info.OriginalCount
	return result, Delta{NetChange: net, Summary: describe(net)}, nil
}
