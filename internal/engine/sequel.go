package engine

import (
	"strings"

	"gamewatch/internal/model"
	"gamewatch/internal/titles"
)

// Relation is a detected relationship between a tracked game and a
// moderately similar listing.
type Relation struct {
	Type       model.RelationType
	Confidence float64
}

// dlcKeywords mark downloadable content and expansions.
var dlcKeywords = []string{"dlc", "expansion", "season pass", "add-on", "addon"}

// remasterKeywords mark re-releases of the same game.
var remasterKeywords = []string{"remastered", "remaster", "definitive edition", "redux", "hd edition"}

// editionKeywords mark alternate editions.
var editionKeywords = []string{"deluxe", "game of the year", "goty", "complete edition", "ultimate edition", "gold edition"}

// DetectRelation classifies a medium-similarity non-match as a sequel,
// edition, DLC, or remaster of the base title. Returns nil when no
// relationship is recognizable.
func DetectRelation(baseTitle, candidateTitle string) *Relation {
	lower := strings.ToLower(candidateTitle)
	base := titles.Normalize(baseTitle)
	cand := titles.Normalize(candidateTitle)
	if base == "" || cand == "" || base == cand {
		return nil
	}

	// A trailing number or roman numeral over the base title is the
	// strongest signal: a different game in the same franchise.
	if titles.SequelLike(baseTitle, candidateTitle) {
		return &Relation{Type: model.RelationSequel, Confidence: 0.85}
	}

	for _, kw := range dlcKeywords {
		if strings.Contains(lower, kw) {
			return &Relation{Type: model.RelationDLC, Confidence: 0.8}
		}
	}
	for _, kw := range remasterKeywords {
		if strings.Contains(lower, kw) {
			return &Relation{Type: model.RelationRemaster, Confidence: 0.75}
		}
	}
	for _, kw := range editionKeywords {
		if strings.Contains(lower, kw) {
			return &Relation{Type: model.RelationEdition, Confidence: 0.7}
		}
	}

	// Colon subtitle over a matching prefix: "Base: Subtitle" names a
	// spin-off or follow-up.
	if idx := strings.IndexAny(candidateTitle, ":–—"); idx > 0 {
		prefix := candidateTitle[:idx]
		if titles.Similarity(baseTitle, prefix) >= 0.8 {
			return &Relation{Type: model.RelationSequel, Confidence: 0.6}
		}
	}

	// Base fully contained with extra words is still franchise-related.
	if strings.HasPrefix(cand, base+" ") {
		return &Relation{Type: model.RelationSequel, Confidence: 0.55}
	}
	return nil
}
