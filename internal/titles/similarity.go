package titles

import "strings"

// Similarity scores how likely two raw titles name the same game, in
// [0,1]. It is symmetric. A containment match whose surplus looks like
// a sequel marker scores low on purpose: "Risk of Rain 2" is textually
// close to "Risk of Rain" but is a different game.
func Similarity(a, b string) float64 {
	na := Normalize(a)
	nb := Normalize(b)
	if na == "" || nb == "" {
		if na == nb {
			return 1.0
		}
		return 0.0
	}
	if na == nb {
		return 1.0
	}

	shorter, longer := na, nb
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	if surplus, ok := containmentSurplus(longer, shorter); ok {
		if isSequelSurplus(surplus) {
			return 0.3
		}
		return 0.85
	}

	return jaccard(na, nb)
}

// SequelLike reports whether one title contains the other with a
// sequel-marking surplus, the containment case Similarity scores 0.3.
func SequelLike(a, b string) bool {
	na := Normalize(a)
	nb := Normalize(b)
	if na == "" || nb == "" || na == nb {
		return false
	}
	shorter, longer := na, nb
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	surplus, ok := containmentSurplus(longer, shorter)
	return ok && isSequelSurplus(surplus)
}

// containmentSurplus reports whether shorter appears in longer as a run
// of whole tokens, returning the leftover tokens.
func containmentSurplus(longer, shorter string) ([]string, bool) {
	lt := strings.Fields(longer)
	st := strings.Fields(shorter)
	if len(st) == 0 || len(st) > len(lt) {
		return nil, false
	}
	for start := 0; start+len(st) <= len(lt); start++ {
		match := true
		for i, w := range st {
			if lt[start+i] != w {
				match = false
				break
			}
		}
		if match {
			surplus := append([]string{}, lt[:start]...)
			surplus = append(surplus, lt[start+len(st):]...)
			return surplus, true
		}
	}
	return nil, false
}

// isSequelSurplus reports whether leftover tokens mark a different game
// in the same franchise: a trailing number, a roman numeral, or a
// multi-word subtitle.
func isSequelSurplus(surplus []string) bool {
	if len(surplus) == 0 {
		return false
	}
	if len(surplus) >= 2 {
		return true
	}
	w := surplus[0]
	if isNumeric(w) {
		return true
	}
	if _, ok := romanNumerals[w]; ok {
		return true
	}
	return false
}

func jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}
	inter := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0.0
	}
	return float64(inter) / float64(union)
}

// tokenSet returns the distinct tokens of a normalized title, skipping
// single-character tokens.
func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		if len(w) > 1 {
			set[w] = struct{}{}
		}
	}
	return set
}
