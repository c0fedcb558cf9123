// Package titles implements title normalization and similarity scoring
// for matching scraped release posts against tracked games.
package titles

import (
	"regexp"
	"strings"
)

var (
	bracketRe     = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)|\{[^}]*\}`)
	trademarkRe   = regexp.MustCompile("[™®©]")
	sceneSuffixRe = regexp.MustCompile(`-([A-Za-z0-9_]+)$`)
	allCapsRe     = regexp.MustCompile(`^[A-Z0-9_]+$`)

	// Version-shaped tokens carry no identity and are stripped from the
	// comparison string. A bare trailing number is kept: it may be a
	// sequel number ("Borderlands 2").
	versionTokenRe = regexp.MustCompile(`(?i)\bv\.?\d+(?:\.\d+)*[a-z]?\b|\b\d+(?:\.\d+){1,}[a-z]?\b|\bbuild[ ._]?\d+\b|\b\d{4}-\d{2}-\d{2}\b|\b\d{8}\b`)

	editionPhraseRe = regexp.MustCompile(`(?i)\b(?:deluxe|definitive|complete|ultimate|enhanced|premium|gold|anniversary|collector'?s|standard|special|extended|game of the year|goty)\s+edition\b`)
	noiseWordRe     = regexp.MustCompile(`(?i)\b(?:repack|proper|crackfix|cracked?|internal|uncensored|preinstalled|pre-installed|portable|goty|multi\s?\d+|update|patch|hotfix|dlcs?|incl|free download|torrent|director'?s cut)\b`)

	numberWords = map[string]string{
		"one": "1", "two": "2", "three": "3", "four": "4", "five": "5",
		"six": "6", "seven": "7", "eight": "8", "nine": "9", "ten": "10",
	}
	romanNumerals = map[string]string{
		"i": "1", "ii": "2", "iii": "3", "iv": "4", "v": "5",
		"vi": "6", "vii": "7", "viii": "8", "ix": "9", "x": "10",
	}

	punctRe = regexp.MustCompile(`[^a-z0-9&\s]`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// Normalize reduces a raw listing title to a canonical comparison string.
// It is pure, deterministic, and idempotent.
func Normalize(raw string) string {
	s := trademarkRe.ReplaceAllString(raw, "")
	s = bracketRe.ReplaceAllString(s, " ")
	s = stripSceneSuffix(s)

	s = strings.ToLower(s)
	s = versionTokenRe.ReplaceAllString(s, " ")
	s = editionPhraseRe.ReplaceAllString(s, " ")
	s = noiseWordRe.ReplaceAllString(s, " ")

	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ReplaceAll(s, "'s", "s")
	s = strings.NewReplacer(":", " ", "-", " ", "_", " ", "–", " ", "—", " ").Replace(s)
	s = punctRe.ReplaceAllString(s, " ")

	words := strings.Fields(s)
	for i, w := range words {
		if d, ok := numberWords[w]; ok {
			words[i] = d
		}
	}
	// Roman numerals convert only in trailing position, where they mark
	// a sequel; "I Am Alive" must keep its pronoun.
	if n := len(words); n > 0 {
		if d, ok := romanNumerals[words[n-1]]; ok {
			words[n-1] = d
		}
	}

	return spaceRe.ReplaceAllString(strings.TrimSpace(strings.Join(words, " ")), " ")
}

// stripSceneSuffix removes a trailing "-GROUP" release tag. Only
// all-caps tokens or known groups are treated as tags, so hyphenated
// titles like "Spider-Man" survive.
func stripSceneSuffix(s string) string {
	m := sceneSuffixRe.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	tag := m[1]
	if IsSceneGroup(tag) || (len(tag) >= 2 && allCapsRe.MatchString(tag) && !isNumeric(tag)) {
		return strings.TrimSpace(s[:len(s)-len(m[0])])
	}
	return s
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
