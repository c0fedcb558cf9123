// Package version extracts structured version signals from raw release
// titles and compares them under the release-priority hierarchy.
package version

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"gamewatch/internal/model"
	"gamewatch/internal/titles"
)

// Info is the structured signal extracted from one raw title. Version
// and Build are independently optional; both absent is a legal "no
// structured signal" result.
type Info struct {
	Version           string
	Build             string
	ReleaseType       model.ReleaseType
	UpdateType        model.UpdateType
	SceneGroup        string
	IsDateVersion     bool
	Confidence        float64
	NeedsConfirmation bool
}

// HasSignal reports whether the title carried any structured signal at
// all, as opposed to pure noise.
func (i Info) HasSignal() bool {
	return i.Version != "" || i.Build != "" ||
		i.ReleaseType != model.ReleaseNone || i.UpdateType != model.UpdateNone
}

// confirmationThreshold is the confidence below which a detection must
// be confirmed by a user before becoming canonical.
const confirmationThreshold = 0.7

// datePattern pairs a regex with the capture order of its date fields.
type datePattern struct {
	re    *regexp.Regexp
	order string // "ymd" or "dmy"
}

var datePatterns = []datePattern{
	{regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`), "ymd"},
	{regexp.MustCompile(`\b(\d{4})(\d{2})(\d{2})\b`), "ymd"},
	{regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})\.(\d{2})\b`), "dmy"},
}

// versionPatterns are tried in order; the first hit wins for the
// version family. Prefixed forms keep their "v" so the stored version
// matches what the post showed.
var versionPatterns = []struct {
	re     *regexp.Regexp
	prefix string
}{
	{regexp.MustCompile(`(?i)\bv\.?(\d+(?:\.\d+)*[a-z]?)\b`), "v"},
	{regexp.MustCompile(`(?i)\bversion[ :.]?(\d+(?:\.\d+)*[a-z]?)\b`), "v"},
	{regexp.MustCompile(`\b(\d+(?:\.\d+)+[a-z]?)\b`), ""},
}

// buildPatterns cover build/revision counters.
var buildPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bbuild[ ._#]?(\d{1,10})\b`),
	regexp.MustCompile(`(?i)\brev(?:ision)?[ ._]?(\d{1,8})\b`),
	regexp.MustCompile(`(?i)\bb(\d{5,10})\b`),
}

var sceneGroupRe = regexp.MustCompile(`-([A-Za-z0-9_]+)\s*$`)

// releaseTypeKeywords are checked in order; the first hit wins.
var releaseTypeKeywords = []struct {
	word string
	typ  model.ReleaseType
}{
	{"proper", model.ReleaseProper},
	{"crackfix", model.ReleaseCrackfix},
	{"repack", model.ReleaseRepack},
	{"internal", model.ReleaseInternal},
}

// updateTypeKeywords are checked in order; the first hit wins.
var updateTypeKeywords = []struct {
	word string
	typ  model.UpdateType
}{
	{"hotfix", model.UpdateHotfix},
	{"patch", model.UpdatePatch},
	{"update", model.UpdateUpdate},
	{"dlc", model.UpdateDLC},
}

// Extract parses a raw title into an Info. It never fails: a title with
// no recognizable signal yields a low-confidence, best-effort result.
func Extract(raw string) Info {
	var info Info
	lower := strings.ToLower(raw)

	if v, ok := extractDate(raw); ok {
		info.Version = v
		info.IsDateVersion = true
	}

	if info.Version == "" {
		for _, p := range versionPatterns {
			if m := p.re.FindStringSubmatch(raw); m != nil {
				info.Version = p.prefix + strings.ToLower(m[1])
				break
			}
		}
	}

	for _, re := range buildPatterns {
		if m := re.FindStringSubmatch(raw); m != nil {
			info.Build = m[1]
			break
		}
	}

	if m := sceneGroupRe.FindStringSubmatch(raw); m != nil {
		tag := m[1]
		if titles.IsSceneGroup(tag) || looksLikeGroup(tag) {
			info.SceneGroup = tag
		}
	}

	for _, kw := range releaseTypeKeywords {
		if containsWord(lower, kw.word) {
			info.ReleaseType = kw.typ
			break
		}
	}

	for _, kw := range updateTypeKeywords {
		if containsWord(lower, kw.word) {
			info.UpdateType = kw.typ
			break
		}
	}

	info.Confidence = scoreConfidence(info)
	info.NeedsConfirmation = info.Confidence < confirmationThreshold
	return info
}

// extractDate finds a date-shaped version. A DD.MM.YY token must
// range-validate before being treated as a date; otherwise it falls
// through to the ordinary version family.
func extractDate(raw string) (string, bool) {
	for _, p := range datePatterns {
		loc := p.re.FindStringSubmatchIndex(raw)
		if loc == nil {
			continue
		}
		// A token like "1.2.24" directly after a "v" is a version, not
		// a locale date.
		if p.order == "dmy" && loc[0] > 0 {
			if c := raw[loc[0]-1]; c == 'v' || c == 'V' || c == '.' {
				continue
			}
		}
		m := make([]string, 0, 4)
		for i := 0; i < len(loc); i += 2 {
			m = append(m, raw[loc[i]:loc[i+1]])
		}
		var year, month, day int
		switch p.order {
		case "ymd":
			year, _ = strconv.Atoi(m[1])
			month, _ = strconv.Atoi(m[2])
			day, _ = strconv.Atoi(m[3])
		case "dmy":
			day, _ = strconv.Atoi(m[1])
			month, _ = strconv.Atoi(m[2])
			y, _ := strconv.Atoi(m[3])
			year = 2000 + y
		}
		if month < 1 || month > 12 || day < 1 || day > 31 {
			continue
		}
		if p.order == "ymd" && (year < 1990 || year > 2100) {
			continue
		}
		return m[0], true
	}
	return "", false
}

// ParseDateVersion parses a date-shaped version string extracted by
// Extract into calendar time.
func ParseDateVersion(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", "20060102", "2.1.06"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// scoreConfidence applies the extraction heuristics: a clean version hit
// scores high, a lone update keyword is weak, corroborating signals
// (known group, version plus build) boost slightly.
func scoreConfidence(info Info) float64 {
	var conf float64
	switch {
	case info.Version != "":
		conf = 0.9
	case info.Build != "":
		conf = 0.65
	case info.UpdateType != model.UpdateNone || info.ReleaseType != model.ReleaseNone:
		conf = 0.5
	default:
		conf = 0.2
	}
	if info.SceneGroup != "" && titles.IsSceneGroup(info.SceneGroup) {
		conf += 0.05
	}
	if info.Version != "" && info.Build != "" {
		conf += 0.05
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}

// looksLikeGroup accepts unknown trailing tags that follow the scene
// all-caps convention.
func looksLikeGroup(tag string) bool {
	if len(tag) < 2 {
		return false
	}
	hasLetter := false
	for _, r := range tag {
		switch {
		case r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return hasLetter
}

func containsWord(lower, word string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], word)
		if i < 0 {
			return false
		}
		i += idx
		before := i == 0 || !isAlnum(lower[i-1])
		afterIdx := i + len(word)
		after := afterIdx >= len(lower) || !isAlnum(lower[afterIdx])
		if before && after {
			return true
		}
		idx = i + len(word)
	}
}

func isAlnum(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
