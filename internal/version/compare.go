package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gamewatch/internal/model"
)

// Result is the comparator's verdict for one current/candidate pair.
type Result struct {
	IsNewer              bool
	ChangeType           model.ChangeType
	Significance         int
	SkipDueToHierarchy   bool
	ShouldWaitForRegular bool
	Suspicious           bool
	SuspicionReason      string
}

// significance per component position, major first. Positions past the
// table score as build-level changes.
var componentSignificance = []int{10, 5, 3}

const buildSignificance = 2

// dateDeferWindow is how recent a date-version must be to be deferred
// when the current version is already a proper numeric release.
const dateDeferWindow = 48 * time.Hour

// Compare decides whether candidate is a genuinely newer release than
// current under the release-priority hierarchy.
func Compare(current, candidate Info) Result {
	return CompareAt(current, candidate, time.Now())
}

// CompareAt is Compare with an explicit clock, for the date-version
// deferral policy.
func CompareAt(current, candidate Info, now time.Time) Result {
	curTier := Tier(current)
	candTier := Tier(candidate)

	// Downgrading tier is rejected outright, regardless of numbers.
	if candTier < curTier {
		return Result{SkipDueToHierarchy: true}
	}

	if candTier > curTier {
		return tierUpgrade(current, candidate, candTier)
	}

	switch curTier {
	case model.TierVersioned:
		return compareVersioned(current, candidate, now)
	default:
		// Equal non-versioned tiers can still move on build counters.
		return compareBuilds(current.Build, candidate.Build)
	}
}

// OrderVersions orders two version strings numerically: -1 if a is
// older, 1 if a is newer, 0 if equal or incomparable. Used for ranking
// candidates against each other.
func OrderVersions(a, b string) int {
	ap := splitComponents(a)
	bp := splitComponents(b)
	if len(ap) == 0 || len(bp) == 0 {
		return 0
	}
	max := len(ap)
	if len(bp) > max {
		max = len(bp)
	}
	for i := 0; i < max; i++ {
		av := componentAt(ap, i)
		bv := componentAt(bp, i)
		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
	}
	return 0
}

// OrderBuilds orders two build counters numerically; non-numeric or
// missing builds compare as equal.
func OrderBuilds(a, b string) int {
	an, errA := strconv.ParseInt(a, 10, 64)
	bn, errB := strconv.ParseInt(b, 10, 64)
	if errA != nil || errB != nil {
		return 0
	}
	switch {
	case an < bn:
		return -1
	case an > bn:
		return 1
	default:
		return 0
	}
}

// Tier places an extracted signal on the release-priority hierarchy:
// versioned > PROPER > unversioned first release.
func Tier(info Info) model.ReleaseTier {
	switch {
	case info.Version != "":
		return model.TierVersioned
	case info.ReleaseType == model.ReleaseProper:
		return model.TierProper
	default:
		return model.TierFirstRelease
	}
}

func tierUpgrade(current, candidate Info, candTier model.ReleaseTier) Result {
	if candTier == model.TierProper {
		return Result{IsNewer: true, ChangeType: model.ChangeProper, Significance: 7}
	}
	// First structured version over an unversioned or PROPER-only
	// current release.
	r := Result{IsNewer: true, ChangeType: model.ChangeInitial, Significance: 8}
	if candidate.IsDateVersion {
		r.ChangeType = model.ChangeDate
		r.Significance = 5
	}
	return r
}

func compareVersioned(current, candidate Info, now time.Time) Result {
	switch {
	case current.IsDateVersion && candidate.IsDateVersion:
		return compareDates(current.Version, candidate.Version)
	case !current.IsDateVersion && candidate.IsDateVersion:
		candDate, ok := ParseDateVersion(candidate.Version)
		if ok && now.Sub(candDate) < dateDeferWindow {
			return Result{ShouldWaitForRegular: true}
		}
		// A bare build date cannot be ordered against a numeric
		// version; never treat it as newer on its own.
		return Result{}
	case current.IsDateVersion && !candidate.IsDateVersion:
		// A real numeric version replacing a date stamp is an upgrade.
		return Result{IsNewer: true, ChangeType: model.ChangeMajor, Significance: 6}
	}

	res := compareNumeric(current.Version, candidate.Version)
	if !res.IsNewer && !res.Suspicious && current.Build != "" && candidate.Build != "" {
		if b := compareBuilds(current.Build, candidate.Build); b.IsNewer {
			return b
		}
	}
	return res
}

func compareDates(cur, cand string) Result {
	curDate, okCur := ParseDateVersion(cur)
	candDate, okCand := ParseDateVersion(cand)
	if !okCur || !okCand {
		return Result{}
	}
	if candDate.After(curDate) {
		return Result{IsNewer: true, ChangeType: model.ChangeDate, Significance: 5}
	}
	return Result{}
}

func compareNumeric(cur, cand string) Result {
	curParts := splitComponents(cur)
	candParts := splitComponents(cand)
	if len(curParts) == 0 || len(candParts) == 0 {
		return Result{}
	}

	var res Result
	if reason := suspicionReason(cur, cand, curParts, candParts); reason != "" {
		res.Suspicious = true
		res.SuspicionReason = reason
	}

	max := len(curParts)
	if len(candParts) > max {
		max = len(candParts)
	}
	for i := 0; i < max; i++ {
		cv := componentAt(curParts, i)
		nv := componentAt(candParts, i)
		if nv == cv {
			continue
		}
		if nv > cv {
			res.IsNewer = true
			res.ChangeType = changeTypeAt(i)
			res.Significance = significanceAt(i)
		}
		return res
	}
	return res
}

func compareBuilds(cur, cand string) Result {
	if cand == "" {
		return Result{}
	}
	candN, err := strconv.ParseInt(cand, 10, 64)
	if err != nil {
		return Result{}
	}
	if cur == "" {
		return Result{IsNewer: true, ChangeType: model.ChangeBuild, Significance: buildSignificance}
	}
	curN, err := strconv.ParseInt(cur, 10, 64)
	if err != nil {
		return Result{}
	}
	if candN > curN {
		return Result{IsNewer: true, ChangeType: model.ChangeBuild, Significance: buildSignificance}
	}
	return Result{}
}

// suspicionReason flags implausible version jumps. Suspicious
// transitions are never auto-approved.
func suspicionReason(cur, cand string, curParts, candParts []int) string {
	if len(candParts)-len(curParts) >= 2 {
		return fmt.Sprintf("component count grew from %d to %d", len(curParts), len(candParts))
	}
	if paddingSchemeChanged(cur, cand) {
		return "zero-padding scheme changed"
	}
	if candParts[0]-curParts[0] > 2 {
		return fmt.Sprintf("major version jumped from %d to %d", curParts[0], candParts[0])
	}
	if candParts[0] == curParts[0] && len(curParts) > 1 && len(candParts) > 1 &&
		candParts[1]-curParts[1] > 20 {
		return fmt.Sprintf("minor version jumped from %d to %d", curParts[1], candParts[1])
	}
	return ""
}

// paddingSchemeChanged reports whether a zero-padded component in the
// current version lost its padding in the candidate ("6.06" vs "6.6").
func paddingSchemeChanged(cur, cand string) bool {
	curRaw := splitRaw(cur)
	candRaw := splitRaw(cand)
	for i := 0; i < len(curRaw) && i < len(candRaw); i++ {
		curPadded := len(curRaw[i]) > 1 && curRaw[i][0] == '0'
		candPadded := len(candRaw[i]) > 1 && candRaw[i][0] == '0'
		if curPadded != candPadded {
			return true
		}
	}
	return false
}

var nonDigitRe = regexp.MustCompile(`[^0-9]`)

func splitRaw(v string) []string {
	v = strings.TrimPrefix(strings.ToLower(v), "v")
	parts := strings.Split(v, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = nonDigitRe.ReplaceAllString(p, "")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitComponents(v string) []int {
	raw := splitRaw(v)
	out := make([]int, 0, len(raw))
	for _, p := range raw {
		n, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

func componentAt(parts []int, i int) int {
	if i < len(parts) {
		return parts[i]
	}
	return 0
}

func changeTypeAt(i int) model.ChangeType {
	switch i {
	case 0:
		return model.ChangeMajor
	case 1:
		return model.ChangeMinor
	case 2:
		return model.ChangePatch
	default:
		return model.ChangeBuild
	}
}

func significanceAt(i int) int {
	if i < len(componentSignificance) {
		return componentSignificance[i]
	}
	return buildSignificance
}
