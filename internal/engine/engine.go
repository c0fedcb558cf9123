// Package engine decides, per tracked game and reconciliation cycle,
// whether a freshly observed listing is a genuinely newer release, a
// pending-confirmation candidate, a sequel worth suggesting, or noise.
// The engine owns neither storage nor delivery: it consumes a tracked
// game plus candidate listings and produces a Decision whose side
// effects the caller applies.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gamewatch/internal/classifier"
	"gamewatch/internal/model"
	"gamewatch/internal/titles"
	"gamewatch/internal/version"
)

// Config centralizes the engine's thresholds.
type Config struct {
	// MatchThreshold is the minimum similarity for a candidate to pass
	// a direct match gate.
	MatchThreshold float64
	// HighSimilarity is the similarity above which a trusted-axis
	// version increase is accepted without confirmation.
	HighSimilarity float64
	// AutoApproveThreshold is the default blended confidence needed for
	// auto-approval; a per-game threshold overrides it.
	AutoApproveThreshold float64
	// SequelBandLow/High bound the medium-similarity band handed to
	// relationship detection.
	SequelBandLow  float64
	SequelBandHigh float64
	// AutoTrackSequels creates a new tracked game for every detected
	// sequel instead of queueing a suggestion.
	AutoTrackSequels bool
}

// DefaultConfig returns conservative defaults.
func DefaultConfig() Config {
	return Config{
		MatchThreshold:       0.8,
		HighSimilarity:       0.95,
		AutoApproveThreshold: 0.85,
		SequelBandLow:        0.5,
		SequelBandHigh:       0.8,
	}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.MatchThreshold <= 0 || c.MatchThreshold > 1 {
		c.MatchThreshold = d.MatchThreshold
	}
	if c.HighSimilarity <= 0 || c.HighSimilarity > 1 {
		c.HighSimilarity = d.HighSimilarity
	}
	if c.AutoApproveThreshold <= 0 || c.AutoApproveThreshold > 1 {
		c.AutoApproveThreshold = d.AutoApproveThreshold
	}
	if c.SequelBandLow <= 0 || c.SequelBandLow >= 1 {
		c.SequelBandLow = d.SequelBandLow
	}
	if c.SequelBandHigh <= c.SequelBandLow || c.SequelBandHigh > 1 {
		c.SequelBandHigh = d.SequelBandHigh
	}
	return c
}

// Engine runs the per-game decision state machine.
type Engine struct {
	cfg     Config
	blender *classifier.Blender
	log     *slog.Logger
	now     func() time.Time
}

// New creates an Engine. blender may be nil; the engine then scores
// candidates from the regex signal alone.
func New(cfg Config, blender *classifier.Blender, log *slog.Logger) *Engine {
	return &Engine{cfg: cfg.normalized(), blender: blender, log: log, now: time.Now}
}

// matched is one candidate that passed a direct match gate.
type matched struct {
	listing model.CandidateListing
	sim     float64
	info    version.Info
	score   classifier.Score
}

// Process runs one tracked game against the cycle's candidate set.
// siblings are the user's other tracked games, used to avoid suggesting
// a relationship that is already tracked.
func (e *Engine) Process(ctx context.Context, game *model.TrackedGame, siblings []model.TrackedGame, candidates []model.CandidateListing, cyc *Cycle) Decision {
	matches, gate := e.gatherMatches(game, candidates, cyc)
	if len(matches) == 0 {
		return e.detectRelated(game, siblings, candidates, cyc)
	}

	for i := range matches {
		matches[i].info = version.Extract(matches[i].listing.Title)
	}

	blendCands := make([]classifier.Candidate, len(matches))
	for i, m := range matches {
		blendCands[i] = classifier.Candidate{Listing: m.listing, Similarity: m.sim, Info: m.info}
	}
	scores := e.blender.Blend(ctx, game.Title, blendCands)
	for i := range matches {
		matches[i].score = scores[i]
	}

	rankMatches(game, matches)
	best := matches[0]
	e.log.Debug("best candidate",
		"game_id", game.ID,
		"gate", gate,
		"candidate", best.listing.Title,
		"similarity", best.sim,
		"confidence", best.score.Confidence,
	)
	return e.decide(game, best, cyc)
}

// gatherMatches runs the tiered match gates: cleaned title, then the
// externally verified name if present, then the original title. The
// first gate with any hit wins; later gates are skipped.
func (e *Engine) gatherMatches(game *model.TrackedGame, candidates []model.CandidateListing, cyc *Cycle) ([]matched, string) {
	gates := []struct {
		name  string
		title string
	}{
		{"cleaned title", game.Title},
		{"verified name", game.VerifiedName},
		{"original title", game.OriginalTitle},
	}

	for _, gate := range gates {
		if gate.title == "" {
			continue
		}
		var hits []matched
		for _, cand := range candidates {
			if cand.Link == "" || cand.Link == game.Link || cyc.Processed(cand.Link) {
				continue
			}
			sim := titles.Similarity(gate.title, cand.Title)
			if sim >= e.cfg.MatchThreshold {
				hits = append(hits, matched{listing: cand, sim: sim})
			}
		}
		if len(hits) > 0 {
			return hits, gate.name
		}
	}
	return nil, ""
}

// decide applies the hierarchy and suspicious-version gates to the best
// candidate and emits the final verdict.
func (e *Engine) decide(game *model.TrackedGame, best matched, cyc *Cycle) Decision {
	cur := currentInfo(game)
	cmp := version.CompareAt(cur, best.info, e.now())

	d := Decision{
		Outcome:          OutcomeNoOp,
		GameID:           game.ID,
		Candidate:        &best.listing,
		Info:             best.info,
		Compare:          cmp,
		Similarity:       best.sim,
		Confidence:       best.score.Confidence,
		ClassifierReason: best.score.Reason,
	}

	switch {
	case cmp.SkipDueToHierarchy:
		d.Outcome = OutcomeRejected
		d.Reason = "release tier downgrade: a versioned release is never replaced by an unversioned one"
		return d
	case cmp.ShouldWaitForRegular:
		d.Reason = "very recent date-version; waiting for a regular release"
		return d
	case best.score.FromClassifier && !best.score.IsUpdate:
		d.Outcome = OutcomeRejected
		d.Reason = "classifier ruled this listing out as an update"
		return d
	case cmp.Suspicious:
		d.Reason = "suspicious version transition: " + cmp.SuspicionReason
		return e.toPending(game, best, d, cyc)
	}

	threshold := game.AutoApproveThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = e.cfg.AutoApproveThreshold
	}

	trustedNewer := cmp.IsNewer && (game.VersionTrusted || game.BuildTrusted) && best.sim >= e.cfg.HighSimilarity
	exactMatch := cmp.IsNewer && best.sim == 1.0
	confident := cmp.IsNewer && best.score.Confidence >= threshold

	if trustedNewer || exactMatch || confident {
		return e.toApproved(game, best, d, cyc)
	}

	if best.info.HasSignal() {
		switch {
		case !cmp.IsNewer:
			d.Reason = fmt.Sprintf("detected %s is not clearly newer than current %s", displayVersion(best.info), displayVersion(cur))
		default:
			d.Reason = fmt.Sprintf("confidence %.2f below auto-approval threshold %.2f", best.score.Confidence, threshold)
		}
		return e.toPending(game, best, d, cyc)
	}

	d.Outcome = OutcomeRejected
	d.Reason = "no structured version signal in listing"
	return d
}

func (e *Engine) toApproved(game *model.TrackedGame, best matched, d Decision, cyc *Cycle) Decision {
	d.Outcome = OutcomeAutoApproved
	newDisplay := displayVersion(best.info)
	d.History = &model.UpdateHistoryEntry{
		GameID:          game.ID,
		Version:         newDisplay,
		PreviousVersion: displayVersion(currentInfo(game)),
		ChangeType:      d.Compare.ChangeType,
		Significance:    d.Compare.Significance,
		Link:            best.listing.Link,
		ApprovedBy:      model.ApprovedAuto,
	}
	d.Notification = &Notification{
		GameTitle:     game.Title,
		Version:       newDisplay,
		Link:          best.listing.Link,
		ImageURL:      best.listing.ImageURL,
		DownloadLinks: best.listing.DownloadLinks,
	}
	cyc.MarkProcessed(best.listing.Link)
	return d
}

func (e *Engine) toPending(game *model.TrackedGame, best matched, d Decision, cyc *Cycle) Decision {
	d.Outcome = OutcomePending
	d.Pending = &model.PendingUpdate{
		GameID:           game.ID,
		Version:          best.info.Version,
		Build:            best.info.Build,
		UpdateType:       best.info.UpdateType,
		NewTitle:         best.listing.Title,
		Link:             best.listing.Link,
		ImageURL:         best.listing.ImageURL,
		PreviousVersion:  game.CurrentVersion,
		Confidence:       best.score.Confidence,
		Reason:           d.Reason,
		ClassifierReason: best.score.Reason,
	}
	d.Notification = &Notification{
		GameTitle:     game.Title,
		Version:       displayVersion(best.info),
		Link:          best.listing.Link,
		ImageURL:      best.listing.ImageURL,
		DownloadLinks: best.listing.DownloadLinks,
		Pending:       true,
	}
	cyc.MarkProcessed(best.listing.Link)
	return d
}

// detectRelated scans unmatched candidates in the medium-similarity
// band for sequel/edition/DLC relationships.
func (e *Engine) detectRelated(game *model.TrackedGame, siblings []model.TrackedGame, candidates []model.CandidateListing, cyc *Cycle) Decision {
	for _, cand := range candidates {
		if cand.Link == "" || cand.Link == game.Link || cyc.Processed(cand.Link) {
			continue
		}
		sim := titles.Similarity(game.Title, cand.Title)
		inBand := sim >= e.cfg.SequelBandLow && sim < e.cfg.SequelBandHigh
		if !inBand && !titles.SequelLike(game.Title, cand.Title) {
			continue
		}
		rel := DetectRelation(game.Title, cand.Title)
		if rel == nil {
			continue
		}
		if siblingTracks(siblings, cand, e.cfg.MatchThreshold) {
			// Already subscribed to the related game; that entry will
			// pick the listing up as its own version update.
			continue
		}

		cyc.MarkProcessed(cand.Link)
		d := Decision{
			Outcome:    OutcomeSequel,
			GameID:     game.ID,
			Candidate:  &cand,
			Similarity: sim,
			Confidence: rel.Confidence,
			Reason:     fmt.Sprintf("looks like a %s of %q", rel.Type, game.Title),
		}
		if e.cfg.AutoTrackSequels || game.TrackSequels {
			d.NewGame = &model.TrackedGame{
				ExternalID:    uuid.NewString(),
				ChatID:        game.ChatID,
				Title:         cand.Title,
				OriginalTitle: cand.Title,
				SourceSite:    cand.Source,
				Link:          cand.Link,
			}
		} else {
			d.Related = &model.PendingRelatedGame{
				GameID:       game.ID,
				Title:        cand.Title,
				Link:         cand.Link,
				RelationType: rel.Type,
				Similarity:   sim,
			}
		}
		return d
	}
	return Decision{Outcome: OutcomeNoOp, GameID: game.ID}
}

func siblingTracks(siblings []model.TrackedGame, cand model.CandidateListing, threshold float64) bool {
	for _, s := range siblings {
		if s.IsDeleted {
			continue
		}
		if titles.Similarity(s.Title, cand.Title) >= threshold {
			return true
		}
	}
	return false
}

// currentInfo rebuilds a comparable Info from the tracked game's
// canonical fields.
func currentInfo(g *model.TrackedGame) version.Info {
	info := version.Info{Version: g.CurrentVersion, Build: g.CurrentBuild}
	if g.CurrentVersion != "" {
		if _, ok := version.ParseDateVersion(g.CurrentVersion); ok {
			info.IsDateVersion = true
		}
	}
	if g.ReleaseTier == model.TierProper {
		info.ReleaseType = model.ReleaseProper
	}
	return info
}

func displayVersion(info version.Info) string {
	switch {
	case info.Version != "":
		return info.Version
	case info.Build != "":
		return "build " + info.Build
	case info.ReleaseType != model.ReleaseNone:
		return string(info.ReleaseType)
	default:
		return "first release"
	}
}
