// Package scheduler runs the periodic reconciliation cycle: fetch the
// candidate stream once, run every due tracked game through the
// decision engine, apply side effects, and dispatch notifications.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"gamewatch/internal/engine"
	"gamewatch/internal/fetcher"
	"gamewatch/internal/model"
	"gamewatch/internal/resolver"
	"gamewatch/internal/storage"
	"gamewatch/internal/version"
)

// Sender is the interface for delivering engine verdicts to the user.
type Sender interface {
	SendUpdateNotice(chatID int64, n engine.Notification)
	SendPendingUpdate(chatID int64, p model.PendingUpdate, n engine.Notification)
	SendSequelSuggestion(chatID int64, r model.PendingRelatedGame)
	SendMessage(chatID int64, text string)
}

// Scheduler drives reconciliation cycles on a fixed tick.
type Scheduler struct {
	store    storage.Storage
	fetcher  *fetcher.Fetcher
	engine   *engine.Engine
	resolver *resolver.Client
	sender   Sender
	log      *slog.Logger

	feeds        []string
	avoidRepacks bool
	interval     time.Duration
	tick         time.Duration
}

// New creates a Scheduler. resolver may be disabled.
func New(store storage.Storage, f *fetcher.Fetcher, eng *engine.Engine, res *resolver.Client,
	sender Sender, log *slog.Logger, feeds []string, avoidRepacks bool, interval time.Duration) *Scheduler {
	return &Scheduler{
		store:        store,
		fetcher:      f,
		engine:       eng,
		resolver:     res,
		sender:       sender,
		log:          log,
		feeds:        feeds,
		avoidRepacks: avoidRepacks,
		interval:     interval,
		tick:         1 * time.Minute,
	}
}

// SetTickInterval overrides the default 1-minute tick.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.RunCycle(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunCycle(ctx)
		}
	}
}

// RunCycle executes one reconciliation cycle over all due games.
func (s *Scheduler) RunCycle(ctx context.Context) {
	games, err := s.store.ListDueGames(ctx, s.interval)
	if err != nil {
		s.log.Error("list due games", "error", err)
		return
	}
	if len(games) == 0 {
		return
	}

	candidates := s.fetcher.FetchCandidates(ctx, s.feeds, s.avoidRepacks)
	if len(candidates) == 0 {
		s.log.Warn("no candidates fetched, skipping cycle")
		return
	}

	s.resolveMissingAxes(ctx, games)

	cyc := engine.NewCycle()
	siblingsByChat := make(map[int64][]model.TrackedGame)

	for i := range games {
		if ctx.Err() != nil {
			return
		}
		game := &games[i]
		cyc.Stats.Checked++

		if err := s.processGame(ctx, game, candidates, cyc, siblingsByChat); err != nil {
			cyc.Stats.Errors++
			s.log.Error("process game", "game_id", game.ID, "title", game.Title, "error", err)
		}

		// Advance last-checked even on failure so a poison title cannot
		// stall every subsequent cycle.
		if err := s.store.TouchLastCheck(ctx, game.ID); err != nil {
			s.log.Error("touch last check", "game_id", game.ID, "error", err)
		}
	}

	s.log.Info("cycle complete",
		"checked", cyc.Stats.Checked,
		"updates_found", cyc.Stats.UpdatesFound,
		"sequels_found", cyc.Stats.SequelsFound,
		"errors", cyc.Stats.Errors,
	)
}

func (s *Scheduler) processGame(ctx context.Context, game *model.TrackedGame,
	candidates []model.CandidateListing, cyc *engine.Cycle,
	siblingsByChat map[int64][]model.TrackedGame) error {

	siblings, ok := siblingsByChat[game.ChatID]
	if !ok {
		var err error
		siblings, err = s.store.ListGames(ctx, game.ChatID)
		if err != nil {
			return err
		}
		siblingsByChat[game.ChatID] = siblings
	}

	handled, err := s.store.ListHandledLinks(ctx, game.ID)
	if err != nil {
		return err
	}
	scoped := scopeCandidates(game, candidates, handled)

	decision := s.engine.Process(ctx, game, siblings, scoped, cyc)
	return s.apply(ctx, game, decision, cyc)
}

// scopeCandidates drops listings already handled for this game and
// repack releases when the game avoids them.
func scopeCandidates(game *model.TrackedGame, candidates []model.CandidateListing,
	handled map[string]struct{}) []model.CandidateListing {

	scoped := make([]model.CandidateListing, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := handled[c.Link]; ok {
			continue
		}
		if game.AvoidRepacks && fetcher.IsRepack(c.Title) {
			continue
		}
		scoped = append(scoped, c)
	}
	return scoped
}

// apply persists a decision's side effects and dispatches its
// notification.
func (s *Scheduler) apply(ctx context.Context, game *model.TrackedGame, d engine.Decision, cyc *engine.Cycle) error {
	switch d.Outcome {
	case engine.OutcomeAutoApproved:
		return s.applyApproved(ctx, game, d, cyc)

	case engine.OutcomePending:
		if err := s.store.CreatePendingUpdate(ctx, d.Pending); err != nil {
			return err
		}
		if err := s.store.MarkHandled(ctx, game.ID, d.Pending.Link); err != nil {
			return err
		}
		cyc.Stats.UpdatesFound++
		s.sender.SendPendingUpdate(game.ChatID, *d.Pending, *d.Notification)

	case engine.OutcomeSequel:
		return s.applySequel(ctx, game, d, cyc)

	case engine.OutcomeRejected:
		s.log.Debug("candidate rejected", "game_id", game.ID, "reason", d.Reason)
	}
	return nil
}

func (s *Scheduler) applyApproved(ctx context.Context, game *model.TrackedGame, d engine.Decision, cyc *engine.Cycle) error {
	if err := s.store.AppendHistory(ctx, d.History); err != nil {
		return err
	}

	if d.Info.Version != "" {
		game.CurrentVersion = d.Info.Version
		game.VersionTrusted = true
	}
	if d.Info.Build != "" {
		game.CurrentBuild = d.Info.Build
		game.BuildTrusted = true
	}
	if tier := version.Tier(d.Info); tier > game.ReleaseTier {
		game.ReleaseTier = tier
	}
	game.Link = d.Candidate.Link
	game.SortPriority = time.Now().Unix()
	game.HasUnseenUpdate = true

	if err := s.store.UpdateGame(ctx, game); err != nil {
		return err
	}
	if err := s.store.MarkHandled(ctx, game.ID, d.Candidate.Link); err != nil {
		return err
	}
	cyc.Stats.UpdatesFound++
	s.sender.SendUpdateNotice(game.ChatID, *d.Notification)
	return nil
}

func (s *Scheduler) applySequel(ctx context.Context, game *model.TrackedGame, d engine.Decision, cyc *engine.Cycle) error {
	if d.NewGame != nil {
		if err := s.store.CreateGame(ctx, d.NewGame); err != nil {
			return err
		}
		if err := s.store.MarkHandled(ctx, game.ID, d.NewGame.Link); err != nil {
			return err
		}
		cyc.Stats.SequelsFound++
		s.sender.SendMessage(game.ChatID, "Now tracking "+d.NewGame.Title+" (detected from "+game.Title+").")
		return nil
	}

	if err := s.store.CreateRelatedGame(ctx, d.Related); err != nil {
		return err
	}
	if err := s.store.MarkHandled(ctx, game.ID, d.Related.Link); err != nil {
		return err
	}
	cyc.Stats.SequelsFound++
	s.sender.SendSequelSuggestion(game.ChatID, *d.Related)
	return nil
}

// resolveMissingAxes consults the external catalogue for games where
// exactly one axis is trusted, or where the trusted version is only a
// date stamp. Lookup failures leave the game unchanged.
func (s *Scheduler) resolveMissingAxes(ctx context.Context, games []model.TrackedGame) {
	if !s.resolver.Enabled() {
		return
	}

	var ids []string
	byID := make(map[string][]*model.TrackedGame)
	for i := range games {
		g := &games[i]
		if g.CatalogueID == "" || !needsResolution(g) {
			continue
		}
		if _, ok := byID[g.CatalogueID]; !ok {
			ids = append(ids, g.CatalogueID)
		}
		byID[g.CatalogueID] = append(byID[g.CatalogueID], g)
	}
	if len(ids) == 0 {
		return
	}

	results := s.resolver.ResolveAll(ctx, ids)
	for id, res := range results {
		for _, g := range byID[id] {
			changed := false
			if res.Version != "" && (!g.VersionTrusted || isDateVersion(g.CurrentVersion)) {
				g.CurrentVersion = res.Version
				g.VersionTrusted = true
				g.ReleaseTier = model.TierVersioned
				changed = true
			}
			if res.Build != "" && !g.BuildTrusted {
				g.CurrentBuild = res.Build
				g.BuildTrusted = true
				changed = true
			}
			if !changed {
				continue
			}
			if err := s.store.UpdateGame(ctx, g); err != nil {
				s.log.Error("persist resolution", "game_id", g.ID, "error", err)
			} else {
				s.log.Info("resolved version axes", "game_id", g.ID, "version", g.CurrentVersion, "build", g.CurrentBuild)
			}
		}
	}
}

// needsResolution reports whether exactly one axis is known and
// trusted, or the trusted version is date-shaped.
func needsResolution(g *model.TrackedGame) bool {
	if g.VersionTrusted != g.BuildTrusted {
		return true
	}
	return g.VersionTrusted && isDateVersion(g.CurrentVersion)
}

func isDateVersion(v string) bool {
	if v == "" {
		return false
	}
	_, ok := version.ParseDateVersion(v)
	return ok
}
