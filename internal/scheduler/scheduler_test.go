package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"gamewatch/internal/engine"
	"gamewatch/internal/fetcher"
	"gamewatch/internal/model"
	"gamewatch/internal/storage"
)

type mockSender struct {
	mu       sync.Mutex
	notices  []engine.Notification
	pendings []model.PendingUpdate
	sequels  []model.PendingRelatedGame
	messages []string
}

func (m *mockSender) SendUpdateNotice(chatID int64, n engine.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, n)
}

func (m *mockSender) SendPendingUpdate(chatID int64, p model.PendingUpdate, n engine.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendings = append(m.pendings, p)
}

func (m *mockSender) SendSequelSuggestion(chatID int64, r model.PendingRelatedGame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequels = append(m.sequels, r)
}

func (m *mockSender) SendMessage(chatID int64, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, text)
}

type mockHTTP struct {
	body string
}

func (m *mockHTTP) Do(_ *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: 200,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

func loadFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("../../testdata/sample.xml")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return string(data)
}

func newTestScheduler(t *testing.T, feedXML string) (*Scheduler, *storage.SQLite, *mockSender) {
	t.Helper()
	store, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := fetcher.New(&mockHTTP{body: feedXML}, log)
	eng := engine.New(engine.DefaultConfig(), nil, log)
	sender := &mockSender{}

	// Zero interval keeps every game due on every cycle.
	sched := New(store, f, eng, nil, sender, log, []string{"https://releases.example/rss"}, false, 0)
	return sched, store, sender
}

func TestRunCycleAutoApprove(t *testing.T) {
	ctx := context.Background()
	sched, store, sender := newTestScheduler(t, loadFixture(t))

	game := model.TrackedGame{
		ExternalID:     "a",
		ChatID:         10,
		Title:          "Hades",
		OriginalTitle:  "Hades",
		CurrentVersion: "v1.37",
		VersionTrusted: true,
		ReleaseTier:    model.TierVersioned,
	}
	if err := store.CreateGame(ctx, &game); err != nil {
		t.Fatalf("create game: %v", err)
	}

	sched.RunCycle(ctx)

	got, err := store.GetGame(ctx, game.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if got.CurrentVersion != "v1.38" || !got.VersionTrusted {
		t.Errorf("game after cycle = %+v, want v1.38 trusted", got)
	}
	if !got.HasUnseenUpdate {
		t.Error("HasUnseenUpdate = false")
	}
	if got.LastCheckAt == nil {
		t.Error("LastCheckAt not advanced")
	}

	history, err := store.ListHistory(ctx, game.ID, 10)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 1 || history[0].Version != "v1.38" || history[0].ApprovedBy != model.ApprovedAuto {
		t.Errorf("history = %+v", history)
	}

	if len(sender.notices) != 1 || sender.notices[0].Version != "v1.38" {
		t.Errorf("notices = %+v", sender.notices)
	}
}

func TestRunCycleIsIdempotent(t *testing.T) {
	ctx := context.Background()
	sched, store, sender := newTestScheduler(t, loadFixture(t))

	game := model.TrackedGame{
		ExternalID:     "a",
		ChatID:         10,
		Title:          "Hades",
		OriginalTitle:  "Hades",
		CurrentVersion: "v1.37",
		VersionTrusted: true,
		ReleaseTier:    model.TierVersioned,
	}
	if err := store.CreateGame(ctx, &game); err != nil {
		t.Fatalf("create game: %v", err)
	}

	sched.RunCycle(ctx)
	sched.RunCycle(ctx)

	history, err := store.ListHistory(ctx, game.ID, 10)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("got %d history entries after two cycles, want 1", len(history))
	}
	if len(sender.notices) != 1 {
		t.Errorf("got %d notices after two cycles, want 1", len(sender.notices))
	}
}

func TestRunCyclePendingUpdate(t *testing.T) {
	ctx := context.Background()
	sched, store, sender := newTestScheduler(t, loadFixture(t))

	// Current version is ahead of the feed's v1.38, so the detection
	// must go to pending instead of auto-approval.
	game := model.TrackedGame{
		ExternalID:     "a",
		ChatID:         10,
		Title:          "Hades",
		OriginalTitle:  "Hades",
		CurrentVersion: "v2.0",
		VersionTrusted: true,
		ReleaseTier:    model.TierVersioned,
	}
	if err := store.CreateGame(ctx, &game); err != nil {
		t.Fatalf("create game: %v", err)
	}

	sched.RunCycle(ctx)

	pendings, err := store.ListPendingUpdates(ctx, game.ChatID)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pendings) != 1 || pendings[0].Version != "v1.38" {
		t.Fatalf("pendings = %+v", pendings)
	}
	if len(sender.pendings) != 1 {
		t.Errorf("got %d pending sends, want 1", len(sender.pendings))
	}

	got, err := store.GetGame(ctx, game.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if got.CurrentVersion != "v2.0" {
		t.Errorf("CurrentVersion changed to %q without confirmation", got.CurrentVersion)
	}

	// The offered listing is remembered; the next cycle must not
	// enqueue it again.
	sched.RunCycle(ctx)
	pendings, err = store.ListPendingUpdates(ctx, game.ChatID)
	if err != nil {
		t.Fatalf("list pending again: %v", err)
	}
	if len(pendings) != 1 {
		t.Errorf("got %d pendings after second cycle, want 1", len(pendings))
	}
}

func TestRunCycleSequelSuggestion(t *testing.T) {
	ctx := context.Background()
	feed := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Game Releases</title>
<item><title>Mythic Quest II v1.0-RUNE</title><link>https://releases.example/mq2</link>
<pubDate>%s</pubDate></item>
</channel></rss>`, time.Now().UTC().Format(http.TimeFormat))
	sched, store, sender := newTestScheduler(t, feed)

	game := model.TrackedGame{
		ExternalID:     "a",
		ChatID:         10,
		Title:          "Mythic Quest",
		OriginalTitle:  "Mythic Quest",
		CurrentVersion: "v1.5",
		VersionTrusted: true,
		ReleaseTier:    model.TierVersioned,
	}
	if err := store.CreateGame(ctx, &game); err != nil {
		t.Fatalf("create game: %v", err)
	}

	sched.RunCycle(ctx)

	related, err := store.ListRelatedGames(ctx, game.ChatID)
	if err != nil {
		t.Fatalf("list related: %v", err)
	}
	if len(related) != 1 || related[0].RelationType != model.RelationSequel {
		t.Fatalf("related = %+v", related)
	}
	if len(sender.sequels) != 1 {
		t.Errorf("got %d sequel sends, want 1", len(sender.sequels))
	}

	// Suggested once, not on every cycle.
	sched.RunCycle(ctx)
	related, err = store.ListRelatedGames(ctx, game.ChatID)
	if err != nil {
		t.Fatalf("list related again: %v", err)
	}
	if len(related) != 1 {
		t.Errorf("got %d suggestions after second cycle, want 1", len(related))
	}
}

func TestScopeCandidatesFiltersHandledAndRepacks(t *testing.T) {
	game := &model.TrackedGame{AvoidRepacks: true}
	handled := map[string]struct{}{"https://releases.example/seen": {}}
	cands := []model.CandidateListing{
		{Title: "Hades v1.38", Link: "https://releases.example/seen"},
		{Title: "Elden Ring [FitGirl Repack]", Link: "https://releases.example/repack"},
		{Title: "Hades v1.39", Link: "https://releases.example/new"},
	}

	scoped := scopeCandidates(game, cands, handled)
	if len(scoped) != 1 || scoped[0].Link != "https://releases.example/new" {
		t.Errorf("scoped = %+v", scoped)
	}
}

func TestNeedsResolution(t *testing.T) {
	tests := []struct {
		name string
		game model.TrackedGame
		want bool
	}{
		{"both axes trusted", model.TrackedGame{CurrentVersion: "1.0", VersionTrusted: true, CurrentBuild: "10", BuildTrusted: true}, false},
		{"neither trusted", model.TrackedGame{}, false},
		{"version only", model.TrackedGame{CurrentVersion: "1.0", VersionTrusted: true}, true},
		{"build only", model.TrackedGame{CurrentBuild: "10", BuildTrusted: true}, true},
		{"trusted date version", model.TrackedGame{CurrentVersion: "2024-01-15", VersionTrusted: true, CurrentBuild: "10", BuildTrusted: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := needsResolution(&tt.game); got != tt.want {
				t.Errorf("needsResolution = %v, want %v", got, tt.want)
			}
		})
	}
}
