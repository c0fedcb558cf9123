package bot

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"gamewatch/internal/model"
	"gamewatch/internal/version"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to GameWatch!

Track game releases and get notified when a newer version appears.

Quick start:
1. /track <title> — start tracking a game
2. /list — show your tracked games
3. /pending — review detections awaiting confirmation

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Tracking:
/track <title> — track a game (a pasted release title seeds the version)
/list — show all tracked games
/info <id> — game details
/untrack <id> — stop tracking
/rename <id> <title> — change the display title
/verify <id> <name> — set the externally verified name
/history <id> — approved version history
/check — run a check now

Detections:
/pending — detections awaiting confirmation
/sequels — suggested sequels, editions and DLC

Preferences:
/threshold <id> <0..1> — per-game auto-approval confidence
/group <id> <name> — preferred release group (or "-" to clear)`)
}

func (b *Bot) handleTrack(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Usage: /track <title>")
		return
	}

	g := &model.TrackedGame{
		ExternalID:    uuid.NewString(),
		ChatID:        chatID,
		Title:         args,
		OriginalTitle: args,
	}

	// A pasted release title seeds the canonical version; the user
	// vouches for it, so both axes count as trusted when present.
	info := version.Extract(args)
	if info.Version != "" {
		g.CurrentVersion = info.Version
		g.VersionTrusted = true
		g.ReleaseTier = model.TierVersioned
	}
	if info.Build != "" {
		g.CurrentBuild = info.Build
		g.BuildTrusted = true
	}

	if err := b.store.CreateGame(ctx, g); err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to save game: %v", err))
		return
	}

	text := fmt.Sprintf("Now tracking #%d %s", g.ID, g.Title)
	if g.CurrentVersion != "" {
		text += fmt.Sprintf(" (current version %s)", g.CurrentVersion)
	}
	b.reply(chatID, text)
}

func (b *Bot) handleList(ctx context.Context, chatID int64) {
	games, err := b.store.ListGames(ctx, chatID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatGameList(games))

	// Listing counts as seeing the updates.
	for i := range games {
		if !games[i].HasUnseenUpdate {
			continue
		}
		games[i].HasUnseenUpdate = false
		if err := b.store.UpdateGame(ctx, &games[i]); err != nil {
			b.log.Error("clear unseen flag", "game_id", games[i].ID, "error", err)
		}
	}
}

func (b *Bot) handleInfo(ctx context.Context, chatID int64, args string) {
	game, ok := b.ownedGame(ctx, chatID, args)
	if !ok {
		return
	}
	b.reply(chatID, FormatGameInfo(game))
}

func (b *Bot) handleUntrack(ctx context.Context, chatID int64, args string) {
	game, ok := b.ownedGame(ctx, chatID, args)
	if !ok {
		return
	}
	if err := b.store.SoftDeleteGame(ctx, game.ID); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Stopped tracking #%d %s.", game.ID, game.Title))
}

func (b *Bot) handleRename(ctx context.Context, chatID int64, args string) {
	id, name, err := ParseRenameArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	game, ok := b.ownedGameID(ctx, chatID, id)
	if !ok {
		return
	}
	game.Title = name
	if err := b.store.UpdateGame(ctx, game); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Renamed #%d to %s.", game.ID, game.Title))
}

func (b *Bot) handleVerify(ctx context.Context, chatID int64, args string) {
	id, name, err := ParseRenameArgs(args)
	if err != nil {
		b.reply(chatID, "Usage: /verify <id> <name>")
		return
	}
	game, ok := b.ownedGameID(ctx, chatID, id)
	if !ok {
		return
	}
	game.VerifiedName = name
	if err := b.store.UpdateGame(ctx, game); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Verified name for #%d set to %s.", game.ID, game.VerifiedName))
}

func (b *Bot) handleHistory(ctx context.Context, chatID int64, args string) {
	game, ok := b.ownedGame(ctx, chatID, args)
	if !ok {
		return
	}
	entries, err := b.store.ListHistory(ctx, game.ID, 20)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatHistory(game, entries))
}

func (b *Bot) handlePending(ctx context.Context, chatID int64) {
	pendings, err := b.store.ListPendingUpdates(ctx, chatID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if len(pendings) == 0 {
		b.reply(chatID, "No detections awaiting confirmation.")
		return
	}
	for _, p := range pendings {
		b.SendPendingUpdate(chatID, p, pendingNotification(p))
	}
}

func (b *Bot) handleSequels(ctx context.Context, chatID int64) {
	related, err := b.store.ListRelatedGames(ctx, chatID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if len(related) == 0 {
		b.reply(chatID, "No sequel suggestions.")
		return
	}
	for _, r := range related {
		b.SendSequelSuggestion(chatID, r)
	}
}

func (b *Bot) handleThreshold(ctx context.Context, chatID int64, args string) {
	id, value, err := ParseThresholdArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	game, ok := b.ownedGameID(ctx, chatID, id)
	if !ok {
		return
	}
	game.AutoApproveThreshold = value
	if err := b.store.UpdateGame(ctx, game); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Auto-approval threshold for #%d set to %.2f.", game.ID, value))
}

func (b *Bot) handleGroup(ctx context.Context, chatID int64, args string) {
	id, name, err := ParseGroupArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	game, ok := b.ownedGameID(ctx, chatID, id)
	if !ok {
		return
	}
	game.PreferredGroup = name
	if err := b.store.UpdateGame(ctx, game); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if name == "" {
		b.reply(chatID, fmt.Sprintf("Preferred group for #%d cleared.", game.ID))
	} else {
		b.reply(chatID, fmt.Sprintf("Preferred group for #%d set to %s.", game.ID, name))
	}
}

func (b *Bot) handleCheck(ctx context.Context, chatID int64) {
	if b.checker == nil {
		b.reply(chatID, "Checking is not available right now.")
		return
	}
	b.reply(chatID, "Checking for updates...")
	b.checker.RunCycle(ctx)
	b.reply(chatID, "Check finished. Use /list and /pending to review.")
}

// ownedGame parses an ID argument and loads the game, verifying the
// requesting chat owns it.
func (b *Bot) ownedGame(ctx context.Context, chatID int64, args string) (*model.TrackedGame, bool) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return nil, false
	}
	return b.ownedGameID(ctx, chatID, id)
}

func (b *Bot) ownedGameID(ctx context.Context, chatID int64, id int64) (*model.TrackedGame, bool) {
	game, err := b.store.GetGame(ctx, id)
	if err != nil || game.ChatID != chatID || game.IsDeleted {
		b.reply(chatID, fmt.Sprintf("Game #%d not found.", id))
		return nil, false
	}
	return game, true
}
