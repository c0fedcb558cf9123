package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"gamewatch/internal/engine"
	"gamewatch/internal/model"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Acknowledge immediately so the client stops its spinner.
	if _, err := b.api.Send(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Error("answer callback", "error", err)
	}

	if cb.Message == nil || !b.cfg.IsUserAllowed(cb.From.ID) {
		return
	}
	chatID := cb.Message.Chat.ID

	action, rawID, ok := strings.Cut(cb.Data, ":")
	if !ok {
		return
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return
	}

	switch action {
	case "approve":
		b.approvePending(ctx, chatID, id)
	case "reject":
		b.rejectPending(ctx, chatID, id)
	case "follow":
		b.followRelated(ctx, chatID, id)
	case "dismiss":
		b.dismissRelated(ctx, chatID, id)
	}
}

func (b *Bot) approvePending(ctx context.Context, chatID int64, pendingID int64) {
	pending, err := b.store.GetPendingUpdate(ctx, pendingID)
	if err != nil {
		b.reply(chatID, "Pending update not found.")
		return
	}
	game, err := b.store.GetGame(ctx, pending.GameID)
	if err != nil || game.ChatID != chatID {
		b.reply(chatID, "Game not found.")
		return
	}

	entry := engine.Promote(game, *pending)
	if err := b.store.AppendHistory(ctx, entry); err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to record update: %v", err))
		return
	}
	if err := b.store.UpdateGame(ctx, game); err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to save game: %v", err))
		return
	}
	if err := b.store.DeletePendingUpdate(ctx, pendingID); err != nil {
		b.log.Error("delete pending", "pending_id", pendingID, "error", err)
	}

	b.reply(chatID, fmt.Sprintf("Approved: %s is now at %s.", game.Title, entry.Version))
}

func (b *Bot) rejectPending(ctx context.Context, chatID int64, pendingID int64) {
	pending, err := b.store.GetPendingUpdate(ctx, pendingID)
	if err != nil {
		b.reply(chatID, "Pending update not found.")
		return
	}
	game, err := b.store.GetGame(ctx, pending.GameID)
	if err != nil || game.ChatID != chatID {
		b.reply(chatID, "Game not found.")
		return
	}
	if err := b.store.DeletePendingUpdate(ctx, pendingID); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Rejected detection for %s.", game.Title))
}

func (b *Bot) followRelated(ctx context.Context, chatID int64, relatedID int64) {
	related, err := b.store.GetRelatedGame(ctx, relatedID)
	if err != nil {
		b.reply(chatID, "Suggestion not found.")
		return
	}
	base, err := b.store.GetGame(ctx, related.GameID)
	if err != nil || base.ChatID != chatID {
		b.reply(chatID, "Game not found.")
		return
	}

	g := &model.TrackedGame{
		ExternalID:           uuid.NewString(),
		ChatID:               chatID,
		Title:                related.Title,
		OriginalTitle:        related.Title,
		Link:                 related.Link,
		AutoApproveThreshold: base.AutoApproveThreshold,
		PreferredGroup:       base.PreferredGroup,
		AvoidRepacks:         base.AvoidRepacks,
		TrackSequels:         base.TrackSequels,
	}
	if err := b.store.CreateGame(ctx, g); err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to save game: %v", err))
		return
	}
	if err := b.store.DismissRelatedGame(ctx, relatedID); err != nil {
		b.log.Error("dismiss related", "related_id", relatedID, "error", err)
	}

	b.reply(chatID, fmt.Sprintf("Now tracking #%d %s", g.ID, g.Title))
}

func (b *Bot) dismissRelated(ctx context.Context, chatID int64, relatedID int64) {
	related, err := b.store.GetRelatedGame(ctx, relatedID)
	if err != nil {
		b.reply(chatID, "Suggestion not found.")
		return
	}
	base, err := b.store.GetGame(ctx, related.GameID)
	if err != nil || base.ChatID != chatID {
		b.reply(chatID, "Game not found.")
		return
	}
	if err := b.store.DismissRelatedGame(ctx, relatedID); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Dismissed %s.", related.Title))
}
