// Package bot implements the Telegram surface: tracking commands,
// update notifications, and confirm/reject flows for pending updates
// and sequel suggestions.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"gamewatch/internal/config"
	"gamewatch/internal/engine"
	"gamewatch/internal/model"
	"gamewatch/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Checker triggers an immediate reconciliation cycle.
type Checker interface {
	RunCycle(ctx context.Context)
}

// Bot is the Telegram bot that handles user commands and delivers
// engine verdicts.
type Bot struct {
	api     telegramAPI
	store   storage.Storage
	cfg     *config.Config
	checker Checker
	log     *slog.Logger
}

// New creates a Bot with the given Telegram token, storage, and config.
func New(token string, store storage.Storage, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:   api,
		store: store,
		cfg:   cfg,
		log:   log,
	}, nil
}

// SetChecker wires the scheduler in after construction; the scheduler
// itself needs the bot as its Sender.
func (b *Bot) SetChecker(c Checker) {
	b.checker = c
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.CallbackQuery != nil {
				b.handleCallback(ctx, update.CallbackQuery)
				continue
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if !b.cfg.IsUserAllowed(update.Message.From.ID) {
				b.reply(update.Message.Chat.ID, "Access denied.")
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

// SendUpdateNotice delivers an auto-approved update notification.
func (b *Bot) SendUpdateNotice(chatID int64, n engine.Notification) {
	b.SendMessage(chatID, FormatUpdateNotice(n))
}

// SendPendingUpdate delivers a pending update with confirm/reject buttons.
func (b *Bot) SendPendingUpdate(chatID int64, p model.PendingUpdate, n engine.Notification) {
	msg := tgbotapi.NewMessage(chatID, FormatPendingUpdate(p, n))
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Approve", fmt.Sprintf("approve:%d", p.ID)),
			tgbotapi.NewInlineKeyboardButtonData("Reject", fmt.Sprintf("reject:%d", p.ID)),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send pending update", "chat_id", chatID, "error", err)
	}
}

// SendSequelSuggestion delivers a sequel/edition/DLC suggestion with
// follow/dismiss buttons.
func (b *Bot) SendSequelSuggestion(chatID int64, r model.PendingRelatedGame) {
	msg := tgbotapi.NewMessage(chatID, FormatSequelSuggestion(r))
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Track it", fmt.Sprintf("follow:%d", r.ID)),
			tgbotapi.NewInlineKeyboardButtonData("Dismiss", fmt.Sprintf("dismiss:%d", r.ID)),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send sequel suggestion", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "track":
		b.handleTrack(ctx, chatID, args)
	case "list":
		b.handleList(ctx, chatID)
	case "info":
		b.handleInfo(ctx, chatID, args)
	case "untrack":
		b.handleUntrack(ctx, chatID, args)
	case "rename":
		b.handleRename(ctx, chatID, args)
	case "history":
		b.handleHistory(ctx, chatID, args)
	case "pending":
		b.handlePending(ctx, chatID)
	case "sequels":
		b.handleSequels(ctx, chatID)
	case "threshold":
		b.handleThreshold(ctx, chatID, args)
	case "group":
		b.handleGroup(ctx, chatID, args)
	case "verify":
		b.handleVerify(ctx, chatID, args)
	case "check":
		b.handleCheck(ctx, chatID)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
