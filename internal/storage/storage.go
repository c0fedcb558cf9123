// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"time"

	"gamewatch/internal/model"
)

// Storage is the interface for all persistence operations.
type Storage interface {
	CreateGame(ctx context.Context, game *model.TrackedGame) error
	GetGame(ctx context.Context, id int64) (*model.TrackedGame, error)
	ListGames(ctx context.Context, chatID int64) ([]model.TrackedGame, error)
	ListDueGames(ctx context.Context, interval time.Duration) ([]model.TrackedGame, error)
	UpdateGame(ctx context.Context, game *model.TrackedGame) error
	TouchLastCheck(ctx context.Context, id int64) error
	SoftDeleteGame(ctx context.Context, id int64) error

	AppendHistory(ctx context.Context, entry *model.UpdateHistoryEntry) error
	ListHistory(ctx context.Context, gameID int64, limit int) ([]model.UpdateHistoryEntry, error)

	CreatePendingUpdate(ctx context.Context, p *model.PendingUpdate) error
	GetPendingUpdate(ctx context.Context, id int64) (*model.PendingUpdate, error)
	ListPendingUpdates(ctx context.Context, chatID int64) ([]model.PendingUpdate, error)
	DeletePendingUpdate(ctx context.Context, id int64) error

	CreateRelatedGame(ctx context.Context, r *model.PendingRelatedGame) error
	GetRelatedGame(ctx context.Context, id int64) (*model.PendingRelatedGame, error)
	ListRelatedGames(ctx context.Context, chatID int64) ([]model.PendingRelatedGame, error)
	DismissRelatedGame(ctx context.Context, id int64) error

	MarkHandled(ctx context.Context, gameID int64, link string) error
	ListHandledLinks(ctx context.Context, gameID int64) (map[string]struct{}, error)

	Close() error
}
