package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"gamewatch/internal/model"
	"gamewatch/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

const gameColumns = `id, external_id, chat_id, title, original_title, verified_name, source_site,
	link, catalogue_id, current_version, version_trusted, current_build, build_trusted,
	release_tier, auto_approve_threshold, preferred_group, avoid_repacks, track_sequels,
	sort_priority, has_unseen_update, is_deleted, last_check_at, created_at`

// CreateGame inserts a new tracked game and populates its ID and CreatedAt.
func (s *SQLite) CreateGame(ctx context.Context, g *model.TrackedGame) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tracked_games (external_id, chat_id, title, original_title, verified_name,
		 source_site, link, catalogue_id, current_version, version_trusted, current_build,
		 build_trusted, release_tier, auto_approve_threshold, preferred_group, avoid_repacks,
		 track_sequels, sort_priority, has_unseen_update, is_deleted, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ExternalID, g.ChatID, g.Title, g.OriginalTitle, g.VerifiedName,
		g.SourceSite, g.Link, g.CatalogueID, g.CurrentVersion, boolToInt(g.VersionTrusted),
		g.CurrentBuild, boolToInt(g.BuildTrusted), int(g.ReleaseTier), g.AutoApproveThreshold,
		g.PreferredGroup, boolToInt(g.AvoidRepacks), boolToInt(g.TrackSequels),
		g.SortPriority, boolToInt(g.HasUnseenUpdate), boolToInt(g.IsDeleted), now,
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	g.ID = id
	g.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// GetGame returns a single tracked game by its ID.
func (s *SQLite) GetGame(ctx context.Context, id int64) (*model.TrackedGame, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM tracked_games WHERE id = ?`, id,
	)
	return scanGame(row)
}

// ListGames returns all non-deleted games belonging to the given chat.
func (s *SQLite) ListGames(ctx context.Context, chatID int64) ([]model.TrackedGame, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM tracked_games
		 WHERE chat_id = ? AND is_deleted = 0
		 ORDER BY sort_priority DESC, id`, chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanGames(rows)
}

// ListDueGames returns all non-deleted games not checked within interval.
func (s *SQLite) ListDueGames(ctx context.Context, interval time.Duration) ([]model.TrackedGame, error) {
	cutoff := time.Now().UTC().Add(-interval).Format(timeLayout)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM tracked_games
		 WHERE is_deleted = 0
		   AND (last_check_at IS NULL OR last_check_at <= ?)
		 ORDER BY id`, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("query due games: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanGames(rows)
}

// UpdateGame persists changes to an existing tracked game.
func (s *SQLite) UpdateGame(ctx context.Context, g *model.TrackedGame) error {
	var lastCheck *string
	if g.LastCheckAt != nil {
		v := g.LastCheckAt.UTC().Format(timeLayout)
		lastCheck = &v
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE tracked_games SET title = ?, original_title = ?, verified_name = ?,
		 source_site = ?, link = ?, catalogue_id = ?, current_version = ?, version_trusted = ?,
		 current_build = ?, build_trusted = ?, release_tier = ?, auto_approve_threshold = ?,
		 preferred_group = ?, avoid_repacks = ?, track_sequels = ?, sort_priority = ?,
		 has_unseen_update = ?, is_deleted = ?, last_check_at = ?
		 WHERE id = ?`,
		g.Title, g.OriginalTitle, g.VerifiedName,
		g.SourceSite, g.Link, g.CatalogueID, g.CurrentVersion, boolToInt(g.VersionTrusted),
		g.CurrentBuild, boolToInt(g.BuildTrusted), int(g.ReleaseTier), g.AutoApproveThreshold,
		g.PreferredGroup, boolToInt(g.AvoidRepacks), boolToInt(g.TrackSequels), g.SortPriority,
		boolToInt(g.HasUnseenUpdate), boolToInt(g.IsDeleted), lastCheck, g.ID,
	)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	return nil
}

// TouchLastCheck advances a game's last-checked timestamp. Called even
// when processing failed, so a poison title cannot stall the batch.
func (s *SQLite) TouchLastCheck(ctx context.Context, id int64) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`UPDATE tracked_games SET last_check_at = ? WHERE id = ?`, now, id,
	)
	if err != nil {
		return fmt.Errorf("touch last check: %w", err)
	}
	return nil
}

// SoftDeleteGame marks a game deleted without purging its rows.
func (s *SQLite) SoftDeleteGame(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tracked_games SET is_deleted = 1 WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("soft delete game: %w", err)
	}
	return nil
}

// AppendHistory inserts an approved version transition.
func (s *SQLite) AppendHistory(ctx context.Context, e *model.UpdateHistoryEntry) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO update_history (game_id, version, previous_version, change_type,
		 significance, link, approved_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.GameID, e.Version, e.PreviousVersion, string(e.ChangeType),
		e.Significance, e.Link, string(e.ApprovedBy), now,
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	e.ID = id
	e.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ListHistory returns the newest history entries for a game.
func (s *SQLite) ListHistory(ctx context.Context, gameID int64, limit int) ([]model.UpdateHistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, game_id, version, previous_version, change_type, significance, link,
		 approved_by, created_at
		 FROM update_history WHERE game_id = ? ORDER BY id DESC LIMIT ?`, gameID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.UpdateHistoryEntry
	for rows.Next() {
		var e model.UpdateHistoryEntry
		var changeType, approvedBy, created string
		if err := rows.Scan(&e.ID, &e.GameID, &e.Version, &e.PreviousVersion, &changeType,
			&e.Significance, &e.Link, &approvedBy, &created); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.ChangeType = model.ChangeType(changeType)
		e.ApprovedBy = model.Provenance(approvedBy)
		e.CreatedAt, _ = time.Parse(timeLayout, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CreatePendingUpdate enqueues a detected update awaiting confirmation.
func (s *SQLite) CreatePendingUpdate(ctx context.Context, p *model.PendingUpdate) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO pending_updates (game_id, version, build, update_type, new_title, link,
		 image_url, previous_version, confidence, reason, classifier_reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.GameID, p.Version, p.Build, string(p.UpdateType), p.NewTitle, p.Link,
		p.ImageURL, p.PreviousVersion, p.Confidence, p.Reason, p.ClassifierReason, now,
	)
	if err != nil {
		return fmt.Errorf("insert pending update: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	p.ID = id
	p.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// GetPendingUpdate returns a single pending update by its ID.
func (s *SQLite) GetPendingUpdate(ctx context.Context, id int64) (*model.PendingUpdate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, game_id, version, build, update_type, new_title, link, image_url,
		 previous_version, confidence, reason, classifier_reason, created_at
		 FROM pending_updates WHERE id = ?`, id,
	)
	return scanPending(row)
}

// ListPendingUpdates returns pending updates for all of a chat's games.
func (s *SQLite) ListPendingUpdates(ctx context.Context, chatID int64) ([]model.PendingUpdate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.game_id, p.version, p.build, p.update_type, p.new_title, p.link,
		 p.image_url, p.previous_version, p.confidence, p.reason, p.classifier_reason, p.created_at
		 FROM pending_updates p
		 JOIN tracked_games g ON g.id = p.game_id
		 WHERE g.chat_id = ? AND g.is_deleted = 0
		 ORDER BY p.id`, chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("query pending updates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pendings []model.PendingUpdate
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, err
		}
		pendings = append(pendings, *p)
	}
	return pendings, rows.Err()
}

// DeletePendingUpdate removes a pending update (confirm or reject).
func (s *SQLite) DeletePendingUpdate(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pending_updates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete pending update: %w", err)
	}
	return nil
}

// CreateRelatedGame enqueues a sequel/edition/DLC suggestion.
func (s *SQLite) CreateRelatedGame(ctx context.Context, r *model.PendingRelatedGame) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO pending_related_games (game_id, title, link, relation_type, similarity,
		 dismissed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.GameID, r.Title, r.Link, string(r.RelationType), r.Similarity,
		boolToInt(r.Dismissed), now,
	)
	if err != nil {
		return fmt.Errorf("insert related game: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	r.ID = id
	r.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// GetRelatedGame returns a single suggestion by its ID.
func (s *SQLite) GetRelatedGame(ctx context.Context, id int64) (*model.PendingRelatedGame, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, game_id, title, link, relation_type, similarity, dismissed, created_at
		 FROM pending_related_games WHERE id = ?`, id,
	)
	return scanRelated(row)
}

// ListRelatedGames returns undismissed suggestions for a chat's games.
func (s *SQLite) ListRelatedGames(ctx context.Context, chatID int64) ([]model.PendingRelatedGame, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.game_id, r.title, r.link, r.relation_type, r.similarity, r.dismissed, r.created_at
		 FROM pending_related_games r
		 JOIN tracked_games g ON g.id = r.game_id
		 WHERE g.chat_id = ? AND g.is_deleted = 0 AND r.dismissed = 0
		 ORDER BY r.id`, chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("query related games: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var related []model.PendingRelatedGame
	for rows.Next() {
		r, err := scanRelated(rows)
		if err != nil {
			return nil, err
		}
		related = append(related, *r)
	}
	return related, rows.Err()
}

// DismissRelatedGame marks a suggestion dismissed.
func (s *SQLite) DismissRelatedGame(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE pending_related_games SET dismissed = 1 WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("dismiss related game: %w", err)
	}
	return nil
}

// MarkHandled records that a listing link was offered or applied for a
// game, so a rejected or approved listing is never surfaced again.
func (s *SQLite) MarkHandled(ctx context.Context, gameID int64, link string) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO handled_links (game_id, link, handled_at) VALUES (?, ?, ?)`,
		gameID, link, now,
	)
	if err != nil {
		return fmt.Errorf("mark handled: %w", err)
	}
	return nil
}

// ListHandledLinks returns all handled listing links for a game.
func (s *SQLite) ListHandledLinks(ctx context.Context, gameID int64) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT link FROM handled_links WHERE game_id = ?`, gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("query handled links: %w", err)
	}
	defer func() { _ = rows.Close() }()

	links := make(map[string]struct{})
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, fmt.Errorf("scan handled link: %w", err)
		}
		links[link] = struct{}{}
	}
	return links, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanGame(row scannable) (*model.TrackedGame, error) {
	var g model.TrackedGame
	var versionTrusted, buildTrusted, releaseTier, avoidRepacks, trackSequels int
	var hasUnseen, isDeleted int
	var lastCheck, created sql.NullString
	err := row.Scan(&g.ID, &g.ExternalID, &g.ChatID, &g.Title, &g.OriginalTitle, &g.VerifiedName,
		&g.SourceSite, &g.Link, &g.CatalogueID, &g.CurrentVersion, &versionTrusted,
		&g.CurrentBuild, &buildTrusted, &releaseTier, &g.AutoApproveThreshold,
		&g.PreferredGroup, &avoidRepacks, &trackSequels, &g.SortPriority, &hasUnseen,
		&isDeleted, &lastCheck, &created)
	if err != nil {
		return nil, fmt.Errorf("scan game: %w", err)
	}
	g.VersionTrusted = versionTrusted == 1
	g.BuildTrusted = buildTrusted == 1
	g.ReleaseTier = model.ReleaseTier(releaseTier)
	g.AvoidRepacks = avoidRepacks == 1
	g.TrackSequels = trackSequels == 1
	g.HasUnseenUpdate = hasUnseen == 1
	g.IsDeleted = isDeleted == 1
	if lastCheck.Valid {
		t, _ := time.Parse(timeLayout, lastCheck.String)
		g.LastCheckAt = &t
	}
	if created.Valid {
		g.CreatedAt, _ = time.Parse(timeLayout, created.String)
	}
	return &g, nil
}

func scanGames(rows *sql.Rows) ([]model.TrackedGame, error) {
	var games []model.TrackedGame
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

func scanPending(row scannable) (*model.PendingUpdate, error) {
	var p model.PendingUpdate
	var updateType, created string
	err := row.Scan(&p.ID, &p.GameID, &p.Version, &p.Build, &updateType, &p.NewTitle,
		&p.Link, &p.ImageURL, &p.PreviousVersion, &p.Confidence, &p.Reason,
		&p.ClassifierReason, &created)
	if err != nil {
		return nil, fmt.Errorf("scan pending update: %w", err)
	}
	p.UpdateType = model.UpdateType(updateType)
	p.CreatedAt, _ = time.Parse(timeLayout, created)
	return &p, nil
}

func scanRelated(row scannable) (*model.PendingRelatedGame, error) {
	var r model.PendingRelatedGame
	var relationType, created string
	var dismissed int
	err := row.Scan(&r.ID, &r.GameID, &r.Title, &r.Link, &relationType, &r.Similarity,
		&dismissed, &created)
	if err != nil {
		return nil, fmt.Errorf("scan related game: %w", err)
	}
	r.RelationType = model.RelationType(relationType)
	r.Dismissed = dismissed == 1
	r.CreatedAt, _ = time.Parse(timeLayout, created)
	return &r, nil
}
