package engine

import (
	"time"

	"gamewatch/internal/model"
	"gamewatch/internal/version"
)

// Promote applies a user-confirmed pending update to the tracked game
// and returns the history entry to append. It runs the same canonical
// comparator as the automatic path.
func Promote(game *model.TrackedGame, p model.PendingUpdate) *model.UpdateHistoryEntry {
	info := version.Info{Version: p.Version, Build: p.Build, UpdateType: p.UpdateType}
	if p.Version != "" {
		if _, ok := version.ParseDateVersion(p.Version); ok {
			info.IsDateVersion = true
		}
	}

	cmp := version.Compare(currentInfo(game), info)
	changeType := cmp.ChangeType
	significance := cmp.Significance
	if changeType == "" {
		// The user overrode the comparator; record the transition as an
		// explicit reset.
		changeType = model.ChangeInitial
		significance = 1
	}

	entry := &model.UpdateHistoryEntry{
		GameID:          game.ID,
		Version:         displayVersion(info),
		PreviousVersion: displayVersion(currentInfo(game)),
		ChangeType:      changeType,
		Significance:    significance,
		Link:            p.Link,
		ApprovedBy:      model.ApprovedUser,
	}

	if p.Version != "" {
		game.CurrentVersion = p.Version
		game.VersionTrusted = true
	}
	if p.Build != "" {
		game.CurrentBuild = p.Build
		game.BuildTrusted = true
	}
	if tier := version.Tier(info); tier > game.ReleaseTier {
		game.ReleaseTier = tier
	}
	if p.Link != "" {
		game.Link = p.Link
	}
	game.SortPriority = time.Now().Unix()
	game.HasUnseenUpdate = true

	return entry
}
