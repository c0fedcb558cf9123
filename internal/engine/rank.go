package engine

import (
	"sort"
	"strings"

	"gamewatch/internal/model"
	"gamewatch/internal/version"
)

// rankMatches orders matched candidates best-first: preferred release
// group, then blended confidence, tie-broken by a numeric comparison on
// the game's trusted axis, tie-broken again by raw similarity.
func rankMatches(game *model.TrackedGame, matches []matched) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]

		if game.PreferredGroup != "" {
			ap := strings.EqualFold(a.info.SceneGroup, game.PreferredGroup)
			bp := strings.EqualFold(b.info.SceneGroup, game.PreferredGroup)
			if ap != bp {
				return ap
			}
		}

		if a.score.Confidence != b.score.Confidence {
			return a.score.Confidence > b.score.Confidence
		}

		if ord := trustedAxisOrder(game, a, b); ord != 0 {
			return ord > 0
		}

		return a.sim > b.sim
	})
}

// trustedAxisOrder compares two candidates on whichever axis the game
// trusts: positive when a carries the newer value.
func trustedAxisOrder(game *model.TrackedGame, a, b matched) int {
	if game.VersionTrusted {
		if ord := version.OrderVersions(a.info.Version, b.info.Version); ord != 0 {
			return ord
		}
	}
	if game.BuildTrusted {
		if ord := version.OrderBuilds(a.info.Build, b.info.Build); ord != 0 {
			return ord
		}
	}
	return 0
}
