package bot

import (
	"fmt"
	"strings"

	"gamewatch/internal/engine"
	"gamewatch/internal/model"
)

// FormatUpdateNotice renders an auto-approved update notification.
func FormatUpdateNotice(n engine.Notification) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Update: %s", n.GameTitle)
	if n.Version != "" {
		fmt.Fprintf(&sb, " → %s", n.Version)
	}
	if n.Link != "" {
		fmt.Fprintf(&sb, "\n%s", n.Link)
	}
	for _, dl := range n.DownloadLinks {
		fmt.Fprintf(&sb, "\n%s", dl)
	}
	return sb.String()
}

// FormatPendingUpdate renders a detection awaiting confirmation.
func FormatPendingUpdate(p model.PendingUpdate, n engine.Notification) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Possible update: %s", n.GameTitle)
	if p.Version != "" {
		if p.PreviousVersion != "" {
			fmt.Fprintf(&sb, "\n%s → %s", p.PreviousVersion, p.Version)
		} else {
			fmt.Fprintf(&sb, "\nVersion %s", p.Version)
		}
	}
	if p.Build != "" {
		fmt.Fprintf(&sb, "\nBuild %s", p.Build)
	}
	fmt.Fprintf(&sb, "\nConfidence: %.0f%%", p.Confidence*100)
	if p.Reason != "" {
		fmt.Fprintf(&sb, "\n%s", p.Reason)
	}
	if p.ClassifierReason != "" {
		fmt.Fprintf(&sb, "\nClassifier: %s", p.ClassifierReason)
	}
	if p.Link != "" {
		fmt.Fprintf(&sb, "\n%s", p.Link)
	}
	return sb.String()
}

// FormatSequelSuggestion renders a related-game suggestion.
func FormatSequelSuggestion(r model.PendingRelatedGame) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found a possible %s: %s", relationLabel(r.RelationType), r.Title)
	fmt.Fprintf(&sb, "\nSimilarity: %.0f%%", r.Similarity*100)
	if r.Link != "" {
		fmt.Fprintf(&sb, "\n%s", r.Link)
	}
	return sb.String()
}

// FormatGameList renders the /list response.
func FormatGameList(games []model.TrackedGame) string {
	if len(games) == 0 {
		return "No tracked games. Use /track <title> to add one."
	}
	var sb strings.Builder
	sb.WriteString("Tracked games:\n")
	for _, g := range games {
		fmt.Fprintf(&sb, "\n#%d %s", g.ID, g.Title)
		if v := currentLabel(g); v != "" {
			fmt.Fprintf(&sb, " — %s", v)
		}
		if g.HasUnseenUpdate {
			sb.WriteString(" (new!)")
		}
	}
	return sb.String()
}

// FormatGameInfo renders the /info response.
func FormatGameInfo(g *model.TrackedGame) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "#%d %s\n", g.ID, g.Title)
	if g.VerifiedName != "" && g.VerifiedName != g.Title {
		fmt.Fprintf(&sb, "Verified name: %s\n", g.VerifiedName)
	}
	if g.OriginalTitle != "" && g.OriginalTitle != g.Title {
		fmt.Fprintf(&sb, "Original title: %s\n", g.OriginalTitle)
	}
	if g.CurrentVersion != "" {
		fmt.Fprintf(&sb, "Version: %s%s\n", g.CurrentVersion, trustMark(g.VersionTrusted))
	}
	if g.CurrentBuild != "" {
		fmt.Fprintf(&sb, "Build: %s%s\n", g.CurrentBuild, trustMark(g.BuildTrusted))
	}
	fmt.Fprintf(&sb, "Auto-approval threshold: %.2f\n", g.AutoApproveThreshold)
	if g.PreferredGroup != "" {
		fmt.Fprintf(&sb, "Preferred group: %s\n", g.PreferredGroup)
	}
	if g.AvoidRepacks {
		sb.WriteString("Repacks: avoided\n")
	}
	if g.TrackSequels {
		sb.WriteString("Sequel suggestions: on\n")
	}
	if g.LastCheckAt != nil {
		fmt.Fprintf(&sb, "Last checked: %s\n", g.LastCheckAt.Format("2006-01-02 15:04"))
	}
	if g.Link != "" {
		fmt.Fprintf(&sb, "%s\n", g.Link)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatHistory renders the /history response.
func FormatHistory(g *model.TrackedGame, entries []model.UpdateHistoryEntry) string {
	if len(entries) == 0 {
		return fmt.Sprintf("No recorded updates for %s yet.", g.Title)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "History for %s:\n", g.Title)
	for _, e := range entries {
		fmt.Fprintf(&sb, "\n%s", e.CreatedAt.Format("2006-01-02"))
		if e.PreviousVersion != "" {
			fmt.Fprintf(&sb, "  %s → %s", e.PreviousVersion, e.Version)
		} else {
			fmt.Fprintf(&sb, "  %s", e.Version)
		}
		fmt.Fprintf(&sb, " (%s", e.ChangeType)
		if e.ApprovedBy == model.ApprovedUser {
			sb.WriteString(", confirmed")
		}
		sb.WriteString(")")
	}
	return sb.String()
}

// pendingNotification reconstructs a notification from a stored pending
// update, for redelivery via /pending.
func pendingNotification(p model.PendingUpdate) engine.Notification {
	return engine.Notification{
		GameTitle: p.NewTitle,
		Version:   p.Version,
		Link:      p.Link,
		ImageURL:  p.ImageURL,
		Pending:   true,
	}
}

func currentLabel(g model.TrackedGame) string {
	switch {
	case g.CurrentVersion != "":
		return g.CurrentVersion
	case g.CurrentBuild != "":
		return "build " + g.CurrentBuild
	case g.ReleaseTier == model.TierProper:
		return "PROPER"
	default:
		return ""
	}
}

func trustMark(trusted bool) string {
	if trusted {
		return ""
	}
	return " (unverified)"
}

func relationLabel(t model.RelationType) string {
	switch t {
	case model.RelationSequel:
		return "sequel"
	case model.RelationEdition:
		return "edition"
	case model.RelationDLC:
		return "DLC"
	case model.RelationRemaster:
		return "remaster"
	default:
		return "related game"
	}
}
