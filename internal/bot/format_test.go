package bot

import (
	"strings"
	"testing"
	"time"

	"gamewatch/internal/engine"
	"gamewatch/internal/model"
)

func TestFormatUpdateNotice(t *testing.T) {
	got := FormatUpdateNotice(engine.Notification{
		GameTitle:     "Hades",
		Version:       "v1.38",
		Link:          "https://releases.example/hades-v138",
		DownloadLinks: []string{"https://releases.example/files/hades.torrent"},
	})
	for _, want := range []string{"Hades", "v1.38", "https://releases.example/hades-v138", "hades.torrent"} {
		if !strings.Contains(got, want) {
			t.Errorf("notice missing %q:\n%s", want, got)
		}
	}
}

func TestFormatPendingUpdate(t *testing.T) {
	got := FormatPendingUpdate(model.PendingUpdate{
		Version:          "v1.38",
		PreviousVersion:  "v1.37",
		Confidence:       0.72,
		Reason:           "confidence below threshold",
		ClassifierReason: "probably an update",
		Link:             "https://releases.example/hades-v138",
	}, engine.Notification{GameTitle: "Hades", Pending: true})

	for _, want := range []string{
		"Possible update", "Hades", "v1.37 → v1.38", "72%",
		"confidence below threshold", "probably an update",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("pending text missing %q:\n%s", want, got)
		}
	}
}

func TestFormatSequelSuggestion(t *testing.T) {
	got := FormatSequelSuggestion(model.PendingRelatedGame{
		Title:        "Mythic Quest II",
		Link:         "https://releases.example/mq2",
		RelationType: model.RelationSequel,
		Similarity:   0.3,
	})
	for _, want := range []string{"sequel", "Mythic Quest II", "30%"} {
		if !strings.Contains(got, want) {
			t.Errorf("suggestion missing %q:\n%s", want, got)
		}
	}
}

func TestFormatGameList(t *testing.T) {
	if got := FormatGameList(nil); !strings.Contains(got, "/track") {
		t.Errorf("empty list text = %q", got)
	}

	got := FormatGameList([]model.TrackedGame{
		{ID: 1, Title: "Hades", CurrentVersion: "v1.38", HasUnseenUpdate: true},
		{ID: 2, Title: "Factorio", CurrentBuild: "368883"},
		{ID: 3, Title: "Untangled"},
	})
	for _, want := range []string{"#1 Hades", "v1.38", "(new!)", "#2 Factorio", "build 368883", "#3 Untangled"} {
		if !strings.Contains(got, want) {
			t.Errorf("list missing %q:\n%s", want, got)
		}
	}
}

func TestFormatGameInfo(t *testing.T) {
	checked := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	got := FormatGameInfo(&model.TrackedGame{
		ID:                   1,
		Title:                "Hades",
		OriginalTitle:        "Hades v1.0-CODEX",
		VerifiedName:         "Hades (2020)",
		CurrentVersion:       "v1.38",
		VersionTrusted:       true,
		CurrentBuild:         "100",
		AutoApproveThreshold: 0.9,
		PreferredGroup:       "CODEX",
		AvoidRepacks:         true,
		LastCheckAt:          &checked,
	})
	for _, want := range []string{
		"#1 Hades", "Hades (2020)", "Hades v1.0-CODEX",
		"v1.38", "100 (unverified)", "0.90", "CODEX", "Repacks: avoided",
		"2024-03-06",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("info missing %q:\n%s", want, got)
		}
	}
}

func TestFormatHistory(t *testing.T) {
	game := &model.TrackedGame{Title: "Hades"}

	if got := FormatHistory(game, nil); !strings.Contains(got, "No recorded updates") {
		t.Errorf("empty history text = %q", got)
	}

	got := FormatHistory(game, []model.UpdateHistoryEntry{
		{
			Version:         "v1.38",
			PreviousVersion: "v1.37",
			ChangeType:      model.ChangeMinor,
			ApprovedBy:      model.ApprovedUser,
			CreatedAt:       time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC),
		},
	})
	for _, want := range []string{"History for Hades", "2024-03-06", "v1.37 → v1.38", "minor", "confirmed"} {
		if !strings.Contains(got, want) {
			t.Errorf("history missing %q:\n%s", want, got)
		}
	}
}
