package engine

import (
	"testing"

	"gamewatch/internal/model"
)

func TestDetectRelation(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		cand    string
		want    model.RelationType
		wantNil bool
	}{
		{
			name: "numbered sequel",
			base: "Risk of Rain",
			cand: "Risk of Rain 2",
			want: model.RelationSequel,
		},
		{
			name: "roman numeral sequel",
			base: "Mythic Quest",
			cand: "Mythic Quest II v1.0-RUNE",
			want: model.RelationSequel,
		},
		{
			name: "dlc keyword",
			base: "Hades",
			cand: "Hades: Persephone DLC",
			want: model.RelationDLC,
		},
		{
			name: "remaster keyword",
			base: "Dark Souls",
			cand: "Dark Souls Remastered",
			want: model.RelationRemaster,
		},
		{
			name: "edition keyword",
			base: "Hades",
			cand: "Hades Deluxe",
			want: model.RelationEdition,
		},
		{
			name: "colon subtitle over matching prefix",
			base: "Star Wars Jedi",
			cand: "Star Wars Jedi: Survivor",
			want: model.RelationSequel,
		},
		{
			name: "prefix containment",
			base: "Hades",
			cand: "Hades Gaiden",
			want: model.RelationSequel,
		},
		{
			name:    "same game with decoration is not related",
			base:    "Hades",
			cand:    "Hades v1.0-CODEX",
			wantNil: true,
		},
		{
			name:    "unrelated title",
			base:    "Hades",
			cand:    "Factorio",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectRelation(tt.base, tt.cand)
			if tt.wantNil {
				if got != nil {
					t.Errorf("DetectRelation(%q, %q) = %+v, want nil", tt.base, tt.cand, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("DetectRelation(%q, %q) = nil, want %s", tt.base, tt.cand, tt.want)
			}
			if got.Type != tt.want {
				t.Errorf("Type = %s, want %s", got.Type, tt.want)
			}
			if got.Confidence <= 0 || got.Confidence > 1 {
				t.Errorf("Confidence = %v, want in (0,1]", got.Confidence)
			}
		})
	}
}

func TestDetectRelationConfidenceOrdering(t *testing.T) {
	sequel := DetectRelation("Risk of Rain", "Risk of Rain 2")
	dlc := DetectRelation("Hades", "Hades: Persephone DLC")
	if sequel == nil || dlc == nil {
		t.Fatal("expected relations")
	}
	if sequel.Confidence <= dlc.Confidence {
		t.Errorf("sequel confidence %v not above dlc confidence %v", sequel.Confidence, dlc.Confidence)
	}
}
