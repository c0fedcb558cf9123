package version

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"gamewatch/internal/model"
)

func TestCompareNumeric(t *testing.T) {
	tests := []struct {
		name    string
		current Info
		cand    Info
		want    Result
	}{
		{
			name:    "minor bump",
			current: Info{Version: "1.2.3"},
			cand:    Info{Version: "1.3.0"},
			want:    Result{IsNewer: true, ChangeType: model.ChangeMinor, Significance: 5},
		},
		{
			name:    "patch bump",
			current: Info{Version: "1.2.3"},
			cand:    Info{Version: "1.2.4"},
			want:    Result{IsNewer: true, ChangeType: model.ChangePatch, Significance: 3},
		},
		{
			name:    "major bump",
			current: Info{Version: "1.9"},
			cand:    Info{Version: "2.0"},
			want:    Result{IsNewer: true, ChangeType: model.ChangeMajor, Significance: 10},
		},
		{
			name:    "fourth component scores as build",
			current: Info{Version: "1.2.3.4"},
			cand:    Info{Version: "1.2.3.5"},
			want:    Result{IsNewer: true, ChangeType: model.ChangeBuild, Significance: 2},
		},
		{
			name:    "equal versions are not newer",
			current: Info{Version: "1.2.3"},
			cand:    Info{Version: "1.2.3"},
			want:    Result{},
		},
		{
			name:    "older version is not newer",
			current: Info{Version: "1.3"},
			cand:    Info{Version: "1.2"},
			want:    Result{},
		},
		{
			name:    "v prefix is ignored for ordering",
			current: Info{Version: "v1.2"},
			cand:    Info{Version: "1.3"},
			want:    Result{IsNewer: true, ChangeType: model.ChangeMinor, Significance: 5},
		},
		{
			name:    "equal versions fall through to builds",
			current: Info{Version: "1.0", Build: "100"},
			cand:    Info{Version: "1.0", Build: "200"},
			want:    Result{IsNewer: true, ChangeType: model.ChangeBuild, Significance: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(tt.current, tt.cand)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Compare mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompareBuildsOnly(t *testing.T) {
	got := Compare(Info{Build: "100"}, Info{Build: "150"})
	want := Result{IsNewer: true, ChangeType: model.ChangeBuild, Significance: 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Compare mismatch (-want +got):\n%s", diff)
	}

	if got := Compare(Info{Build: "150"}, Info{Build: "100"}); got.IsNewer {
		t.Error("older build reported as newer")
	}
}

func TestCompareHierarchy(t *testing.T) {
	tests := []struct {
		name    string
		current Info
		cand    Info
		want    Result
	}{
		{
			name:    "versioned current rejects unversioned candidate",
			current: Info{Version: "1.2"},
			cand:    Info{UpdateType: model.UpdateUpdate},
			want:    Result{SkipDueToHierarchy: true},
		},
		{
			name:    "versioned current rejects bare proper",
			current: Info{Version: "1.2"},
			cand:    Info{ReleaseType: model.ReleaseProper},
			want:    Result{SkipDueToHierarchy: true},
		},
		{
			name:    "proper over first release",
			current: Info{},
			cand:    Info{ReleaseType: model.ReleaseProper},
			want:    Result{IsNewer: true, ChangeType: model.ChangeProper, Significance: 7},
		},
		{
			name:    "first structured version over proper",
			current: Info{ReleaseType: model.ReleaseProper},
			cand:    Info{Version: "v1.0"},
			want:    Result{IsNewer: true, ChangeType: model.ChangeInitial, Significance: 8},
		},
		{
			name:    "first date version over nothing",
			current: Info{},
			cand:    Info{Version: "2024-01-15", IsDateVersion: true},
			want:    Result{IsNewer: true, ChangeType: model.ChangeDate, Significance: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(tt.current, tt.cand)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Compare mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompareDates(t *testing.T) {
	cur := Info{Version: "2024-01-01", IsDateVersion: true}
	cand := Info{Version: "2024-02-15", IsDateVersion: true}

	got := Compare(cur, cand)
	want := Result{IsNewer: true, ChangeType: model.ChangeDate, Significance: 5}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("newer date mismatch (-want +got):\n%s", diff)
	}

	if got := Compare(cand, cur); got.IsNewer {
		t.Error("older date reported as newer")
	}
}

func TestCompareDateDeferral(t *testing.T) {
	cur := Info{Version: "1.2.0"}
	cand := Info{Version: "2024-03-10", IsDateVersion: true}

	// A fresh date stamp over a numeric version waits for the regular
	// versioned release.
	now := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	got := CompareAt(cur, cand, now)
	if !got.ShouldWaitForRegular {
		t.Errorf("CompareAt fresh date = %+v, want ShouldWaitForRegular", got)
	}

	// A stale date stamp is simply not comparable.
	later := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	got = CompareAt(cur, cand, later)
	if got.ShouldWaitForRegular || got.IsNewer {
		t.Errorf("CompareAt stale date = %+v, want inert result", got)
	}

	// The other direction: a numeric version replacing a date stamp is
	// an upgrade.
	got = CompareAt(cand, cur, later)
	want := Result{IsNewer: true, ChangeType: model.ChangeMajor, Significance: 6}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("numeric over date mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareSuspicious(t *testing.T) {
	tests := []struct {
		name      string
		current   string
		cand      string
		wantNewer bool
	}{
		{
			name:      "zero padding scheme change",
			current:   "6.06",
			cand:      "6.6",
			wantNewer: false,
		},
		{
			name:      "component count growth",
			current:   "6.06",
			cand:      "6.6.0.0",
			wantNewer: false,
		},
		{
			name:      "major version jump",
			current:   "1.0",
			cand:      "5.0",
			wantNewer: true,
		},
		{
			name:      "minor version jump",
			current:   "1.2",
			cand:      "1.40",
			wantNewer: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(Info{Version: tt.current}, Info{Version: tt.cand})
			if !got.Suspicious {
				t.Fatalf("Compare(%q, %q) = %+v, want Suspicious", tt.current, tt.cand, got)
			}
			if got.SuspicionReason == "" {
				t.Error("Suspicious result carries no reason")
			}
			if got.IsNewer != tt.wantNewer {
				t.Errorf("IsNewer = %v, want %v", got.IsNewer, tt.wantNewer)
			}
		})
	}

	if got := Compare(Info{Version: "1.2.3"}, Info{Version: "1.3.0"}); got.Suspicious {
		t.Errorf("ordinary minor bump flagged suspicious: %+v", got)
	}
}

func TestTier(t *testing.T) {
	tests := []struct {
		info Info
		want model.ReleaseTier
	}{
		{Info{Version: "1.0"}, model.TierVersioned},
		{Info{Version: "2024-01-01", IsDateVersion: true}, model.TierVersioned},
		{Info{ReleaseType: model.ReleaseProper}, model.TierProper},
		{Info{Build: "100"}, model.TierFirstRelease},
		{Info{}, model.TierFirstRelease},
	}
	for _, tt := range tests {
		if got := Tier(tt.info); got != tt.want {
			t.Errorf("Tier(%+v) = %v, want %v", tt.info, got, tt.want)
		}
	}
}

func TestOrderVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.2", "1.3", -1},
		{"2.0", "1.9", 1},
		{"1.2", "1.2.0", 0},
		{"v1.2", "1.2", 0},
		{"", "1.0", 0},
	}
	for _, tt := range tests {
		if got := OrderVersions(tt.a, tt.b); got != tt.want {
			t.Errorf("OrderVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestOrderBuilds(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"100", "200", -1},
		{"300", "200", 1},
		{"100", "100", 0},
		{"", "100", 0},
		{"abc", "100", 0},
	}
	for _, tt := range tests {
		if got := OrderBuilds(tt.a, tt.b); got != tt.want {
			t.Errorf("OrderBuilds(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
