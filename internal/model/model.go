// Package model defines the domain types used across the application.
package model

import "time"

// ReleaseTier orders releases by how trustworthy their version signal is.
// A tracked game never moves down a tier automatically.
type ReleaseTier int

// Release tiers, lowest first.
const (
	TierFirstRelease ReleaseTier = 0
	TierProper       ReleaseTier = 1
	TierVersioned    ReleaseTier = 2
)

// ReleaseType classifies the release itself (scene tags on the post).
type ReleaseType string

// Supported release types.
const (
	ReleaseNone     ReleaseType = ""
	ReleaseProper   ReleaseType = "proper"
	ReleaseRepack   ReleaseType = "repack"
	ReleaseCrackfix ReleaseType = "crackfix"
	ReleaseInternal ReleaseType = "internal"
)

// UpdateType classifies what kind of change a post announces.
type UpdateType string

// Supported update types.
const (
	UpdateNone   UpdateType = ""
	UpdateUpdate UpdateType = "update"
	UpdatePatch  UpdateType = "patch"
	UpdateHotfix UpdateType = "hotfix"
	UpdateDLC    UpdateType = "dlc"
)

// ChangeType describes which version component moved between releases.
type ChangeType string

// Supported change types.
const (
	ChangeMajor   ChangeType = "major"
	ChangeMinor   ChangeType = "minor"
	ChangePatch   ChangeType = "patch"
	ChangeBuild   ChangeType = "build"
	ChangeDate    ChangeType = "date"
	ChangeProper  ChangeType = "proper"
	ChangeInitial ChangeType = "initial"
)

// RelationType classifies a suggested relationship between a tracked game
// and a similar-but-different listing.
type RelationType string

// Supported relation types.
const (
	RelationSequel   RelationType = "sequel"
	RelationEdition  RelationType = "edition"
	RelationDLC      RelationType = "dlc"
	RelationRemaster RelationType = "remaster"
)

// Provenance records who approved an update transition.
type Provenance string

// Approval provenance values.
const (
	ApprovedAuto Provenance = "auto"
	ApprovedUser Provenance = "user"
)

// TrackedGame is a user's subscription to a game.
// VersionTrusted and BuildTrusted are independent axes: either, both,
// or neither may be set at a time.
type TrackedGame struct {
	ID            int64
	ExternalID    string
	ChatID        int64
	Title         string
	OriginalTitle string
	VerifiedName  string
	SourceSite    string
	Link          string
	CatalogueID   string

	CurrentVersion string
	VersionTrusted bool
	CurrentBuild   string
	BuildTrusted   bool
	ReleaseTier    ReleaseTier

	AutoApproveThreshold float64
	PreferredGroup       string
	AvoidRepacks         bool
	TrackSequels         bool

	SortPriority    int64
	HasUnseenUpdate bool
	IsDeleted       bool
	LastCheckAt     *time.Time
	CreatedAt       time.Time
}

// CandidateListing is one externally observed release post. Ephemeral;
// never persisted on its own.
type CandidateListing struct {
	Title         string
	Link          string
	Source        string
	Published     *time.Time
	ImageURL      string
	Description   string
	DownloadLinks []string
}

// PendingUpdate is a matched candidate that did not clear auto-approval.
// Confirmed pendings are promoted to history; rejected ones are discarded.
type PendingUpdate struct {
	ID               int64
	GameID           int64
	Version          string
	Build            string
	UpdateType       UpdateType
	NewTitle         string
	Link             string
	ImageURL         string
	PreviousVersion  string
	Confidence       float64
	Reason           string
	ClassifierReason string
	CreatedAt        time.Time
}

// UpdateHistoryEntry is an approved, immutable version transition.
type UpdateHistoryEntry struct {
	ID              int64
	GameID          int64
	Version         string
	PreviousVersion string
	ChangeType      ChangeType
	Significance    int
	Link            string
	ApprovedBy      Provenance
	CreatedAt       time.Time
}

// PendingRelatedGame is a suggested sequel/edition/DLC relationship
// awaiting user review.
type PendingRelatedGame struct {
	ID           int64
	GameID       int64
	Title        string
	Link         string
	RelationType RelationType
	Similarity   float64
	Dismissed    bool
	CreatedAt    time.Time
}
