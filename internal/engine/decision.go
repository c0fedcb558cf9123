package engine

import (
	"gamewatch/internal/model"
	"gamewatch/internal/version"
)

// Outcome is the engine's verdict for one tracked game in one cycle.
type Outcome string

// Possible outcomes.
const (
	OutcomeNoOp         Outcome = "noop"
	OutcomeAutoApproved Outcome = "auto_approved"
	OutcomePending      Outcome = "pending_confirmation"
	OutcomeRejected     Outcome = "rejected"
	OutcomeSequel       Outcome = "sequel_suggestion"
)

// Notification describes an event worth delivering to the user. The
// engine describes, it never delivers.
type Notification struct {
	GameTitle     string
	Version       string
	Link          string
	ImageURL      string
	DownloadLinks []string
	Pending       bool
}

// Decision is the engine's full verdict for one tracked game. The
// caller applies its side effects: persisting history or pending
// records, updating trusted fields, dispatching the notification.
type Decision struct {
	Outcome    Outcome
	GameID     int64
	Candidate  *model.CandidateListing
	Info       version.Info
	Compare    version.Result
	Similarity float64
	Confidence float64

	Reason           string
	ClassifierReason string

	// Populated per outcome.
	History      *model.UpdateHistoryEntry
	Pending      *model.PendingUpdate
	Related      *model.PendingRelatedGame
	NewGame      *model.TrackedGame
	Notification *Notification
}
