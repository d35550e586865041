package domain

import (
	"time"

	reminderdomain "devnudge-backend/internal/reminder/domain"
)

// CandidateKind mirrors the system-sourced reminder types
type CandidateKind = reminderdomain.ReminderType

const (
	KindEmailFollowUp = reminderdomain.TypeEmailFollowUp
	KindPRReview      = reminderdomain.TypePRReview
	KindIssueStale    = reminderdomain.TypeIssueStale
)

// Signal records which source query produced a tracker candidate.
// pr_review candidates come from two queries with different policies.
type Signal string

const (
	SignalAwaitingReply   Signal = "awaiting_reply"
	SignalReviewRequested Signal = "review_requested"
	SignalAuthoredStale   Signal = "authored_stale"
	SignalAssigned        Signal = "assigned"
)

// CandidateItem is an ephemeral, normalized record produced by a source adapter
// for one sync pass. It is never persisted directly.
type CandidateItem struct {
	SourceID string
	Kind     CandidateKind
	Signal   Signal
	Title    string
	Snippet  string
	// ReferenceTime is the zero time when the source had no usable timestamp.
	ReferenceTime     time.Time
	SourceURL         string
	SuggestedPriority reminderdomain.Priority

	// LastSentByOwner is true when the newest message of a mail thread was sent by the account owner.
	LastSentByOwner bool
	// Open is false for closed tracker items.
	Open          bool
	RecipientName string
}
