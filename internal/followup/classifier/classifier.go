// Package classifier decides which normalized candidates deserve a reminder.
package classifier

import (
	"time"

	"devnudge-backend/internal/followup/domain"
	reminderdomain "devnudge-backend/internal/reminder/domain"
)

const (
	EmailFollowUpAge = 72 * time.Hour
	StalePRAge       = 120 * time.Hour
	StaleIssueAge    = 168 * time.Hour
)

// Classify returns the candidates that need a reminder, each with SuggestedPriority set.
// It is pure: no I/O, and the input slice is not modified.
func Classify(candidates []domain.CandidateItem, now time.Time) []domain.CandidateItem {
	out := make([]domain.CandidateItem, 0, len(candidates))
	for _, c := range candidates {
		priority, ok := evaluate(c, now)
		if !ok {
			continue
		}
		c.SuggestedPriority = priority
		out = append(out, c)
	}
	return out
}

func evaluate(c domain.CandidateItem, now time.Time) (reminderdomain.Priority, bool) {
	// Bad data never raises an alarm.
	if c.ReferenceTime.IsZero() {
		return "", false
	}
	age := now.Sub(c.ReferenceTime)

	switch c.Kind {
	case domain.KindEmailFollowUp:
		if c.LastSentByOwner && age >= EmailFollowUpAge {
			return reminderdomain.PriorityMedium, true
		}

	case domain.KindPRReview:
		switch c.Signal {
		case domain.SignalReviewRequested:
			return reminderdomain.PriorityHigh, true
		case domain.SignalAuthoredStale:
			if age >= StalePRAge {
				return reminderdomain.PriorityMedium, true
			}
		}

	case domain.KindIssueStale:
		if c.Open && age >= StaleIssueAge {
			return reminderdomain.PriorityLow, true
		}
	}

	return "", false
}
