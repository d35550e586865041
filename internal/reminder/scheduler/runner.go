package scheduler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"devnudge-backend/internal/reminder/domain"
	"devnudge-backend/internal/reminder/repository"
	"devnudge-backend/pkg/ai"
	"devnudge-backend/pkg/fcm"
)

// minDraftDays matches the age at which an email becomes follow-up worthy
const minDraftDays = 3

// TokenStore is the slice of auth/repository.FCMTokenRepository the runner needs
type TokenStore interface {
	TokensForUser(ctx context.Context, userID string) ([]string, error)
	DeleteToken(ctx context.Context, token string) error
}

// RunSummary is returned to the cron caller
type RunSummary struct {
	Due      int `json:"due"`
	Fired    int `json:"fired"`
	Notified int `json:"notified"`
	Failed   int `json:"failed"`
}

// FollowUpRunner fires automatic follow-ups that are due: it drafts a message,
// escalates the schedule, saves, then pushes a notification.
type FollowUpRunner struct {
	reminders repository.ReminderRepository
	drafts    ai.DraftGenerator
	tokens    TokenStore
	notifier  fcm.Notifier
	now       func() time.Time
}

// NewFollowUpRunner creates a runner. notifier may be nil when FCM is not configured.
func NewFollowUpRunner(
	reminders repository.ReminderRepository,
	drafts ai.DraftGenerator,
	tokens TokenStore,
	notifier fcm.Notifier,
	now func() time.Time,
) *FollowUpRunner {
	if now == nil {
		now = time.Now
	}
	return &FollowUpRunner{
		reminders: reminders,
		drafts:    drafts,
		tokens:    tokens,
		notifier:  notifier,
		now:       now,
	}
}

// DraftContextFor describes reminder r to the draft service as of now.
// Age counts from the source item's reference time, or from creation for custom reminders.
func DraftContextFor(r *domain.Reminder, now time.Time) ai.DraftContext {
	since := r.CreatedAt
	if r.SourceReferenceAt != nil && !r.SourceReferenceAt.IsZero() {
		since = *r.SourceReferenceAt
	}
	days := int(now.Sub(since) / day)
	if days < minDraftDays {
		days = minDraftDays
	}
	return ai.DraftContext{
		OriginalSubject:    strings.TrimSpace(strings.TrimPrefix(r.Title, "Follow up: ")),
		OriginalSnippet:    domain.StringValue(r.Description),
		DaysSinceLastEmail: days,
		PreviousAttempts:   r.FollowUpAttempts,
	}
}

// RunDue processes every reminder whose follow-up is due. A failure on one
// reminder is logged and does not stop the others.
func (s *FollowUpRunner) RunDue(ctx context.Context) (RunSummary, error) {
	var summary RunSummary
	now := s.now()

	due, err := s.reminders.FindDueForFollowUp(ctx, now)
	if err != nil {
		return summary, fmt.Errorf("find due follow-ups: %w", err)
	}
	summary.Due = len(due)
	if len(due) == 0 {
		return summary, nil
	}

	log.Printf("[FollowUpRunner] Found %d reminders due for follow-up", len(due))

	for _, r := range due {
		if ctx.Err() != nil {
			log.Printf("[FollowUpRunner] Stopping early: %v", ctx.Err())
			break
		}
		// The store filters already; re-check so a stale read never double-fires.
		if !r.IsDueForFollowUp(now) {
			continue
		}

		draft := s.drafts.GenerateFollowUpDraft(ctx, DraftContextFor(r, now))
		r.DraftSubject = draft.Subject
		r.DraftBody = draft.Body
		r.DraftTone = string(draft.Tone)

		sched := Escalate(r, now)
		if err := s.reminders.Update(ctx, r); err != nil {
			summary.Failed++
			log.Printf("[FollowUpRunner] Error saving follow-up for reminder %s: %v", r.ID, err)
			continue
		}
		summary.Fired++
		log.Printf("[FollowUpRunner] Reminder %s fired (attempt %d), next at %s",
			r.ID, sched.FollowUpAttempts, sched.NextFollowUpAt.Format(time.RFC3339))

		if s.notify(ctx, r, draft) {
			summary.Notified++
		}
	}

	return summary, nil
}

func (s *FollowUpRunner) notify(ctx context.Context, r *domain.Reminder, draft ai.Draft) bool {
	if s.notifier == nil || s.tokens == nil {
		return false
	}

	tokens, err := s.tokens.TokensForUser(ctx, r.UserID)
	if err != nil {
		log.Printf("[FollowUpRunner] Error getting FCM tokens for user %s: %v", r.UserID, err)
		return false
	}
	if len(tokens) == 0 {
		return false
	}

	notification := fcm.NotificationData{
		Title: r.Title,
		Body:  "Follow-up draft ready: " + draft.Subject,
		Data: map[string]string{
			"type":        "follow_up",
			"reminder_id": r.ID,
			"attempts":    strconv.Itoa(r.FollowUpAttempts),
			"tone":        string(draft.Tone),
		},
		ClickAction: "/reminders/" + r.ID,
	}

	failedTokens, err := s.notifier.SendToDevices(ctx, tokens, notification)
	if err != nil {
		log.Printf("[FollowUpRunner] Error sending follow-up for reminder %s: %v", r.ID, err)
		return false
	}

	// Cleanup failed tokens
	for _, token := range failedTokens {
		if err := s.tokens.DeleteToken(ctx, token); err != nil {
			log.Printf("[FollowUpRunner] Error deleting stale FCM token: %v", err)
		}
	}
	return len(failedTokens) < len(tokens)
}
