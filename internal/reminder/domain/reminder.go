package domain

import (
	"errors"
	"time"
)

// Priority represents reminder priority level
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ReminderType is where a reminder came from
type ReminderType string

const (
	TypeEmailFollowUp ReminderType = "email_followup"
	TypePRReview      ReminderType = "pr_review"
	TypeIssueStale    ReminderType = "issue_stale"
	TypeCustom        ReminderType = "custom"
)

func (t ReminderType) Valid() bool {
	switch t {
	case TypeEmailFollowUp, TypePRReview, TypeIssueStale, TypeCustom:
		return true
	}
	return false
}

// ReminderStatus only ever moves pending -> completed
type ReminderStatus string

const (
	StatusPending   ReminderStatus = "pending"
	StatusCompleted ReminderStatus = "completed"
)

func (s ReminderStatus) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

var (
	ErrReminderNotFound        = errors.New("reminder not found")
	ErrInvalidStatusTransition = errors.New("completed reminders cannot be reopened")
	ErrDuplicatePending        = errors.New("a pending reminder already exists for this source")
	ErrTitleRequired           = errors.New("title is required")
	ErrDueAtRequired           = errors.New("dueAt is required")
	ErrInvalidFollowUpDays     = errors.New("followUpDays must be between 1 and 14")
	ErrInvalidPriority         = errors.New("priority must be one of low, medium, high, urgent")
	ErrInvalidStatus           = errors.New("status must be pending or completed")
)

// Reminder is a user-visible follow-up task, created by a sync pass or by the user directly.
// SourceID is a pointer so that custom reminders store NULL and stay out of the pending-source unique index.
type Reminder struct {
	ID          string         `json:"id" gorm:"primaryKey" bson:"_id"`
	UserID      string         `json:"userId" gorm:"index;not null;uniqueIndex:idx_reminder_pending_source,where:status = 'pending'" bson:"userId"`
	Type        ReminderType   `json:"type" gorm:"not null" bson:"type"`
	Title       string         `json:"title" gorm:"not null" bson:"title"`
	Description *string        `json:"description,omitempty" bson:"description,omitempty"`
	SourceID    *string        `json:"sourceId,omitempty" gorm:"uniqueIndex:idx_reminder_pending_source,where:status = 'pending'" bson:"sourceId,omitempty"`
	SourceURL   *string        `json:"sourceUrl,omitempty" bson:"sourceUrl,omitempty"`
	DueAt       time.Time      `json:"dueAt" gorm:"index" bson:"dueAt"`
	Priority    Priority       `json:"priority" gorm:"default:medium" bson:"priority"`
	Status      ReminderStatus `json:"status" gorm:"index;default:pending" bson:"status"`

	// SourceReferenceAt is when the source item last moved (last email sent, PR updated, issue opened)
	SourceReferenceAt *time.Time `json:"sourceReferenceAt,omitempty" bson:"sourceReferenceAt,omitempty"`

	AutoFollowUp     bool       `json:"autoFollowUp" gorm:"default:false" bson:"autoFollowUp"`
	FollowUpDays     *int       `json:"followUpDays,omitempty" bson:"followUpDays,omitempty"`
	NextFollowUpAt   *time.Time `json:"nextFollowUpAt,omitempty" gorm:"index" bson:"nextFollowUpAt,omitempty"`
	FollowUpAttempts int        `json:"followUpAttempts" gorm:"default:0" bson:"followUpAttempts"`

	// Latest draft produced when an automatic follow-up fired
	DraftSubject string `json:"draftSubject,omitempty" bson:"draftSubject,omitempty"`
	DraftBody    string `json:"draftBody,omitempty" bson:"draftBody,omitempty"`
	DraftTone    string `json:"draftTone,omitempty" bson:"draftTone,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// IsDueForFollowUp reports whether the escalation scheduler should fire for r at now.
func (r *Reminder) IsDueForFollowUp(now time.Time) bool {
	return r.AutoFollowUp &&
		r.Status == StatusPending &&
		r.NextFollowUpAt != nil &&
		!r.NextFollowUpAt.After(now)
}

// ReminderFilter narrows list queries; zero values mean "any".
type ReminderFilter struct {
	Status ReminderStatus
	Type   ReminderType
}

func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
