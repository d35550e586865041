package dto

import (
	"time"

	"devnudge-backend/internal/reminder/domain"
)

// CreateReminderRequest creates a custom reminder
type CreateReminderRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	DueAt       *time.Time `json:"dueAt"`
	Priority    string     `json:"priority,omitempty"`
	SourceURL   *string    `json:"sourceUrl,omitempty"`
}

// UpdateReminderRequest represents the fields that can be updated
type UpdateReminderRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueAt       *time.Time `json:"dueAt,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	Status      *string    `json:"status,omitempty"`
}

type AutoFollowUpRequest struct {
	FollowUpDays int `json:"followUpDays" binding:"required"`
}

// DraftRequest asks for an ad-hoc follow-up draft
type DraftRequest struct {
	OriginalSubject    string `json:"originalSubject" binding:"required"`
	OriginalSnippet    string `json:"originalSnippet" binding:"required"`
	RecipientName      string `json:"recipientName,omitempty"`
	DaysSinceLastEmail int    `json:"daysSinceLastEmail,omitempty"`
	PreviousAttempts   int    `json:"previousAttempts,omitempty"`
}

type SearchResult struct {
	Reminder *domain.Reminder `json:"reminder"`
	Score    int              `json:"score"`
}
