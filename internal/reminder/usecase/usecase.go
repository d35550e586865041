package usecase

import (
	"context"

	"devnudge-backend/internal/reminder/domain"
	"devnudge-backend/internal/reminder/dto"
	"devnudge-backend/pkg/ai"
)

// ReminderUsecase defines the interface for reminder business logic.
// Every operation is scoped to userID; a reminder owned by someone else is reported as not found.
type ReminderUsecase interface {
	// CreateReminder creates a custom reminder (user-created, no source)
	CreateReminder(ctx context.Context, userID string, req dto.CreateReminderRequest) (*domain.Reminder, error)

	GetReminder(ctx context.Context, userID, id string) (*domain.Reminder, error)

	// ListReminders returns the user's reminders ordered by dueAt
	ListReminders(ctx context.Context, userID string, filter domain.ReminderFilter) ([]*domain.Reminder, error)

	// UpdateReminder applies a partial update; status may only move pending -> completed
	UpdateReminder(ctx context.Context, userID, id string, req dto.UpdateReminderRequest) (*domain.Reminder, error)

	DeleteReminder(ctx context.Context, userID, id string) error

	// SearchReminders fuzzy-matches query against title and description
	SearchReminders(ctx context.Context, userID, query string, limit int) ([]dto.SearchResult, error)

	EnableAutoFollowUp(ctx context.Context, userID, id string, followUpDays int) (*domain.Reminder, error)
	DisableAutoFollowUp(ctx context.Context, userID, id string) (*domain.Reminder, error)

	// GenerateDraft drafts the next follow-up for a reminder without firing it
	GenerateDraft(ctx context.Context, userID, id string) (ai.Draft, error)

	// GenerateAdHocDraft drafts a follow-up from caller-supplied context
	GenerateAdHocDraft(ctx context.Context, req dto.DraftRequest) ai.Draft

	// SetDraftGenerator sets the AI service used for drafts
	SetDraftGenerator(drafts ai.DraftGenerator)
}
