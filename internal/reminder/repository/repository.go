package repository

import (
	"context"
	"time"

	"devnudge-backend/internal/reminder/domain"
)

// ReminderRepository defines the interface for reminder data access.
// Every read and write that takes a userID is scoped to that owner.
type ReminderRepository interface {
	// Create assigns an id and timestamps. Returns domain.ErrDuplicatePending when a
	// pending reminder already exists for the same (userID, sourceID).
	Create(ctx context.Context, reminder *domain.Reminder) error

	// FindByIDAndUser returns (nil, nil) when the reminder does not exist or belongs to someone else
	FindByIDAndUser(ctx context.Context, id, userID string) (*domain.Reminder, error)

	// FindPendingBySource is the dedup lookup
	FindPendingBySource(ctx context.Context, userID, sourceID string) (*domain.Reminder, error)

	// FindByUser lists a user's reminders ordered by dueAt ascending
	FindByUser(ctx context.Context, userID string, filter domain.ReminderFilter) ([]*domain.Reminder, error)

	// Update saves reminder if it is owned by reminder.UserID
	Update(ctx context.Context, reminder *domain.Reminder) error

	// Delete removes a reminder; false when nothing owned by userID matched
	Delete(ctx context.Context, id, userID string) (bool, error)

	// FindDueForFollowUp returns pending reminders with autoFollowUp on and nextFollowUpAt <= now
	FindDueForFollowUp(ctx context.Context, now time.Time) ([]*domain.Reminder, error)
}
