package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"devnudge-backend/internal/reminder/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormReminderRepository implements ReminderRepository using GORM
type gormReminderRepository struct {
	db *gorm.DB
}

// NewGormReminderRepository creates a new GORM-based ReminderRepository
func NewGormReminderRepository(db *gorm.DB) ReminderRepository {
	return &gormReminderRepository{db: db}
}

func (r *gormReminderRepository) Create(ctx context.Context, reminder *domain.Reminder) error {
	if reminder.ID == "" {
		reminder.ID = uuid.New().String()
	}
	if reminder.Status == "" {
		reminder.Status = domain.StatusPending
	}
	now := time.Now()
	reminder.CreatedAt = now
	reminder.UpdatedAt = now

	err := r.db.WithContext(ctx).Create(reminder).Error
	if err != nil && isUniqueViolation(err) {
		return domain.ErrDuplicatePending
	}
	return err
}

func (r *gormReminderRepository) FindByIDAndUser(ctx context.Context, id, userID string) (*domain.Reminder, error) {
	var reminder domain.Reminder
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&reminder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reminder, nil
}

func (r *gormReminderRepository) FindPendingBySource(ctx context.Context, userID, sourceID string) (*domain.Reminder, error) {
	var reminder domain.Reminder
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND source_id = ? AND status = ?", userID, sourceID, domain.StatusPending).
		Limit(1).
		First(&reminder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reminder, nil
}

func (r *gormReminderRepository) FindByUser(ctx context.Context, userID string, filter domain.ReminderFilter) ([]*domain.Reminder, error) {
	var reminders []*domain.Reminder

	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	err := query.Order("due_at ASC").Find(&reminders).Error
	return reminders, err
}

func (r *gormReminderRepository) Update(ctx context.Context, reminder *domain.Reminder) error {
	reminder.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).
		Model(reminder).
		Where("user_id = ?", reminder.UserID).
		Select("*").
		Omit("id", "user_id", "created_at").
		Updates(reminder)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return domain.ErrDuplicatePending
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrReminderNotFound
	}
	return nil
}

func (r *gormReminderRepository) Delete(ctx context.Context, id, userID string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Reminder{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *gormReminderRepository) FindDueForFollowUp(ctx context.Context, now time.Time) ([]*domain.Reminder, error) {
	var reminders []*domain.Reminder
	err := r.db.WithContext(ctx).
		Where("auto_follow_up = ? AND status = ? AND next_follow_up_at IS NOT NULL AND next_follow_up_at <= ?",
			true, domain.StatusPending, now).
		Order("next_follow_up_at ASC").
		Find(&reminders).Error
	return reminders, err
}

// isUniqueViolation matches postgres (23505) and sqlite unique-constraint errors.
// gorm.ErrDuplicatedKey is only returned when TranslateError is enabled.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
