package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"devnudge-backend/internal/reminder/domain"
	"devnudge-backend/internal/reminder/dto"
	"devnudge-backend/internal/reminder/repository"
	"devnudge-backend/internal/reminder/scheduler"
	"devnudge-backend/pkg/ai"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

const (
	searchThreshold    = 60
	defaultSearchLimit = 20
	defaultDraftDays   = 3
)

var ErrQueryRequired = errors.New("search query is required")

// reminderUsecase implements ReminderUsecase interface
type reminderUsecase struct {
	reminderRepo repository.ReminderRepository
	drafts       ai.DraftGenerator
	now          func() time.Time
}

// NewReminderUsecase creates a new instance of reminderUsecase
func NewReminderUsecase(reminderRepo repository.ReminderRepository) ReminderUsecase {
	return &reminderUsecase{
		reminderRepo: reminderRepo,
		now:          time.Now,
	}
}

func (u *reminderUsecase) SetDraftGenerator(drafts ai.DraftGenerator) {
	u.drafts = drafts
}

func (u *reminderUsecase) CreateReminder(ctx context.Context, userID string, req dto.CreateReminderRequest) (*domain.Reminder, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrTitleRequired
	}
	if req.DueAt == nil || req.DueAt.IsZero() {
		return nil, domain.ErrDueAtRequired
	}

	priority := domain.PriorityMedium
	if req.Priority != "" {
		priority = domain.Priority(req.Priority)
		if !priority.Valid() {
			return nil, domain.ErrInvalidPriority
		}
	}

	reminder := &domain.Reminder{
		UserID:      userID,
		Type:        domain.TypeCustom,
		Title:       title,
		Description: trimmedPtr(req.Description),
		SourceURL:   trimmedPtr(req.SourceURL),
		DueAt:       *req.DueAt,
		Priority:    priority,
		Status:      domain.StatusPending,
	}
	if err := u.reminderRepo.Create(ctx, reminder); err != nil {
		return nil, err
	}
	return reminder, nil
}

func (u *reminderUsecase) GetReminder(ctx context.Context, userID, id string) (*domain.Reminder, error) {
	reminder, err := u.reminderRepo.FindByIDAndUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if reminder == nil {
		return nil, domain.ErrReminderNotFound
	}
	return reminder, nil
}

func (u *reminderUsecase) ListReminders(ctx context.Context, userID string, filter domain.ReminderFilter) ([]*domain.Reminder, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	return u.reminderRepo.FindByUser(ctx, userID, filter)
}

func (u *reminderUsecase) UpdateReminder(ctx context.Context, userID, id string, req dto.UpdateReminderRequest) (*domain.Reminder, error) {
	reminder, err := u.GetReminder(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrTitleRequired
		}
		reminder.Title = title
	}
	if req.Description != nil {
		reminder.Description = trimmedPtr(req.Description)
	}
	if req.DueAt != nil {
		if req.DueAt.IsZero() {
			return nil, domain.ErrDueAtRequired
		}
		reminder.DueAt = *req.DueAt
	}
	if req.Priority != nil {
		p := domain.Priority(*req.Priority)
		if !p.Valid() {
			return nil, domain.ErrInvalidPriority
		}
		reminder.Priority = p
	}
	if req.Status != nil {
		status := domain.ReminderStatus(*req.Status)
		if !status.Valid() {
			return nil, domain.ErrInvalidStatus
		}
		if reminder.Status == domain.StatusCompleted && status == domain.StatusPending {
			return nil, domain.ErrInvalidStatusTransition
		}
		reminder.Status = status
	}

	if err := u.reminderRepo.Update(ctx, reminder); err != nil {
		return nil, err
	}
	return reminder, nil
}

func (u *reminderUsecase) DeleteReminder(ctx context.Context, userID, id string) error {
	deleted, err := u.reminderRepo.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrReminderNotFound
	}
	return nil
}

func (u *reminderUsecase) SearchReminders(ctx context.Context, userID, query string, limit int) ([]dto.SearchResult, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, ErrQueryRequired
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	reminders, err := u.reminderRepo.FindByUser(ctx, userID, domain.ReminderFilter{})
	if err != nil {
		return nil, err
	}

	results := make([]dto.SearchResult, 0)
	for _, r := range reminders {
		if score := matchScore(q, r); score >= searchThreshold {
			results = append(results, dto.SearchResult{Reminder: r, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// matchScore is the best of a whole-title ratio and partial matches on title and description
func matchScore(q string, r *domain.Reminder) int {
	title := strings.ToLower(r.Title)
	best := fuzzy.Ratio(q, title)
	if s := fuzzy.PartialRatio(q, title); s > best {
		best = s
	}
	if desc := strings.ToLower(domain.StringValue(r.Description)); desc != "" {
		if s := fuzzy.PartialRatio(q, desc); s > best {
			best = s
		}
	}
	return best
}

func (u *reminderUsecase) EnableAutoFollowUp(ctx context.Context, userID, id string, followUpDays int) (*domain.Reminder, error) {
	if !scheduler.ValidFollowUpDays(followUpDays) {
		return nil, domain.ErrInvalidFollowUpDays
	}
	reminder, err := u.GetReminder(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if _, err := scheduler.Enable(reminder, followUpDays, u.now()); err != nil {
		return nil, err
	}
	if err := u.reminderRepo.Update(ctx, reminder); err != nil {
		return nil, err
	}
	return reminder, nil
}

func (u *reminderUsecase) DisableAutoFollowUp(ctx context.Context, userID, id string) (*domain.Reminder, error) {
	reminder, err := u.GetReminder(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	scheduler.Disable(reminder)
	if err := u.reminderRepo.Update(ctx, reminder); err != nil {
		return nil, err
	}
	return reminder, nil
}

func (u *reminderUsecase) GenerateDraft(ctx context.Context, userID, id string) (ai.Draft, error) {
	reminder, err := u.GetReminder(ctx, userID, id)
	if err != nil {
		return ai.Draft{}, err
	}
	return u.draft(ctx, scheduler.DraftContextFor(reminder, u.now())), nil
}

func (u *reminderUsecase) GenerateAdHocDraft(ctx context.Context, req dto.DraftRequest) ai.Draft {
	days := req.DaysSinceLastEmail
	if days <= 0 {
		days = defaultDraftDays
	}
	attempts := req.PreviousAttempts
	if attempts < 0 {
		attempts = 0
	}
	return u.draft(ctx, ai.DraftContext{
		OriginalSubject:    strings.TrimSpace(req.OriginalSubject),
		OriginalSnippet:    strings.TrimSpace(req.OriginalSnippet),
		RecipientName:      strings.TrimSpace(req.RecipientName),
		DaysSinceLastEmail: days,
		PreviousAttempts:   attempts,
	})
}

func (u *reminderUsecase) draft(ctx context.Context, dc ai.DraftContext) ai.Draft {
	if u.drafts == nil {
		return ai.TemplateDraft(dc)
	}
	return u.drafts.GenerateFollowUpDraft(ctx, dc)
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	return domain.StringPtr(strings.TrimSpace(*s))
}
