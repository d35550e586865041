package delivery

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"devnudge-backend/internal/reminder/domain"
	"devnudge-backend/internal/reminder/dto"
	"devnudge-backend/internal/reminder/scheduler"
	"devnudge-backend/internal/reminder/usecase"

	"github.com/gin-gonic/gin"
)

// FollowUpRunner is implemented by scheduler.FollowUpRunner
type FollowUpRunner interface {
	RunDue(ctx context.Context) (scheduler.RunSummary, error)
}

// ReminderHandler handles reminder-related HTTP requests
type ReminderHandler struct {
	reminderUsecase usecase.ReminderUsecase
	runner          FollowUpRunner
}

// NewReminderHandler creates a new ReminderHandler
func NewReminderHandler(reminderUsecase usecase.ReminderUsecase, runner FollowUpRunner) *ReminderHandler {
	return &ReminderHandler{
		reminderUsecase: reminderUsecase,
		runner:          runner,
	}
}

// writeError maps usecase errors to HTTP status codes
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrReminderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Reminder not found"})
	case errors.Is(err, domain.ErrInvalidStatusTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrDuplicatePending):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrTitleRequired),
		errors.Is(err, domain.ErrDueAtRequired),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidFollowUpDays),
		errors.Is(err, usecase.ErrQueryRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// GetReminders returns the reminders of the authenticated user ordered by dueAt
// GET /api/reminders?status=pending&type=email_followup
func (h *ReminderHandler) GetReminders(c *gin.Context) {
	userID := c.GetString("userID")

	filter := domain.ReminderFilter{
		Status: domain.ReminderStatus(c.Query("status")),
		Type:   domain.ReminderType(c.Query("type")),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reminder type"})
		return
	}

	reminders, err := h.reminderUsecase.ListReminders(c.Request.Context(), userID, filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reminders": reminders,
		"total":     len(reminders),
	})
}

// GetReminderByID returns a specific reminder
// GET /api/reminders/:id
func (h *ReminderHandler) GetReminderByID(c *gin.Context) {
	reminder, err := h.reminderUsecase.GetReminder(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reminder)
}

// CreateReminder creates a custom reminder
// POST /api/reminders
func (h *ReminderHandler) CreateReminder(c *gin.Context) {
	var req dto.CreateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reminder, err := h.reminderUsecase.CreateReminder(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reminder)
}

// UpdateReminder updates an existing reminder
// PATCH /api/reminders/:id
func (h *ReminderHandler) UpdateReminder(c *gin.Context) {
	var req dto.UpdateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reminder, err := h.reminderUsecase.UpdateReminder(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reminder)
}

// DeleteReminder deletes a reminder
// DELETE /api/reminders/:id
func (h *ReminderHandler) DeleteReminder(c *gin.Context) {
	if err := h.reminderUsecase.DeleteReminder(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SearchReminders fuzzy-searches reminder titles and descriptions
// GET /api/reminders/search?q=invoice&limit=20
func (h *ReminderHandler) SearchReminders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	results, err := h.reminderUsecase.SearchReminders(c.Request.Context(), c.GetString("userID"), c.Query("q"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// EnableAutoFollowUp turns on escalating follow-ups
// PUT /api/reminders/:id/auto-follow-up
func (h *ReminderHandler) EnableAutoFollowUp(c *gin.Context) {
	var req dto.AutoFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reminder, err := h.reminderUsecase.EnableAutoFollowUp(c.Request.Context(), c.GetString("userID"), c.Param("id"), req.FollowUpDays)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reminder)
}

// DisableAutoFollowUp
// DELETE /api/reminders/:id/auto-follow-up
func (h *ReminderHandler) DisableAutoFollowUp(c *gin.Context) {
	reminder, err := h.reminderUsecase.DisableAutoFollowUp(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reminder)
}

// GenerateReminderDraft previews the next follow-up draft for a reminder
// POST /api/reminders/:id/draft
func (h *ReminderHandler) GenerateReminderDraft(c *gin.Context) {
	draft, err := h.reminderUsecase.GenerateDraft(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"draft":       draft,
		"generatedAt": time.Now().UTC(),
	})
}

// GenerateDraft drafts a follow-up from the request body
// POST /api/drafts
func (h *ReminderHandler) GenerateDraft(c *gin.Context) {
	var req dto.DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"draft":       h.reminderUsecase.GenerateAdHocDraft(c.Request.Context(), req),
		"generatedAt": time.Now().UTC(),
	})
}

// RunFollowUps fires every due automatic follow-up
// POST /api/cron/follow-ups
func (h *ReminderHandler) RunFollowUps(c *gin.Context) {
	if h.runner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "follow-up runner not configured"})
		return
	}

	summary, err := h.runner.RunDue(c.Request.Context())
	if err != nil {
		log.Printf("[CRON] Follow-up run failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("[CRON] Follow-ups: due=%d fired=%d notified=%d failed=%d", summary.Due, summary.Fired, summary.Notified, summary.Failed)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"summary": summary,
	})
}
