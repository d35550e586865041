package delivery

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	followupdomain "devnudge-backend/internal/followup/domain"
	"devnudge-backend/internal/integration/domain"
	"devnudge-backend/internal/integration/dto"
	"devnudge-backend/internal/integration/usecase"

	"github.com/gin-gonic/gin"
)

// IntegrationHandler handles integration and sync HTTP requests
type IntegrationHandler struct {
	integrationUsecase usecase.IntegrationUsecase
}

// NewIntegrationHandler creates a new IntegrationHandler
func NewIntegrationHandler(integrationUsecase usecase.IntegrationUsecase) *IntegrationHandler {
	return &IntegrationHandler{integrationUsecase: integrationUsecase}
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrUnknownProvider) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// GetIntegrations lists the user's integrations
// GET /api/integrations
func (h *IntegrationHandler) GetIntegrations(c *gin.Context) {
	integrations, err := h.integrationUsecase.ListIntegrations(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"integrations": integrations})
}

// UpsertIntegration creates or updates the user's integration for one provider
// POST /api/integrations
func (h *IntegrationHandler) UpsertIntegration(c *gin.Context) {
	var req dto.UpsertIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	integration, err := h.integrationUsecase.UpsertIntegration(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, integration)
}

// SyncIntegration runs a sync pass for the user. "all" syncs every enabled integration.
// POST /api/integrations/:type/sync
func (h *IntegrationHandler) SyncIntegration(c *gin.Context) {
	userID := c.GetString("userID")
	ctx := c.Request.Context()

	if c.Param("type") == "all" {
		results, err := h.integrationUsecase.SyncAll(ctx, userID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
		return
	}

	result, err := h.integrationUsecase.SyncProvider(ctx, userID, domain.Provider(c.Param("type")))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        result.Error == followupdomain.ErrorNone,
		"result":         result,
		"needsReconnect": result.Error.NeedsReconnect(),
	})
}

// GetSyncRuns returns the most recent sync passes of the user
// GET /api/integrations/sync-runs?limit=20
func (h *IntegrationHandler) GetSyncRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := h.integrationUsecase.ListSyncRuns(c.Request.Context(), c.GetString("userID"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// RunSync syncs every user with an enabled integration
// POST /api/cron/sync?type=github
func (h *IntegrationHandler) RunSync(c *gin.Context) {
	batches, err := h.integrationUsecase.SyncEnabled(c.Request.Context(), domain.Provider(c.Query("type")))
	if err != nil {
		log.Printf("[CRON] Sync failed: %v", err)
		writeError(c, err)
		return
	}

	for _, b := range batches {
		log.Printf("[CRON] %s sync: users=%d created=%d errors=%v", b.Provider, b.Users, b.Created, b.Errors)
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"batches": batches,
	})
}
