package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"devnudge-backend/pkg/ai"

	"github.com/gin-gonic/gin"
)

// RuntimeConfig holds AI settings that can be changed without a restart.
// It implements ai.RuntimeSettings, so providers pick up changes on their next call.
type RuntimeConfig struct {
	mu            sync.RWMutex
	ollamaBaseURL string
	ollamaModel   string
	cerebrasModel string
}

// NewRuntimeConfig initializes runtime config from static config
func NewRuntimeConfig(ollamaBaseURL, ollamaModel, cerebrasModel string) *RuntimeConfig {
	return &RuntimeConfig{
		ollamaBaseURL: ollamaBaseURL,
		ollamaModel:   ollamaModel,
		cerebrasModel: cerebrasModel,
	}
}

func (rc *RuntimeConfig) OllamaBaseURL() string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.ollamaBaseURL
}

func (rc *RuntimeConfig) OllamaModel() string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.ollamaModel
}

func (rc *RuntimeConfig) CerebrasModel() string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.cerebrasModel
}

func (rc *RuntimeConfig) snapshot() gin.H {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return gin.H{
		"ollama_base_url": rc.ollamaBaseURL,
		"ollama_model":    rc.ollamaModel,
		"cerebras_model":  rc.cerebrasModel,
	}
}

// UpdateAISettingsRequest represents the request body for updating AI settings.
// Empty fields keep their current value.
type UpdateAISettingsRequest struct {
	OllamaBaseURL string `json:"ollama_base_url"`
	OllamaModel   string `json:"ollama_model,omitempty"`
	CerebrasModel string `json:"cerebras_model,omitempty"`
}

// GetAISettings returns current AI configuration
// GET /api/settings/ai
func (rc *RuntimeConfig) GetAISettings(c *gin.Context) {
	c.JSON(http.StatusOK, rc.snapshot())
}

// UpdateAISettings updates AI configuration at runtime
// PUT /api/settings/ai
func (rc *RuntimeConfig) UpdateAISettings(c *gin.Context) {
	var req UpdateAISettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.OllamaBaseURL == "" && req.OllamaModel == "" && req.CerebrasModel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	rc.mu.Lock()
	if req.OllamaBaseURL != "" {
		rc.ollamaBaseURL = req.OllamaBaseURL
	}
	if req.OllamaModel != "" {
		rc.ollamaModel = req.OllamaModel
	}
	if req.CerebrasModel != "" {
		rc.cerebrasModel = req.CerebrasModel
	}
	rc.mu.Unlock()

	settings := rc.snapshot()
	settings["message"] = "AI settings updated successfully"
	c.JSON(http.StatusOK, settings)
}

// TestOllamaConnection tests if the Ollama server is reachable
// POST /api/settings/ai/test
func (rc *RuntimeConfig) TestOllamaConnection(c *gin.Context) {
	var req struct {
		OllamaBaseURL string `json:"ollama_base_url"`
	}
	// No body means test the current URL
	_ = c.ShouldBindJSON(&req)
	if req.OllamaBaseURL == "" {
		req.OllamaBaseURL = rc.OllamaBaseURL()
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	models, err := ai.NewOllamaService(req.OllamaBaseURL, rc.OllamaModel()).Ping(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"connected": false,
			"error":     err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected":       true,
		"ollama_base_url": req.OllamaBaseURL,
		"models":          models,
	})
}
