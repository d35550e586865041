package dto

import "devnudge-backend/internal/integration/domain"

// UpsertIntegrationRequest enables or disables a provider for the current user
type UpsertIntegrationRequest struct {
	Type    domain.Provider  `json:"type" binding:"required"`
	Enabled *bool            `json:"enabled"`
	Config  domain.ConfigMap `json:"config"`
}
