package usecase

import (
	"context"

	followupdomain "devnudge-backend/internal/followup/domain"
	"devnudge-backend/internal/integration/domain"
	"devnudge-backend/internal/integration/dto"
)

// IntegrationUsecase manages a user's provider connections and the sync passes run over them
type IntegrationUsecase interface {
	ListIntegrations(ctx context.Context, userID string) ([]*domain.Integration, error)
	UpsertIntegration(ctx context.Context, userID string, req dto.UpsertIntegrationRequest) (*domain.Integration, error)

	// EnsureEnabled marks the provider enabled after its account is connected and starts a
	// first sync in the background. Existing config is preserved.
	EnsureEnabled(ctx context.Context, userID string, provider domain.Provider) error

	// SyncProvider runs one user-triggered pass; failures are reported on the result
	SyncProvider(ctx context.Context, userID string, provider domain.Provider) (followupdomain.SyncResult, error)
	SyncAll(ctx context.Context, userID string) ([]followupdomain.SyncResult, error)

	// SyncEnabled runs the cron pass for one provider, or for every provider when provider is empty
	SyncEnabled(ctx context.Context, provider domain.Provider) ([]followupdomain.BatchResult, error)

	ListSyncRuns(ctx context.Context, userID string, limit int) ([]*domain.SyncRun, error)
}
