package repository

import (
	"context"
	"time"

	"devnudge-backend/internal/integration/domain"
)

// IntegrationRepository stores at most one Integration per (userID, type)
type IntegrationRepository interface {
	// Upsert inserts or updates enabled/config for (integration.UserID, integration.Type)
	// and returns the stored row
	Upsert(ctx context.Context, integration *domain.Integration) (*domain.Integration, error)
	FindByUser(ctx context.Context, userID string) ([]*domain.Integration, error)
	// FindByUserAndType returns (nil, nil) when the user never connected the provider
	FindByUserAndType(ctx context.Context, userID string, provider domain.Provider) (*domain.Integration, error)
	FindEnabled(ctx context.Context, provider domain.Provider) ([]*domain.Integration, error)
	// TouchLastSync sets lastSyncAt; it does nothing when no integration exists
	TouchLastSync(ctx context.Context, userID string, provider domain.Provider, at time.Time) error
}

// SyncRunRepository keeps the history of sync passes
type SyncRunRepository interface {
	Record(ctx context.Context, run *domain.SyncRun) error
	ListRecent(ctx context.Context, userID string, limit int) ([]*domain.SyncRun, error)
}
