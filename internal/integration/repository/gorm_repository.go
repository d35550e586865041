package repository

import (
	"context"
	"errors"
	"time"

	"devnudge-backend/internal/integration/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type integrationRepository struct {
	db *gorm.DB
}

// NewIntegrationRepository creates a new GORM-based IntegrationRepository
func NewIntegrationRepository(db *gorm.DB) IntegrationRepository {
	return &integrationRepository{db: db}
}

// Upsert is an atomic INSERT ... ON CONFLICT (user_id, type) DO UPDATE
func (r *integrationRepository) Upsert(ctx context.Context, integration *domain.Integration) (*domain.Integration, error) {
	now := time.Now()
	row := &domain.Integration{
		ID:        uuid.New().String(),
		UserID:    integration.UserID,
		Type:      integration.Type,
		Enabled:   integration.Enabled,
		Config:    integration.Config,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if row.Config == nil {
		row.Config = domain.ConfigMap{}
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "type"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "config", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return nil, err
	}
	return r.FindByUserAndType(ctx, integration.UserID, integration.Type)
}

func (r *integrationRepository) FindByUser(ctx context.Context, userID string) ([]*domain.Integration, error) {
	var integrations []*domain.Integration
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("type ASC").Find(&integrations).Error
	return integrations, err
}

func (r *integrationRepository) FindByUserAndType(ctx context.Context, userID string, provider domain.Provider) (*domain.Integration, error) {
	var integration domain.Integration
	err := r.db.WithContext(ctx).Where("user_id = ? AND type = ?", userID, provider).First(&integration).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &integration, nil
}

func (r *integrationRepository) FindEnabled(ctx context.Context, provider domain.Provider) ([]*domain.Integration, error) {
	var integrations []*domain.Integration
	err := r.db.WithContext(ctx).Where("type = ? AND enabled = ?", provider, true).Find(&integrations).Error
	return integrations, err
}

func (r *integrationRepository) TouchLastSync(ctx context.Context, userID string, provider domain.Provider, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Integration{}).
		Where("user_id = ? AND type = ?", userID, provider).
		Updates(map[string]interface{}{
			"last_sync_at": at,
			"updated_at":   time.Now(),
		}).Error
}

type syncRunRepository struct {
	db *gorm.DB
}

// NewSyncRunRepository creates a new GORM-based SyncRunRepository
func NewSyncRunRepository(db *gorm.DB) SyncRunRepository {
	return &syncRunRepository{db: db}
}

func (r *syncRunRepository) Record(ctx context.Context, run *domain.SyncRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *syncRunRepository) ListRecent(ctx context.Context, userID string, limit int) ([]*domain.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []*domain.SyncRun
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}
