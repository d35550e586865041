package usecase

import (
	"context"
	"log"

	followupdomain "devnudge-backend/internal/followup/domain"
	"devnudge-backend/internal/integration/domain"
	"devnudge-backend/internal/integration/dto"
	"devnudge-backend/internal/integration/repository"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// Syncer is implemented by orchestrator.Orchestrator
type Syncer interface {
	Sync(ctx context.Context, userID string, provider domain.Provider) followupdomain.SyncResult
	SyncWithTrigger(ctx context.Context, userID string, provider domain.Provider, trigger string) followupdomain.SyncResult
	SyncAll(ctx context.Context, userID string) ([]followupdomain.SyncResult, error)
	SyncEnabled(ctx context.Context, provider domain.Provider) (followupdomain.BatchResult, error)
}

type integrationUsecase struct {
	integrationRepo repository.IntegrationRepository
	syncRunRepo     repository.SyncRunRepository
	syncer          Syncer

	// runAsync starts the connect-time sync; tests replace it to run inline
	runAsync func(fn func())
}

// NewIntegrationUsecase creates a new instance of integrationUsecase
func NewIntegrationUsecase(integrationRepo repository.IntegrationRepository, syncRunRepo repository.SyncRunRepository, syncer Syncer) IntegrationUsecase {
	return &integrationUsecase{
		integrationRepo: integrationRepo,
		syncRunRepo:     syncRunRepo,
		syncer:          syncer,
		runAsync:        func(fn func()) { go fn() },
	}
}

func (u *integrationUsecase) ListIntegrations(ctx context.Context, userID string) ([]*domain.Integration, error) {
	integrations, err := u.integrationRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if integrations == nil {
		integrations = []*domain.Integration{}
	}
	return integrations, nil
}

func (u *integrationUsecase) UpsertIntegration(ctx context.Context, userID string, req dto.UpsertIntegrationRequest) (*domain.Integration, error) {
	if !req.Type.Valid() {
		return nil, domain.ErrUnknownProvider
	}

	existing, err := u.integrationRepo.FindByUserAndType(ctx, userID, req.Type)
	if err != nil {
		return nil, err
	}

	integration := &domain.Integration{UserID: userID, Type: req.Type, Enabled: true}
	if existing != nil {
		integration.Enabled = existing.Enabled
		integration.Config = existing.Config
	}
	if req.Enabled != nil {
		integration.Enabled = *req.Enabled
	}
	if req.Config != nil {
		integration.Config = req.Config
	}

	return u.integrationRepo.Upsert(ctx, integration)
}

func (u *integrationUsecase) EnsureEnabled(ctx context.Context, userID string, provider domain.Provider) error {
	if !provider.Valid() {
		return domain.ErrUnknownProvider
	}

	existing, err := u.integrationRepo.FindByUserAndType(ctx, userID, provider)
	if err != nil {
		return err
	}
	integration := &domain.Integration{UserID: userID, Type: provider, Enabled: true}
	if existing != nil {
		integration.Config = existing.Config
	}
	if _, err := u.integrationRepo.Upsert(ctx, integration); err != nil {
		return err
	}

	if u.syncer == nil {
		return nil
	}
	syncCtx := context.WithoutCancel(ctx)
	u.runAsync(func() {
		res := u.syncer.SyncWithTrigger(syncCtx, userID, provider, domain.TriggerConnect)
		log.Printf("[Integration] Initial %s sync for user %s: created=%d skipped=%d failed=%d error=%s",
			provider, userID, res.Created, res.Skipped, res.Failed, res.Error)
	})
	return nil
}

func (u *integrationUsecase) SyncProvider(ctx context.Context, userID string, provider domain.Provider) (followupdomain.SyncResult, error) {
	if !provider.Valid() {
		return followupdomain.SyncResult{}, domain.ErrUnknownProvider
	}
	return u.syncer.Sync(ctx, userID, provider), nil
}

func (u *integrationUsecase) SyncAll(ctx context.Context, userID string) ([]followupdomain.SyncResult, error) {
	return u.syncer.SyncAll(ctx, userID)
}

func (u *integrationUsecase) SyncEnabled(ctx context.Context, provider domain.Provider) ([]followupdomain.BatchResult, error) {
	providers := domain.AllProviders
	if provider != "" {
		if !provider.Valid() {
			return nil, domain.ErrUnknownProvider
		}
		providers = []domain.Provider{provider}
	}

	batches := make([]followupdomain.BatchResult, 0, len(providers))
	for _, p := range providers {
		batch, err := u.syncer.SyncEnabled(ctx, p)
		if err != nil {
			return batches, err
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

func (u *integrationUsecase) ListSyncRuns(ctx context.Context, userID string, limit int) ([]*domain.SyncRun, error) {
	if limit <= 0 {
		limit = defaultRunsLimit
	}
	if limit > maxRunsLimit {
		limit = maxRunsLimit
	}
	runs, err := u.syncRunRepo.ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []*domain.SyncRun{}
	}
	return runs, nil
}
