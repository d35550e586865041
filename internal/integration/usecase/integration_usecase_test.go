package usecase

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	followupdomain "devnudge-backend/internal/followup/domain"
	"devnudge-backend/internal/integration/domain"
	"devnudge-backend/internal/integration/dto"
	"devnudge-backend/internal/integration/repository"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type syncCall struct {
	userID   string
	provider domain.Provider
	trigger  string
}

type fakeSyncer struct {
	mu      sync.Mutex
	calls   []syncCall
	batches []domain.Provider
}

func (f *fakeSyncer) record(userID string, provider domain.Provider, trigger string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, syncCall{userID, provider, trigger})
}

func (f *fakeSyncer) Sync(ctx context.Context, userID string, provider domain.Provider) followupdomain.SyncResult {
	return f.SyncWithTrigger(ctx, userID, provider, domain.TriggerManual)
}

func (f *fakeSyncer) SyncWithTrigger(_ context.Context, userID string, provider domain.Provider, trigger string) followupdomain.SyncResult {
	f.record(userID, provider, trigger)
	return followupdomain.SyncResult{Provider: provider, Created: 1}
}

func (f *fakeSyncer) SyncAll(ctx context.Context, userID string) ([]followupdomain.SyncResult, error) {
	return []followupdomain.SyncResult{f.Sync(ctx, userID, domain.ProviderGmail)}, nil
}

func (f *fakeSyncer) SyncEnabled(_ context.Context, provider domain.Provider) (followupdomain.BatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, provider)
	return followupdomain.BatchResult{Provider: provider, Users: 2}, nil
}

func newTestUsecase(t *testing.T) (*integrationUsecase, *fakeSyncer, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "integration.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Integration{}, &domain.SyncRun{}))

	syncer := &fakeSyncer{}
	u := NewIntegrationUsecase(repository.NewIntegrationRepository(db), repository.NewSyncRunRepository(db), syncer).(*integrationUsecase)
	u.runAsync = func(fn func()) { fn() }
	return u, syncer, db
}

func boolPtr(b bool) *bool { return &b }

func TestUpsertIntegration(t *testing.T) {
	u, _, _ := newTestUsecase(t)
	ctx := context.Background()

	_, err := u.UpsertIntegration(ctx, "u1", dto.UpsertIntegrationRequest{Type: "slack"})
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)

	created, err := u.UpsertIntegration(ctx, "u1", dto.UpsertIntegrationRequest{
		Type:   domain.ProviderGitHub,
		Config: domain.ConfigMap{"org": "acme"},
	})
	require.NoError(t, err)
	assert.True(t, created.Enabled)

	// Disabling keeps the stored config.
	updated, err := u.UpsertIntegration(ctx, "u1", dto.UpsertIntegrationRequest{Type: domain.ProviderGitHub, Enabled: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, updated.Enabled)
	assert.Equal(t, "acme", updated.Config["org"])
	assert.Equal(t, created.ID, updated.ID)

	list, err := u.ListIntegrations(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	empty, err := u.ListIntegrations(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestEnsureEnabledStartsConnectSync(t *testing.T) {
	u, syncer, _ := newTestUsecase(t)
	ctx := context.Background()

	_, err := u.UpsertIntegration(ctx, "u1", dto.UpsertIntegrationRequest{
		Type: domain.ProviderGmail, Enabled: boolPtr(false), Config: domain.ConfigMap{"label": "work"},
	})
	require.NoError(t, err)

	require.NoError(t, u.EnsureEnabled(ctx, "u1", domain.ProviderGmail))

	got, err := u.integrationRepo.FindByUserAndType(ctx, "u1", domain.ProviderGmail)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Enabled)
	assert.Equal(t, "work", got.Config["label"])

	require.Len(t, syncer.calls, 1)
	assert.Equal(t, syncCall{"u1", domain.ProviderGmail, domain.TriggerConnect}, syncer.calls[0])

	assert.ErrorIs(t, u.EnsureEnabled(ctx, "u1", "dropbox"), domain.ErrUnknownProvider)
}

func TestSyncProvider(t *testing.T) {
	u, syncer, _ := newTestUsecase(t)
	ctx := context.Background()

	res, err := u.SyncProvider(ctx, "u1", domain.ProviderGitHub)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, domain.TriggerManual, syncer.calls[0].trigger)

	_, err = u.SyncProvider(ctx, "u1", "jira")
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
}

func TestSyncEnabledCoversEveryProviderByDefault(t *testing.T) {
	u, syncer, _ := newTestUsecase(t)
	ctx := context.Background()

	batches, err := u.SyncEnabled(ctx, "")
	require.NoError(t, err)
	require.Len(t, batches, len(domain.AllProviders))
	assert.Equal(t, domain.AllProviders, syncer.batches)

	batches, err = u.SyncEnabled(ctx, domain.ProviderGitHub)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, domain.ProviderGitHub, batches[0].Provider)

	_, err = u.SyncEnabled(ctx, "trello")
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
}

func TestListSyncRuns(t *testing.T) {
	u, _, _ := newTestUsecase(t)
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, u.syncRunRepo.Record(ctx, &domain.SyncRun{
			UserID:     "u1",
			Provider:   domain.ProviderGmail,
			Trigger:    domain.TriggerCron,
			Created:    i,
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Second),
		}))
	}

	runs, err := u.ListSyncRuns(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 2, runs[0].Created)

	runs, err = u.ListSyncRuns(ctx, "u2", 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
