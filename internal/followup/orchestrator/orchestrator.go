// Package orchestrator runs sync passes: credential, fetch, classify, dedup, persist.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	authdomain "devnudge-backend/internal/auth/domain"
	"devnudge-backend/internal/followup/classifier"
	"devnudge-backend/internal/followup/domain"
	"devnudge-backend/internal/followup/source"
	integrationdomain "devnudge-backend/internal/integration/domain"
	integrationrepo "devnudge-backend/internal/integration/repository"
	reminderdomain "devnudge-backend/internal/reminder/domain"
	reminderrepo "devnudge-backend/internal/reminder/repository"
	"devnudge-backend/pkg/config"
)

// CredentialProvider resolves a usable access token for a user's connected provider.
// Implemented by auth/usecase.CredentialProvider.
type CredentialProvider interface {
	GetAccessToken(ctx context.Context, userID string, provider integrationdomain.Provider) (string, error)
}

type Options struct {
	PageSize int
	Metrics  *Metrics
	Now      func() time.Time
}

type Orchestrator struct {
	credentials  CredentialProvider
	adapters     map[integrationdomain.Provider]source.Adapter
	reminders    reminderrepo.ReminderRepository
	integrations integrationrepo.IntegrationRepository
	runs         integrationrepo.SyncRunRepository
	metrics      *Metrics
	now          func() time.Time
	pageSize     int
}

func New(
	credentials CredentialProvider,
	reminders reminderrepo.ReminderRepository,
	integrations integrationrepo.IntegrationRepository,
	runs integrationrepo.SyncRunRepository,
	adapters []source.Adapter,
	opts Options,
) *Orchestrator {
	o := &Orchestrator{
		credentials:  credentials,
		adapters:     make(map[integrationdomain.Provider]source.Adapter, len(adapters)),
		reminders:    reminders,
		integrations: integrations,
		runs:         runs,
		metrics:      opts.Metrics,
		now:          opts.Now,
		pageSize:     config.ClampPageSize(opts.PageSize),
	}
	if o.now == nil {
		o.now = time.Now
	}
	if opts.PageSize == 0 {
		o.pageSize = 10
	}
	for _, a := range adapters {
		o.adapters[a.Provider()] = a
	}
	return o
}

// Sync runs one user-triggered pass. It never returns a Go error: every failure
// is reported as an ErrorKind on the result.
func (o *Orchestrator) Sync(ctx context.Context, userID string, provider integrationdomain.Provider) domain.SyncResult {
	return o.SyncWithTrigger(ctx, userID, provider, integrationdomain.TriggerManual)
}

func (o *Orchestrator) SyncWithTrigger(ctx context.Context, userID string, provider integrationdomain.Provider, trigger string) (result domain.SyncResult) {
	started := o.now()
	begin := time.Now()
	result.Provider = provider

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[SyncOrchestrator] Recovered panic in %s sync for user %s: %v", provider, userID, r)
			result.Error = domain.ErrorSyncFailed
		}
		o.finish(ctx, userID, trigger, started, time.Since(begin), result)
	}()

	o.pass(ctx, userID, provider, &result)
	return result
}

// SyncAll runs a pass for every enabled integration of the user
func (o *Orchestrator) SyncAll(ctx context.Context, userID string) ([]domain.SyncResult, error) {
	integrations, err := o.integrations.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list integrations: %w", err)
	}

	enabled := make(map[integrationdomain.Provider]bool, len(integrations))
	for _, in := range integrations {
		if in.Enabled {
			enabled[in.Type] = true
		}
	}

	results := make([]domain.SyncResult, 0, len(enabled))
	for _, p := range integrationdomain.AllProviders {
		if enabled[p] {
			results = append(results, o.Sync(ctx, userID, p))
		}
	}
	return results, nil
}

// SyncEnabled is the cron entry point: one pass per user with provider enabled, one user at a time.
func (o *Orchestrator) SyncEnabled(ctx context.Context, provider integrationdomain.Provider) (domain.BatchResult, error) {
	batch := domain.BatchResult{Provider: provider}

	integrations, err := o.integrations.FindEnabled(ctx, provider)
	if err != nil {
		return batch, fmt.Errorf("list enabled %s integrations: %w", provider, err)
	}

	for _, in := range integrations {
		if ctx.Err() != nil {
			log.Printf("[SyncOrchestrator] %s batch interrupted after %d users: %v", provider, batch.Users, ctx.Err())
			break
		}
		res := o.SyncWithTrigger(ctx, in.UserID, provider, integrationdomain.TriggerCron)
		batch.Users++
		batch.Created += res.Created
		if res.Error != domain.ErrorNone {
			if batch.Errors == nil {
				batch.Errors = make(map[string]int)
			}
			batch.Errors[res.Error.String()]++
		}
	}

	log.Printf("[SyncOrchestrator] %s batch done: users=%d created=%d errors=%v", provider, batch.Users, batch.Created, batch.Errors)
	return batch, nil
}

func (o *Orchestrator) pass(ctx context.Context, userID string, provider integrationdomain.Provider, result *domain.SyncResult) {
	adapter, ok := o.adapters[provider]
	if !ok {
		log.Printf("[SyncOrchestrator] No adapter registered for %s", provider)
		result.Error = domain.ErrorSyncFailed
		return
	}

	token, err := o.credentials.GetAccessToken(ctx, userID, provider)
	if err != nil {
		result.Error = credentialErrorKind(err)
		log.Printf("[SyncOrchestrator] No usable %s credential for user %s (%s): %v", provider, userID, result.Error, err)
		return
	}

	candidates, err := adapter.FetchCandidates(ctx, token, o.pageSize)
	if err != nil {
		result.Error = fetchErrorKind(err)
		log.Printf("[SyncOrchestrator] Fetch from %s failed for user %s (%s): %v", provider, userID, result.Error, err)
		return
	}

	now := o.now()
	wellFormed := make([]domain.CandidateItem, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c.SourceID) == "" {
			o.itemFailed(userID, provider, c.SourceID, domain.ErrorMalformedItem, domain.ErrMalformedItem, result)
			continue
		}
		wellFormed = append(wellFormed, c)
	}

	for _, c := range classifier.Classify(wellFormed, now) {
		existing, err := o.reminders.FindPendingBySource(ctx, userID, c.SourceID)
		if err != nil {
			o.itemFailed(userID, provider, c.SourceID, domain.ErrorPersistenceFailure, err, result)
			continue
		}
		if existing != nil {
			result.Skipped++
			continue
		}

		reminder := newReminder(userID, c, now)
		if err := o.reminders.Create(ctx, reminder); err != nil {
			if errors.Is(err, reminderdomain.ErrDuplicatePending) {
				result.Skipped++
				continue
			}
			o.itemFailed(userID, provider, c.SourceID, domain.ErrorPersistenceFailure, err, result)
			continue
		}
		result.Created++
	}

	if err := o.integrations.TouchLastSync(ctx, userID, provider, now); err != nil {
		log.Printf("[SyncOrchestrator] Failed to update lastSyncAt for user %s (%s): %v", userID, provider, err)
	}
}

func (o *Orchestrator) itemFailed(userID string, provider integrationdomain.Provider, sourceID string, kind domain.ErrorKind, err error, result *domain.SyncResult) {
	result.Failed++
	o.metrics.IncItemFailure(string(provider), kind.String())
	log.Printf("[SyncOrchestrator] Skipping item user=%s source=%q kind=%s: %v", userID, sourceID, kind, err)
}

func (o *Orchestrator) finish(ctx context.Context, userID, trigger string, started time.Time, took time.Duration, result domain.SyncResult) {
	outcome := "ok"
	if result.Error != domain.ErrorNone {
		outcome = result.Error.String()
	}
	o.metrics.ObservePass(string(result.Provider), outcome, result.Created, took)

	if o.runs == nil {
		return
	}
	run := &integrationdomain.SyncRun{
		UserID:     userID,
		Provider:   result.Provider,
		Trigger:    trigger,
		Created:    result.Created,
		Skipped:    result.Skipped,
		Failed:     result.Failed,
		Error:      result.Error.String(),
		StartedAt:  started,
		FinishedAt: o.now(),
	}
	if err := o.runs.Record(context.WithoutCancel(ctx), run); err != nil {
		log.Printf("[SyncOrchestrator] Failed to record sync run for user %s: %v", userID, err)
	}
}

func newReminder(userID string, c domain.CandidateItem, now time.Time) *reminderdomain.Reminder {
	var referenceAt *time.Time
	if !c.ReferenceTime.IsZero() {
		t := c.ReferenceTime
		referenceAt = &t
	}
	return &reminderdomain.Reminder{
		UserID:            userID,
		Type:              c.Kind,
		Title:             c.Title,
		Description:       reminderdomain.StringPtr(c.Snippet),
		SourceID:          reminderdomain.StringPtr(c.SourceID),
		SourceURL:         reminderdomain.StringPtr(c.SourceURL),
		DueAt:             now,
		Priority:          c.SuggestedPriority,
		Status:            reminderdomain.StatusPending,
		SourceReferenceAt: referenceAt,
	}
}

func credentialErrorKind(err error) domain.ErrorKind {
	switch {
	case errors.Is(err, authdomain.ErrNoCredential):
		return domain.ErrorNoCredential
	case errors.Is(err, authdomain.ErrCredentialExpired):
		return domain.ErrorCredentialExpired
	default:
		return domain.ErrorSyncFailed
	}
}

func fetchErrorKind(err error) domain.ErrorKind {
	switch {
	case errors.Is(err, authdomain.ErrCredentialExpired):
		return domain.ErrorCredentialExpired
	case errors.Is(err, domain.ErrSourceUnavailable):
		return domain.ErrorSourceUnavailable
	default:
		return domain.ErrorSyncFailed
	}
}
