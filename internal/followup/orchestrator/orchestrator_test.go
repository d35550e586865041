package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	authdomain "devnudge-backend/internal/auth/domain"
	"devnudge-backend/internal/followup/domain"
	"devnudge-backend/internal/followup/source"
	integrationdomain "devnudge-backend/internal/integration/domain"
	reminderdomain "devnudge-backend/internal/reminder/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)

// memReminders is an in-memory ReminderRepository enforcing the pending-source uniqueness.
type memReminders struct {
	mu        sync.Mutex
	items     []*reminderdomain.Reminder
	createErr map[string]error
	findErr   error
	seq       int
}

func (m *memReminders) Create(_ context.Context, r *reminderdomain.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sid := reminderdomain.StringValue(r.SourceID)
	if err := m.createErr[sid]; err != nil {
		return err
	}
	for _, existing := range m.items {
		if sid != "" && existing.UserID == r.UserID && reminderdomain.StringValue(existing.SourceID) == sid && existing.Status == reminderdomain.StatusPending {
			return reminderdomain.ErrDuplicatePending
		}
	}
	m.seq++
	r.ID = fmt.Sprintf("r%d", m.seq)
	cp := *r
	m.items = append(m.items, &cp)
	return nil
}

func (m *memReminders) FindByIDAndUser(_ context.Context, id, userID string) (*reminderdomain.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.ID == id && r.UserID == userID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memReminders) FindPendingBySource(_ context.Context, userID, sourceID string) (*reminderdomain.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, r := range m.items {
		if r.UserID == userID && reminderdomain.StringValue(r.SourceID) == sourceID && r.Status == reminderdomain.StatusPending {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memReminders) FindByUser(_ context.Context, userID string, _ reminderdomain.ReminderFilter) ([]*reminderdomain.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*reminderdomain.Reminder
	for _, r := range m.items {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memReminders) Update(_ context.Context, r *reminderdomain.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.items {
		if existing.ID == r.ID && existing.UserID == r.UserID {
			cp := *r
			m.items[i] = &cp
			return nil
		}
	}
	return reminderdomain.ErrReminderNotFound
}

func (m *memReminders) Delete(context.Context, string, string) (bool, error) { return false, nil }

func (m *memReminders) FindDueForFollowUp(context.Context, time.Time) ([]*reminderdomain.Reminder, error) {
	return nil, nil
}

func (m *memReminders) pendingFor(userID string) []*reminderdomain.Reminder {
	all, _ := m.FindByUser(context.Background(), userID, reminderdomain.ReminderFilter{})
	var out []*reminderdomain.Reminder
	for _, r := range all {
		if r.Status == reminderdomain.StatusPending {
			out = append(out, r)
		}
	}
	return out
}

type memIntegrations struct {
	mu      sync.Mutex
	items   []*integrationdomain.Integration
	listErr error
}

func (m *memIntegrations) Upsert(_ context.Context, in *integrationdomain.Integration) (*integrationdomain.Integration, error) {
	m.items = append(m.items, in)
	return in, nil
}

func (m *memIntegrations) FindByUser(_ context.Context, userID string) ([]*integrationdomain.Integration, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*integrationdomain.Integration
	for _, in := range m.items {
		if in.UserID == userID {
			out = append(out, in)
		}
	}
	return out, nil
}

func (m *memIntegrations) FindByUserAndType(_ context.Context, userID string, p integrationdomain.Provider) (*integrationdomain.Integration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, in := range m.items {
		if in.UserID == userID && in.Type == p {
			return in, nil
		}
	}
	return nil, nil
}

func (m *memIntegrations) FindEnabled(_ context.Context, p integrationdomain.Provider) ([]*integrationdomain.Integration, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*integrationdomain.Integration
	for _, in := range m.items {
		if in.Type == p && in.Enabled {
			out = append(out, in)
		}
	}
	return out, nil
}

func (m *memIntegrations) TouchLastSync(_ context.Context, userID string, p integrationdomain.Provider, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, in := range m.items {
		if in.UserID == userID && in.Type == p {
			t := at
			in.LastSyncAt = &t
		}
	}
	return nil
}

type memRuns struct {
	mu   sync.Mutex
	runs []*integrationdomain.SyncRun
}

func (m *memRuns) Record(_ context.Context, run *integrationdomain.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *memRuns) ListRecent(context.Context, string, int) ([]*integrationdomain.SyncRun, error) {
	return m.runs, nil
}

type fakeCredentials struct {
	tokens map[string]string
	err    error
}

func (f *fakeCredentials) GetAccessToken(_ context.Context, userID string, _ integrationdomain.Provider) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	tok, ok := f.tokens[userID]
	if !ok {
		return "", authdomain.ErrNoCredential
	}
	return tok, nil
}

type fakeAdapter struct {
	mu        sync.Mutex
	provider  integrationdomain.Provider
	items     []domain.CandidateItem
	err       error
	panicMsg  string
	gotLimit  int
	gotTokens []string
}

func (f *fakeAdapter) Provider() integrationdomain.Provider { return f.provider }

func (f *fakeAdapter) FetchCandidates(_ context.Context, token string, limit int) ([]domain.CandidateItem, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotLimit = limit
	f.gotTokens = append(f.gotTokens, token)
	return f.items, f.err
}

type fixture struct {
	reminders    *memReminders
	integrations *memIntegrations
	runs         *memRuns
	creds        *fakeCredentials
	mail         *fakeAdapter
	tracker      *fakeAdapter
	metrics      *Metrics
	orch         *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		reminders: &memReminders{},
		integrations: &memIntegrations{items: []*integrationdomain.Integration{
			{UserID: "u1", Type: integrationdomain.ProviderGmail, Enabled: true},
			{UserID: "u1", Type: integrationdomain.ProviderGitHub, Enabled: true},
			{UserID: "u2", Type: integrationdomain.ProviderGmail, Enabled: true},
			{UserID: "u3", Type: integrationdomain.ProviderGmail, Enabled: false},
		}},
		runs:    &memRuns{},
		creds:   &fakeCredentials{tokens: map[string]string{"u1": "tok-u1", "u2": "tok-u2"}},
		mail:    &fakeAdapter{provider: integrationdomain.ProviderGmail},
		tracker: &fakeAdapter{provider: integrationdomain.ProviderGitHub},
		metrics: MustNewMetrics(prometheus.NewRegistry()),
	}
	f.orch = New(f.creds, f.reminders, f.integrations, f.runs,
		[]source.Adapter{f.mail, f.tracker},
		Options{PageSize: 10, Metrics: f.metrics, Now: func() time.Time { return now }})
	return f
}

func staleEmail(id string) domain.CandidateItem {
	return domain.CandidateItem{
		SourceID:        id,
		Kind:            domain.KindEmailFollowUp,
		Signal:          domain.SignalAwaitingReply,
		Title:           "Follow up: Invoice " + id,
		Snippet:         "Did you get a chance to look?",
		SourceURL:       "https://mail.google.com/mail/u/0/#inbox/" + id,
		ReferenceTime:   now.Add(-5 * 24 * time.Hour),
		LastSentByOwner: true,
		Open:            true,
	}
}

func (f *fixture) lastSync(userID string, p integrationdomain.Provider) *time.Time {
	in, _ := f.integrations.FindByUserAndType(context.Background(), userID, p)
	return in.LastSyncAt
}

func TestSyncCreatesReminderForStaleEmail(t *testing.T) {
	f := newFixture(t)
	f.mail.items = []domain.CandidateItem{staleEmail("t1")}

	res := f.orch.Sync(context.Background(), "u1", integrationdomain.ProviderGmail)

	assert.Equal(t, domain.SyncResult{Provider: integrationdomain.ProviderGmail, Created: 1}, res)
	pending := f.reminders.pendingFor("u1")
	require.Len(t, pending, 1)
	r := pending[0]
	assert.Equal(t, reminderdomain.TypeEmailFollowUp, r.Type)
	assert.Equal(t, reminderdomain.PriorityMedium, r.Priority)
	assert.Equal(t, reminderdomain.StatusPending, r.Status)
	assert.True(t, now.Equal(r.DueAt))
	assert.Equal(t, "t1", reminderdomain.StringValue(r.SourceID))
	assert.Equal(t, "Did you get a chance to look?", reminderdomain.StringValue(r.Description))
	assert.Equal(t, "https://mail.google.com/mail/u/0/#inbox/t1", reminderdomain.StringValue(r.SourceURL))
	require.NotNil(t, r.SourceReferenceAt)
	assert.True(t, now.Add(-5*24*time.Hour).Equal(*r.SourceReferenceAt))

	require.NotNil(t, f.lastSync("u1", integrationdomain.ProviderGmail))
	assert.Equal(t, []string{"tok-u1"}, f.mail.gotTokens)
	assert.Equal(t, 10, f.mail.gotLimit)
}

func TestSyncWithoutCredentialLeavesLastSyncUntouched(t *testing.T) {
	f := newFixture(t)
	f.integrations.items = append(f.integrations.items, &integrationdomain.Integration{UserID: "u9", Type: integrationdomain.ProviderGmail, Enabled: true})
	f.mail.items = []domain.CandidateItem{staleEmail("t1")}

	res := f.orch.Sync(context.Background(), "u9", integrationdomain.ProviderGmail)

	assert.Equal(t, 0, res.Created)
	assert.Equal(t, domain.ErrorNoCredential, res.Error)
	assert.True(t, res.Error.NeedsReconnect())
	assert.Nil(t, f.lastSync("u9", integrationdomain.ProviderGmail))
	assert.Empty(t, f.mail.gotTokens)
}

func TestSyncIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.mail.items = []domain.CandidateItem{staleEmail("t1"), staleEmail("t2")}

	first := f.orch.Sync(context.Background(), "u1", integrationdomain.ProviderGmail)
	second := f.orch.Sync(context.Background(), "u1", integrationdomain.ProviderGmail)

	assert.Equal(t, 2, first.Created)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 2, second.Skipped)
	assert.Len(t, f.reminders.pendingFor("u1"), 2)
}

func TestSyncRecreatesAfterCompletion(t *testing.T) {
	f := newFixture(t)
	f.mail.items = []domain.CandidateItem{staleEmail("t1")}

	f.orch.Sync(context.Background(), "u1", integrationdomain.ProviderGmail)
	done := f.reminders.pendingFor("u1")[0]
	done.Status = reminderdomain.StatusCompleted
	require.NoError(t, f.reminders.Update(context.Background(), done))

	res := f.orch.Sync(context.Background(), "u1", integrationdomain.ProviderGmail)
	assert.Equal(t, 1, res.Created)
	assert.Len(t, f.reminders.pendingFor("u1"), 1)
}

func TestSyncDedupIsPerUser(t *testing.T) {
	f := newFixture(t)
	f.mail.items = []domain.CandidateItem{staleEmail("shared")}

	assert.Equal(t, 1, f.orch.Sync(context.Background(), "u1", integrationdomain.ProviderGmail).Created)
	assert.Equal(t, 1, f.orch.Sync(context.Background(), "u2", integrationdomain.ProviderGmail).Created)
}

func TestSyncConcurrentPassesKeepOnePending(t *testing.T) {
	f := newFixture(t)
	f.mail.items = []domain.CandidateItem{staleEmail("t1")}

	var wg sync.WaitGroup
	results := make([]domain.SyncResult, 8)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = f.orch.Sync(context.Background(), "u1", integrationdomain.ProviderGmail)
		}()
	}
	wg.Wait()

	created := 0
	for _, r := range results {
		created += r.Created
	}
	assert.Equal(t, 1, created)
	assert.Len(t, f.reminders.pendingFor("u1"), 1)
}

func TestSyncSkipsMalformedAndFailedItems(t *testing.T) {
	f := newFixture(t)
	fresh := staleEmail("fresh")
	fresh.ReferenceTime = now.Add(-time.Hour)
	f.mail.items = []domain.CandidateItem{
		staleEmail("ok-1"),
		{Kind: domain.KindEmailFollowUp, Title: "no id", ReferenceTime: now.Add(-10 * 24 * time.Hour), LastSentByOwner: true},
		staleEmail("broken"),
		fresh,
		staleEmail("ok-2"),
	}
	f.reminders.createErr = map[string]error{"broken": errors.New("connection reset")}

	res := f.orch.Sync(context.Background(), "u1", integrationdomain.ProviderGmail)

	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, domain.ErrorNone, res.Error)
	assert.NotNil(t, f.lastSync("u1", integrationdomain.ProviderGmail))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.itemFailures.WithLabelValues("gmail", "MalformedItem")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.itemFailures.WithLabelValues("gmail", "PersistenceFailure")))
}

func TestSyncLookupFailureCountsAsFailed(t *testing.T) {
	f := newFixture(t)
	f.mail.items = []domain.CandidateItem{staleEmail("t1")}
	f.reminders.findErr = errors.New("db down")

	res := f.orch.Sync(context.Background(), "u1", integrationdomain.ProviderGmail)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 1, res.Failed)
}

func TestSyncErrorKinds(t *testing.T) {
	cases := []struct {
		name      string
		credErr   error
		fetchErr  error
		want      domain.ErrorKind
		reconnect bool
	}{
		{"expired credential", fmt.Errorf("%w: refresh denied", authdomain.ErrCredentialExpired), nil, domain.ErrorCredentialExpired, true},
		{"credential store failure", errors.New("db down"), nil, domain.ErrorSyncFailed, false},
		{"token rejected by source", nil, fmt.Errorf("github: %w: 401", authdomain.ErrCredentialExpired), domain.ErrorCredentialExpired, true},
		{"source unavailable", nil, fmt.Errorf("gmail: %w: timeout", domain.ErrSourceUnavailable), domain.ErrorSourceUnavailable, false},
		{"unexpected fetch error", nil, errors.New("boom"), domain.ErrorSyncFailed, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.creds.err = tc.credErr
			f.mail.err = tc.fetchErr

			res := f.orch.Sync(context.Background(), "u1", integrationdomain.ProviderGmail)

			assert.Equal(t, tc.want, res.Error)
			assert.Equal(t, tc.reconnect, res.Error.NeedsReconnect())
			assert.Equal(t, 0, res.Created)
			assert.Nil(t, f.lastSync("u1", integrationdomain.ProviderGmail))
		})
	}
}

func TestSyncRecoversFromPanic(t *testing.T) {
	f := newFixture(t)
	f.mail.panicMsg = "nil map"

	var res domain.SyncResult
	require.NotPanics(t, func() {
		res = f.orch.Sync(context.Background(), "u1", integrationdomain.ProviderGmail)
	})
	assert.Equal(t, domain.ErrorSyncFailed, res.Error)
	require.Len(t, f.runs.runs, 1)
	assert.Equal(t, "SyncFailed", f.runs.runs[0].Error)
}

func TestSyncRecordsRunAndMetrics(t *testing.T) {
	f := newFixture(t)
	f.tracker.items = []domain.CandidateItem{{
		SourceID: "pr-1", Kind: domain.KindPRReview, Signal: domain.SignalReviewRequested,
		Title: "Review PR: x", ReferenceTime: now, Open: true,
	}}

	res := f.orch.Sync(context.Background(), "u1", integrationdomain.ProviderGitHub)
	require.Equal(t, 1, res.Created)
	assert.Equal(t, reminderdomain.PriorityHigh, f.reminders.pendingFor("u1")[0].Priority)

	require.Len(t, f.runs.runs, 1)
	run := f.runs.runs[0]
	assert.Equal(t, "u1", run.UserID)
	assert.Equal(t, integrationdomain.ProviderGitHub, run.Provider)
	assert.Equal(t, integrationdomain.TriggerManual, run.Trigger)
	assert.Equal(t, 1, run.Created)
	assert.Empty(t, run.Error)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.passes.WithLabelValues("github", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.created.WithLabelValues("github")))
}

func TestSyncAllRunsEnabledIntegrations(t *testing.T) {
	f := newFixture(t)
	f.mail.items = []domain.CandidateItem{staleEmail("t1")}

	results, err := f.orch.SyncAll(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, integrationdomain.ProviderGmail, results[0].Provider)
	assert.Equal(t, 1, results[0].Created)
	assert.Equal(t, integrationdomain.ProviderGitHub, results[1].Provider)

	results, err = f.orch.SyncAll(context.Background(), "u3")
	require.NoError(t, err)
	assert.Empty(t, results)

	f.integrations.listErr = errors.New("db down")
	_, err = f.orch.SyncAll(context.Background(), "u1")
	assert.Error(t, err)
}

func TestSyncEnabledBatch(t *testing.T) {
	f := newFixture(t)
	f.integrations.items = append(f.integrations.items, &integrationdomain.Integration{UserID: "u4", Type: integrationdomain.ProviderGmail, Enabled: true})
	f.mail.items = []domain.CandidateItem{staleEmail("t1")}

	batch, err := f.orch.SyncEnabled(context.Background(), integrationdomain.ProviderGmail)
	require.NoError(t, err)

	assert.Equal(t, 3, batch.Users)
	assert.Equal(t, 2, batch.Created)
	assert.Equal(t, map[string]int{"NoCredential": 1}, batch.Errors)

	var triggers []string
	for _, r := range f.runs.runs {
		triggers = append(triggers, r.Trigger)
	}
	sort.Strings(triggers)
	assert.Equal(t, []string{"cron", "cron", "cron"}, triggers)
}

func TestSyncUnknownProvider(t *testing.T) {
	f := newFixture(t)
	res := f.orch.Sync(context.Background(), "u1", integrationdomain.Provider("jira"))
	assert.Equal(t, domain.ErrorSyncFailed, res.Error)
}
