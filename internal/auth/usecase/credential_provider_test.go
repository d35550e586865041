package usecase

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authdomain "devnudge-backend/internal/auth/domain"
	integrationdomain "devnudge-backend/internal/integration/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type memAccounts struct {
	accounts map[string]*authdomain.Account
	updates  int
	findErr  error
}

func key(userID string, p integrationdomain.Provider) string { return userID + "/" + string(p) }

func (m *memAccounts) Save(_ context.Context, a *authdomain.Account) error {
	m.accounts[key(a.UserID, a.Provider)] = a
	return nil
}

func (m *memAccounts) FindByUserAndProvider(_ context.Context, userID string, p integrationdomain.Provider) (*authdomain.Account, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	a, ok := m.accounts[key(userID, p)]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) UpdateToken(_ context.Context, a *authdomain.Account) error {
	m.updates++
	m.accounts[key(a.UserID, a.Provider)] = a
	return nil
}

var fixedNow = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

func newProvider(repo *memAccounts, tokenURL string) *CredentialProvider {
	return NewCredentialProviderWithConfigs(repo, map[integrationdomain.Provider]*oauth2.Config{
		integrationdomain.ProviderGmail: {
			ClientID:     "cid",
			ClientSecret: "secret",
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams},
		},
	}, func() time.Time { return fixedNow })
}

func TestNoAccountIsNoCredential(t *testing.T) {
	p := newProvider(&memAccounts{accounts: map[string]*authdomain.Account{}}, "")
	_, err := p.GetAccessToken(context.Background(), "u1", integrationdomain.ProviderGmail)
	assert.ErrorIs(t, err, authdomain.ErrNoCredential)
}

func TestEmptyTokenIsNoCredential(t *testing.T) {
	repo := &memAccounts{accounts: map[string]*authdomain.Account{
		key("u1", integrationdomain.ProviderGmail): {UserID: "u1", Provider: integrationdomain.ProviderGmail},
	}}
	_, err := newProvider(repo, "").GetAccessToken(context.Background(), "u1", integrationdomain.ProviderGmail)
	assert.ErrorIs(t, err, authdomain.ErrNoCredential)
}

func TestValidTokenReturnedWithoutRefresh(t *testing.T) {
	expiry := fixedNow.Add(time.Hour)
	repo := &memAccounts{accounts: map[string]*authdomain.Account{
		key("u1", integrationdomain.ProviderGmail): {UserID: "u1", Provider: integrationdomain.ProviderGmail, AccessToken: "live", Expiry: &expiry},
	}}
	tok, err := newProvider(repo, "http://127.0.0.1:0").GetAccessToken(context.Background(), "u1", integrationdomain.ProviderGmail)
	require.NoError(t, err)
	assert.Equal(t, "live", tok)
	assert.Zero(t, repo.updates)
}

func TestExpiredWithoutRefreshTokenIsExpired(t *testing.T) {
	expiry := fixedNow.Add(-time.Hour)
	repo := &memAccounts{accounts: map[string]*authdomain.Account{
		key("u1", integrationdomain.ProviderGmail): {UserID: "u1", Provider: integrationdomain.ProviderGmail, AccessToken: "old", Expiry: &expiry},
	}}
	_, err := newProvider(repo, "").GetAccessToken(context.Background(), "u1", integrationdomain.ProviderGmail)
	assert.ErrorIs(t, err, authdomain.ErrCredentialExpired)
}

func TestExpiredTokenIsRefreshedAndPersisted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "r-1", r.PostForm.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	expiry := fixedNow.Add(-time.Hour)
	repo := &memAccounts{accounts: map[string]*authdomain.Account{
		key("u1", integrationdomain.ProviderGmail): {
			UserID: "u1", Provider: integrationdomain.ProviderGmail,
			AccessToken: "old", RefreshToken: "r-1", Expiry: &expiry,
		},
	}}

	tok, err := newProvider(repo, srv.URL).GetAccessToken(context.Background(), "u1", integrationdomain.ProviderGmail)
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok)
	assert.Equal(t, 1, repo.updates)

	stored := repo.accounts[key("u1", integrationdomain.ProviderGmail)]
	assert.Equal(t, "fresh", stored.AccessToken)
	assert.Equal(t, "r-1", stored.RefreshToken)
	require.NotNil(t, stored.Expiry)
}

func TestRefreshFailureIsExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	expiry := fixedNow.Add(-time.Minute)
	repo := &memAccounts{accounts: map[string]*authdomain.Account{
		key("u1", integrationdomain.ProviderGmail): {
			UserID: "u1", Provider: integrationdomain.ProviderGmail,
			AccessToken: "old", RefreshToken: "revoked", Expiry: &expiry,
		},
	}}

	_, err := newProvider(repo, srv.URL).GetAccessToken(context.Background(), "u1", integrationdomain.ProviderGmail)
	assert.ErrorIs(t, err, authdomain.ErrCredentialExpired)
	assert.Zero(t, repo.updates)
}

func TestStoreErrorIsNotACredentialError(t *testing.T) {
	repo := &memAccounts{findErr: errors.New("db down")}
	_, err := newProvider(repo, "").GetAccessToken(context.Background(), "u1", integrationdomain.ProviderGmail)
	require.Error(t, err)
	assert.NotErrorIs(t, err, authdomain.ErrNoCredential)
	assert.NotErrorIs(t, err, authdomain.ErrCredentialExpired)
}
