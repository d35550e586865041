package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	authdomain "devnudge-backend/internal/auth/domain"
	"devnudge-backend/internal/auth/repository"
	integrationdomain "devnudge-backend/internal/integration/domain"
	"devnudge-backend/pkg/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// tokens expiring within this window are refreshed early
const expirySkew = time.Minute

// CredentialProvider hands out valid bearer tokens for connected providers,
// refreshing and persisting them when they have expired.
type CredentialProvider struct {
	accounts repository.AccountRepository
	configs  map[integrationdomain.Provider]*oauth2.Config
	now      func() time.Time
}

func NewCredentialProvider(accounts repository.AccountRepository, cfg *config.Config) *CredentialProvider {
	return NewCredentialProviderWithConfigs(accounts, map[integrationdomain.Provider]*oauth2.Config{
		integrationdomain.ProviderGmail: {
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     google.Endpoint,
		},
		integrationdomain.ProviderGitHub: {
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			Endpoint:     github.Endpoint,
		},
	}, time.Now)
}

func NewCredentialProviderWithConfigs(accounts repository.AccountRepository, configs map[integrationdomain.Provider]*oauth2.Config, now func() time.Time) *CredentialProvider {
	if now == nil {
		now = time.Now
	}
	return &CredentialProvider{accounts: accounts, configs: configs, now: now}
}

// GetAccessToken returns authdomain.ErrNoCredential when nothing usable is stored and
// authdomain.ErrCredentialExpired when the token expired and refresh was impossible or failed.
func (p *CredentialProvider) GetAccessToken(ctx context.Context, userID string, provider integrationdomain.Provider) (string, error) {
	account, err := p.accounts.FindByUserAndProvider(ctx, userID, provider)
	if err != nil {
		return "", fmt.Errorf("load %s account: %w", provider, err)
	}
	if account == nil || account.AccessToken == "" {
		return "", authdomain.ErrNoCredential
	}

	if account.Expiry == nil || account.Expiry.After(p.now().Add(expirySkew)) {
		return account.AccessToken, nil
	}

	if account.RefreshToken == "" {
		return "", authdomain.ErrCredentialExpired
	}
	oauthCfg, ok := p.configs[provider]
	if !ok {
		return "", authdomain.ErrCredentialExpired
	}

	// Expiry in the past forces the token source to hit the refresh endpoint.
	stale := &oauth2.Token{
		AccessToken:  account.AccessToken,
		RefreshToken: account.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       time.Unix(1, 0),
	}
	fresh, err := oauthCfg.TokenSource(ctx, stale).Token()
	if err != nil {
		log.Printf("[Credentials] Refresh failed for user %s (%s): %v", userID, provider, err)
		return "", fmt.Errorf("%w: %v", authdomain.ErrCredentialExpired, err)
	}

	account.AccessToken = fresh.AccessToken
	if fresh.RefreshToken != "" {
		account.RefreshToken = fresh.RefreshToken
	}
	if fresh.Expiry.IsZero() {
		account.Expiry = nil
	} else {
		expiry := fresh.Expiry
		account.Expiry = &expiry
	}
	if err := p.accounts.UpdateToken(ctx, account); err != nil {
		// the token is still good for this pass
		log.Printf("[Credentials] Failed to persist refreshed token for user %s (%s): %v", userID, provider, err)
	}

	return fresh.AccessToken, nil
}
