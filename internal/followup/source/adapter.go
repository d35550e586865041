// Package source turns raw mailbox and tracker records into candidate items.
package source

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	authdomain "devnudge-backend/internal/auth/domain"
	"devnudge-backend/internal/followup/domain"
	integrationdomain "devnudge-backend/internal/integration/domain"
)

// Adapter fetches a bounded page of normalized candidates for the owner of accessToken.
// Errors wrap authdomain.ErrCredentialExpired when the token was rejected and
// domain.ErrSourceUnavailable for anything else.
type Adapter interface {
	Provider() integrationdomain.Provider
	FetchCandidates(ctx context.Context, accessToken string, limit int) ([]domain.CandidateItem, error)
}

// wrapSourceError maps a client error to the adapter error contract
func wrapSourceError(provider integrationdomain.Provider, err error, unauthorized error) error {
	if errors.Is(err, unauthorized) {
		return fmt.Errorf("%s: %w: %v", provider, authdomain.ErrCredentialExpired, err)
	}
	return fmt.Errorf("%s: %w: %v", provider, domain.ErrSourceUnavailable, err)
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
