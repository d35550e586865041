package domain

import (
	"time"

	integrationdomain "devnudge-backend/internal/integration/domain"
)

// Account holds the OAuth tokens a user granted for one provider.
// Tokens are never serialized to API responses.
type Account struct {
	ID           string                     `json:"id" gorm:"primaryKey"`
	UserID       string                     `json:"user_id" gorm:"not null;uniqueIndex:idx_account_user_provider"`
	Provider     integrationdomain.Provider `json:"provider" gorm:"not null;uniqueIndex:idx_account_user_provider"`
	AccessToken  string                     `json:"-"`
	RefreshToken string                     `json:"-"`
	Expiry       *time.Time                 `json:"expiry,omitempty"`
	Scope        string                     `json:"scope,omitempty"`
	CreatedAt    time.Time                  `json:"created_at"`
	UpdatedAt    time.Time                  `json:"updated_at"`
}
