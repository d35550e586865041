package dto

import (
	"time"

	authdomain "devnudge-backend/internal/auth/domain"
	integrationdomain "devnudge-backend/internal/integration/domain"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
}

type TokenResponse struct {
	AccessToken string           `json:"access_token"`
	ExpiresAt   time.Time        `json:"expires_at"`
	User        *authdomain.User `json:"user"`
}

// ConnectAccountRequest stores tokens obtained by the frontend OAuth flow
type ConnectAccountRequest struct {
	Provider     integrationdomain.Provider `json:"provider" binding:"required"`
	AccessToken  string                     `json:"access_token" binding:"required"`
	RefreshToken string                     `json:"refresh_token"`
	ExpiresAt    *time.Time                 `json:"expires_at"`
	Scope        string                     `json:"scope"`
}

// Account connection states reported by the status endpoint
const (
	AccountNoToken      = "no_token"
	AccountTokenExpired = "token_expired"
	AccountConnected    = "connected"
)

// AccountStatusResponse tells the frontend whether a provider's stored token is usable
type AccountStatusResponse struct {
	Provider        integrationdomain.Provider `json:"provider"`
	Status          string                     `json:"status"`
	HasAccessToken  bool                       `json:"hasAccessToken"`
	HasRefreshToken bool                       `json:"hasRefreshToken"`
	ExpiresAt       *time.Time                 `json:"expiresAt,omitempty"`
	IsExpired       bool                       `json:"isExpired"`
	Message         string                     `json:"message"`
}

type RegisterFCMTokenRequest struct {
	Token      string `json:"token" binding:"required"`
	DeviceInfo string `json:"device_info"`
}
