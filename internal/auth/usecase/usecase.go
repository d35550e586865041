package usecase

import (
	"context"

	authdomain "devnudge-backend/internal/auth/domain"
	authdto "devnudge-backend/internal/auth/dto"
	integrationdomain "devnudge-backend/internal/integration/domain"
)

// AuthUsecase covers sessions, connected provider accounts and push devices
type AuthUsecase interface {
	Register(ctx context.Context, req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	Login(ctx context.Context, req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (*authdomain.User, error)

	ConnectAccount(ctx context.Context, userID string, req *authdto.ConnectAccountRequest) (*authdomain.Account, error)
	// SetAccountConnectedCallback runs after tokens for a provider are stored
	SetAccountConnectedCallback(fn AccountConnectedFunc)
	AccountStatus(ctx context.Context, userID string, provider integrationdomain.Provider) (*authdto.AccountStatusResponse, error)

	RegisterFCMToken(ctx context.Context, userID string, req *authdto.RegisterFCMTokenRequest) error
	UnregisterFCMToken(ctx context.Context, userID, token string) error
}

type AccountConnectedFunc func(ctx context.Context, userID string, provider integrationdomain.Provider) error
