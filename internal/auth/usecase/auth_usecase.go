package usecase

import (
	"context"
	"log"
	"time"

	authdomain "devnudge-backend/internal/auth/domain"
	authdto "devnudge-backend/internal/auth/dto"
	"devnudge-backend/internal/auth/repository"
	integrationdomain "devnudge-backend/internal/integration/domain"
	"devnudge-backend/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	userRepo    repository.UserRepository
	accountRepo repository.AccountRepository
	fcmRepo     repository.FCMTokenRepository
	config      *config.Config
	onConnected AccountConnectedFunc
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(userRepo repository.UserRepository, accountRepo repository.AccountRepository, fcmRepo repository.FCMTokenRepository, cfg *config.Config) AuthUsecase {
	return &authUsecase{
		userRepo:    userRepo,
		accountRepo: accountRepo,
		fcmRepo:     fcmRepo,
		config:      cfg,
	}
}

func (u *authUsecase) SetAccountConnectedCallback(fn AccountConnectedFunc) {
	u.onConnected = fn
}

func (u *authUsecase) Login(ctx context.Context, req *authdto.LoginRequest) (*authdto.TokenResponse, error) {
	user, err := u.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	if user == nil || !repository.CheckPasswordHash(req.Password, user.Password) {
		return nil, authdomain.ErrInvalidCredentials
	}

	return u.issueToken(user)
}

func (u *authUsecase) Register(ctx context.Context, req *authdto.RegisterRequest) (*authdto.TokenResponse, error) {
	existing, err := u.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		return nil, authdomain.ErrEmailTaken
	}

	hashedPassword, err := repository.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &authdomain.User{
		Email:    req.Email,
		Password: hashedPassword,
		Name:     req.Name,
	}

	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return u.issueToken(user)
}

func (u *authUsecase) issueToken(user *authdomain.User) (*authdto.TokenResponse, error) {
	now := time.Now()
	expiresAt := now.Add(u.config.JWTAccessExpiry)

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     expiresAt.Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(u.config.JWTSecret))
	if err != nil {
		return nil, err
	}

	return &authdto.TokenResponse{
		AccessToken: signed,
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

func (u *authUsecase) ValidateToken(ctx context.Context, tokenString string) (*authdomain.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(u.config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !token.Valid {
		return nil, authdomain.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, authdomain.ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, authdomain.ErrInvalidToken
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, authdomain.ErrUserNotFound
	}

	return user, nil
}

func (u *authUsecase) ConnectAccount(ctx context.Context, userID string, req *authdto.ConnectAccountRequest) (*authdomain.Account, error) {
	if !req.Provider.Valid() {
		return nil, authdomain.ErrUnsupportedProvider
	}

	account := &authdomain.Account{
		UserID:       userID,
		Provider:     req.Provider,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		Expiry:       req.ExpiresAt,
		Scope:        req.Scope,
	}
	if err := u.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}

	if u.onConnected != nil {
		if err := u.onConnected(ctx, userID, req.Provider); err != nil {
			log.Printf("[Auth] Account connected callback failed for user %s (%s): %v", userID, req.Provider, err)
		}
	}

	return account, nil
}

func (u *authUsecase) AccountStatus(ctx context.Context, userID string, provider integrationdomain.Provider) (*authdto.AccountStatusResponse, error) {
	if !provider.Valid() {
		return nil, authdomain.ErrUnsupportedProvider
	}
	account, err := u.accountRepo.FindByUserAndProvider(ctx, userID, provider)
	if err != nil {
		return nil, err
	}
	return accountStatus(provider, account, time.Now()), nil
}

// accountStatus reports a stored account as of now. A token without an expiry never expires.
func accountStatus(provider integrationdomain.Provider, account *authdomain.Account, now time.Time) *authdto.AccountStatusResponse {
	resp := &authdto.AccountStatusResponse{Provider: provider}
	if account == nil || account.AccessToken == "" {
		resp.Status = authdto.AccountNoToken
		resp.HasRefreshToken = account != nil && account.RefreshToken != ""
		resp.Message = "No access token stored. Connect your " + string(provider) + " account."
		return resp
	}

	resp.HasAccessToken = true
	resp.HasRefreshToken = account.RefreshToken != ""
	resp.ExpiresAt = account.Expiry
	resp.IsExpired = account.Expiry != nil && !account.Expiry.IsZero() && !now.Before(*account.Expiry)

	switch {
	case !resp.IsExpired:
		resp.Status = authdto.AccountConnected
		resp.Message = "Token is valid."
	case resp.HasRefreshToken:
		resp.Status = authdto.AccountTokenExpired
		resp.Message = "Access token expired. A refresh token is available, sync will refresh it."
	default:
		resp.Status = authdto.AccountTokenExpired
		resp.Message = "Access token expired and cannot be refreshed. Reconnect your " + string(provider) + " account."
	}
	return resp
}

func (u *authUsecase) RegisterFCMToken(ctx context.Context, userID string, req *authdto.RegisterFCMTokenRequest) error {
	return u.fcmRepo.SaveToken(ctx, userID, req.Token, req.DeviceInfo)
}

func (u *authUsecase) UnregisterFCMToken(ctx context.Context, userID, token string) error {
	return u.fcmRepo.DeleteUserToken(ctx, userID, token)
}
