package domain

import "errors"

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrUserNotFound        = errors.New("user not found")
	ErrUnsupportedProvider = errors.New("provider must be gmail or github")

	// ErrNoCredential means the user never connected the provider or the stored token is empty
	ErrNoCredential = errors.New("no credential for provider")
	// ErrCredentialExpired means the token expired and could not be refreshed
	ErrCredentialExpired = errors.New("credential expired")
)
