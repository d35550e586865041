package domain

import (
	"encoding/json"
	"errors"

	integrationdomain "devnudge-backend/internal/integration/domain"
)

// ErrorKind classifies why a sync pass (or part of one) did not fully succeed
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorNoCredential
	ErrorCredentialExpired
	ErrorSourceUnavailable
	ErrorMalformedItem
	ErrorPersistenceFailure
	ErrorSyncFailed
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return ""
	case ErrorNoCredential:
		return "NoCredential"
	case ErrorCredentialExpired:
		return "CredentialExpired"
	case ErrorSourceUnavailable:
		return "SourceUnavailable"
	case ErrorMalformedItem:
		return "MalformedItem"
	case ErrorPersistenceFailure:
		return "PersistenceFailure"
	default:
		return "SyncFailed"
	}
}

func (k ErrorKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// NeedsReconnect is true for the kinds the user fixes by reconnecting the integration.
func (k ErrorKind) NeedsReconnect() bool {
	return k == ErrorNoCredential || k == ErrorCredentialExpired
}

var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrMalformedItem     = errors.New("malformed candidate item")
)

// SyncResult is what one sync pass reports back to its caller
type SyncResult struct {
	Provider integrationdomain.Provider `json:"provider"`
	Created  int                        `json:"created"`
	Skipped  int                        `json:"skipped"`
	Failed   int                        `json:"failed"`
	Error    ErrorKind                  `json:"error,omitempty"`
}

// BatchResult aggregates a cron-driven pass over every user with an enabled integration
type BatchResult struct {
	Provider integrationdomain.Provider `json:"provider"`
	Users    int                        `json:"users"`
	Created  int                        `json:"created"`
	Errors   map[string]int             `json:"errors,omitempty"`
}
