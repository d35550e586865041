package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Provider identifies an external system a user can connect
type Provider string

const (
	ProviderGmail  Provider = "gmail"
	ProviderGitHub Provider = "github"
)

var AllProviders = []Provider{ProviderGmail, ProviderGitHub}

func (p Provider) Valid() bool {
	return p == ProviderGmail || p == ProviderGitHub
}

var ErrUnknownProvider = errors.New("unknown integration type")

// ConfigMap is an opaque per-integration settings bag stored as a JSON column
type ConfigMap map[string]interface{}

// Value implements driver.Valuer for database serialization
func (m ConfigMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for database deserialization
func (m *ConfigMap) Scan(value interface{}) error {
	if value == nil {
		*m = ConfigMap{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("failed to scan ConfigMap")
	}

	if len(raw) == 0 {
		*m = ConfigMap{}
		return nil
	}
	return json.Unmarshal(raw, m)
}

// Integration is a user's connection to one provider. One row per (user, type).
type Integration struct {
	ID         string     `json:"id" gorm:"primaryKey" bson:"_id"`
	UserID     string     `json:"userId" gorm:"not null;uniqueIndex:idx_integration_user_type" bson:"userId"`
	Type       Provider   `json:"type" gorm:"not null;uniqueIndex:idx_integration_user_type" bson:"type"`
	Enabled    bool       `json:"enabled" bson:"enabled"`
	Config     ConfigMap  `json:"config" gorm:"type:text" bson:"config"`
	LastSyncAt *time.Time `json:"lastSyncAt,omitempty" bson:"lastSyncAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Sync triggers recorded on SyncRun
const (
	TriggerManual  = "manual"
	TriggerCron    = "cron"
	TriggerConnect = "connect"
)

// SyncRun records the outcome of one sync pass for one user and provider
type SyncRun struct {
	ID         string    `json:"id" gorm:"primaryKey" bson:"_id"`
	UserID     string    `json:"userId" gorm:"index:idx_sync_run_user_started;not null" bson:"userId"`
	Provider   Provider  `json:"provider" bson:"provider"`
	Trigger    string    `json:"trigger" bson:"trigger"`
	Created    int       `json:"created" bson:"created"`
	Skipped    int       `json:"skipped" bson:"skipped"`
	Failed     int       `json:"failed" bson:"failed"`
	Error      string    `json:"error,omitempty" bson:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt" gorm:"index:idx_sync_run_user_started" bson:"startedAt"`
	FinishedAt time.Time `json:"finishedAt" bson:"finishedAt"`
}
