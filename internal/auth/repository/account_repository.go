package repository

import (
	"context"
	"errors"
	"time"

	authdomain "devnudge-backend/internal/auth/domain"
	integrationdomain "devnudge-backend/internal/integration/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountRepository stores one OAuth account per (user, provider)
type AccountRepository interface {
	Save(ctx context.Context, account *authdomain.Account) error
	FindByUserAndProvider(ctx context.Context, userID string, provider integrationdomain.Provider) (*authdomain.Account, error)
	UpdateToken(ctx context.Context, account *authdomain.Account) error
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Save upserts on (user_id, provider) so reconnecting replaces the old tokens
func (r *accountRepository) Save(ctx context.Context, account *authdomain.Account) error {
	now := time.Now()
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	account.CreatedAt = now
	account.UpdatedAt = now

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "expiry", "scope", "updated_at"}),
	}).Create(account).Error
}

func (r *accountRepository) FindByUserAndProvider(ctx context.Context, userID string, provider integrationdomain.Provider) (*authdomain.Account, error) {
	var account authdomain.Account
	err := r.db.WithContext(ctx).Where("user_id = ? AND provider = ?", userID, provider).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) UpdateToken(ctx context.Context, account *authdomain.Account) error {
	return r.db.WithContext(ctx).Model(&authdomain.Account{}).
		Where("user_id = ? AND provider = ?", account.UserID, account.Provider).
		Updates(map[string]interface{}{
			"access_token":  account.AccessToken,
			"refresh_token": account.RefreshToken,
			"expiry":        account.Expiry,
			"updated_at":    time.Now(),
		}).Error
}
