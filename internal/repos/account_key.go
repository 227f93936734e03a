package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/CryptracSolutions/ultaura-insights/internal/domain"
	pkgerrors "github.com/CryptracSolutions/ultaura-insights/internal/pkg/errors"
	"github.com/CryptracSolutions/ultaura-insights/internal/platform/logger"
)

type AccountKeyRepo interface {
	GetByAccountID(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) (*domain.AccountCryptoKey, error)
	Create(ctx context.Context, tx *gorm.DB, row *domain.AccountCryptoKey) error
}

type accountKeyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAccountKeyRepo(db *gorm.DB, baseLog *logger.Logger) AccountKeyRepo {
	repoLog := baseLog.With("repo", "AccountKeyRepo")
	return &accountKeyRepo{db: db, log: repoLog}
}

func (r *accountKeyRepo) GetByAccountID(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) (*domain.AccountCryptoKey, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result domain.AccountCryptoKey
	if err := transaction.WithContext(ctx).
		Where("account_id = ?", accountID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (r *accountKeyRepo) Create(ctx context.Context, tx *gorm.DB, row *domain.AccountCryptoKey) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(row).Error
}
