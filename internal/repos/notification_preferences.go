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

type NotificationPreferencesRepo interface {
	GetByAccountLine(ctx context.Context, tx *gorm.DB, accountID, lineID uuid.UUID) (*domain.NotificationPreferences, error)
	Create(ctx context.Context, tx *gorm.DB, row *domain.NotificationPreferences) error
	Update(ctx context.Context, tx *gorm.DB, row *domain.NotificationPreferences) error
}

type notificationPreferencesRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNotificationPreferencesRepo(db *gorm.DB, baseLog *logger.Logger) NotificationPreferencesRepo {
	repoLog := baseLog.With("repo", "NotificationPreferencesRepo")
	return &notificationPreferencesRepo{db: db, log: repoLog}
}

func (r *notificationPreferencesRepo) GetByAccountLine(ctx context.Context, tx *gorm.DB, accountID, lineID uuid.UUID) (*domain.NotificationPreferences, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result domain.NotificationPreferences
	if err := transaction.WithContext(ctx).
		Where("account_id = ? AND line_id = ?", accountID, lineID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (r *notificationPreferencesRepo) Create(ctx context.Context, tx *gorm.DB, row *domain.NotificationPreferences) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(row).Error
}

func (r *notificationPreferencesRepo) Update(ctx context.Context, tx *gorm.DB, row *domain.NotificationPreferences) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&domain.NotificationPreferences{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"summary_format":              row.SummaryFormat,
			"summary_day":                 row.SummaryDay,
			"summary_time":                row.SummaryTime,
			"missed_call_alert_threshold": row.MissedCallAlertThreshold,
		}).Error
}
