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

type InsightPrivacyRepo interface {
	GetByLineID(ctx context.Context, tx *gorm.DB, lineID uuid.UUID) (*domain.InsightPrivacy, error)
	Create(ctx context.Context, tx *gorm.DB, row *domain.InsightPrivacy) error
	Update(ctx context.Context, tx *gorm.DB, row *domain.InsightPrivacy) error
}

type insightPrivacyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInsightPrivacyRepo(db *gorm.DB, baseLog *logger.Logger) InsightPrivacyRepo {
	repoLog := baseLog.With("repo", "InsightPrivacyRepo")
	return &insightPrivacyRepo{db: db, log: repoLog}
}

func (r *insightPrivacyRepo) GetByLineID(ctx context.Context, tx *gorm.DB, lineID uuid.UUID) (*domain.InsightPrivacy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result domain.InsightPrivacy
	if err := transaction.WithContext(ctx).
		Where("line_id = ?", lineID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (r *insightPrivacyRepo) Create(ctx context.Context, tx *gorm.DB, row *domain.InsightPrivacy) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(row).Error
}

func (r *insightPrivacyRepo) Update(ctx context.Context, tx *gorm.DB, row *domain.InsightPrivacy) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&domain.InsightPrivacy{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"insights_enabled":    row.InsightsEnabled,
			"is_paused":           row.IsPaused,
			"paused_reason":       row.PausedReason,
			"paused_at":           row.PausedAt,
			"private_topic_codes": row.PrivateTopicCodes,
		}).Error
}
