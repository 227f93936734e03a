package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/CryptracSolutions/ultaura-insights/internal/domain"
	pkgerrors "github.com/CryptracSolutions/ultaura-insights/internal/pkg/errors"
	"github.com/CryptracSolutions/ultaura-insights/internal/platform/logger"
)

type WeeklySummaryRepo interface {
	GetByLineWeek(ctx context.Context, tx *gorm.DB, lineID uuid.UUID, weekStart time.Time) (*domain.EncryptedWeeklySummary, error)
	Create(ctx context.Context, tx *gorm.DB, row *domain.EncryptedWeeklySummary) error
	// ReplaceEnvelope overwrites the sealed contents of an existing week
	// slot. A later regeneration supersedes the old narrative.
	ReplaceEnvelope(ctx context.Context, tx *gorm.DB, id uuid.UUID, summaryID uuid.UUID, ciphertext, iv, tag []byte) error
}

type weeklySummaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWeeklySummaryRepo(db *gorm.DB, baseLog *logger.Logger) WeeklySummaryRepo {
	repoLog := baseLog.With("repo", "WeeklySummaryRepo")
	return &weeklySummaryRepo{db: db, log: repoLog}
}

func (r *weeklySummaryRepo) GetByLineWeek(ctx context.Context, tx *gorm.DB, lineID uuid.UUID, weekStart time.Time) (*domain.EncryptedWeeklySummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result domain.EncryptedWeeklySummary
	if err := transaction.WithContext(ctx).
		Where("line_id = ? AND week_start_date = ?", lineID, weekStart).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (r *weeklySummaryRepo) Create(ctx context.Context, tx *gorm.DB, row *domain.EncryptedWeeklySummary) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(row).Error
}

func (r *weeklySummaryRepo) ReplaceEnvelope(ctx context.Context, tx *gorm.DB, id uuid.UUID, summaryID uuid.UUID, ciphertext, iv, tag []byte) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&domain.EncryptedWeeklySummary{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"summary_id": summaryID,
			"ciphertext": ciphertext,
			"iv":         iv,
			"tag":        tag,
			"updated_at": time.Now(),
		}).Error
}
