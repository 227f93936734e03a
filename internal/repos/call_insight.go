package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/CryptracSolutions/ultaura-insights/internal/domain"
	"github.com/CryptracSolutions/ultaura-insights/internal/platform/logger"
)

type CallInsightRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *domain.EncryptedCallInsight) error
	// ListByLine returns rows newest-first, optionally bounded by the
	// half-open interval [start, end) and capped by limit (0 = no cap).
	ListByLine(ctx context.Context, tx *gorm.DB, lineID uuid.UUID, start, end *time.Time, limit int) ([]*domain.EncryptedCallInsight, error)
}

type callInsightRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCallInsightRepo(db *gorm.DB, baseLog *logger.Logger) CallInsightRepo {
	repoLog := baseLog.With("repo", "CallInsightRepo")
	return &callInsightRepo{db: db, log: repoLog}
}

func (r *callInsightRepo) Create(ctx context.Context, tx *gorm.DB, row *domain.EncryptedCallInsight) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(row).Error
}

func (r *callInsightRepo) ListByLine(ctx context.Context, tx *gorm.DB, lineID uuid.UUID, start, end *time.Time, limit int) ([]*domain.EncryptedCallInsight, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).
		Where("line_id = ?", lineID).
		Order("created_at DESC")
	if start != nil {
		query = query.Where("created_at >= ?", *start)
	}
	if end != nil {
		query = query.Where("created_at < ?", *end)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var results []*domain.EncryptedCallInsight
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
