package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/CryptracSolutions/ultaura-insights/internal/domain"
	"github.com/CryptracSolutions/ultaura-insights/internal/platform/logger"
)

type CallSessionRepo interface {
	// ListByLine returns non-test sessions for the half-open interval
	// [start, end), oldest first. Test calls never reach analytics.
	ListByLine(ctx context.Context, tx *gorm.DB, lineID uuid.UUID, start, end time.Time) ([]*domain.CallSession, error)
}

type callSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCallSessionRepo(db *gorm.DB, baseLog *logger.Logger) CallSessionRepo {
	repoLog := baseLog.With("repo", "CallSessionRepo")
	return &callSessionRepo{db: db, log: repoLog}
}

func (r *callSessionRepo) ListByLine(ctx context.Context, tx *gorm.DB, lineID uuid.UUID, start, end time.Time) ([]*domain.CallSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.CallSession
	if err := transaction.WithContext(ctx).
		Where("line_id = ?", lineID).
		Where("is_test_call = ?", false).
		Where("created_at >= ? AND created_at < ?", start, end).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
