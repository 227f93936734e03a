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

type LineBaselineRepo interface {
	GetByLineID(ctx context.Context, tx *gorm.DB, lineID uuid.UUID) (*domain.LineBaseline, error)
}

type lineBaselineRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLineBaselineRepo(db *gorm.DB, baseLog *logger.Logger) LineBaselineRepo {
	repoLog := baseLog.With("repo", "LineBaselineRepo")
	return &lineBaselineRepo{db: db, log: repoLog}
}

func (r *lineBaselineRepo) GetByLineID(ctx context.Context, tx *gorm.DB, lineID uuid.UUID) (*domain.LineBaseline, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result domain.LineBaseline
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
