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

type LineRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, lineID uuid.UUID) (*domain.Line, error)
}

type lineRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLineRepo(db *gorm.DB, baseLog *logger.Logger) LineRepo {
	repoLog := baseLog.With("repo", "LineRepo")
	return &lineRepo{db: db, log: repoLog}
}

func (r *lineRepo) GetByID(ctx context.Context, tx *gorm.DB, lineID uuid.UUID) (*domain.Line, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result domain.Line
	if err := transaction.WithContext(ctx).
		Where("id = ?", lineID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}
