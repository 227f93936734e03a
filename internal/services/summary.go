package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/CryptracSolutions/ultaura-insights/internal/crypto"
	"github.com/CryptracSolutions/ultaura-insights/internal/domain"
	pkgerrors "github.com/CryptracSolutions/ultaura-insights/internal/pkg/errors"
	"github.com/CryptracSolutions/ultaura-insights/internal/platform/logger"
	"github.com/CryptracSolutions/ultaura-insights/internal/repos"
)

// WeeklySummary is the decrypted narrative for one (line, week).
type WeeklySummary struct {
	SummaryID     uuid.UUID `json:"summary_id"`
	LineID        uuid.UUID `json:"line_id"`
	WeekStartDate time.Time `json:"week_start_date"`
	WeekEndDate   time.Time `json:"week_end_date"`
	Narrative     string    `json:"narrative"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// summaryPlaintext is the sealed JSON body. Identity fields live in the AAD,
// not here.
type summaryPlaintext struct {
	Narrative   string    `json:"narrative"`
	GeneratedAt time.Time `json:"generated_at"`
}

type SummaryService interface {
	// StoreWeeklySummary seals a narrative under the line's account DEK.
	// Re-storing the same (line, week) replaces the envelope under a fresh
	// summary id; the old ciphertext can never open in the new slot.
	StoreWeeklySummary(ctx context.Context, lineID uuid.UUID, weekStart time.Time, narrative string) (*domain.EncryptedWeeklySummary, error)
	// GetWeeklySummary opens the stored envelope. A missing row returns
	// ErrNotFound; a tampered one returns ErrKeyIntegrity.
	GetWeeklySummary(ctx context.Context, lineID uuid.UUID, weekStart time.Time) (*WeeklySummary, error)
}

type summaryService struct {
	db        *gorm.DB
	log       *logger.Logger
	lines     repos.LineRepo
	summaries repos.WeeklySummaryRepo
	keyring   *crypto.Keyring
	nowFn     func() time.Time
}

func NewSummaryService(db *gorm.DB, baseLog *logger.Logger, lines repos.LineRepo, summaries repos.WeeklySummaryRepo, keyring *crypto.Keyring) SummaryService {
	serviceLog := baseLog.With("service", "SummaryService")
	return &summaryService{
		db:        db,
		log:       serviceLog,
		lines:     lines,
		summaries: summaries,
		keyring:   keyring,
		nowFn:     time.Now,
	}
}

// truncateToDate drops the time-of-day so week keys compare equal regardless
// of how the caller built the timestamp.
func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *summaryService) StoreWeeklySummary(ctx context.Context, lineID uuid.UUID, weekStart time.Time, narrative string) (*domain.EncryptedWeeklySummary, error) {
	if narrative == "" {
		return nil, fmt.Errorf("empty narrative: %w", pkgerrors.ErrInvalidArgument)
	}
	line, err := s.lines.GetByID(ctx, nil, lineID)
	if err != nil {
		return nil, err
	}
	dek, err := s.keyring.GetOrCreateAccountDEK(ctx, line.AccountID)
	if err != nil {
		return nil, err
	}

	weekStart = truncateToDate(weekStart)
	summaryID := uuid.New()

	plaintext, err := json.Marshal(summaryPlaintext{
		Narrative:   narrative,
		GeneratedAt: s.nowFn().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	aad := crypto.WeeklySummaryAAD(line.AccountID, lineID, summaryID, weekStart)
	ciphertext, iv, tag, err := crypto.Seal(dek, plaintext, aad)
	if err != nil {
		return nil, fmt.Errorf("seal summary: %w", err)
	}

	existing, err := s.summaries.GetByLineWeek(ctx, nil, lineID, weekStart)
	switch {
	case err == nil:
		if err := s.summaries.ReplaceEnvelope(ctx, nil, existing.ID, summaryID, ciphertext, iv, tag); err != nil {
			return nil, err
		}
		existing.SummaryID = summaryID
		existing.Ciphertext = ciphertext
		existing.IV = iv
		existing.Tag = tag
		s.log.Info("weekly summary replaced",
			"line_id", lineID.String(),
			"summary_id", summaryID.String(),
			"week_start", weekStart.Format("2006-01-02"))
		return existing, nil
	case errors.Is(err, pkgerrors.ErrNotFound):
		row := &domain.EncryptedWeeklySummary{
			AccountID:     line.AccountID,
			LineID:        lineID,
			SummaryID:     summaryID,
			WeekStartDate: weekStart,
			Ciphertext:    ciphertext,
			IV:            iv,
			Tag:           tag,
		}
		if err := s.summaries.Create(ctx, nil, row); err != nil {
			if pkgerrors.IsDuplicateKey(err) {
				// Concurrent store for the same week; replace the
				// winner's envelope instead.
				winner, gerr := s.summaries.GetByLineWeek(ctx, nil, lineID, weekStart)
				if gerr != nil {
					return nil, gerr
				}
				if rerr := s.summaries.ReplaceEnvelope(ctx, nil, winner.ID, summaryID, ciphertext, iv, tag); rerr != nil {
					return nil, rerr
				}
				winner.SummaryID = summaryID
				winner.Ciphertext = ciphertext
				winner.IV = iv
				winner.Tag = tag
				return winner, nil
			}
			return nil, err
		}
		s.log.Info("weekly summary stored",
			"line_id", lineID.String(),
			"summary_id", summaryID.String(),
			"week_start", weekStart.Format("2006-01-02"))
		return row, nil
	default:
		return nil, err
	}
}

func (s *summaryService) GetWeeklySummary(ctx context.Context, lineID uuid.UUID, weekStart time.Time) (*WeeklySummary, error) {
	line, err := s.lines.GetByID(ctx, nil, lineID)
	if err != nil {
		return nil, err
	}
	weekStart = truncateToDate(weekStart)
	row, err := s.summaries.GetByLineWeek(ctx, nil, lineID, weekStart)
	if err != nil {
		return nil, err
	}
	if row.AccountID != line.AccountID {
		s.log.Warn("summary row account mismatch", "summary_row_id", row.ID.String())
		return nil, pkgerrors.ErrKeyIntegrity
	}
	dek, err := s.keyring.GetOrCreateAccountDEK(ctx, line.AccountID)
	if err != nil {
		return nil, err
	}

	aad := crypto.WeeklySummaryAAD(row.AccountID, row.LineID, row.SummaryID, row.WeekStartDate)
	plaintext, err := crypto.Open(dek, row.Ciphertext, row.IV, row.Tag, aad)
	if err != nil {
		// Log the row id only; never ciphertext or key material.
		s.log.Warn("weekly summary failed to open", "summary_row_id", row.ID.String())
		return nil, pkgerrors.ErrKeyIntegrity
	}
	var body summaryPlaintext
	if err := json.Unmarshal(plaintext, &body); err != nil {
		s.log.Warn("weekly summary payload malformed", "summary_row_id", row.ID.String())
		return nil, pkgerrors.ErrKeyIntegrity
	}

	return &WeeklySummary{
		SummaryID:     row.SummaryID,
		LineID:        row.LineID,
		WeekStartDate: row.WeekStartDate,
		WeekEndDate:   row.WeekEndDate(),
		Narrative:     body.Narrative,
		GeneratedAt:   body.GeneratedAt,
	}, nil
}
