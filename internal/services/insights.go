package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/CryptracSolutions/ultaura-insights/internal/crypto"
	"github.com/CryptracSolutions/ultaura-insights/internal/domain"
	pkgerrors "github.com/CryptracSolutions/ultaura-insights/internal/pkg/errors"
	"github.com/CryptracSolutions/ultaura-insights/internal/platform/logger"
	"github.com/CryptracSolutions/ultaura-insights/internal/repos"
)

const decryptConcurrency = 8

// DecryptedInsight is an encrypted insight row after opening: envelope
// metadata plus the validated payload.
type DecryptedInsight struct {
	ID               uuid.UUID           `json:"id"`
	CallSessionID    uuid.UUID           `json:"call_session_id"`
	CreatedAt        time.Time           `json:"created_at"`
	DurationSeconds  int                 `json:"duration_seconds"`
	ExtractionMethod string              `json:"extraction_method"`
	Insights         domain.CallInsights `json:"insights"`
}

// LoadInsightsOptions bounds a retrieval: optional half-open [Start, End)
// interval and a row cap (0 = uncapped).
type LoadInsightsOptions struct {
	Start *time.Time
	End   *time.Time
	Limit int
}

type InsightService interface {
	// LoadLineInsights fetches and decrypts insight rows for a line,
	// newest-first. Rows that fail to open are dropped and warn-logged by
	// row id; one bad row never fails the batch.
	LoadLineInsights(ctx context.Context, lineID uuid.UUID, opts LoadInsightsOptions) ([]DecryptedInsight, error)
	// StoreCallInsights seals a validated payload for a completed call.
	// Ingestion is not gated by pause state; only surfacing is.
	StoreCallInsights(ctx context.Context, session *domain.CallSession, payload domain.CallInsights, extractionMethod string) (*domain.EncryptedCallInsight, error)
}

type insightService struct {
	db      *gorm.DB
	log     *logger.Logger
	lines   repos.LineRepo
	rows    repos.CallInsightRepo
	keyring *crypto.Keyring
}

func NewInsightService(db *gorm.DB, baseLog *logger.Logger, lines repos.LineRepo, rows repos.CallInsightRepo, keyring *crypto.Keyring) InsightService {
	serviceLog := baseLog.With("service", "InsightService")
	return &insightService{db: db, log: serviceLog, lines: lines, rows: rows, keyring: keyring}
}

func (s *insightService) LoadLineInsights(ctx context.Context, lineID uuid.UUID, opts LoadInsightsOptions) ([]DecryptedInsight, error) {
	line, err := s.lines.GetByID(ctx, nil, lineID)
	if err != nil {
		return nil, err
	}
	dek, err := s.keyring.GetOrCreateAccountDEK(ctx, line.AccountID)
	if err != nil {
		return nil, err
	}

	rows, err := s.rows.ListByLine(ctx, nil, lineID, opts.Start, opts.End, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("list insight rows: %w", err)
	}
	if len(rows) == 0 {
		return []DecryptedInsight{}, nil
	}

	// Per-row decryption is independent; failures stay per-row. Slots keep
	// the newest-first row order, failed slots stay nil.
	decrypted := make([]*DecryptedInsight, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(decryptConcurrency)
	for i, row := range rows {
		i, row := i, row
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			entry, ok := s.openRow(line, dek, row)
			if ok {
				decrypted[i] = entry
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]DecryptedInsight, 0, len(rows))
	for _, entry := range decrypted {
		if entry != nil {
			results = append(results, *entry)
		}
	}
	return results, nil
}

// openRow decrypts and validates a single row. Any failure drops the row with
// a warning naming only the row id; plaintext and key material never reach
// the log.
func (s *insightService) openRow(line *domain.Line, dek []byte, row *domain.EncryptedCallInsight) (*DecryptedInsight, bool) {
	if row.AccountID != line.AccountID {
		s.log.Warn("insight row account mismatch, skipping", "row_id", row.ID.String())
		return nil, false
	}
	aad := crypto.CallInsightAAD(row.AccountID, row.LineID, row.CallSessionID)
	plaintext, err := crypto.Open(dek, row.Ciphertext, row.IV, row.Tag, aad)
	if err != nil {
		s.log.Warn("insight row failed to decrypt, skipping", "row_id", row.ID.String())
		return nil, false
	}
	var payload domain.CallInsights
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		s.log.Warn("insight row payload undecodable, skipping", "row_id", row.ID.String())
		return nil, false
	}
	if err := payload.Validate(); err != nil {
		s.log.Warn("insight row payload invalid, skipping", "row_id", row.ID.String())
		return nil, false
	}
	return &DecryptedInsight{
		ID:               row.ID,
		CallSessionID:    row.CallSessionID,
		CreatedAt:        row.CreatedAt,
		DurationSeconds:  row.DurationSeconds,
		ExtractionMethod: row.ExtractionMethod,
		Insights:         payload,
	}, true
}

func (s *insightService) StoreCallInsights(ctx context.Context, session *domain.CallSession, payload domain.CallInsights, extractionMethod string) (*domain.EncryptedCallInsight, error) {
	if session == nil {
		return nil, fmt.Errorf("nil call session: %w", pkgerrors.ErrInvalidArgument)
	}
	if session.IsTestCall {
		// Test calls never contribute to analytics; nothing is sealed.
		s.log.Debug("skipping insights for test call", "call_session_id", session.ID.String())
		return nil, nil
	}
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, pkgerrors.ErrInvalidArgument)
	}

	dek, err := s.keyring.GetOrCreateAccountDEK(ctx, session.AccountID)
	if err != nil {
		return nil, err
	}
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	aad := crypto.CallInsightAAD(session.AccountID, session.LineID, session.ID)
	ciphertext, iv, tag, err := crypto.Seal(dek, plaintext, aad)
	if err != nil {
		return nil, fmt.Errorf("seal payload: %w", err)
	}

	row := &domain.EncryptedCallInsight{
		ID:               uuid.New(),
		AccountID:        session.AccountID,
		LineID:           session.LineID,
		CallSessionID:    session.ID,
		DurationSeconds:  session.SecondsConnected,
		ExtractionMethod: extractionMethod,
		Ciphertext:       ciphertext,
		IV:               iv,
		Tag:              tag,
		CreatedAt:        session.CreatedAt,
	}
	if err := s.rows.Create(ctx, nil, row); err != nil {
		return nil, fmt.Errorf("persist insight row: %w", err)
	}
	return row, nil
}
