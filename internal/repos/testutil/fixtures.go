package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/CryptracSolutions/ultaura-insights/internal/domain"
)

func SeedLine(tb testing.TB, ctx context.Context, tx *gorm.DB, accountID uuid.UUID) *domain.Line {
	tb.Helper()
	line := &domain.Line{
		ID:          uuid.New(),
		AccountID:   accountID,
		ShortID:     "ln-test",
		DisplayName: "Test Line",
		Timezone:    "America/New_York",
		Status:      "active",
	}
	if err := tx.WithContext(ctx).Create(line).Error; err != nil {
		tb.Fatalf("seed line: %v", err)
	}
	return line
}

func SeedCallSession(tb testing.TB, ctx context.Context, tx *gorm.DB, line *domain.Line, createdAt time.Time, isTest bool) *domain.CallSession {
	tb.Helper()
	key := "sched-" + uuid.NewString()
	answeredBy := domain.AnsweredByHuman
	cs := &domain.CallSession{
		ID:                      uuid.New(),
		AccountID:               line.AccountID,
		LineID:                  line.ID,
		Direction:               domain.DirectionOutbound,
		AnsweredBy:              &answeredBy,
		SecondsConnected:        300,
		IsTestCall:              isTest,
		SchedulerIdempotencyKey: &key,
		CreatedAt:               createdAt,
	}
	if err := tx.WithContext(ctx).Create(cs).Error; err != nil {
		tb.Fatalf("seed call session: %v", err)
	}
	return cs
}

func SeedEncryptedInsight(tb testing.TB, ctx context.Context, tx *gorm.DB, line *domain.Line, callSessionID uuid.UUID, ciphertext, iv, tag []byte, createdAt time.Time) *domain.EncryptedCallInsight {
	tb.Helper()
	row := &domain.EncryptedCallInsight{
		ID:               uuid.New(),
		AccountID:        line.AccountID,
		LineID:           line.ID,
		CallSessionID:    callSessionID,
		DurationSeconds:  300,
		ExtractionMethod: "llm_v2",
		Ciphertext:       ciphertext,
		IV:               iv,
		Tag:              tag,
		CreatedAt:        createdAt,
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed encrypted insight: %v", err)
	}
	return row
}
