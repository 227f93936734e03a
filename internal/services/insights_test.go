package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/CryptracSolutions/ultaura-insights/internal/crypto"
	"github.com/CryptracSolutions/ultaura-insights/internal/domain"
	pkgerrors "github.com/CryptracSolutions/ultaura-insights/internal/pkg/errors"
	"github.com/CryptracSolutions/ultaura-insights/internal/platform/logger"
)

type stubLineRepo struct {
	line *domain.Line
}

func (r *stubLineRepo) GetByID(_ context.Context, _ *gorm.DB, lineID uuid.UUID) (*domain.Line, error) {
	if r.line == nil || r.line.ID != lineID {
		return nil, pkgerrors.ErrNotFound
	}
	return r.line, nil
}

type stubInsightRepo struct {
	rows    []*domain.EncryptedCallInsight
	created []*domain.EncryptedCallInsight
}

func (r *stubInsightRepo) Create(_ context.Context, _ *gorm.DB, row *domain.EncryptedCallInsight) error {
	r.created = append(r.created, row)
	return nil
}

func (r *stubInsightRepo) ListByLine(_ context.Context, _ *gorm.DB, lineID uuid.UUID, start, end *time.Time, limit int) ([]*domain.EncryptedCallInsight, error) {
	var out []*domain.EncryptedCallInsight
	for _, row := range r.rows {
		if row.LineID != lineID {
			continue
		}
		if start != nil && row.CreatedAt.Before(*start) {
			continue
		}
		if end != nil && !row.CreatedAt.Before(*end) {
			continue
		}
		out = append(out, row)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type stubKeyStore struct {
	rows map[uuid.UUID]*domain.AccountCryptoKey
}

func newStubKeyStore() *stubKeyStore {
	return &stubKeyStore{rows: map[uuid.UUID]*domain.AccountCryptoKey{}}
}

func (s *stubKeyStore) GetByAccountID(_ context.Context, _ *gorm.DB, accountID uuid.UUID) (*domain.AccountCryptoKey, error) {
	row, ok := s.rows[accountID]
	if !ok {
		return nil, pkgerrors.ErrNotFound
	}
	return row, nil
}

func (s *stubKeyStore) Create(_ context.Context, _ *gorm.DB, row *domain.AccountCryptoKey) error {
	if _, ok := s.rows[row.AccountID]; ok {
		return gorm.ErrDuplicatedKey
	}
	s.rows[row.AccountID] = row
	return nil
}

func newTestLogger(tb testing.TB) *logger.Logger {
	tb.Helper()
	log, err := logger.New("test")
	if err != nil {
		tb.Fatalf("init logger: %v", err)
	}
	return log
}

func newTestKeyring(t *testing.T) *crypto.Keyring {
	t.Helper()
	kek := strings.Repeat("ab", crypto.KeySize)
	kr, err := crypto.NewKeyring(kek, newStubKeyStore(), newTestLogger(t))
	if err != nil {
		t.Fatalf("init keyring: %v", err)
	}
	return kr
}

func validPayload(mood domain.Mood) domain.CallInsights {
	return domain.CallInsights{
		MoodOverall:       mood,
		EngagementScore:   6.5,
		ConfidenceOverall: 0.8,
		Topics:            []domain.TopicWeight{{Code: "family", Weight: 0.6}},
	}
}

func sealRow(t *testing.T, kr *crypto.Keyring, line *domain.Line, at time.Time, payload domain.CallInsights) *domain.EncryptedCallInsight {
	t.Helper()
	dek, err := kr.GetOrCreateAccountDEK(context.Background(), line.AccountID)
	if err != nil {
		t.Fatalf("dek: %v", err)
	}
	plaintext, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	sessionID := uuid.New()
	aad := crypto.CallInsightAAD(line.AccountID, line.ID, sessionID)
	ciphertext, iv, tag, err := crypto.Seal(dek, plaintext, aad)
	if err != nil {
		t.Fatalf("seal payload: %v", err)
	}
	return &domain.EncryptedCallInsight{
		ID:               uuid.New(),
		AccountID:        line.AccountID,
		LineID:           line.ID,
		CallSessionID:    sessionID,
		DurationSeconds:  300,
		ExtractionMethod: "llm_v2",
		Ciphertext:       ciphertext,
		IV:               iv,
		Tag:              tag,
		CreatedAt:        at,
	}
}

func TestLoadLineInsightsIsolatesBadRows(t *testing.T) {
	line := testLine()
	kr := newTestKeyring(t)
	base := time.Date(2024, 6, 9, 10, 0, 0, 0, time.UTC)

	rows := make([]*domain.EncryptedCallInsight, 0, 5)
	for i := 0; i < 5; i++ {
		// Newest-first, matching the repo's ordering contract.
		rows = append(rows, sealRow(t, kr, line, base.Add(-time.Duration(i)*time.Hour), validPayload(domain.MoodNeutral)))
	}
	// Flip one bit in the middle row's tag; only that row may be lost.
	rows[2].Tag[0] ^= 0x01

	svc := NewInsightService(nil, newTestLogger(t), &stubLineRepo{line: line}, &stubInsightRepo{rows: rows}, kr)

	got, err := svc.LoadLineInsights(context.Background(), line.ID, LoadInsightsOptions{})
	if err != nil {
		t.Fatalf("LoadLineInsights: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d insights, want 4 with one tampered row dropped", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.After(got[i-1].CreatedAt) {
			t.Fatal("results not newest-first after dropping a row")
		}
	}
	for _, entry := range got {
		if entry.ID == rows[2].ID {
			t.Fatal("tampered row surfaced")
		}
	}
}

func TestLoadLineInsightsSkipsForeignAccountRows(t *testing.T) {
	line := testLine()
	kr := newTestKeyring(t)
	at := time.Date(2024, 6, 9, 10, 0, 0, 0, time.UTC)

	good := sealRow(t, kr, line, at, validPayload(domain.MoodPositive))
	foreign := sealRow(t, kr, line, at.Add(-time.Hour), validPayload(domain.MoodLow))
	foreign.AccountID = uuid.New()

	svc := NewInsightService(nil, newTestLogger(t), &stubLineRepo{line: line},
		&stubInsightRepo{rows: []*domain.EncryptedCallInsight{good, foreign}}, kr)

	got, err := svc.LoadLineInsights(context.Background(), line.ID, LoadInsightsOptions{})
	if err != nil {
		t.Fatalf("LoadLineInsights: %v", err)
	}
	if len(got) != 1 || got[0].ID != good.ID {
		t.Fatalf("got %d rows, want only the same-account row", len(got))
	}
}

func TestStoreCallInsights(t *testing.T) {
	line := testLine()
	kr := newTestKeyring(t)
	repo := &stubInsightRepo{}
	svc := NewInsightService(nil, newTestLogger(t), &stubLineRepo{line: line}, repo, kr)

	session := &domain.CallSession{
		ID:               uuid.New(),
		AccountID:        line.AccountID,
		LineID:           line.ID,
		Direction:        domain.DirectionOutbound,
		SecondsConnected: 420,
		CreatedAt:        time.Date(2024, 6, 9, 10, 0, 0, 0, time.UTC),
	}

	row, err := svc.StoreCallInsights(context.Background(), session, validPayload(domain.MoodPositive), "llm_v2")
	if err != nil {
		t.Fatalf("StoreCallInsights: %v", err)
	}
	if row == nil || len(repo.created) != 1 {
		t.Fatal("expected one persisted row")
	}
	if row.CallSessionID != session.ID || row.DurationSeconds != 420 {
		t.Errorf("row envelope = %+v, want session metadata carried over", row)
	}

	// The sealed row must open under the canonical context.
	dek, err := kr.GetOrCreateAccountDEK(context.Background(), line.AccountID)
	if err != nil {
		t.Fatalf("dek: %v", err)
	}
	aad := crypto.CallInsightAAD(row.AccountID, row.LineID, row.CallSessionID)
	plaintext, err := crypto.Open(dek, row.Ciphertext, row.IV, row.Tag, aad)
	if err != nil {
		t.Fatalf("stored row does not open: %v", err)
	}
	var payload domain.CallInsights
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		t.Fatalf("decode stored payload: %v", err)
	}
	if payload.MoodOverall != domain.MoodPositive {
		t.Errorf("stored mood = %q, want positive", payload.MoodOverall)
	}
}

func TestStoreCallInsightsSkipsTestCalls(t *testing.T) {
	line := testLine()
	repo := &stubInsightRepo{}
	svc := NewInsightService(nil, newTestLogger(t), &stubLineRepo{line: line}, repo, newTestKeyring(t))

	session := &domain.CallSession{
		ID:         uuid.New(),
		AccountID:  line.AccountID,
		LineID:     line.ID,
		IsTestCall: true,
	}
	row, err := svc.StoreCallInsights(context.Background(), session, validPayload(domain.MoodNeutral), "llm_v2")
	if err != nil {
		t.Fatalf("StoreCallInsights: %v", err)
	}
	if row != nil || len(repo.created) != 0 {
		t.Fatal("test call must not produce a sealed row")
	}
}

func TestStoreCallInsightsRejectsInvalidPayload(t *testing.T) {
	line := testLine()
	svc := NewInsightService(nil, newTestLogger(t), &stubLineRepo{line: line}, &stubInsightRepo{}, newTestKeyring(t))

	session := &domain.CallSession{ID: uuid.New(), AccountID: line.AccountID, LineID: line.ID}
	payload := validPayload("ecstatic")

	_, err := svc.StoreCallInsights(context.Background(), session, payload, "llm_v2")
	if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}
