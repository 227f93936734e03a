package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/CryptracSolutions/ultaura-insights/internal/domain"
	pkgerrors "github.com/CryptracSolutions/ultaura-insights/internal/pkg/errors"
)

type stubPrivacyRepo struct {
	rows           map[uuid.UUID]*domain.InsightPrivacy
	failNextCreate bool
}

func newStubPrivacyRepo() *stubPrivacyRepo {
	return &stubPrivacyRepo{rows: map[uuid.UUID]*domain.InsightPrivacy{}}
}

func (r *stubPrivacyRepo) GetByLineID(_ context.Context, _ *gorm.DB, lineID uuid.UUID) (*domain.InsightPrivacy, error) {
	row, ok := r.rows[lineID]
	if !ok {
		return nil, pkgerrors.ErrNotFound
	}
	return row, nil
}

func (r *stubPrivacyRepo) Create(_ context.Context, _ *gorm.DB, row *domain.InsightPrivacy) error {
	if r.failNextCreate {
		r.failNextCreate = false
		// Simulate losing the materialize race: the winner's row appears
		// before the duplicate error is observed.
		if _, ok := r.rows[row.LineID]; !ok {
			winner := domain.DefaultInsightPrivacy(row.LineID)
			winner.InsightsEnabled = false
			r.rows[row.LineID] = winner
		}
		return gorm.ErrDuplicatedKey
	}
	if _, ok := r.rows[row.LineID]; ok {
		return gorm.ErrDuplicatedKey
	}
	r.rows[row.LineID] = row
	return nil
}

func (r *stubPrivacyRepo) Update(_ context.Context, _ *gorm.DB, row *domain.InsightPrivacy) error {
	if _, ok := r.rows[row.LineID]; !ok {
		return pkgerrors.ErrNotFound
	}
	r.rows[row.LineID] = row
	return nil
}

type stubPrefsRepo struct {
	rows           map[uuid.UUID]*domain.NotificationPreferences
	failNextCreate bool
}

func newStubPrefsRepo() *stubPrefsRepo {
	return &stubPrefsRepo{rows: map[uuid.UUID]*domain.NotificationPreferences{}}
}

func (r *stubPrefsRepo) GetByAccountLine(_ context.Context, _ *gorm.DB, accountID, lineID uuid.UUID) (*domain.NotificationPreferences, error) {
	row, ok := r.rows[lineID]
	if !ok || row.AccountID != accountID {
		return nil, pkgerrors.ErrNotFound
	}
	return row, nil
}

func (r *stubPrefsRepo) Create(_ context.Context, _ *gorm.DB, row *domain.NotificationPreferences) error {
	if r.failNextCreate {
		r.failNextCreate = false
		if _, ok := r.rows[row.LineID]; !ok {
			winner := domain.DefaultNotificationPreferences(row.AccountID, row.LineID)
			winner.SummaryDay = "friday"
			r.rows[row.LineID] = winner
		}
		return gorm.ErrDuplicatedKey
	}
	if _, ok := r.rows[row.LineID]; ok {
		return gorm.ErrDuplicatedKey
	}
	r.rows[row.LineID] = row
	return nil
}

func (r *stubPrefsRepo) Update(_ context.Context, _ *gorm.DB, row *domain.NotificationPreferences) error {
	if _, ok := r.rows[row.LineID]; !ok {
		return pkgerrors.ErrNotFound
	}
	r.rows[row.LineID] = row
	return nil
}

func newPrivacyService(t *testing.T, line *domain.Line, privacy *stubPrivacyRepo, prefs *stubPrefsRepo) PrivacyService {
	t.Helper()
	return NewPrivacyService(nil, newTestLogger(t), &stubLineRepo{line: line}, privacy, prefs, nil)
}

func TestGetInsightPrivacyDefaultsWithoutRow(t *testing.T) {
	line := testLine()
	svc := newPrivacyService(t, line, newStubPrivacyRepo(), newStubPrefsRepo())

	got, err := svc.GetInsightPrivacy(context.Background(), line.ID)
	if err != nil {
		t.Fatalf("GetInsightPrivacy: %v", err)
	}
	if !got.InsightsEnabled || got.IsPaused {
		t.Errorf("defaults = %+v, want enabled and not paused", got)
	}
}

func TestUpdateInsightPrivacyPartialPatch(t *testing.T) {
	line := testLine()
	repo := newStubPrivacyRepo()
	svc := newPrivacyService(t, line, repo, newStubPrefsRepo())

	disabled := false
	got, err := svc.UpdateInsightPrivacy(context.Background(), line.ID, PrivacyPatch{InsightsEnabled: &disabled})
	if err != nil {
		t.Fatalf("UpdateInsightPrivacy: %v", err)
	}
	if got.InsightsEnabled {
		t.Error("insights_enabled not applied")
	}
	if len(got.PrivateTopics()) != 0 {
		t.Errorf("untouched redaction list changed: %v", got.PrivateTopics())
	}

	codes := []string{"finances", "health", "finances", ""}
	got, err = svc.UpdateInsightPrivacy(context.Background(), line.ID, PrivacyPatch{PrivateTopicCodes: &codes})
	if err != nil {
		t.Fatalf("UpdateInsightPrivacy codes: %v", err)
	}
	want := []string{"finances", "health"}
	gotCodes := got.PrivateTopics()
	if len(gotCodes) != len(want) {
		t.Fatalf("codes = %v, want deduped %v", gotCodes, want)
	}
	for i := range want {
		if gotCodes[i] != want[i] {
			t.Fatalf("codes = %v, want sorted %v", gotCodes, want)
		}
	}
	if got.InsightsEnabled {
		t.Error("second patch must not reset insights_enabled")
	}
}

func TestUpdateInsightPrivacyUnknownLine(t *testing.T) {
	svc := newPrivacyService(t, testLine(), newStubPrivacyRepo(), newStubPrefsRepo())

	enabled := true
	_, err := svc.UpdateInsightPrivacy(context.Background(), uuid.New(), PrivacyPatch{InsightsEnabled: &enabled})
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSetPauseModeStampsAndClears(t *testing.T) {
	line := testLine()
	svc := newPrivacyService(t, line, newStubPrivacyRepo(), newStubPrefsRepo())

	reason := "hospital stay"
	paused, err := svc.SetPauseMode(context.Background(), line.ID, true, &reason)
	if err != nil {
		t.Fatalf("SetPauseMode(true): %v", err)
	}
	if !paused.IsPaused || paused.PausedAt == nil || paused.PausedReason == nil {
		t.Fatalf("pause did not stamp state: %+v", paused)
	}
	if *paused.PausedReason != reason {
		t.Errorf("reason = %q, want %q", *paused.PausedReason, reason)
	}
	if time.Since(*paused.PausedAt) > time.Minute {
		t.Errorf("paused_at = %v, want roughly now", *paused.PausedAt)
	}

	resumed, err := svc.SetPauseMode(context.Background(), line.ID, false, nil)
	if err != nil {
		t.Fatalf("SetPauseMode(false): %v", err)
	}
	if resumed.IsPaused || resumed.PausedAt != nil || resumed.PausedReason != nil {
		t.Fatalf("resume did not clear state: %+v", resumed)
	}
}

func TestMaterializePrivacyLosesRaceCleanly(t *testing.T) {
	line := testLine()
	repo := newStubPrivacyRepo()
	repo.failNextCreate = true
	svc := newPrivacyService(t, line, repo, newStubPrefsRepo())

	reason := "vacation"
	got, err := svc.SetPauseMode(context.Background(), line.ID, true, &reason)
	if err != nil {
		t.Fatalf("SetPauseMode on lost race: %v", err)
	}
	// The winner's row (insights disabled) is the one patched.
	if got.InsightsEnabled {
		t.Error("patch applied to a fresh default instead of the winner's row")
	}
	if !got.IsPaused {
		t.Error("pause not applied after recovering from duplicate")
	}
}

func TestGetOrCreateNotificationPreferences(t *testing.T) {
	line := testLine()
	prefs := newStubPrefsRepo()
	svc := newPrivacyService(t, line, newStubPrivacyRepo(), prefs)

	got, err := svc.GetOrCreateNotificationPreferences(context.Background(), line.AccountID, line.ID)
	if err != nil {
		t.Fatalf("GetOrCreateNotificationPreferences: %v", err)
	}
	if got.SummaryFormat != domain.SummaryFormatEmail || got.SummaryDay != "monday" || got.SummaryTime != "09:00" {
		t.Errorf("defaults = %+v", got)
	}
	if got.MissedCallAlertThreshold != 2 {
		t.Errorf("threshold = %d, want 2", got.MissedCallAlertThreshold)
	}

	again, err := svc.GetOrCreateNotificationPreferences(context.Background(), line.AccountID, line.ID)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if again.ID != got.ID {
		t.Error("second read created a new row")
	}
}

func TestGetOrCreateNotificationPreferencesLosesRace(t *testing.T) {
	line := testLine()
	prefs := newStubPrefsRepo()
	prefs.failNextCreate = true
	svc := newPrivacyService(t, line, newStubPrivacyRepo(), prefs)

	got, err := svc.GetOrCreateNotificationPreferences(context.Background(), line.AccountID, line.ID)
	if err != nil {
		t.Fatalf("GetOrCreateNotificationPreferences: %v", err)
	}
	if got.SummaryDay != "friday" {
		t.Errorf("got %+v, want the race winner's row", got)
	}
}

func TestUpdateNotificationPreferencesValidation(t *testing.T) {
	line := testLine()
	svc := newPrivacyService(t, line, newStubPrivacyRepo(), newStubPrefsRepo())
	ctx := context.Background()

	cases := []struct {
		name  string
		patch NotificationPatch
	}{
		{"bad_format", NotificationPatch{SummaryFormat: strPtr("carrier_pigeon")}},
		{"bad_day", NotificationPatch{SummaryDay: strPtr("someday")}},
		{"bad_time", NotificationPatch{SummaryTime: strPtr("9am")}},
		{"zero_threshold", NotificationPatch{MissedCallAlertThreshold: intPtr(0)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpdateNotificationPreferences(ctx, line.AccountID, line.ID, tc.patch)
			if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
				t.Fatalf("err = %v, want ErrInvalidArgument", err)
			}
		})
	}

	got, err := svc.UpdateNotificationPreferences(ctx, line.AccountID, line.ID, NotificationPatch{
		SummaryFormat: strPtr(domain.SummaryFormatSMS),
		SummaryDay:    strPtr("friday"),
		SummaryTime:   strPtr("18:30"),
	})
	if err != nil {
		t.Fatalf("valid patch: %v", err)
	}
	if got.SummaryFormat != domain.SummaryFormatSMS || got.SummaryDay != "friday" || got.SummaryTime != "18:30" {
		t.Errorf("patch not applied: %+v", got)
	}
	if got.MissedCallAlertThreshold != 2 {
		t.Errorf("untouched threshold changed: %d", got.MissedCallAlertThreshold)
	}
}

func intPtr(n int) *int { return &n }
