package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/CryptracSolutions/ultaura-insights/internal/cache"
	"github.com/CryptracSolutions/ultaura-insights/internal/domain"
	pkgerrors "github.com/CryptracSolutions/ultaura-insights/internal/pkg/errors"
	"github.com/CryptracSolutions/ultaura-insights/internal/platform/logger"
	"github.com/CryptracSolutions/ultaura-insights/internal/repos"
)

// PrivacyPatch is a partial settings update; nil fields are left unchanged.
type PrivacyPatch struct {
	InsightsEnabled   *bool     `json:"insights_enabled,omitempty"`
	PrivateTopicCodes *[]string `json:"private_topic_codes,omitempty"`
}

// NotificationPatch is a partial preferences update; nil fields are left
// unchanged.
type NotificationPatch struct {
	SummaryFormat            *string `json:"summary_format,omitempty"`
	SummaryDay               *string `json:"summary_day,omitempty"`
	SummaryTime              *string `json:"summary_time,omitempty"`
	MissedCallAlertThreshold *int    `json:"missed_call_alert_threshold,omitempty"`
}

type PrivacyService interface {
	GetInsightPrivacy(ctx context.Context, lineID uuid.UUID) (*domain.InsightPrivacy, error)
	// UpdateInsightPrivacy applies a partial update, materializing the
	// default row on first write. Last writer wins.
	UpdateInsightPrivacy(ctx context.Context, lineID uuid.UUID, patch PrivacyPatch) (*domain.InsightPrivacy, error)
	// SetPauseMode flips the pause flag, stamping paused_at and the
	// caregiver-supplied reason on pause and clearing both on resume.
	SetPauseMode(ctx context.Context, lineID uuid.UUID, paused bool, reason *string) (*domain.InsightPrivacy, error)
	// GetOrCreateNotificationPreferences returns the stored row, writing
	// the defaults on first read. Two concurrent first reads converge on
	// the same row.
	GetOrCreateNotificationPreferences(ctx context.Context, accountID, lineID uuid.UUID) (*domain.NotificationPreferences, error)
	UpdateNotificationPreferences(ctx context.Context, accountID, lineID uuid.UUID, patch NotificationPatch) (*domain.NotificationPreferences, error)
}

type privacyService struct {
	db      *gorm.DB
	log     *logger.Logger
	lines   repos.LineRepo
	privacy repos.InsightPrivacyRepo
	prefs   repos.NotificationPreferencesRepo
	cache   *cache.DashboardCache
	nowFn   func() time.Time
}

func NewPrivacyService(
	db *gorm.DB,
	baseLog *logger.Logger,
	lines repos.LineRepo,
	privacy repos.InsightPrivacyRepo,
	prefs repos.NotificationPreferencesRepo,
	dashCache *cache.DashboardCache,
) PrivacyService {
	serviceLog := baseLog.With("service", "PrivacyService")
	return &privacyService{
		db:      db,
		log:     serviceLog,
		lines:   lines,
		privacy: privacy,
		prefs:   prefs,
		cache:   dashCache,
		nowFn:   time.Now,
	}
}

func (s *privacyService) GetInsightPrivacy(ctx context.Context, lineID uuid.UUID) (*domain.InsightPrivacy, error) {
	row, err := s.privacy.GetByLineID(ctx, nil, lineID)
	if err == nil {
		return row, nil
	}
	if errors.Is(err, pkgerrors.ErrNotFound) {
		return domain.DefaultInsightPrivacy(lineID), nil
	}
	return nil, err
}

// materializePrivacy returns the stored row, inserting the default one when
// none exists yet. A concurrent first write is resolved by re-reading the
// winner.
func (s *privacyService) materializePrivacy(ctx context.Context, lineID uuid.UUID) (*domain.InsightPrivacy, error) {
	row, err := s.privacy.GetByLineID(ctx, nil, lineID)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		return nil, err
	}
	if _, err := s.lines.GetByID(ctx, nil, lineID); err != nil {
		return nil, err
	}
	row = domain.DefaultInsightPrivacy(lineID)
	if err := s.privacy.Create(ctx, nil, row); err != nil {
		if pkgerrors.IsDuplicateKey(err) {
			return s.privacy.GetByLineID(ctx, nil, lineID)
		}
		return nil, err
	}
	return row, nil
}

func (s *privacyService) UpdateInsightPrivacy(ctx context.Context, lineID uuid.UUID, patch PrivacyPatch) (*domain.InsightPrivacy, error) {
	row, err := s.materializePrivacy(ctx, lineID)
	if err != nil {
		return nil, err
	}

	if patch.InsightsEnabled != nil {
		row.InsightsEnabled = *patch.InsightsEnabled
	}
	if patch.PrivateTopicCodes != nil {
		raw, err := json.Marshal(normalizeCodes(*patch.PrivateTopicCodes))
		if err != nil {
			return nil, fmt.Errorf("encode private topic codes: %w", err)
		}
		row.PrivateTopicCodes = datatypes.JSON(raw)
	}
	row.UpdatedAt = s.nowFn()

	if err := s.privacy.Update(ctx, nil, row); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, lineID)
	s.log.Info("insight privacy updated",
		"line_id", lineID.String(),
		"enabled", row.InsightsEnabled,
		"private_topic_count", len(row.PrivateTopics()))
	return row, nil
}

func (s *privacyService) SetPauseMode(ctx context.Context, lineID uuid.UUID, paused bool, reason *string) (*domain.InsightPrivacy, error) {
	row, err := s.materializePrivacy(ctx, lineID)
	if err != nil {
		return nil, err
	}

	now := s.nowFn()
	row.IsPaused = paused
	if paused {
		row.PausedAt = &now
		row.PausedReason = reason
	} else {
		row.PausedAt = nil
		row.PausedReason = nil
	}
	row.UpdatedAt = now

	if err := s.privacy.Update(ctx, nil, row); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, lineID)
	s.log.Info("pause mode changed", "line_id", lineID.String(), "paused", paused)
	return row, nil
}

func (s *privacyService) GetOrCreateNotificationPreferences(ctx context.Context, accountID, lineID uuid.UUID) (*domain.NotificationPreferences, error) {
	row, err := s.prefs.GetByAccountLine(ctx, nil, accountID, lineID)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		return nil, err
	}
	row = domain.DefaultNotificationPreferences(accountID, lineID)
	if err := s.prefs.Create(ctx, nil, row); err != nil {
		if pkgerrors.IsDuplicateKey(err) {
			// Lost the first-read race; the winner's row is canonical.
			return s.prefs.GetByAccountLine(ctx, nil, accountID, lineID)
		}
		return nil, err
	}
	return row, nil
}

func (s *privacyService) UpdateNotificationPreferences(ctx context.Context, accountID, lineID uuid.UUID, patch NotificationPatch) (*domain.NotificationPreferences, error) {
	row, err := s.GetOrCreateNotificationPreferences(ctx, accountID, lineID)
	if err != nil {
		return nil, err
	}

	if patch.SummaryFormat != nil {
		if *patch.SummaryFormat != domain.SummaryFormatEmail && *patch.SummaryFormat != domain.SummaryFormatSMS {
			return nil, fmt.Errorf("summary_format %q: %w", *patch.SummaryFormat, pkgerrors.ErrInvalidArgument)
		}
		row.SummaryFormat = *patch.SummaryFormat
	}
	if patch.SummaryDay != nil {
		if !validSummaryDay(*patch.SummaryDay) {
			return nil, fmt.Errorf("summary_day %q: %w", *patch.SummaryDay, pkgerrors.ErrInvalidArgument)
		}
		row.SummaryDay = *patch.SummaryDay
	}
	if patch.SummaryTime != nil {
		if _, err := time.Parse("15:04", *patch.SummaryTime); err != nil {
			return nil, fmt.Errorf("summary_time %q: %w", *patch.SummaryTime, pkgerrors.ErrInvalidArgument)
		}
		row.SummaryTime = *patch.SummaryTime
	}
	if patch.MissedCallAlertThreshold != nil {
		if *patch.MissedCallAlertThreshold < 1 {
			return nil, fmt.Errorf("missed_call_alert_threshold %d: %w", *patch.MissedCallAlertThreshold, pkgerrors.ErrInvalidArgument)
		}
		row.MissedCallAlertThreshold = *patch.MissedCallAlertThreshold
	}
	row.UpdatedAt = s.nowFn()

	if err := s.prefs.Update(ctx, nil, row); err != nil {
		return nil, err
	}
	s.log.Info("notification preferences updated",
		"account_id", accountID.String(),
		"line_id", lineID.String())
	return row, nil
}

var summaryDays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

func validSummaryDay(day string) bool { return summaryDays[day] }

// normalizeCodes dedupes and sorts so equal redaction lists serialize
// identically.
func normalizeCodes(codes []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
