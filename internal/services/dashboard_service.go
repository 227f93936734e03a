package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/CryptracSolutions/ultaura-insights/internal/cache"
	"github.com/CryptracSolutions/ultaura-insights/internal/domain"
	pkgerrors "github.com/CryptracSolutions/ultaura-insights/internal/pkg/errors"
	"github.com/CryptracSolutions/ultaura-insights/internal/platform/logger"
	"github.com/CryptracSolutions/ultaura-insights/internal/repos"
)

type DashboardService interface {
	// GetDashboard composes the weekly dashboard for a line. When insights
	// are disabled or paused only the settings block is populated; no
	// ciphertext is fetched or decrypted.
	GetDashboard(ctx context.Context, lineID uuid.UUID) (*InsightsDashboard, error)
}

type dashboardService struct {
	db        *gorm.DB
	log       *logger.Logger
	lines     repos.LineRepo
	sessions  repos.CallSessionRepo
	baselines repos.LineBaselineRepo
	privacy   repos.InsightPrivacyRepo
	insights  InsightService
	cache     *cache.DashboardCache

	// nowFn is swapped in tests to pin the window boundaries.
	nowFn func() time.Time
}

func NewDashboardService(
	db *gorm.DB,
	baseLog *logger.Logger,
	lines repos.LineRepo,
	sessions repos.CallSessionRepo,
	baselines repos.LineBaselineRepo,
	privacy repos.InsightPrivacyRepo,
	insights InsightService,
	dashCache *cache.DashboardCache,
) DashboardService {
	serviceLog := baseLog.With("service", "DashboardService")
	return &dashboardService{
		db:        db,
		log:       serviceLog,
		lines:     lines,
		sessions:  sessions,
		baselines: baselines,
		privacy:   privacy,
		insights:  insights,
		cache:     dashCache,
		nowFn:     time.Now,
	}
}

func (s *dashboardService) GetDashboard(ctx context.Context, lineID uuid.UUID) (*InsightsDashboard, error) {
	line, err := s.lines.GetByID(ctx, nil, lineID)
	if err != nil {
		return nil, err
	}

	privacy, err := s.loadPrivacy(ctx, lineID)
	if err != nil {
		return nil, err
	}

	loc := s.lineLocation(line)
	ws := ComputeWindows(s.nowFn(), loc)

	if !privacy.InsightsEnabled || privacy.IsPaused {
		s.log.Info("dashboard short-circuited by privacy settings",
			"line_id", lineID.String(),
			"enabled", privacy.InsightsEnabled,
			"paused", privacy.IsPaused)
		return settingsOnlyDashboard(line, privacy, ws.Now), nil
	}

	if cached := s.cachedDashboard(ctx, lineID); cached != nil {
		return cached, nil
	}

	fetch := ws.FetchBound()
	sessions, err := s.sessions.ListByLine(ctx, nil, lineID, fetch.Start, fetch.End)
	if err != nil {
		return nil, err
	}

	decrypted, err := s.insights.LoadLineInsights(ctx, lineID, LoadInsightsOptions{
		Start: &fetch.Start,
		End:   &fetch.End,
	})
	if err != nil {
		return nil, err
	}

	baseline, err := s.baselines.GetByLineID(ctx, nil, lineID)
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, err
		}
		baseline = nil
	}

	dash := ComposeDashboard(ComposeInput{
		Line:     line,
		Loc:      loc,
		Windows:  ws,
		Sessions: sessions,
		Insights: decrypted,
		Baseline: baseline,
		Privacy:  privacy,
	})
	s.cache.Set(ctx, lineID, dash)
	return dash, nil
}

func (s *dashboardService) loadPrivacy(ctx context.Context, lineID uuid.UUID) (*domain.InsightPrivacy, error) {
	privacy, err := s.privacy.GetByLineID(ctx, nil, lineID)
	if err == nil {
		return privacy, nil
	}
	if errors.Is(err, pkgerrors.ErrNotFound) {
		// No stored row means the defaults; the row is only materialized
		// when a caregiver first changes a setting.
		return domain.DefaultInsightPrivacy(lineID), nil
	}
	return nil, err
}

// lineLocation resolves the line's IANA timezone, falling back to UTC on a
// bad or missing name so a misconfigured line still gets a dashboard.
func (s *dashboardService) lineLocation(line *domain.Line) *time.Location {
	loc, err := time.LoadLocation(line.Timezone)
	if err != nil {
		s.log.Warn("unresolvable line timezone, using UTC",
			"line_id", line.ID.String(),
			"timezone", line.Timezone)
		return time.UTC
	}
	return loc
}

func (s *dashboardService) cachedDashboard(ctx context.Context, lineID uuid.UUID) *InsightsDashboard {
	var dash InsightsDashboard
	if s.cache.Get(ctx, lineID, &dash) {
		return &dash
	}
	return nil
}

func settingsOnlyDashboard(line *domain.Line, privacy *domain.InsightPrivacy, now time.Time) *InsightsDashboard {
	return &InsightsDashboard{
		LineID:      line.ID,
		DisplayName: line.DisplayName,
		GeneratedAt: now,

		InsightsEnabled:   privacy.InsightsEnabled,
		IsPaused:          privacy.IsPaused,
		PausedReason:      privacy.PausedReason,
		PrivateTopicCodes: effectiveTopicCodes(privacy),

		CallActivity: []CallActivityDay{},
		MoodTrend:    []MoodPoint{},
		Concerns:     []ConcernSummary{},
		TopTopics:    []TopicSummary{},
		FollowUp:     FollowUpSummary{Reasons: []FollowUpReason{}},
		CallHistory:  []CallHistoryEntry{},
		MoodSummary:  settingsOnlyLabel(privacy),
	}
}

// settingsOnlyLabel names why the trend content is absent. A gated view
// must not carry a trend-shaped claim the composer never computed.
func settingsOnlyLabel(privacy *domain.InsightPrivacy) string {
	if !privacy.InsightsEnabled {
		return MoodSummaryDisabled
	}
	return MoodSummaryPaused
}
