package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/CryptracSolutions/ultaura-insights/internal/catalog"
	"github.com/CryptracSolutions/ultaura-insights/internal/domain"
)

// Mood summary labels. The empty-data labels are full sentences: the
// dashboard must say "no data" explicitly instead of presenting zeros as
// trends.
const (
	MoodSummaryNoActivity = "No call activity this week."
	MoodSummaryNoInsights = "Not enough insight data this week."
	MoodSummaryPaused     = "Insights are paused."
	MoodSummaryDisabled   = "Insights are turned off."
	MoodSummaryMixed      = "Mixed week"
	MoodSummaryLow        = "Low week"
	MoodSummaryPositive   = "Positive week"
	MoodSummaryNeutral    = "Neutral week"
)

const (
	NoveltyNew       = "new"
	NoveltyRecurring = "recurring"
	NoveltyResolved  = "resolved"
)

const (
	engagementDriftThreshold = 2.5
	answerRateDropThreshold  = 0.2
	missedCallWarnMinimum    = 2
	topTopicCount            = 5
	callHistoryLimit         = 10
)

type CallActivityDay struct {
	Date      string `json:"date"`
	Scheduled int    `json:"scheduled"`
	Reminder  int    `json:"reminder"`
	Inbound   int    `json:"inbound"`
}

type MoodPoint struct {
	CallSessionID uuid.UUID `json:"call_session_id"`
	OccurredAt    time.Time `json:"occurred_at"`
	Mood          string    `json:"mood"`
}

type WeeklyCounters struct {
	ScheduledCalls int `json:"scheduled_calls"`
	AnsweredCalls  int `json:"answered_calls"`
	MissedCalls    int `json:"missed_calls"`
}

type ConcernSummary struct {
	Code     string `json:"code"`
	Label    string `json:"label"`
	Severity string `json:"severity"`
	Novelty  string `json:"novelty"`
}

type TopicSummary struct {
	Code   string  `json:"code"`
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}

type FollowUpReason struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

type FollowUpSummary struct {
	NeedsFollowUp bool             `json:"needs_follow_up"`
	Reasons       []FollowUpReason `json:"reasons"`
}

type MissedCallWarning struct {
	Message        string  `json:"message"`
	AnswerRateDrop float64 `json:"answer_rate_drop"`
	MissedCalls    int     `json:"missed_calls"`
}

type CallHistoryEntry struct {
	CallSessionID uuid.UUID `json:"call_session_id"`
	OccurredAt    time.Time `json:"occurred_at"`
	Direction     string    `json:"direction"`
	Answered      bool      `json:"answered"`
	DurationSecs  int       `json:"duration_seconds"`
	Mood          *string   `json:"mood"`
}

// InsightsDashboard is the caregiver-facing weekly view, composed in one pass
// so the presentation layer needs no second round-trip.
type InsightsDashboard struct {
	LineID      uuid.UUID `json:"line_id"`
	DisplayName string    `json:"display_name"`
	GeneratedAt time.Time `json:"generated_at"`

	InsightsEnabled   bool     `json:"insights_enabled"`
	IsPaused          bool     `json:"is_paused"`
	PausedReason      *string  `json:"paused_reason,omitempty"`
	PrivateTopicCodes []string `json:"private_topic_codes"`

	CallActivity         []CallActivityDay  `json:"call_activity"`
	MoodTrend            []MoodPoint        `json:"mood_trend"`
	Weekly               WeeklyCounters     `json:"weekly"`
	DurationDeltaMinutes *float64           `json:"duration_delta_minutes"`
	AnsweredDelta        *int               `json:"answered_delta"`
	MoodSummary          string             `json:"mood_summary"`
	MoodShiftNote        *string            `json:"mood_shift_note,omitempty"`
	EngagementDriftNote  *string            `json:"engagement_drift_note,omitempty"`
	Concerns             []ConcernSummary   `json:"concerns"`
	TopTopics            []TopicSummary     `json:"top_topics"`
	FollowUp             FollowUpSummary    `json:"follow_up"`
	SocialNote           *string            `json:"social_note,omitempty"`
	MissedCallWarning    *MissedCallWarning `json:"missed_call_warning,omitempty"`
	CallHistory          []CallHistoryEntry `json:"call_history"`
}

// ComposeInput carries everything the composer folds. Sessions are the
// non-test 30-day fetch, oldest first; Insights are the decrypted union-window
// fetch; Baseline may be nil when the batch job has not run for the line yet.
type ComposeInput struct {
	Line     *domain.Line
	Loc      *time.Location
	Windows  WindowSet
	Sessions []*domain.CallSession
	Insights []DecryptedInsight
	Baseline *domain.LineBaseline
	Privacy  *domain.InsightPrivacy
}

// ComposeDashboard folds windowed insights, call sessions, and the stored
// baseline into the dashboard value object. Pure: no I/O, no clock reads.
func ComposeDashboard(in ComposeInput) *InsightsDashboard {
	ws := in.Windows
	sessions := dropTestCalls(in.Sessions)

	weekSessions := sessionsIn(sessions, ws.CurrentWeek)
	weekInsights := FilterInsights(in.Insights, ws.CurrentWeek, DefaultMinConfidence)
	baselineInsights := FilterInsights(in.Insights, ws.Baseline, DefaultMinConfidence)

	scheduled, answered := scheduledAnswered(weekSessions)
	priorScheduled, priorAnswered := scheduledAnswered(sessionsIn(sessions, ws.PriorWeek))
	missed := scheduled - answered
	if missed < 0 {
		missed = 0
	}

	dash := &InsightsDashboard{
		LineID:      in.Line.ID,
		DisplayName: in.Line.DisplayName,
		GeneratedAt: ws.Now,

		InsightsEnabled:   in.Privacy.InsightsEnabled,
		IsPaused:          in.Privacy.IsPaused,
		PausedReason:      in.Privacy.PausedReason,
		PrivateTopicCodes: effectiveTopicCodes(in.Privacy),

		CallActivity: callActivitySeries(sessions, ws, in.Loc),
		MoodTrend:    moodTrendPoints(in.Insights, ws),
		Weekly: WeeklyCounters{
			ScheduledCalls: scheduled,
			AnsweredCalls:  answered,
			MissedCalls:    missed,
		},
		DurationDeltaMinutes: durationDelta(weekSessions, sessionsIn(sessions, ws.PriorWeek)),
		AnsweredDelta:        answeredDelta(answered, priorScheduled, priorAnswered),
		MoodSummary:          moodSummaryLabel(len(weekSessions), moodCounts(weekInsights)),
		MoodShiftNote:        moodShiftNote(weekInsights, baselineInsights),
		EngagementDriftNote:  engagementDriftNote(weekInsights, in.Baseline),
		Concerns:             concernRollup(weekInsights, baselineInsights),
		TopTopics:            topicRollup(weekInsights, in.Privacy),
		FollowUp:             followUpRollup(weekInsights),
		SocialNote:           socialNeedNote(in.Insights, ws),
		MissedCallWarning:    missedCallWarning(in.Baseline, scheduled, answered, missed),
		CallHistory:          callHistory(weekSessions, in.Insights),
	}
	return dash
}

func dropTestCalls(sessions []*domain.CallSession) []*domain.CallSession {
	kept := make([]*domain.CallSession, 0, len(sessions))
	for _, s := range sessions {
		if s.IsTestCall {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

func sessionsIn(sessions []*domain.CallSession, w Window) []*domain.CallSession {
	var kept []*domain.CallSession
	for _, s := range sessions {
		if w.Contains(s.CreatedAt) {
			kept = append(kept, s)
		}
	}
	return kept
}

func scheduledAnswered(sessions []*domain.CallSession) (scheduled, answered int) {
	for _, s := range sessions {
		if !s.IsScheduled() {
			continue
		}
		scheduled++
		if s.IsAnswered() {
			answered++
		}
	}
	return scheduled, answered
}

// callActivitySeries buckets sessions into the 30 line-local calendar days,
// one bucket per day even when empty.
func callActivitySeries(sessions []*domain.CallSession, ws WindowSet, loc *time.Location) []CallActivityDay {
	days := make([]CallActivityDay, 0, 30)
	index := make(map[string]int, 30)
	for d := ws.Activity30Day.Start; !d.After(ws.TodayStart); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		index[key] = len(days)
		days = append(days, CallActivityDay{Date: key})
	}
	for _, s := range sessions {
		if !ws.Activity30Day.Contains(s.CreatedAt) {
			continue
		}
		key := s.CreatedAt.In(loc).Format("2006-01-02")
		i, ok := index[key]
		if !ok {
			continue
		}
		switch {
		case s.Direction == domain.DirectionInbound:
			days[i].Inbound++
		case s.IsReminderCall:
			days[i].Reminder++
		default:
			days[i].Scheduled++
		}
	}
	return days
}

func moodTrendPoints(insights []DecryptedInsight, ws WindowSet) []MoodPoint {
	entries := FilterInsights(insights, ws.Activity30Day, DefaultMinConfidence)
	points := make([]MoodPoint, 0, len(entries))
	for _, e := range entries {
		points = append(points, MoodPoint{
			CallSessionID: e.CallSessionID,
			OccurredAt:    e.CreatedAt,
			Mood:          string(e.Insights.MoodOverall),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].OccurredAt.Before(points[j].OccurredAt) })
	return points
}

// durationDelta compares average answered-call minutes between the current
// and prior week. Either side with zero answered sessions leaves the delta
// unknown rather than zero.
func durationDelta(current, prior []*domain.CallSession) *float64 {
	avg := func(sessions []*domain.CallSession) (float64, bool) {
		var sum float64
		var n int
		for _, s := range sessions {
			if !s.IsAnswered() {
				continue
			}
			sum += float64(s.SecondsConnected) / 60
			n++
		}
		if n == 0 {
			return 0, false
		}
		return sum / float64(n), true
	}
	cur, okCur := avg(current)
	prev, okPrev := avg(prior)
	if !okCur || !okPrev {
		return nil
	}
	delta := cur - prev
	return &delta
}

// answeredDelta is only reported when the prior week had at least one
// scheduled call; otherwise there is no baseline to compare against.
func answeredDelta(answered, priorScheduled, priorAnswered int) *int {
	if priorScheduled < 1 {
		return nil
	}
	delta := answered - priorAnswered
	return &delta
}

type moodCount struct {
	positive int
	neutral  int
	low      int
}

func (m moodCount) total() int { return m.positive + m.neutral + m.low }

func moodCounts(entries []DecryptedInsight) moodCount {
	var m moodCount
	for _, e := range entries {
		switch e.Insights.MoodOverall {
		case domain.MoodPositive:
			m.positive++
		case domain.MoodNeutral:
			m.neutral++
		case domain.MoodLow:
			m.low++
		}
	}
	return m
}

// moodSummaryLabel classifies the week. Dominance ratios are checked before
// the mixed label so a 60%-positive week with a few low days still reads
// positive.
func moodSummaryLabel(sessionCount int, m moodCount) string {
	if sessionCount == 0 {
		return MoodSummaryNoActivity
	}
	total := m.total()
	if total == 0 {
		return MoodSummaryNoInsights
	}
	lowRatio := float64(m.low) / float64(total)
	positiveRatio := float64(m.positive) / float64(total)
	switch {
	case lowRatio >= 0.6:
		return MoodSummaryLow
	case positiveRatio >= 0.6:
		return MoodSummaryPositive
	case m.positive > 0 && m.low > 0:
		return MoodSummaryMixed
	default:
		return MoodSummaryNeutral
	}
}

func moodShiftNote(weekInsights, baselineInsights []DecryptedInsight) *string {
	lowNow := moodCounts(weekInsights).low
	lowBase := moodCounts(baselineInsights).low
	if lowNow >= 3 && lowBase <= 1 {
		note := "More low-mood calls than is typical for them this week."
		return &note
	}
	return nil
}

func engagementDriftNote(weekInsights []DecryptedInsight, baseline *domain.LineBaseline) *string {
	if baseline == nil || baseline.AvgEngagement == nil {
		return nil
	}
	if len(weekInsights) < 2 {
		return nil
	}
	var sum float64
	for _, e := range weekInsights {
		sum += e.Insights.EngagementScore
	}
	mean := sum / float64(len(weekInsights))
	drop := *baseline.AvgEngagement - mean
	if drop < engagementDriftThreshold {
		return nil
	}
	note := fmt.Sprintf("Engagement is down %.1f points from their typical level.", drop)
	return &note
}

type concernAgg struct {
	maxSeverity int
	anyNovel    bool
}

func concernMap(entries []DecryptedInsight) map[string]concernAgg {
	agg := map[string]concernAgg{}
	for _, e := range entries {
		for _, c := range e.Insights.Concerns {
			cur := agg[c.Code]
			if c.Severity > cur.maxSeverity {
				cur.maxSeverity = c.Severity
			}
			if c.IsNovel {
				cur.anyNovel = true
			}
			agg[c.Code] = cur
		}
	}
	// Novel low-severity one-offs are noise, not a report.
	for code, a := range agg {
		if a.anyNovel && a.maxSeverity < domain.SeverityModerate {
			delete(agg, code)
		}
	}
	return agg
}

func severityLabel(severity int) string {
	switch {
	case severity >= domain.SeveritySignificant:
		return "significant"
	case severity == domain.SeverityModerate:
		return "moderate"
	default:
		return "mild"
	}
}

// concernRollup reports this week's concerns by max severity, and baseline
// concerns that vanished this week as resolved.
func concernRollup(weekInsights, baselineInsights []DecryptedInsight) []ConcernSummary {
	current := concernMap(weekInsights)
	baseline := concernMap(baselineInsights)

	out := make([]ConcernSummary, 0, len(current)+len(baseline))
	for code, a := range current {
		novelty := NoveltyRecurring
		if a.anyNovel {
			novelty = NoveltyNew
		}
		out = append(out, ConcernSummary{
			Code:     code,
			Label:    catalog.ConcernLabel(code),
			Severity: severityLabel(a.maxSeverity),
			Novelty:  novelty,
		})
	}
	for code, a := range baseline {
		if _, active := current[code]; active {
			continue
		}
		out = append(out, ConcernSummary{
			Code:     code,
			Label:    catalog.ConcernLabel(code),
			Severity: severityLabel(a.maxSeverity),
			Novelty:  NoveltyResolved,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Novelty != out[j].Novelty {
			// resolved entries sort after active ones
			return out[i].Novelty != NoveltyResolved && out[j].Novelty == NoveltyResolved
		}
		return out[i].Code < out[j].Code
	})
	return out
}

func effectiveTopicCodes(privacy *domain.InsightPrivacy) []string {
	codes := privacy.PrivateTopics()
	if codes == nil {
		codes = []string{}
	}
	return codes
}

// topicRollup sums topic weights across the week, honoring both the line
// redaction list and each call's ad-hoc private topics, then keeps the top 5.
func topicRollup(weekInsights []DecryptedInsight, privacy *domain.InsightPrivacy) []TopicSummary {
	lineRedacted := map[string]bool{}
	for _, code := range privacy.PrivateTopics() {
		lineRedacted[code] = true
	}

	weights := map[string]float64{}
	for _, e := range weekInsights {
		callRedacted := map[string]bool{}
		for _, code := range e.Insights.PrivateTopics {
			callRedacted[code] = true
		}
		for _, t := range e.Insights.Topics {
			if lineRedacted[t.Code] || callRedacted[t.Code] {
				continue
			}
			weights[t.Code] += t.Weight
		}
	}

	out := make([]TopicSummary, 0, len(weights))
	for code, w := range weights {
		out = append(out, TopicSummary{
			Code:   code,
			Label:  catalog.TopicLabel(code),
			Weight: math.Round(w*1000) / 1000,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Code < out[j].Code
	})
	if len(out) > topTopicCount {
		out = out[:topTopicCount]
	}
	return out
}

func followUpRollup(weekInsights []DecryptedInsight) FollowUpSummary {
	seen := map[string]bool{}
	for _, e := range weekInsights {
		if !e.Insights.NeedsFollowUp {
			continue
		}
		for _, code := range e.Insights.FollowUpReasons {
			seen[code] = true
		}
	}
	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	reasons := make([]FollowUpReason, 0, len(codes))
	for _, code := range codes {
		reasons = append(reasons, FollowUpReason{Code: code, Label: catalog.FollowUpLabel(code)})
	}
	return FollowUpSummary{NeedsFollowUp: len(reasons) > 0, Reasons: reasons}
}

// socialNeedNote fires only on a newly sustained pattern: wanting more
// contact three weeks running, but not in the social-baseline window before
// that.
func socialNeedNote(insights []DecryptedInsight, ws WindowSet) *string {
	has := func(w Window) bool {
		for _, e := range FilterInsights(insights, w, DefaultMinConfidence) {
			for _, code := range e.Insights.FollowUpReasons {
				if code == domain.FollowUpWantsMoreContact {
					return true
				}
			}
		}
		return false
	}
	if has(ws.CurrentWeek) && has(ws.PriorWeek) && has(ws.TwoWeeksPrior) && !has(ws.SocialBaseline) {
		note := "They have been mentioning wanting more contact for three weeks running."
		return &note
	}
	return nil
}

func missedCallWarning(baseline *domain.LineBaseline, scheduled, answered, missed int) *MissedCallWarning {
	if baseline == nil || baseline.AnswerRate == nil || scheduled == 0 {
		return nil
	}
	currentRate := float64(answered) / float64(scheduled)
	drop := *baseline.AnswerRate - currentRate
	if drop < 0 {
		drop = 0
	}
	if drop < answerRateDropThreshold || missed < missedCallWarnMinimum {
		return nil
	}
	return &MissedCallWarning{
		Message:        fmt.Sprintf("%d scheduled calls went unanswered this week, more than is usual for this line.", missed),
		AnswerRateDrop: math.Round(drop*100) / 100,
		MissedCalls:    missed,
	}
}

func callHistory(weekSessions []*domain.CallSession, insights []DecryptedInsight) []CallHistoryEntry {
	moodBySession := map[uuid.UUID]string{}
	for _, e := range insights {
		moodBySession[e.CallSessionID] = string(e.Insights.MoodOverall)
	}

	sorted := make([]*domain.CallSession, len(weekSessions))
	copy(sorted, weekSessions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })
	if len(sorted) > callHistoryLimit {
		sorted = sorted[:callHistoryLimit]
	}

	out := make([]CallHistoryEntry, 0, len(sorted))
	for _, s := range sorted {
		entry := CallHistoryEntry{
			CallSessionID: s.ID,
			OccurredAt:    s.CreatedAt,
			Direction:     s.Direction,
			Answered:      s.IsAnswered(),
			DurationSecs:  s.SecondsConnected,
		}
		if mood, ok := moodBySession[s.ID]; ok {
			entry.Mood = &mood
		}
		out = append(out, entry)
	}
	return out
}
