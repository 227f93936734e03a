package services

import (
	"time"
)

// DefaultMinConfidence is the confidence gate applied to insight entries
// before they contribute to any aggregate.
const DefaultMinConfidence = 0.5

// Window is a half-open interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// WindowSet holds the fixed aggregation windows for one dashboard request.
// All boundaries are relative to local midnight in the line's timezone; they
// are computed once per request and reused by every aggregate.
type WindowSet struct {
	Now        time.Time
	TodayStart time.Time

	CurrentWeek    Window
	PriorWeek      Window
	TwoWeeksPrior  Window
	Baseline       Window
	SocialBaseline Window
	Activity30Day  Window
}

// ComputeWindows derives the window set from "now" in the line's timezone.
// Day arithmetic uses AddDate so DST transitions keep boundaries on local
// midnight.
func ComputeWindows(now time.Time, loc *time.Location) WindowSet {
	local := now.In(loc)
	todayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	day := func(n int) time.Time { return todayStart.AddDate(0, 0, n) }

	return WindowSet{
		Now:        local,
		TodayStart: todayStart,

		CurrentWeek:    Window{Start: day(-7), End: todayStart},
		PriorWeek:      Window{Start: day(-14), End: day(-7)},
		TwoWeeksPrior:  Window{Start: day(-21), End: day(-14)},
		Baseline:       Window{Start: day(-21), End: day(-7)},
		SocialBaseline: Window{Start: day(-35), End: day(-21)},
		Activity30Day:  Window{Start: day(-29), End: local},
	}
}

// FetchBound is the outer bound of everything a dashboard request needs from
// storage: the social-baseline start through now.
func (ws WindowSet) FetchBound() Window {
	return Window{Start: ws.SocialBaseline.Start, End: ws.Now}
}

// FilterInsights keeps entries inside the window that clear the confidence
// gate. Entries are instants; interval membership does not depend on which
// zone they are rendered in, so the stored UTC timestamps compare directly.
func FilterInsights(entries []DecryptedInsight, w Window, minConfidence float64) []DecryptedInsight {
	var kept []DecryptedInsight
	for _, e := range entries {
		if e.Insights.ConfidenceOverall < minConfidence {
			continue
		}
		if !w.Contains(e.CreatedAt) {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}
