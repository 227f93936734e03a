package domain

import (
	"fmt"
)

// Mood is the per-call overall mood classification supplied by the upstream
// extraction pipeline.
type Mood string

const (
	MoodPositive Mood = "positive"
	MoodNeutral  Mood = "neutral"
	MoodLow      Mood = "low"
)

func (m Mood) Valid() bool {
	switch m {
	case MoodPositive, MoodNeutral, MoodLow:
		return true
	default:
		return false
	}
}

// Concern severity bands.
const (
	SeverityMild        = 1
	SeverityModerate    = 2
	SeveritySignificant = 3
)

// FollowUpWantsMoreContact is the social-need follow-up reason tracked by the
// persistence heuristic.
const FollowUpWantsMoreContact = "wants_more_contact"

type TopicWeight struct {
	Code   string  `json:"code"`
	Weight float64 `json:"weight"`
}

type Concern struct {
	Code     string `json:"code"`
	Severity int    `json:"severity"`
	IsNovel  bool   `json:"is_novel"`
}

// CallInsights is the decrypted per-call insight payload. It is produced
// upstream, sealed at rest, and only ever handled in memory here. Shape is
// validated on decode; rows that fail validation are skipped, never coerced
// into defaults.
type CallInsights struct {
	MoodOverall       Mood          `json:"mood_overall"`
	EngagementScore   float64       `json:"engagement_score"`
	ConfidenceOverall float64       `json:"confidence_overall"`
	Topics            []TopicWeight `json:"topics"`
	Concerns          []Concern     `json:"concerns"`
	FollowUpReasons   []string      `json:"follow_up_reasons"`
	NeedsFollowUp     bool          `json:"needs_follow_up"`
	PrivateTopics     []string      `json:"private_topics"`
}

func (ci *CallInsights) Validate() error {
	if !ci.MoodOverall.Valid() {
		return fmt.Errorf("mood_overall %q: %w", ci.MoodOverall, errInvalidPayload)
	}
	if ci.ConfidenceOverall < 0 || ci.ConfidenceOverall > 1 {
		return fmt.Errorf("confidence_overall %v out of range: %w", ci.ConfidenceOverall, errInvalidPayload)
	}
	for _, c := range ci.Concerns {
		if c.Code == "" {
			return fmt.Errorf("concern with empty code: %w", errInvalidPayload)
		}
		if c.Severity < SeverityMild || c.Severity > SeveritySignificant {
			return fmt.Errorf("concern %q severity %d out of range: %w", c.Code, c.Severity, errInvalidPayload)
		}
	}
	for _, t := range ci.Topics {
		if t.Code == "" {
			return fmt.Errorf("topic with empty code: %w", errInvalidPayload)
		}
	}
	return nil
}

var errInvalidPayload = fmt.Errorf("invalid call insights payload")
