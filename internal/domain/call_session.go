package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"

	AnsweredByHuman    = "human"
	AnsweredByMachine  = "machine"
	AnsweredByUnknown  = "unknown"
	AnsweredByNoAnswer = "no_answer"
)

// CallSession is the telephony backend's per-call metadata row. Read-only to
// this core.
type CallSession struct {
	ID                      uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AccountID               uuid.UUID  `gorm:"type:uuid;not null;index" json:"account_id"`
	LineID                  uuid.UUID  `gorm:"type:uuid;not null;index:idx_call_session_line_created" json:"line_id"`
	Direction               string     `gorm:"column:direction;not null" json:"direction"`
	AnsweredBy              *string    `gorm:"column:answered_by" json:"answered_by,omitempty"`
	SecondsConnected        int        `gorm:"column:seconds_connected;not null;default:0" json:"seconds_connected"`
	IsReminderCall          bool       `gorm:"column:is_reminder_call;not null;default:false" json:"is_reminder_call"`
	IsTestCall              bool       `gorm:"column:is_test_call;not null;default:false" json:"is_test_call"`
	SchedulerIdempotencyKey *string    `gorm:"column:scheduler_idempotency_key" json:"scheduler_idempotency_key,omitempty"`
	CreatedAt               time.Time  `gorm:"not null;default:now();index:idx_call_session_line_created" json:"created_at"`
}

func (CallSession) TableName() string {
	return "call_session"
}

// IsScheduled reports whether the session was driven by the call scheduler.
func (cs *CallSession) IsScheduled() bool {
	return cs.SchedulerIdempotencyKey != nil && *cs.SchedulerIdempotencyKey != ""
}

// IsAnswered applies the answered rule: answered_by human or unknown, or a
// null answered_by with any connected duration. The null fallback is a known
// approximation carried over from upstream telephony metadata gaps; a
// voicemail pickup with connected seconds counts as answered.
func (cs *CallSession) IsAnswered() bool {
	if cs.AnsweredBy == nil {
		return cs.SecondsConnected > 0
	}
	return *cs.AnsweredBy == AnsweredByHuman || *cs.AnsweredBy == AnsweredByUnknown
}
