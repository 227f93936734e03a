package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// InsightPrivacy gates whether aggregation runs for a line and which topics
// are ever surfaced. Mutable by caregiver action; last writer wins.
type InsightPrivacy struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	LineID            uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"line_id"`
	InsightsEnabled   bool           `gorm:"column:insights_enabled;not null;default:true" json:"insights_enabled"`
	IsPaused          bool           `gorm:"column:is_paused;not null;default:false" json:"is_paused"`
	PausedReason      *string        `gorm:"column:paused_reason" json:"paused_reason,omitempty"`
	PausedAt          *time.Time     `gorm:"column:paused_at" json:"paused_at,omitempty"`
	PrivateTopicCodes datatypes.JSON `gorm:"type:jsonb;column:private_topic_codes" json:"private_topic_codes"`
	CreatedAt         time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (InsightPrivacy) TableName() string {
	return "insight_privacy"
}

// PrivateTopics decodes the redaction list; a missing or malformed column
// reads as empty rather than failing a dashboard.
func (p *InsightPrivacy) PrivateTopics() []string {
	if len(p.PrivateTopicCodes) == 0 {
		return nil
	}
	var codes []string
	if err := json.Unmarshal(p.PrivateTopicCodes, &codes); err != nil {
		return nil
	}
	return codes
}

// DefaultInsightPrivacy is the implicit settings row for a line that has
// never been configured.
func DefaultInsightPrivacy(lineID uuid.UUID) *InsightPrivacy {
	return &InsightPrivacy{
		ID:                uuid.New(),
		LineID:            lineID,
		InsightsEnabled:   true,
		IsPaused:          false,
		PrivateTopicCodes: datatypes.JSON([]byte("[]")),
	}
}
