package domain

import (
	"time"

	"github.com/google/uuid"
)

// LineBaseline holds slow-moving reference values for a line, computed by an
// out-of-scope batch job. Read-only here; drift notes compare against these.
type LineBaseline struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	LineID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"line_id"`
	AvgEngagement *float64  `gorm:"column:avg_engagement" json:"avg_engagement,omitempty"`
	AnswerRate    *float64  `gorm:"column:answer_rate" json:"answer_rate,omitempty"`
	ComputedAt    time.Time `gorm:"column:computed_at;not null;default:now()" json:"computed_at"`
}

func (LineBaseline) TableName() string {
	return "line_baseline"
}
