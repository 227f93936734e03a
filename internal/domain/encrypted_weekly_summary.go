package domain

import (
	"time"

	"github.com/google/uuid"
)

// EncryptedWeeklySummary is the sealed weekly narrative envelope, one row per
// (line, week start). The AAD additionally binds the derived week end date so
// a ciphertext cannot be replayed into a different week's slot.
type EncryptedWeeklySummary struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AccountID     uuid.UUID `gorm:"type:uuid;not null;index" json:"account_id"`
	LineID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_weekly_summary_line_week" json:"line_id"`
	SummaryID     uuid.UUID `gorm:"type:uuid;not null" json:"summary_id"`
	WeekStartDate time.Time `gorm:"column:week_start_date;type:date;not null;uniqueIndex:idx_weekly_summary_line_week" json:"week_start_date"`
	Ciphertext    []byte    `gorm:"column:ciphertext;not null" json:"-"`
	IV            []byte    `gorm:"column:iv;not null" json:"-"`
	Tag           []byte    `gorm:"column:tag;not null" json:"-"`
	CreatedAt     time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (EncryptedWeeklySummary) TableName() string {
	return "encrypted_weekly_summary"
}

// WeekEndDate derives the inclusive end of the summary week.
func (s *EncryptedWeeklySummary) WeekEndDate() time.Time {
	return s.WeekStartDate.AddDate(0, 0, 6)
}
