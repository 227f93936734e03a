package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	SummaryFormatEmail = "email"
	SummaryFormatSMS   = "sms"
)

// NotificationPreferences configures weekly-summary delivery and missed-call
// alerts per (account, line). Created with defaults on first read.
type NotificationPreferences struct {
	ID                       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AccountID                uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_notification_prefs_account_line" json:"account_id"`
	LineID                   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_notification_prefs_account_line" json:"line_id"`
	SummaryFormat            string    `gorm:"column:summary_format;not null;default:email" json:"summary_format"`
	SummaryDay               string    `gorm:"column:summary_day;not null;default:monday" json:"summary_day"`
	SummaryTime              string    `gorm:"column:summary_time;not null;default:09:00" json:"summary_time"`
	MissedCallAlertThreshold int       `gorm:"column:missed_call_alert_threshold;not null;default:2" json:"missed_call_alert_threshold"`
	CreatedAt                time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt                time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (NotificationPreferences) TableName() string {
	return "notification_preferences"
}

// DefaultNotificationPreferences is the row written on first read.
func DefaultNotificationPreferences(accountID, lineID uuid.UUID) *NotificationPreferences {
	return &NotificationPreferences{
		ID:                       uuid.New(),
		AccountID:                accountID,
		LineID:                   lineID,
		SummaryFormat:            SummaryFormatEmail,
		SummaryDay:               "monday",
		SummaryTime:              "09:00",
		MissedCallAlertThreshold: 2,
	}
}
