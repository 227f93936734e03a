package domain

import (
	"time"

	"github.com/google/uuid"
)

// EncryptedCallInsight is the sealed per-call insight envelope. Immutable once
// written; a later call produces a new row, never an update.
type EncryptedCallInsight struct {
	ID               uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AccountID        uuid.UUID `gorm:"type:uuid;not null;index" json:"account_id"`
	LineID           uuid.UUID `gorm:"type:uuid;not null;index:idx_call_insight_line_created" json:"line_id"`
	CallSessionID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"call_session_id"`
	DurationSeconds  int       `gorm:"column:duration_seconds;not null;default:0" json:"duration_seconds"`
	ExtractionMethod string    `gorm:"column:extraction_method;not null" json:"extraction_method"`
	Ciphertext       []byte    `gorm:"column:ciphertext;not null" json:"-"`
	IV               []byte    `gorm:"column:iv;not null" json:"-"`
	Tag              []byte    `gorm:"column:tag;not null" json:"-"`
	CreatedAt        time.Time `gorm:"not null;default:now();index:idx_call_insight_line_created" json:"created_at"`
}

func (EncryptedCallInsight) TableName() string {
	return "encrypted_call_insight"
}
