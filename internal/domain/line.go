package domain

import (
	"time"

	"github.com/google/uuid"
)

// Line is the care recipient's phone line. Owned by the line/account service;
// this core only reads the columns it needs for authorization rechecks and
// timezone-local aggregation.
type Line struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AccountID   uuid.UUID `gorm:"type:uuid;not null;index" json:"account_id"`
	ShortID     string    `gorm:"column:short_id" json:"short_id"`
	DisplayName string    `gorm:"column:display_name" json:"display_name"`
	Timezone    string    `gorm:"column:timezone;not null;default:UTC" json:"timezone"`
	Status      string    `gorm:"column:status;not null;default:active" json:"status"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Line) TableName() string {
	return "line"
}
