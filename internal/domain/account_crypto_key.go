package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountCryptoKey holds the per-account data-encryption key, wrapped under
// the root KEK. The DEK never exists unwrapped outside process memory.
// Exactly one live row per account; created lazily on first use and never
// mutated afterwards except by the out-of-band rotation process.
type AccountCryptoKey struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AccountID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"account_id"`
	WrappedDEK []byte    `gorm:"column:wrapped_dek;not null" json:"-"`
	WrapIV     []byte    `gorm:"column:wrap_iv;not null" json:"-"`
	WrapTag    []byte    `gorm:"column:wrap_tag;not null" json:"-"`
	KeyID      string    `gorm:"column:key_id;not null" json:"key_id"`
	Algorithm  string    `gorm:"column:algorithm;not null" json:"algorithm"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (AccountCryptoKey) TableName() string {
	return "account_crypto_key"
}
