package crypto

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/CryptracSolutions/ultaura-insights/internal/domain"
	pkgerrors "github.com/CryptracSolutions/ultaura-insights/internal/pkg/errors"
	"github.com/CryptracSolutions/ultaura-insights/internal/platform/logger"
)

const (
	// ActiveKeyID identifies the KEK version that wraps newly minted DEKs.
	// Rotation to a newer version is an out-of-band process.
	ActiveKeyID = "kek_v1"

	wrapAlgorithm = "AES-256-GCM"
)

// AccountKeyStore is the persistence surface the keyring needs. Satisfied by
// repos.AccountKeyRepo.
type AccountKeyStore interface {
	GetByAccountID(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) (*domain.AccountCryptoKey, error)
	Create(ctx context.Context, tx *gorm.DB, row *domain.AccountCryptoKey) error
}

// Keyring owns the root KEK for the process lifetime and wraps/unwraps
// per-account DEKs under it. The KEK is loaded once at startup and never
// leaves this struct; DEKs only ever exist unwrapped in memory.
type Keyring struct {
	kek  []byte
	keys AccountKeyStore
	log  *logger.Logger
}

// NewKeyring parses the 64-hex-character root key and binds the key store.
// Any other secret shape is a configuration error; callers treat it as
// startup-fatal.
func NewKeyring(kekHex string, keys AccountKeyStore, baseLog *logger.Logger) (*Keyring, error) {
	kek, err := ParseKEK(kekHex)
	if err != nil {
		return nil, err
	}
	return &Keyring{
		kek:  kek,
		keys: keys,
		log:  baseLog.With("service", "Keyring"),
	}, nil
}

// ParseKEK decodes a 64-hex-character secret into a 32-byte KEK.
func ParseKEK(kekHex string) ([]byte, error) {
	if len(kekHex) != KeySize*2 {
		return nil, fmt.Errorf("KEK secret must be %d hex characters, got %d", KeySize*2, len(kekHex))
	}
	kek, err := hex.DecodeString(kekHex)
	if err != nil {
		return nil, fmt.Errorf("KEK secret is not valid hex: %w", err)
	}
	return kek, nil
}

// GetOrCreateAccountDEK returns the account's 32-byte data key, minting and
// persisting a wrapped one on first use. Concurrent first use is safe: a
// duplicate-insert loser re-reads the winner's row instead of erroring or
// leaving two live DEKs for one account.
func (k *Keyring) GetOrCreateAccountDEK(ctx context.Context, accountID uuid.UUID) ([]byte, error) {
	row, err := k.keys.GetByAccountID(ctx, nil, accountID)
	if err == nil {
		return k.unwrap(row)
	}
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		return nil, fmt.Errorf("load account key: %w", err)
	}

	dek := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, dek); err != nil {
		return nil, fmt.Errorf("generate dek: %w", err)
	}
	wrapped, iv, tag, err := Seal(k.kek, dek, nil)
	if err != nil {
		return nil, fmt.Errorf("wrap dek: %w", err)
	}
	row = &domain.AccountCryptoKey{
		ID:         uuid.New(),
		AccountID:  accountID,
		WrappedDEK: wrapped,
		WrapIV:     iv,
		WrapTag:    tag,
		KeyID:      ActiveKeyID,
		Algorithm:  wrapAlgorithm,
	}
	if err := k.keys.Create(ctx, nil, row); err != nil {
		if !pkgerrors.IsDuplicateKey(err) {
			return nil, fmt.Errorf("persist account key: %w", err)
		}
		// Lost the first-use race; the winner's row is the live key.
		k.log.Debug("account key insert raced, re-reading winner", "account_id", accountID)
		winner, readErr := k.keys.GetByAccountID(ctx, nil, accountID)
		if readErr != nil {
			return nil, fmt.Errorf("re-read account key after race: %w", readErr)
		}
		return k.unwrap(winner)
	}
	return dek, nil
}

// unwrap opens the stored envelope under the KEK. Authentication failure is a
// hard integrity error for the account; the key is never regenerated here.
func (k *Keyring) unwrap(row *domain.AccountCryptoKey) ([]byte, error) {
	dek, err := Open(k.kek, row.WrappedDEK, row.WrapIV, row.WrapTag, nil)
	if err != nil {
		k.log.Error("account DEK unwrap failed", "account_id", row.AccountID, "key_id", row.KeyID)
		return nil, fmt.Errorf("unwrap DEK for key %s: %w", row.KeyID, pkgerrors.ErrKeyIntegrity)
	}
	if len(dek) != KeySize {
		return nil, fmt.Errorf("unwrapped DEK is %d bytes: %w", len(dek), pkgerrors.ErrKeyIntegrity)
	}
	return dek, nil
}
