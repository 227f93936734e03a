package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

const (
	// KeySize is the AES-256 key length for both the KEK and per-account DEKs.
	KeySize = 32
	// IVSize is the GCM nonce length.
	IVSize = 12
	// TagSize is the GCM authentication tag length.
	TagSize = 16
)

// Seal encrypts plaintext under key with a fresh random IV, binding aad into
// the authentication tag. Ciphertext and tag are returned separately to match
// the envelope row layout.
func Seal(key, plaintext, aad []byte) (ciphertext, iv, tag []byte, err error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, nil, err
	}
	iv = make([]byte, IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, nil, nil, fmt.Errorf("generate iv: %w", err)
	}
	sealed := gcm.Seal(nil, iv, plaintext, aad)
	n := len(sealed) - TagSize
	return sealed[:n], iv, sealed[n:], nil
}

// Open decrypts an envelope. Any mismatch in key, ciphertext, iv, tag, or aad
// fails closed; there is no partial plaintext.
func Open(key, ciphertext, iv, tag, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("iv must be %d bytes, got %d", IVSize, len(iv))
	}
	if len(tag) != TagSize {
		return nil, fmt.Errorf("tag must be %d bytes, got %d", TagSize, len(tag))
	}
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	plaintext, err := gcm.Open(nil, iv, sealed, aad)
	if err != nil {
		return nil, fmt.Errorf("decryption failed (tampered data or context mismatch)")
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// CallInsightAAD builds the canonical associated data for a per-call insight
// envelope. Field order and formatting are fixed by hand; encrypt and decrypt
// must produce byte-identical AAD or authentication fails, which is what
// pins a ciphertext to its owning account, line, and call session.
func CallInsightAAD(accountID, lineID, callSessionID uuid.UUID) []byte {
	return []byte(fmt.Sprintf(
		`{"account_id":%q,"line_id":%q,"call_session_id":%q,"type":"call_insight"}`,
		accountID.String(), lineID.String(), callSessionID.String(),
	))
}

// WeeklySummaryAAD additionally binds the week boundaries so a summary
// ciphertext cannot be replayed into a different week's slot. weekStart is a
// line-local calendar date; the end date is derived, never stored input.
func WeeklySummaryAAD(accountID, lineID, summaryID uuid.UUID, weekStart time.Time) []byte {
	weekEnd := weekStart.AddDate(0, 0, 6)
	return []byte(fmt.Sprintf(
		`{"account_id":%q,"line_id":%q,"summary_id":%q,"week_start_date":%q,"week_end_date":%q,"type":"weekly_summary"}`,
		accountID.String(), lineID.String(), summaryID.String(),
		weekStart.Format("2006-01-02"), weekEnd.Format("2006-01-02"),
	))
}
