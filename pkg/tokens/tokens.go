// Package tokens issues and validates the opaque per-user credentials the
// Anki plugin authenticates with.
package tokens

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/smith3v/tg-anki-sync/pkg/db"
	"gorm.io/gorm"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrRevokedToken = errors.New("revoked token")
)

// Issue generates a fresh token for the user, revoking any previous one in
// the same transaction. Once Issue returns, the old token no longer
// validates. Calling Issue again is rotation.
func Issue(userID int64) (string, error) {
	token := newToken()

	db.Locks.Lock(userID)
	defer db.Locks.Unlock(userID)

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db.AuthToken{}).
			Where("user_id = ? AND NOT revoked", userID).
			Update("revoked", true).Error; err != nil {
			return err
		}
		return tx.Create(&db.AuthToken{UserID: userID, Token: token}).Error
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Validate resolves a presented token to its user id. Tokens superseded by
// a later Issue fail with ErrRevokedToken so the caller can tell the user
// to re-run setup.
func Validate(token string) (int64, error) {
	if strings.TrimSpace(token) == "" {
		return 0, ErrInvalidToken
	}

	var row db.AuthToken
	err := db.DB.Where("token = ?", token).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrInvalidToken
	}
	if err != nil {
		return 0, err
	}
	if subtle.ConstantTimeCompare([]byte(row.Token), []byte(token)) != 1 {
		return 0, ErrInvalidToken
	}
	if row.Revoked {
		return 0, ErrRevokedToken
	}
	return row.UserID, nil
}

func newToken() string {
	// Two v4 UUIDs with the dashes dropped, 256 bits of randomness.
	raw := uuid.NewString() + uuid.NewString()
	return strings.ReplaceAll(raw, "-", "")
}
