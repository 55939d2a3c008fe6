// Package cards owns the per-user sync queue the Anki plugin polls.
// Delivery is at-least-once: polling marks cards delivered but keeps
// returning them until the client confirms, and card ids are derived from
// content so redelivery is idempotent on the client side.
package cards

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/smith3v/tg-anki-sync/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CardID derives the stable identity of a card from its payload.
func CardID(front, back string) string {
	h := sha256.New()
	h.Write([]byte(front))
	h.Write([]byte{0})
	h.Write([]byte(back))
	return hex.EncodeToString(h.Sum(nil))
}

// EnqueueTx appends a pending card inside an existing transaction. The
// caller must hold the user's lock. Re-enqueueing an already known
// (user, card id) pair is a no-op.
func EnqueueTx(tx *gorm.DB, userID int64, front, back string, now time.Time) (db.SyncCard, error) {
	card := db.SyncCard{
		UserID:     userID,
		CardID:     CardID(front, back),
		Front:      front,
		Back:       back,
		Status:     db.CardStatusPending,
		EnqueuedAt: now,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "card_id"}},
		DoNothing: true,
	}).Create(&card).Error
	if err != nil {
		return db.SyncCard{}, err
	}
	return card, nil
}

// Enqueue appends a single pending card for the user.
func Enqueue(userID int64, front, back string) (db.SyncCard, error) {
	db.Locks.Lock(userID)
	defer db.Locks.Unlock(userID)

	var card db.SyncCard
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		card, txErr = EnqueueTx(tx, userID, front, back, time.Now().UTC())
		return txErr
	})
	return card, err
}

// Poll returns every unacked card in enqueue order, marking pending ones
// delivered. Polling again before acknowledgment returns the same set.
func Poll(userID int64) ([]db.SyncCard, error) {
	db.Locks.Lock(userID)
	defer db.Locks.Unlock(userID)

	var result []db.SyncCard
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND status <> ?", userID, db.CardStatusAcked).
			Order("id ASC").
			Find(&result).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := tx.Model(&db.SyncCard{}).
			Where("user_id = ? AND status = ?", userID, db.CardStatusPending).
			Updates(map[string]any{
				"status":       db.CardStatusDelivered,
				"delivered_at": now,
			}).Error; err != nil {
			return err
		}
		for i := range result {
			if result[i].Status == db.CardStatusPending {
				result[i].Status = db.CardStatusDelivered
				result[i].DeliveredAt = &now
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Acknowledge marks the listed cards acked and flips their originating
// memos to synced. Unknown and already acked ids are ignored; the call is
// safe to retry. Returns the number of cards newly acked.
func Acknowledge(userID int64, cardIDs []string) (int64, error) {
	if len(cardIDs) == 0 {
		return 0, nil
	}

	db.Locks.Lock(userID)
	defer db.Locks.Unlock(userID)

	var acked int64
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		res := tx.Model(&db.SyncCard{}).
			Where("user_id = ? AND card_id IN ? AND status <> ?", userID, cardIDs, db.CardStatusAcked).
			Updates(map[string]any{
				"status":   db.CardStatusAcked,
				"acked_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		acked = res.RowsAffected

		return tx.Model(&db.Memo{}).
			Where("user_id = ? AND card_id IN ? AND status = ?", userID, cardIDs, db.MemoStatusQueued).
			Update("status", db.MemoStatusSynced).Error
	})
	if err != nil {
		return 0, err
	}
	return acked, nil
}

// PruneAcked deletes acked cards whose acknowledgment is older than the
// cutoff. Run by the scheduler once per cycle.
func PruneAcked(before time.Time) (int64, error) {
	res := db.DB.Where("status = ? AND acked_at < ?", db.CardStatusAcked, before).
		Delete(&db.SyncCard{})
	return res.RowsAffected, res.Error
}
