// Package memos owns the capture queue: vocabulary jotted down in chat,
// waiting to be promoted into sync cards.
package memos

import (
	"errors"
	"time"

	"github.com/smith3v/tg-anki-sync/pkg/cards"
	"github.com/smith3v/tg-anki-sync/pkg/db"
	"github.com/smith3v/tg-anki-sync/pkg/dictionary"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("memo not found")
	ErrEmptyQueue    = errors.New("no captured memos")
	ErrQuotaExceeded = errors.New("memo quota exceeded")
)

const DefaultQuota = 100

// Queue captures and promotes memos for all users. Quota bounds the number
// of un-promoted memos per user.
type Queue struct {
	quota    int
	annotate dictionary.Annotator
}

func NewQueue(quota int, annotate dictionary.Annotator) *Queue {
	if quota <= 0 {
		quota = DefaultQuota
	}
	if annotate == nil {
		annotate = dictionary.Noop{}
	}
	return &Queue{quota: quota, annotate: annotate}
}

// Capture appends a memo with status captured.
func (q *Queue) Capture(userID int64, text string) (db.Memo, error) {
	db.Locks.Lock(userID)
	defer db.Locks.Unlock(userID)

	var count int64
	if err := db.DB.Model(&db.Memo{}).
		Where("user_id = ? AND status = ?", userID, db.MemoStatusCaptured).
		Count(&count).Error; err != nil {
		return db.Memo{}, err
	}
	if count >= int64(q.quota) {
		return db.Memo{}, ErrQuotaExceeded
	}

	memo := db.Memo{UserID: userID, Text: text, Status: db.MemoStatusCaptured}
	if err := db.DB.Create(&memo).Error; err != nil {
		return db.Memo{}, err
	}
	return memo, nil
}

// List returns the user's captured memos in insertion order.
func (q *Queue) List(userID int64) ([]db.Memo, error) {
	var result []db.Memo
	err := db.DB.Where("user_id = ? AND status = ?", userID, db.MemoStatusCaptured).
		Order("id ASC").
		Find(&result).Error
	return result, err
}

// PromoteAll moves every captured memo to queued and enqueues one sync
// card per memo.
func (q *Queue) PromoteAll(userID int64) ([]db.SyncCard, error) {
	db.Locks.Lock(userID)
	defer db.Locks.Unlock(userID)

	captured, err := q.capturedLocked(userID)
	if err != nil {
		return nil, err
	}
	if len(captured) == 0 {
		return nil, ErrEmptyQueue
	}
	return q.promoteLocked(userID, captured)
}

// PromoteAt promotes the single captured memo at the given 1-based
// position of the List order.
func (q *Queue) PromoteAt(userID int64, position int) (db.SyncCard, error) {
	db.Locks.Lock(userID)
	defer db.Locks.Unlock(userID)

	captured, err := q.capturedLocked(userID)
	if err != nil {
		return db.SyncCard{}, err
	}
	if position < 1 || position > len(captured) {
		return db.SyncCard{}, ErrNotFound
	}
	promoted, err := q.promoteLocked(userID, captured[position-1:position])
	if err != nil {
		return db.SyncCard{}, err
	}
	return promoted[0], nil
}

// Clear drops captured memos only; queued and synced ones are history.
func (q *Queue) Clear(userID int64) (int64, error) {
	db.Locks.Lock(userID)
	defer db.Locks.Unlock(userID)

	res := db.DB.Where("user_id = ? AND status = ?", userID, db.MemoStatusCaptured).
		Delete(&db.Memo{})
	return res.RowsAffected, res.Error
}

func (q *Queue) capturedLocked(userID int64) ([]db.Memo, error) {
	var captured []db.Memo
	err := db.DB.Where("user_id = ? AND status = ?", userID, db.MemoStatusCaptured).
		Order("id ASC").
		Find(&captured).Error
	return captured, err
}

func (q *Queue) promoteLocked(userID int64, memosToPromote []db.Memo) ([]db.SyncCard, error) {
	promoted := make([]db.SyncCard, 0, len(memosToPromote))
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for _, memo := range memosToPromote {
			back := q.annotate.Reading(memo.Text)
			card, err := cards.EnqueueTx(tx, userID, memo.Text, back, now)
			if err != nil {
				return err
			}
			if err := tx.Model(&db.Memo{}).
				Where("id = ?", memo.ID).
				Updates(map[string]any{
					"status":  db.MemoStatusQueued,
					"card_id": card.CardID,
				}).Error; err != nil {
				return err
			}
			promoted = append(promoted, card)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}
