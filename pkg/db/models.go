// pkg/db/models.go
package db

import (
	"time"

	"gorm.io/datatypes"
)

const (
	MemoStatusCaptured = "captured"
	MemoStatusQueued   = "queued"
	MemoStatusSynced   = "synced"

	CardStatusPending   = "pending"
	CardStatusDelivered = "delivered"
	CardStatusAcked     = "acked"
)

// User is created on first /start and never hard-deleted. Disabled users
// keep their data but receive no reminders and no leaderboard entry.
type User struct {
	ID              uint  `gorm:"primaryKey"`
	UserID          int64 `gorm:"uniqueIndex"` // Telegram user id, also the chat id for DMs
	Disabled        bool  `gorm:"not null;default:false"`
	ReminderEnabled bool  `gorm:"not null;default:false"`
	ReminderHour    int   `gorm:"not null;default:21"`
	ReminderMinute  int   `gorm:"not null;default:0"`
	// Local date of the last reminder actually dispatched, for once-per-day
	// suppression.
	LastReminderDay *time.Time `gorm:"type:date"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AuthToken binds one opaque credential to one user. Superseded tokens are
// kept with Revoked set so validation can tell "rotated away" from garbage.
type AuthToken struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    int64  `gorm:"index"`
	Token     string `gorm:"not null;uniqueIndex"`
	Revoked   bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
}

type Memo struct {
	ID     uint   `gorm:"primaryKey"`
	UserID int64  `gorm:"index:idx_memo_user_status"`
	Text   string `gorm:"not null"`
	Status string `gorm:"not null;default:captured;index:idx_memo_user_status"`
	// CardID links a promoted memo to the sync card derived from it.
	CardID    string `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SyncCard is a deliverable card payload. CardID is derived from the
// payload content, so re-enqueueing the same memo yields the same id and
// redelivery stays idempotent on the client side.
type SyncCard struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      int64  `gorm:"index:idx_card_user_status;uniqueIndex:idx_card_user_card"`
	CardID      string `gorm:"not null;uniqueIndex:idx_card_user_card"`
	Front       string `gorm:"not null"`
	Back        string
	Status      string    `gorm:"not null;default:pending;index:idx_card_user_status"`
	EnqueuedAt  time.Time `gorm:"not null"`
	DeliveredAt *time.Time
	AckedAt     *time.Time
}

// StreakRecord holds per-user streak state. TrackedDecks is a JSON array
// of deck names; DueCounts a JSON object mapping deck name to the latest
// reported due count.
type StreakRecord struct {
	ID             uint           `gorm:"primaryKey"`
	UserID         int64          `gorm:"uniqueIndex"`
	Length         int            `gorm:"not null;default:0"`
	LastSuccessDay *time.Time     `gorm:"type:date"`
	TrackedDecks   datatypes.JSON `gorm:"not null;default:'[]'"`
	DueCounts      datatypes.JSON `gorm:"not null;default:'{}'"`
	NewCardsToday  int            `gorm:"not null;default:0"`
	LastReportAt   *time.Time
	// Local date most recently closed out by a boundary evaluation. Makes
	// the evaluation idempotent across scheduler restarts.
	LastEvaluatedDay *time.Time `gorm:"type:date"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
