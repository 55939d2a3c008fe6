// Package handlers implements the Telegram-facing commands: capturing
// memos, promoting them to the sync queue, deck tracking, and account
// management.
package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-anki-sync/pkg/db"
	"github.com/smith3v/tg-anki-sync/pkg/dictionary"
	"github.com/smith3v/tg-anki-sync/pkg/memos"
)

// Memos is the shared capture queue. main replaces it with one that
// carries the configured quota and the kagome annotator.
var Memos = memos.NewQueue(memos.DefaultQuota, dictionary.Noop{})

// Configure swaps the capture queue used by all handlers.
func Configure(queue *memos.Queue) {
	if queue != nil {
		Memos = queue
	}
}

func validMessage(update *models.Update) bool {
	return update != nil && update.Message != nil && update.Message.From != nil && update.Message.Chat.ID != 0
}

func reply(ctx context.Context, b *bot.Bot, update *models.Update, text string) {
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	})
}

// ensureUser creates the user row on first contact and revives a
// soft-disabled account.
func ensureUser(userID int64) (db.User, error) {
	db.Locks.Lock(userID)
	defer db.Locks.Unlock(userID)

	var user db.User
	if err := db.DB.Where("user_id = ?", userID).FirstOrCreate(&user, db.User{UserID: userID}).Error; err != nil {
		return db.User{}, err
	}
	if user.Disabled {
		user.Disabled = false
		if err := db.DB.Save(&user).Error; err != nil {
			return db.User{}, err
		}
	}
	return user, nil
}
