package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-anki-sync/pkg/db"
	"github.com/smith3v/tg-anki-sync/pkg/logger"
	"github.com/smith3v/tg-anki-sync/pkg/tokens"
)

func HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleStart")
		return
	}
	userID := update.Message.From.ID

	if _, err := ensureUser(userID); err != nil {
		logger.Error("failed to ensure user", "user_id", userID, "error", err)
		reply(ctx, b, update, "Setup failed. Please try again later.")
		return
	}

	token, err := tokens.Issue(userID)
	if err != nil {
		logger.Error("failed to issue token", "user_id", userID, "error", err)
		reply(ctx, b, update, "Setup failed. Please try again later.")
		return
	}

	reply(ctx, b, update, fmt.Sprintf(
		"Welcome! Your Anki sync token:\n\n%s\n\n"+
			"Paste it into the Anki sync add-on settings. "+
			"Send me any word to capture it as a memo, then /promote to queue cards for Anki. "+
			"Use /track <deck> to start counting a streak for a deck.", token))
}

func HandleStop(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleStop")
		return
	}
	userID := update.Message.From.ID

	if err := disableUser(userID); err != nil {
		logger.Error("failed to disable user", "user_id", userID, "error", err)
		reply(ctx, b, update, "Failed to update your account. Please try again later.")
		return
	}
	reply(ctx, b, update, "Reminders and leaderboard entries are off. Your data is kept; /start brings everything back.")
}

func disableUser(userID int64) error {
	db.Locks.Lock(userID)
	defer db.Locks.Unlock(userID)
	return db.DB.Model(&db.User{}).Where("user_id = ?", userID).Update("disabled", true).Error
}
