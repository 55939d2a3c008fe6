package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-anki-sync/pkg/db"
	"github.com/smith3v/tg-anki-sync/pkg/logger"
	"github.com/smith3v/tg-anki-sync/pkg/tokens"
)

// HandleRemind handles "/remind HH:MM" and "/remind off".
func HandleRemind(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleRemind")
		return
	}
	userID := update.Message.From.ID

	arg := commandArgument(update.Message.Text)
	if arg == "" {
		reply(ctx, b, update, "Please use the format: /remind HH:MM or /remind off")
		return
	}

	if strings.EqualFold(arg, "off") {
		if err := updateReminder(userID, false, 0, 0); err != nil {
			logger.Error("failed to disable reminders", "user_id", userID, "error", err)
			reply(ctx, b, update, "Failed to update reminders. Please try again later.")
			return
		}
		reply(ctx, b, update, "Reminders are off.")
		return
	}

	hour, minute, ok := parseReminderTime(arg)
	if !ok {
		reply(ctx, b, update, "Please use the format: /remind HH:MM or /remind off")
		return
	}

	if err := updateReminder(userID, true, hour, minute); err != nil {
		logger.Error("failed to enable reminders", "user_id", userID, "error", err)
		reply(ctx, b, update, "Failed to update reminders. Please try again later.")
		return
	}
	reply(ctx, b, update, fmt.Sprintf(
		"I'll remind you at %02d:%02d when tracked decks still have due cards, at most once a day.", hour, minute))
}

// HandleToken rotates the sync token.
func HandleToken(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleToken")
		return
	}
	userID := update.Message.From.ID

	if _, err := ensureUser(userID); err != nil {
		logger.Error("failed to ensure user", "user_id", userID, "error", err)
		reply(ctx, b, update, "Failed to rotate your token. Please try again later.")
		return
	}

	token, err := tokens.Issue(userID)
	if err != nil {
		logger.Error("failed to rotate token", "user_id", userID, "error", err)
		reply(ctx, b, update, "Failed to rotate your token. Please try again later.")
		return
	}
	reply(ctx, b, update, fmt.Sprintf(
		"Your new sync token:\n\n%s\n\nThe old token stopped working. Update the Anki add-on settings.", token))
}

func updateReminder(userID int64, enabled bool, hour, minute int) error {
	if _, err := ensureUser(userID); err != nil {
		return err
	}

	db.Locks.Lock(userID)
	defer db.Locks.Unlock(userID)

	updates := map[string]any{"reminder_enabled": enabled}
	if enabled {
		updates["reminder_hour"] = hour
		updates["reminder_minute"] = minute
	}
	return db.DB.Model(&db.User{}).Where("user_id = ?", userID).Updates(updates).Error
}

func parseReminderTime(value string) (int, int, bool) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
