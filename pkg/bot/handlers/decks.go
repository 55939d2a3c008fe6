package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-anki-sync/pkg/logger"
	"github.com/smith3v/tg-anki-sync/pkg/streaks"
)

func HandleTrack(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleTrack")
		return
	}
	deck := commandArgument(update.Message.Text)
	if deck == "" {
		reply(ctx, b, update, "Please use the format: /track <deck name>")
		return
	}
	userID := update.Message.From.ID

	decks, err := streaks.Track(userID, deck)
	if err != nil {
		logger.Error("failed to track deck", "user_id", userID, "deck", deck, "error", err)
		reply(ctx, b, update, "Failed to update tracked decks. Please try again later.")
		return
	}
	reply(ctx, b, update, fmt.Sprintf(
		"Tracking %q from the next day boundary. Tracked decks: %s", deck, strings.Join(decks, ", ")))
}

func HandleUntrack(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleUntrack")
		return
	}
	deck := commandArgument(update.Message.Text)
	if deck == "" {
		reply(ctx, b, update, "Please use the format: /untrack <deck name>")
		return
	}
	userID := update.Message.From.ID

	decks, err := streaks.Untrack(userID, deck)
	if err != nil {
		logger.Error("failed to untrack deck", "user_id", userID, "deck", deck, "error", err)
		reply(ctx, b, update, "Failed to update tracked decks. Please try again later.")
		return
	}
	if len(decks) == 0 {
		reply(ctx, b, update, fmt.Sprintf("Stopped tracking %q. No decks are tracked now.", deck))
		return
	}
	reply(ctx, b, update, fmt.Sprintf("Stopped tracking %q. Tracked decks: %s", deck, strings.Join(decks, ", ")))
}

func HandleDecks(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleDecks")
		return
	}
	userID := update.Message.From.ID

	summary, err := streaks.Get(userID)
	if err != nil {
		logger.Error("failed to load tracked decks", "user_id", userID, "error", err)
		reply(ctx, b, update, "Failed to load tracked decks. Please try again later.")
		return
	}
	if len(summary.TrackedDecks) == 0 {
		reply(ctx, b, update, "You are not tracking any decks. Use /track <deck name> to opt in.")
		return
	}
	reply(ctx, b, update, "Tracked decks: "+strings.Join(summary.TrackedDecks, ", "))
}

func HandleStreak(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleStreak")
		return
	}
	userID := update.Message.From.ID

	summary, err := streaks.Get(userID)
	if err != nil {
		logger.Error("failed to load streak", "user_id", userID, "error", err)
		reply(ctx, b, update, "Failed to load your streak. Please try again later.")
		return
	}
	if len(summary.TrackedDecks) == 0 {
		reply(ctx, b, update, "You are not tracking any decks yet, so there is no streak to count. Use /track <deck name>.")
		return
	}

	text := fmt.Sprintf("Current streak: %d day(s).", summary.Length)
	if summary.LastSuccessDay != nil {
		text += fmt.Sprintf(" Last successful day: %s.", summary.LastSuccessDay.Format("2006-01-02"))
	}
	text += " Tracked decks: " + strings.Join(summary.TrackedDecks, ", ")
	reply(ctx, b, update, text)
}

// commandArgument returns everything after the command itself, so deck
// names may contain spaces.
func commandArgument(text string) string {
	parts := strings.SplitN(strings.TrimSpace(text), " ", 2)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
