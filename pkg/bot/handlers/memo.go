package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-anki-sync/pkg/logger"
	"github.com/smith3v/tg-anki-sync/pkg/memos"
)

// DefaultHandler captures any plain text message as a memo.
func DefaultHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in DefaultHandler")
		return
	}

	text := strings.TrimSpace(update.Message.Text)
	if text == "" || strings.HasPrefix(text, "/") {
		reply(ctx, b, update, "Send me a word to capture it as a memo, or use /list, /promote, /clear, /track, /streak, /remind, /token.")
		return
	}

	userID := update.Message.From.ID
	if _, err := ensureUser(userID); err != nil {
		logger.Error("failed to ensure user", "user_id", userID, "error", err)
		reply(ctx, b, update, "Failed to save the memo. Please try again later.")
		return
	}

	memo, err := Memos.Capture(userID, text)
	if errors.Is(err, memos.ErrQuotaExceeded) {
		reply(ctx, b, update, "Your memo queue is full. Promote or /clear some memos first.")
		return
	}
	if err != nil {
		logger.Error("failed to capture memo", "user_id", userID, "error", err)
		reply(ctx, b, update, "Failed to save the memo. Please try again later.")
		return
	}

	logger.Debug("memo captured", "user_id", userID, "memo_id", memo.ID)
	reply(ctx, b, update, fmt.Sprintf("Captured %q. Use /promote to queue it for Anki.", text))
}

func HandleList(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleList")
		return
	}
	userID := update.Message.From.ID

	listed, err := Memos.List(userID)
	if err != nil {
		logger.Error("failed to list memos", "user_id", userID, "error", err)
		reply(ctx, b, update, "Failed to list memos. Please try again later.")
		return
	}
	if len(listed) == 0 {
		reply(ctx, b, update, "You have no captured memos.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Captured memos:\n")
	for i, memo := range listed {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, memo.Text)
	}
	reply(ctx, b, update, sb.String())
}

// HandlePromote handles "/promote", "/promote all" and "/promote <n>".
func HandlePromote(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandlePromote")
		return
	}
	userID := update.Message.From.ID

	arg := "all"
	if parts := strings.Fields(update.Message.Text); len(parts) > 1 {
		arg = parts[1]
	}

	if arg == "all" {
		promoted, err := Memos.PromoteAll(userID)
		if errors.Is(err, memos.ErrEmptyQueue) {
			reply(ctx, b, update, "You have no captured memos to promote.")
			return
		}
		if err != nil {
			logger.Error("failed to promote memos", "user_id", userID, "error", err)
			reply(ctx, b, update, "Failed to promote memos. Please try again later.")
			return
		}
		reply(ctx, b, update, fmt.Sprintf("Queued %d card(s). They will appear in Anki on the next sync.", len(promoted)))
		return
	}

	position, err := strconv.Atoi(arg)
	if err != nil {
		reply(ctx, b, update, "Please use the format: /promote <number> or /promote all")
		return
	}

	card, err := Memos.PromoteAt(userID, position)
	if errors.Is(err, memos.ErrNotFound) {
		reply(ctx, b, update, fmt.Sprintf("No memo at position %d. Check /list.", position))
		return
	}
	if err != nil {
		logger.Error("failed to promote memo", "user_id", userID, "position", position, "error", err)
		reply(ctx, b, update, "Failed to promote the memo. Please try again later.")
		return
	}
	reply(ctx, b, update, fmt.Sprintf("Queued %q. It will appear in Anki on the next sync.", card.Front))
}

func HandleClear(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleClear")
		return
	}
	userID := update.Message.From.ID

	cleared, err := Memos.Clear(userID)
	if err != nil {
		logger.Error("failed to clear memos", "user_id", userID, "error", err)
		reply(ctx, b, update, "Failed to clear memos. Please try again later.")
		return
	}
	if cleared == 0 {
		reply(ctx, b, update, "You have no captured memos.")
		return
	}
	reply(ctx, b, update, fmt.Sprintf("Dropped %d captured memo(s). Already queued cards are untouched.", cleared))
}
