package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/smith3v/tg-anki-sync/pkg/db"
	"github.com/smith3v/tg-anki-sync/pkg/internal/testutil"
)

func TestHandleRemindSetsTime(t *testing.T) {
	testutil.SetupTestDB(t)
	client := newMockClient()
	b := newTestTelegramBot(t, client)

	HandleRemind(context.Background(), b, newTestUpdate("/remind 08:30", 42))

	var user db.User
	if err := db.DB.Where("user_id = ?", int64(42)).First(&user).Error; err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	if !user.ReminderEnabled || user.ReminderHour != 8 || user.ReminderMinute != 30 {
		t.Fatalf("unexpected reminder settings: %+v", user)
	}
	if !strings.Contains(client.lastMessageText(t), "08:30") {
		t.Fatalf("expected confirmation with time, got %q", client.lastMessageText(t))
	}
}

func TestHandleRemindOff(t *testing.T) {
	testutil.SetupTestDB(t)
	client := newMockClient()
	b := newTestTelegramBot(t, client)

	HandleRemind(context.Background(), b, newTestUpdate("/remind 21:00", 42))
	HandleRemind(context.Background(), b, newTestUpdate("/remind off", 42))

	var user db.User
	if err := db.DB.Where("user_id = ?", int64(42)).First(&user).Error; err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	if user.ReminderEnabled {
		t.Fatalf("expected reminders to be off")
	}
}

func TestHandleRemindRejectsBadInput(t *testing.T) {
	tests := []string{
		"/remind",
		"/remind 25:00",
		"/remind 12:60",
		"/remind noon",
		"/remind 1230",
	}
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			testutil.SetupTestDB(t)
			client := newMockClient()
			b := newTestTelegramBot(t, client)

			HandleRemind(context.Background(), b, newTestUpdate(text, 42))

			if !strings.Contains(client.lastMessageText(t), "format") {
				t.Fatalf("expected usage hint for %q, got %q", text, client.lastMessageText(t))
			}
		})
	}
}
