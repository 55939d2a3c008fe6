package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/smith3v/tg-anki-sync/pkg/db"
	"github.com/smith3v/tg-anki-sync/pkg/internal/testutil"
	"github.com/smith3v/tg-anki-sync/pkg/tokens"
)

func TestHandleStartIssuesToken(t *testing.T) {
	testutil.SetupTestDB(t)
	client := newMockClient()
	b := newTestTelegramBot(t, client)

	HandleStart(context.Background(), b, newTestUpdate("/start", 42))

	var user db.User
	if err := db.DB.Where("user_id = ?", int64(42)).First(&user).Error; err != nil {
		t.Fatalf("expected user to be created: %v", err)
	}
	if user.Disabled {
		t.Fatalf("expected user to be enabled")
	}

	var token db.AuthToken
	if err := db.DB.Where("user_id = ? AND revoked = ?", int64(42), false).First(&token).Error; err != nil {
		t.Fatalf("expected an active token: %v", err)
	}

	text := client.lastMessageText(t)
	if !strings.Contains(text, token.Token) {
		t.Fatalf("expected reply to contain the token, got %q", text)
	}
}

func TestHandleStartRevivesDisabledUser(t *testing.T) {
	testutil.SetupTestDB(t)
	if err := db.DB.Create(&db.User{UserID: 42, Disabled: true}).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	client := newMockClient()
	b := newTestTelegramBot(t, client)

	HandleStart(context.Background(), b, newTestUpdate("/start", 42))

	var user db.User
	if err := db.DB.Where("user_id = ?", int64(42)).First(&user).Error; err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	if user.Disabled {
		t.Fatalf("expected /start to re-enable the user")
	}
}

func TestHandleStopDisablesUser(t *testing.T) {
	testutil.SetupTestDB(t)
	client := newMockClient()
	b := newTestTelegramBot(t, client)

	HandleStart(context.Background(), b, newTestUpdate("/start", 42))
	HandleStop(context.Background(), b, newTestUpdate("/stop", 42))

	var user db.User
	if err := db.DB.Where("user_id = ?", int64(42)).First(&user).Error; err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	if !user.Disabled {
		t.Fatalf("expected /stop to disable the user")
	}

	// The sync token keeps working; /stop only mutes notifications.
	var token db.AuthToken
	if err := db.DB.Where("user_id = ? AND revoked = ?", int64(42), false).First(&token).Error; err != nil {
		t.Fatalf("expected the token to survive /stop: %v", err)
	}
	if _, err := tokens.Validate(token.Token); err != nil {
		t.Fatalf("expected token to stay valid: %v", err)
	}
}

func TestHandleTokenRotates(t *testing.T) {
	testutil.SetupTestDB(t)
	client := newMockClient()
	b := newTestTelegramBot(t, client)

	HandleStart(context.Background(), b, newTestUpdate("/start", 42))

	var old db.AuthToken
	if err := db.DB.Where("user_id = ? AND revoked = ?", int64(42), false).First(&old).Error; err != nil {
		t.Fatalf("failed to load initial token: %v", err)
	}

	HandleToken(context.Background(), b, newTestUpdate("/token", 42))

	if _, err := tokens.Validate(old.Token); err != tokens.ErrRevokedToken {
		t.Fatalf("expected old token to be revoked, got %v", err)
	}

	var fresh db.AuthToken
	if err := db.DB.Where("user_id = ? AND revoked = ?", int64(42), false).First(&fresh).Error; err != nil {
		t.Fatalf("expected a fresh token: %v", err)
	}
	if fresh.Token == old.Token {
		t.Fatalf("expected rotation to mint a new token value")
	}
	if !strings.Contains(client.lastMessageText(t), fresh.Token) {
		t.Fatalf("expected reply to contain the new token")
	}
}
