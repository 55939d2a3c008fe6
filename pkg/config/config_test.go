package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigSuccess(t *testing.T) {
	original := AppConfig
	t.Cleanup(func() {
		AppConfig = original
	})

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")
	content := `{
		"database": {
			"host": "localhost",
			"user": "test-user",
			"password": "test-pass",
			"dbname": "testdb",
			"port": 5433,
			"sslmode": "disable"
		},
		"telegram": {
			"token": "test-token"
		},
		"server": {
			"listen": ":9900"
		},
		"schedule": {
			"timezone": "Europe/Riga",
			"boundary_time": "00:05",
			"announce_chat_id": -100123
		}
	}`

	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}

	if err := LoadConfig(configPath); err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if AppConfig.Database.Host != "localhost" {
		t.Errorf("expected host to be localhost, got %q", AppConfig.Database.Host)
	}
	if AppConfig.Database.Port != 5433 {
		t.Errorf("expected port to be 5433, got %d", AppConfig.Database.Port)
	}
	if AppConfig.Telegram.Token != "test-token" {
		t.Errorf("expected token to be test-token, got %q", AppConfig.Telegram.Token)
	}
	if AppConfig.Server.Listen != ":9900" {
		t.Errorf("expected listen to be :9900, got %q", AppConfig.Server.Listen)
	}
	if AppConfig.Schedule.Timezone != "Europe/Riga" {
		t.Errorf("expected timezone to be Europe/Riga, got %q", AppConfig.Schedule.Timezone)
	}
	if AppConfig.Schedule.AnnounceChatID != -100123 {
		t.Errorf("expected announce chat id -100123, got %d", AppConfig.Schedule.AnnounceChatID)
	}
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	original := AppConfig
	t.Cleanup(func() {
		AppConfig = original
	})

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")
	if err := os.WriteFile(configPath, []byte(`{"telegram":{"token":"t"}}`), 0o600); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}

	if err := LoadConfig(configPath); err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if AppConfig.Server.Listen != ":8765" {
		t.Errorf("expected default listen :8765, got %q", AppConfig.Server.Listen)
	}
	if AppConfig.Schedule.Timezone != "Asia/Tokyo" {
		t.Errorf("expected default timezone Asia/Tokyo, got %q", AppConfig.Schedule.Timezone)
	}
	if AppConfig.Schedule.BoundaryTime != "00:00" {
		t.Errorf("expected default boundary time 00:00, got %q", AppConfig.Schedule.BoundaryTime)
	}
	if AppConfig.Schedule.LeaderboardTime != "23:55" {
		t.Errorf("expected default leaderboard time 23:55, got %q", AppConfig.Schedule.LeaderboardTime)
	}
	if AppConfig.Limits.MemoQuota != 100 {
		t.Errorf("expected default memo quota 100, got %d", AppConfig.Limits.MemoQuota)
	}
	if AppConfig.Limits.RetentionDays != 7 {
		t.Errorf("expected default retention 7 days, got %d", AppConfig.Limits.RetentionDays)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	original := AppConfig
	t.Cleanup(func() {
		AppConfig = original
	})

	if err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected an error when loading a missing config file")
	}
}
