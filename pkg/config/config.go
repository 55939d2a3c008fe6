package config

import (
	"encoding/json"
	"os"

	"github.com/smith3v/tg-anki-sync/pkg/logger"
)

type Config struct {
	Database DatabaseConfig `json:"database"`
	Telegram TelegramConfig `json:"telegram"`
	Server   ServerConfig   `json:"server"`
	Schedule ScheduleConfig `json:"schedule"`
	Limits   LimitsConfig   `json:"limits"`
	Logging  LoggingConfig  `json:"logging"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	Port     int    `json:"port"`
	SSLMode  string `json:"sslmode"`
	// SQLitePath, when set, takes precedence over the postgres fields.
	SQLitePath string `json:"sqlite_path"`
}

type TelegramConfig struct {
	Token string `json:"token"`
}

type ServerConfig struct {
	Listen string `json:"listen"`
}

type ScheduleConfig struct {
	Timezone        string `json:"timezone"`
	BoundaryTime    string `json:"boundary_time"`
	LeaderboardTime string `json:"leaderboard_time"`
	AnnounceChatID  int64  `json:"announce_chat_id"`
}

type LimitsConfig struct {
	MemoQuota     int `json:"memo_quota"`
	RetentionDays int `json:"retention_days"`
}

type LoggingConfig struct {
	Level     string `json:"level"`
	File      string `json:"file"`
	GormLevel string `json:"gorm_level"`
}

var AppConfig Config

func LoadConfig(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		logger.Error("failed to open config file", "error", err)
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&AppConfig); err != nil {
		logger.Error("failed to decode config file", "error", err)
		return err
	}

	applyDefaults(&AppConfig)
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8765"
	}
	if cfg.Schedule.Timezone == "" {
		cfg.Schedule.Timezone = "Asia/Tokyo"
	}
	if cfg.Schedule.BoundaryTime == "" {
		cfg.Schedule.BoundaryTime = "00:00"
	}
	if cfg.Schedule.LeaderboardTime == "" {
		cfg.Schedule.LeaderboardTime = "23:55"
	}
	if cfg.Limits.MemoQuota <= 0 {
		cfg.Limits.MemoQuota = 100
	}
	if cfg.Limits.RetentionDays <= 0 {
		cfg.Limits.RetentionDays = 7
	}
}
