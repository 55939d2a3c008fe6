// pkg/db/repository.go
package db

import (
	"strconv"

	"github.com/smith3v/tg-anki-sync/pkg/config"
	"github.com/smith3v/tg-anki-sync/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Export DB variable
var DB *gorm.DB

func InitDB(cfg config.DatabaseConfig) error {
	gormLogger, gormErr := newGormLogger(config.AppConfig.Logging.GormLevel)
	if gormErr != nil {
		logger.Error("invalid gorm log level", "value", config.AppConfig.Logging.GormLevel, "error", gormErr)
	}

	var err error
	if cfg.SQLitePath != "" {
		DB, err = gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{Logger: gormLogger})
	} else {
		dsn := "host=" + cfg.Host +
			" user=" + cfg.User +
			" password=" + cfg.Password +
			" dbname=" + cfg.DBName +
			" port=" + strconv.Itoa(cfg.Port) +
			" sslmode=" + cfg.SSLMode
		DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	}
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return err
	}

	if err := DB.AutoMigrate(&User{}, &AuthToken{}, &Memo{}, &SyncCard{}, &StreakRecord{}); err != nil {
		logger.Error("failed to auto-migrate database", "error", err)
		return err
	}
	if err := migrateDanglingDeliveries(DB); err != nil {
		logger.Error("failed to migrate dangling deliveries", "error", err)
		return err
	}
	return nil
}

// migrateDanglingDeliveries repairs rows marked acked without an ack
// timestamp (written by versions that predate the AckedAt column). The
// timestamp is needed for retention-window pruning.
func migrateDanglingDeliveries(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	if !db.Migrator().HasColumn(&SyncCard{}, "acked_at") {
		return nil
	}
	return db.Exec(`
UPDATE sync_cards
SET acked_at = enqueued_at
WHERE status = 'acked' AND acked_at IS NULL
`).Error
}
