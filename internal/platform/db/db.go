package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/neurogarden-backend/internal/platform/logger"
)

type Options struct {
	// PostgresDSN wins when set; otherwise SQLitePath is opened.
	PostgresDSN string
	SQLitePath  string
	MaxOpen     int
	LogQueries  bool
}

// Open connects to the configured database.
func Open(opts Options, log *logger.Logger) (*gorm.DB, error) {
	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
	}
	if opts.LogQueries {
		cfg.Logger = gormLogger.Default.LogMode(gormLogger.Info)
	}

	var dialector gorm.Dialector
	driver := "sqlite"
	if dsn := strings.TrimSpace(opts.PostgresDSN); dsn != "" {
		dialector = postgres.Open(dsn)
		driver = "postgres"
	} else {
		path := strings.TrimSpace(opts.SQLitePath)
		if path == "" {
			return nil, fmt.Errorf("no database configured")
		}
		// Concurrent handlers write single fields; WAL plus a busy timeout keeps them from failing with SQLITE_BUSY.
		dialector = sqlite.Open(path + "?_busy_timeout=5000&_journal_mode=WAL")
	}

	theDB, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	sqlDB, err := theDB.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	if opts.MaxOpen > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpen)
	}
	if log != nil {
		log.Info("database connected", "driver", driver)
	}
	return theDB, nil
}
