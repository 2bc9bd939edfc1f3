package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-pos-checkout/internal/config"
	"go-pos-checkout/internal/logging"
	"go-pos-checkout/internal/models"
)

// Connect opens the local database, retrying while it comes up, and syncs
// the schema.
func Connect(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database: DB_DSN is not configured")
	}

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	gormCfg := &gorm.Config{
		Logger: logger.New(logging.NewPrintfAdapter(log.Named("gorm")), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}

	// 1. Connect (wait for the DB to be ready)
	var db *gorm.DB
	for i := 0; i < attempts; i++ {
		db, err = gorm.Open(dialector, gormCfg)
		if err == nil {
			break
		}
		log.Warn("failed to connect to database, retrying",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", attempts),
			zap.Duration("retry_in", cfg.RetryDelay),
			zap.Error(err),
		)
		if i < attempts-1 {
			time.Sleep(cfg.RetryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("database: connect after %d attempts: %w", attempts, err)
	}

	if cfg.Driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}
	log.Info("connected to database", zap.String("driver", cfg.Driver))

	// 2. Auto-migrate
	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("database schema synced")

	return db, nil
}

// Migrate creates or updates the local tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Setting{},
		&models.StockMutation{},
	); err != nil {
		return fmt.Errorf("database: migrate: %w", err)
	}
	return nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "mysql":
		return mysql.Open(cfg.DSN), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", cfg.Driver)
	}
}
