package database

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/welldanyogia/webrana-formmail-backend/internal/models"
)

// Connection pool configuration
const (
	DefaultMaxIdleConns    = 10
	DefaultMaxOpenConns    = 100
	DefaultConnMaxLifetime = time.Hour
	DefaultConnMaxIdleTime = 10 * time.Minute
)

// SQLitePrefix selects the sqlite driver, e.g. "sqlite:audit.db"
const SQLitePrefix = "sqlite:"

// Options controls how the audit store is opened
type Options struct {
	// Production rejects sslmode=disable and sqlite URLs
	Production bool
	// LogLevel is the gorm logger level: silent, error, warn or info
	LogLevel string
}

// Connect opens the audit store. URLs starting with "sqlite:" use the
// sqlite driver, anything else is treated as a PostgreSQL DSN.
func Connect(databaseURL string, opts Options) (*gorm.DB, error) {
	if opts.Production {
		if err := validateSSLMode(databaseURL); err != nil {
			return nil, err
		}
		if IsSQLite(databaseURL) {
			return nil, fmt.Errorf("sqlite cannot be used in production")
		}
	}

	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(opts.LogLevel)),
	}

	if IsSQLite(databaseURL) {
		db, err := gorm.Open(sqlite.Open(strings.TrimPrefix(databaseURL, SQLitePrefix)), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		// sqlite allows a single writer
		if err := configureConnectionPool(db, 1, 1); err != nil {
			return nil, err
		}
		slog.Info("Connected to sqlite database")
		return db, nil
	}

	db, err := gorm.Open(postgres.Open(databaseURL), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := configureConnectionPool(db, DefaultMaxIdleConns, DefaultMaxOpenConns); err != nil {
		return nil, err
	}

	slog.Info("Connected to database successfully")
	return db, nil
}

// IsSQLite reports whether the URL selects the sqlite driver
func IsSQLite(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, SQLitePrefix)
}

// validateSSLMode ensures SSL is enabled in production
func validateSSLMode(databaseURL string) error {
	if strings.Contains(databaseURL, "sslmode=disable") {
		return fmt.Errorf("SSL mode cannot be disabled in production")
	}

	// If no sslmode specified, it's okay (defaults to prefer/require depending on server)
	return nil
}

// configureConnectionPool sets up connection pool limits
func configureConnectionPool(db *gorm.DB, maxIdleConns, maxOpenConns int) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetConnMaxLifetime(DefaultConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(DefaultConnMaxIdleTime)

	return nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info", "debug":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Migrate runs auto-migration for the audit table
func Migrate(db *gorm.DB) error {
	slog.Info("Running database migrations...")

	if err := db.AutoMigrate(&models.EmailAudit{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("Database migrations completed successfully")
	return nil
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
