package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
)

// OpenSQLite opens a file or memory database for local development.
func OpenSQLite(path string, logg *logger.Logger) (*gorm.DB, error) {
	if path == "" {
		path = "file:mealcoach.db?_foreign_keys=off&_busy_timeout=5000"
	}
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}
	// SQLite serializes writers; a single connection avoids "database is locked" churn.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	logg.Info("SQLite opened", "path", path)
	return db, nil
}

// Open picks the driver named by driver ("postgres" or "sqlite").
func Open(driver, sqlitePath string, logg *logger.Logger) (*gorm.DB, error) {
	switch driver {
	case "", "postgres":
		return OpenPostgres(PostgresConfigFromEnv(), logg)
	case "sqlite":
		return OpenSQLite(sqlitePath, logg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}
