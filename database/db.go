package database

import (
	"fmt"
	"log/slog" // use slog for structured logging
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bookden/internal/config"
	"bookden/internal/httpapi/models"
)

// OpenGorm opens a pooled GORM connection against Postgres and runs the
// schema migration. TranslateError is on so unique-index violations surface
// as gorm.ErrDuplicatedKey regardless of the underlying driver.
func OpenGorm(cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	// Verify the connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(gdb); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Connected to the database successfully")
	return gdb, nil
}

// Migrate applies the schema for all persisted models, including the unique
// indexes on users.email, books.google_id and favorites (user_id, book_id).
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.User{},
		&models.Book{},
		&models.Favorite{},
	)
}
