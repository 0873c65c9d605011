package config

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"driveassist/internal/models"
)

// OpenDB connects to Postgres and migrates the schema. The returned handle
// is the single storage dependency; callers pass it down explicitly.
func OpenDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode, cfg.DBTimezone,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(&models.User{}, &models.Trip{}, &models.EventLog{}, &models.SpeedSample{})
	if err != nil {
		return nil, fmt.Errorf("auto-migration failed: %w", err)
	}

	// At most one open trip per (user_id, trip_id). AutoMigrate cannot
	// express a partial index, so create it directly.
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_trips_one_open
		 ON trips (user_id, trip_id) WHERE stop_time IS NULL AND deleted_at IS NULL`,
	).Error; err != nil {
		return nil, fmt.Errorf("failed to create open-trip index: %w", err)
	}

	return db, nil
}
