package database

import (
	"fmt"
	"time"

	"github.com/mroshb/friends_api/internal/config"
	"github.com/mroshb/friends_api/internal/models"
	"github.com/mroshb/friends_api/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens the process-wide connection pool. The returned handle is
// passed explicitly to every repository.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	return Open(postgres.Open(cfg.GetDSN()), cfg.IsDevelopment())
}

// Open wraps a dialector with the shared gorm settings and pool sizing.
func Open(dialector gorm.Dialector, development bool) (*gorm.DB, error) {
	var logLevel gormlogger.LogLevel
	if development {
		logLevel = gormlogger.Info
	} else {
		logLevel = gormlogger.Error
	}

	db, err := gorm.Open(dialector, Options(logLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	logger.Info("Database connected", "max_open_conns", 50)
	return db, nil
}

// Options returns the gorm config shared by the server and the scripts.
func Options(logLevel gormlogger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		// Repositories open their own transaction per write
		SkipDefaultTransaction: true,
		// Surface unique violations as gorm.ErrDuplicatedKey
		TranslateError: true,
	}
}

func AutoMigrate(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.FriendRequest{},
		&models.Friendship{},
	)

	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}
