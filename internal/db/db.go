package db

import (
	"fmt"
	"time"

	"match-predictor/config"
	"match-predictor/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDatabase opens the configured store and migrates the schema.
func InitDatabase(cfg *config.Config, log *logrus.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	level := logger.Warn
	if log.IsLevelEnabled(logrus.DebugLevel) {
		level = logger.Info
	}

	DB, err := Open(dialector, log, level)
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		// Single writer; sqlite serialises anyway and this avoids SQLITE_BUSY.
		sqlDB, err := DB.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(DB); err != nil {
		return nil, err
	}
	log.WithField("driver", cfg.Driver).Info("database ready")
	return DB, nil
}

func Open(dialector gorm.Dialector, log *logrus.Logger, level logger.LogLevel) (*gorm.DB, error) {
	DB, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return DB, nil
}

// Migrate creates tables and the unique indexes the engine relies on:
// one prediction per player and match, one tie per leg, one round per week.
func Migrate(DB *gorm.DB) error {
	err := DB.AutoMigrate(
		&models.League{},
		&models.Stage{},
		&models.Team{},
		&models.Round{},
		&models.Match{},
		&models.TwoLeggedTie{},
		&models.Player{},
		&models.Prediction{},
		&models.Achievement{},
	)
	if err != nil {
		return fmt.Errorf("database migration: %w", err)
	}
	return nil
}
