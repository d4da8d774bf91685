package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shoplyne/commerce-backend/internal/config"
	"github.com/shoplyne/commerce-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Needed so unique-index violations surface as gorm.ErrDuplicatedKey,
		// which the entitlement store maps to AlreadyInstalled.
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	slog.Info("database connected")
	return nil
}

// Migrate runs AutoMigrate for all models plus the partial unique index that
// serializes concurrent installs: at most one live installation per
// (tenant, plugin). AutoMigrate can't express a partial index, hence raw SQL.
func Migrate() error {
	if err := DB.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Plugin{},
		&models.SubscriptionPlan{},
		&models.Subscription{},
		&models.PluginInstallation{},
		&models.BillingEvent{},
		&models.SystemLog{},
	); err != nil {
		return err
	}

	return DB.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_installations_live
		 ON plugin_installations (tenant_id, plugin_id)
		 WHERE deleted_at IS NULL`,
	).Error
}

func Ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
