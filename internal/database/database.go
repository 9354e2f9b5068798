package database

import (
	"fmt"

	"github.com/cryptonic-cms/core/internal/config"
	"github.com/cryptonic-cms/core/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens a MySQL connection and optionally runs auto-migration.
func Connect(cfg *config.AppConfig, autoMigrate bool) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.IsDev() {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:               cfg.Database.DSNValue(),
		DefaultStringSize: 191,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if autoMigrate {
		if err := Migrate(db); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}
	return db, nil
}

// Migrate runs GORM auto-migration for all models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.UserModel{},
		&models.UserSession{},
		&models.DrinkModel{},
		&models.CocktailModel{},
		&models.AttachmentModel{},
		&models.EditableContentModel{},
		&models.ImportRunModel{},
		&models.OptionModel{},
	); err != nil {
		return err
	}

	if db.Dialector.Name() == "mysql" {
		// AutoMigrate leaves pre-existing text columns at their old width.
		for _, stmt := range []string{
			"ALTER TABLE `drinks` MODIFY COLUMN `text` LONGTEXT NULL",
			"ALTER TABLE `cocktails` MODIFY COLUMN `preparation` LONGTEXT NULL",
			"ALTER TABLE `editable_contents` MODIFY COLUMN `content` LONGTEXT NULL",
		} {
			if err := db.Exec(stmt).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
