package config

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"trainerpro-backend/models"
)

var DB *gorm.DB

func ConnectDB(dsn string) error {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return errors.Wrap(err, "connecting database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "database handle")
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	DB = db
	return nil
}

// Migrate creates or updates every table the API and the worker use.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Trainer{},
		&models.Recipient{},
		&models.Session{},
		&models.Charge{},
		&models.AutomationRule{},
		&models.MessageLog{},
		&models.DispatchKey{},
	)
}
