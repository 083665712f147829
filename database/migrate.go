package database

import (
	"fmt"

	"github.com/yeremiapane/cleanmate-app/models"
	"github.com/yeremiapane/cleanmate-app/utils"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.CleanerProfile{},
		&models.Booking{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}
