package database

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cleanmate-app/models"
	"github.com/yeremiapane/cleanmate-app/utils"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "dev"

type demoCleaner struct {
	fullName    string
	email       string
	city        string
	addressText string
	hourlyRate  int64
	avgRating   float64
	bio         string
}

var demoCleaners = []demoCleaner{
	{"Nguyen Van A", "a@test.com", "Hà Nội", "Hồ Tân Xã", 120000, 4.6, "Chuyên dọn nhà"},
	{"Tran Thi B", "b@test.com", "Hà Nội", "Thôn 2", 100000, 4.4, "Chuyên giặt ủi"},
}

// SeedDemoData inserts the demo cleaners unless their emails already exist.
func SeedDemoData(db *gorm.DB) error {
	hash, err := utils.HashPassword(DemoPassword)
	if err != nil {
		return err
	}

	for _, dc := range demoCleaners {
		var existing models.User
		err := db.Where("email = ?", dc.email).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lookup %s: %w", dc.email, err)
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			user := models.User{
				FullName:     dc.fullName,
				Email:        dc.email,
				PasswordHash: hash,
				Role:         models.RoleCleaner,
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			profile := models.NewDefaultCleanerProfile(user.ID)
			profile.Bio = dc.bio
			profile.HourlyRate = dc.hourlyRate
			profile.City = dc.city
			profile.AddressText = dc.addressText
			profile.AvgRating = dc.avgRating
			return tx.Create(&profile).Error
		})
		if err != nil {
			return fmt.Errorf("seed %s: %w", dc.email, err)
		}
		utils.InfoLogger.WithFields(logrus.Fields{"email": dc.email}).Info("seeded demo cleaner")
	}
	return nil
}
