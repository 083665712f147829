package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cleanmate-app/models"
	"github.com/yeremiapane/cleanmate-app/utils"
	"gorm.io/gorm"
)

// CleanerListing is the public directory entry. ID is the profile id,
// UserID the id bookings refer to.
type CleanerListing struct {
	ID          uint    `json:"id"`
	UserID      uint    `json:"userId"`
	Name        string  `json:"name"`
	City        string  `json:"city"`
	HourlyRate  int64   `json:"hourlyRate"`
	AvgRating   float64 `json:"avgRating"`
	Bio         string  `json:"bio"`
	AddressText string  `json:"addressText"`
}

// ProfileUpdate is partial: nil fields are left alone.
type ProfileUpdate struct {
	FullName    *string  `json:"fullName"`
	PhoneNumber *string  `json:"phoneNumber"`
	Bio         *string  `json:"bio"`
	HourlyRate  *int64   `json:"hourlyRate"`
	City        *string  `json:"city"`
	AddressText *string  `json:"addressText"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

func (u *ProfileUpdate) validate() error {
	if u.FullName != nil && strings.TrimSpace(*u.FullName) == "" {
		return validationError("fullName must not be blank")
	}
	if u.HourlyRate != nil && *u.HourlyRate < 0 {
		return validationError("hourlyRate must not be negative")
	}
	if u.Latitude != nil && (*u.Latitude < -90 || *u.Latitude > 90) {
		return validationError("latitude must be between -90 and 90")
	}
	if u.Longitude != nil && (*u.Longitude < -180 || *u.Longitude > 180) {
		return validationError("longitude must be between -180 and 180")
	}
	return nil
}

type CleanerService struct {
	db *gorm.DB
}

func NewCleanerService(db *gorm.DB) *CleanerService {
	return &CleanerService{db: db}
}

func (s *CleanerService) ListCleaners(ctx context.Context) ([]CleanerListing, error) {
	listings := []CleanerListing{}
	err := s.db.WithContext(ctx).
		Table("cleaner_profiles").
		Select(`cleaner_profiles.id, cleaner_profiles.user_id, users.full_name AS name,
			cleaner_profiles.city, cleaner_profiles.hourly_rate, cleaner_profiles.avg_rating,
			cleaner_profiles.bio, cleaner_profiles.address_text`).
		Joins("JOIN users ON users.id = cleaner_profiles.user_id").
		Order("cleaner_profiles.id").
		Scan(&listings).Error
	return listings, err
}

func (s *CleanerService) GetProfile(ctx context.Context, p Principal) (*models.CleanerProfile, error) {
	if !p.IsCleaner() {
		return nil, forbiddenError("only cleaners have a profile")
	}
	var profile models.CleanerProfile
	err := s.db.WithContext(ctx).Preload("User").Where("user_id = ?", p.UserID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("cleaner profile")
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *CleanerService) UpdateCleanerProfile(ctx context.Context, p Principal, u ProfileUpdate) (*models.CleanerProfile, error) {
	if !p.IsCleaner() {
		return nil, forbiddenError("only cleaners can update a cleaner profile")
	}
	if err := u.validate(); err != nil {
		return nil, err
	}

	profileFields := map[string]interface{}{}
	if u.Bio != nil {
		profileFields["bio"] = strings.TrimSpace(*u.Bio)
	}
	if u.HourlyRate != nil {
		profileFields["hourly_rate"] = *u.HourlyRate
	}
	if u.City != nil {
		profileFields["city"] = strings.TrimSpace(*u.City)
	}
	if u.AddressText != nil {
		profileFields["address_text"] = strings.TrimSpace(*u.AddressText)
	}
	if u.Latitude != nil {
		profileFields["latitude"] = *u.Latitude
	}
	if u.Longitude != nil {
		profileFields["longitude"] = *u.Longitude
	}

	userFields := map[string]interface{}{}
	if u.FullName != nil {
		userFields["full_name"] = strings.TrimSpace(*u.FullName)
	}
	if u.PhoneNumber != nil {
		userFields["phone_number"] = trimmedOrNil(u.PhoneNumber)
	}

	var profile models.CleanerProfile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", p.UserID).First(&profile).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("cleaner profile")
		}
		if err != nil {
			return err
		}
		if len(profileFields) > 0 {
			if err := tx.Model(&profile).Updates(profileFields).Error; err != nil {
				return err
			}
		}
		if len(userFields) > 0 {
			if err := tx.Model(&models.User{ID: p.UserID}).Updates(userFields).Error; err != nil {
				return err
			}
		}
		return tx.Preload("User").First(&profile, profile.ID).Error
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{"user_id": p.UserID, "profile_id": profile.ID}).Info("cleaner profile updated")
	return &profile, nil
}
