package models

// Defaults applied to a freshly provisioned cleaner profile.
const (
	DefaultCleanerBio        = "New cleaner"
	DefaultCleanerHourlyRate = int64(120000)
	DefaultCleanerCity       = "Hanoi"
)

type CleanerProfile struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	UserID      uint    `gorm:"uniqueIndex;not null" json:"userId"`
	User        *User   `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user,omitempty"`
	Bio         string  `gorm:"type:text" json:"bio"`
	HourlyRate  int64   `gorm:"not null" json:"hourlyRate"` // VND per hour
	AvgRating   float64 `gorm:"not null" json:"avgRating"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	City        string  `gorm:"type:varchar(128)" json:"city"`
	AddressText string  `gorm:"type:text" json:"addressText"`
}

// NewDefaultCleanerProfile returns the starter profile every cleaner gets.
func NewDefaultCleanerProfile(userID uint) CleanerProfile {
	return CleanerProfile{
		UserID:     userID,
		Bio:        DefaultCleanerBio,
		HourlyRate: DefaultCleanerHourlyRate,
		City:       DefaultCleanerCity,
	}
}
