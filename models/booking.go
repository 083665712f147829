package models

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "Pending"
	BookingStatusAccepted  BookingStatus = "Accepted"
	BookingStatusCompleted BookingStatus = "Completed"
	BookingStatusCancelled BookingStatus = "Cancelled"
)

// Terminal reports whether no further transition is possible.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

type Booking struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	UserID        uint          `gorm:"not null;index" json:"userId"`
	User          *User         `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"customer,omitempty"`
	CleanerID     *uint         `gorm:"index" json:"cleanerId"`
	Cleaner       *User         `gorm:"foreignKey:CleanerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"cleaner,omitempty"`
	StartTime     time.Time     `gorm:"not null;index" json:"startTime"`
	DurationHours int           `gorm:"not null" json:"durationHours"`
	Price         int64         `gorm:"not null" json:"price"` // VND
	Address       string        `gorm:"type:varchar(500);not null" json:"address"`
	Notes         *string       `gorm:"type:text" json:"notes"`
	PaymentMethod *string       `gorm:"type:varchar(64)" json:"paymentMethod"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null" json:"paymentStatus"`
	Status        BookingStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt     time.Time     `gorm:"not null" json:"createdAt"`
	UpdatedAt     time.Time     `gorm:"not null" json:"updatedAt"`
}

// OrderCode is the customer-facing booking reference, e.g. "CM42".
func (b *Booking) OrderCode() string {
	return fmt.Sprintf("CM%d", b.ID)
}

// EndTime is the scheduled finish of the job.
func (b *Booking) EndTime() time.Time {
	return b.StartTime.Add(time.Duration(b.DurationHours) * time.Hour)
}

func (b *Booking) AssignedTo(userID uint) bool {
	return b.CleanerID != nil && *b.CleanerID == userID
}
