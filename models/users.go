package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FullName     string    `gorm:"type:varchar(255);not null" json:"fullName"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Role         Role      `gorm:"type:varchar(20);not null" json:"role"`
	PhoneNumber  *string   `gorm:"type:varchar(32)" json:"phoneNumber,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasLocalPassword reports whether the account can sign in with a password.
// Accounts provisioned through Google carry an empty hash.
func (u *User) HasLocalPassword() bool {
	return u.PasswordHash != ""
}
