package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an account that can author posts and comments. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:254" json:"email"`
	FirstName    string    `gorm:"size:150" json:"first_name"`
	LastName     string    `gorm:"size:150" json:"last_name"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	IsStaff      bool      `gorm:"not null" json:"is_staff"`
	DateJoined   time.Time `gorm:"not null" json:"date_joined"`
}

// BeforeCreate stamps the join date when the caller did not provide one.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.DateJoined.IsZero() {
		u.DateJoined = Now()
	}
	return nil
}
