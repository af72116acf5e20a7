package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Username      string    `gorm:"type:varchar(32);uniqueIndex;not null" json:"username"`
	Email         string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password      string    `gorm:"type:varchar(255);not null" json:"-"`
	EmailVerified bool      `gorm:"not null" json:"email_verified"`
	RegisteredAt  time.Time `gorm:"autoCreateTime" json:"registered_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"-"`
}

// Prefixes produced by bcrypt; anything else is not a stored hash.
var passwordHashPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// IsPasswordHash reports whether s looks like a bcrypt hash.
func IsPasswordHash(s string) bool {
	for _, prefix := range passwordHashPrefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// BeforeSave hook keeps plaintext passwords and blank identities out of the table
func (u *User) BeforeSave(tx *gorm.DB) error {
	if strings.TrimSpace(u.Username) == "" || strings.TrimSpace(u.Email) == "" {
		return gorm.ErrInvalidData
	}

	if !IsPasswordHash(u.Password) {
		return gorm.ErrInvalidData
	}

	return nil
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID            uint      `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	RegisteredAt  time.Time `json:"registered_at"`
}

// ToResponse returns the user's own view, including the email address.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		RegisteredAt:  u.RegisteredAt,
	}
}

// ToPublicResponse returns the view other users get.
func (u *User) ToPublicResponse() UserResponse {
	return UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		RegisteredAt: u.RegisteredAt,
	}
}
