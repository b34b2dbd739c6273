package models

import (
	"time"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleRider UserRole = "rider"
)

// User is the credential record, keyed by phone number.
type User struct {
	Phone        string     `json:"phone" gorm:"primaryKey;size:10"`
	Name         string     `json:"name" gorm:"not null"`
	Email        *string    `json:"email"`
	PasswordHash string     `json:"-" gorm:"not null"`
	Role         UserRole   `json:"role" gorm:"not null;index"`
	RiderID      *string    `json:"riderId,omitempty" gorm:"size:40"`
	IsActive     bool       `json:"isActive"`
	IsVerified   bool       `json:"isVerified"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastLogin    *time.Time `json:"lastLogin"`
}
