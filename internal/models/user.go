package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	gorm.Model
	Email               string `gorm:"uniqueIndex;not null"`
	Password            string `gorm:"not null"`
	Username            string `gorm:"uniqueIndex;not null"`
	Phone               string
	Country             string `gorm:"size:2"`
	Role                string `gorm:"default:'user'"`
	Status              string `gorm:"default:'active'"`
	PreferredCurrency   string `gorm:"size:3;default:'EUR'"`
	LastLoginAt         time.Time
	FailedLoginAttempts int `gorm:"default:0"`
	TokenVersion        int `gorm:"default:1"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
