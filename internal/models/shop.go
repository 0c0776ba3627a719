package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Shop represents a barbershop account in the system
type Shop struct {
	gorm.Model

	ShopID       string `json:"shop_id" gorm:"uniqueIndex"`
	UUID         string `json:"uuid" gorm:"uniqueIndex"`
	Name         string `json:"name"`
	Email        string `json:"email" gorm:"uniqueIndex"`
	PasswordHash string `json:"-"` // bcrypt hash, never serialized
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Active       bool   `json:"active" gorm:"default:true"`
	OpeningHours string `json:"opening_hours"`
}

// BeforeCreate hook to auto-generate ShopID and normalize data
func (s *Shop) BeforeCreate(tx *gorm.DB) error {
	if s.ShopID == "" {
		s.ShopID = fmt.Sprintf("SHP%d%03d", time.Now().Unix(), time.Now().Nanosecond()%1000)
	}
	if s.UUID == "" {
		s.UUID = uuid.NewString()
	}

	s.Email = strings.ToLower(strings.TrimSpace(s.Email))

	return nil
}

// ShopRegistration is used for new shop registration via the REST API
type ShopRegistration struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
}

// ShopLogin is the REST login payload
type ShopLogin struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
