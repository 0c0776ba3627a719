package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Client represents an end customer of a shop. The same person can have
// one Client row per shop they visit. Phone formats vary between rows
// because records were created by different entry points over time
// (with/without country code, with/without the mobile 9 prefix), so
// lookups always go through the phone-variant expansion in services.
type Client struct {
	gorm.Model

	ClientID string `json:"client_id" gorm:"uniqueIndex"`
	ShopID   string `json:"shop_id" gorm:"index"`
	Name     string `json:"name"`
	Phone    string `json:"phone" gorm:"index"`
	Email    string `json:"email"`
}

// BeforeCreate hook to auto-generate ClientID and normalize data
func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ClientID == "" {
		c.ClientID = fmt.Sprintf("CLI%d%03d", time.Now().Unix(), time.Now().Nanosecond()%1000)
	}

	c.Name = strings.TrimSpace(c.Name)

	return nil
}

// ClientRegistration is used for new client creation via the REST API
type ClientRegistration struct {
	ShopID string `json:"shop_id" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Phone  string `json:"phone" validate:"required"`
	Email  string `json:"email"`
}
