package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Barber represents a staff member of a shop
type Barber struct {
	gorm.Model

	BarberID string `json:"barber_id" gorm:"uniqueIndex"`
	ShopID   string `json:"shop_id" gorm:"index"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Active   bool   `json:"active" gorm:"default:true"`
}

// BeforeCreate hook to auto-generate BarberID
func (b *Barber) BeforeCreate(tx *gorm.DB) error {
	if b.BarberID == "" {
		b.BarberID = fmt.Sprintf("BRB%d%03d", time.Now().Unix(), time.Now().Nanosecond()%1000)
	}
	return nil
}
