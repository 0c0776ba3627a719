package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Offering is an entry in a shop's service catalog (corte, barba, etc.)
type Offering struct {
	gorm.Model

	OfferingID  string  `json:"offering_id" gorm:"uniqueIndex"`
	ShopID      string  `json:"shop_id" gorm:"index"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	DurationMin int     `json:"duration_min"`
	Active      bool    `json:"active" gorm:"default:true"`
}

// BeforeCreate hook to auto-generate OfferingID
func (o *Offering) BeforeCreate(tx *gorm.DB) error {
	if o.OfferingID == "" {
		o.OfferingID = fmt.Sprintf("SRV%d%03d", time.Now().Unix(), time.Now().Nanosecond()%1000)
	}
	return nil
}
