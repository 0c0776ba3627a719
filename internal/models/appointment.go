package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Appointment status values. CANCELADO is the exact string stored by the
// cancellation flow and filtered on everywhere, so it must not change.
const (
	AppointmentScheduled = "AGENDADO"
	AppointmentDone      = "CONCLUIDO"
	AppointmentCancelled = "CANCELADO"
)

// Appointment represents a scheduled service for a client at a shop
type Appointment struct {
	gorm.Model

	AppointmentID string    `json:"appointment_id" gorm:"uniqueIndex"`
	ShopID        string    `json:"shop_id" gorm:"index"`
	ClientID      string    `json:"client_id" gorm:"index"`
	BarberID      string    `json:"barber_id"`
	OfferingID    string    `json:"offering_id"`
	StartsAt      time.Time `json:"starts_at" gorm:"index"`
	Status        string    `json:"status" gorm:"default:AGENDADO;index"`
	Price         float64   `json:"price"`
	Notes         string    `json:"notes"`
}

// BeforeCreate hook to auto-generate AppointmentID and default status
func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.AppointmentID == "" {
		a.AppointmentID = fmt.Sprintf("APT%d%03d", time.Now().Unix(), time.Now().Nanosecond()%1000)
	}
	if a.Status == "" {
		a.Status = AppointmentScheduled
	}
	return nil
}

// IsCancellable reports whether the appointment can still be cancelled:
// it must be in the future and not already cancelled or completed.
func (a *Appointment) IsCancellable(now time.Time) bool {
	return a.Status == AppointmentScheduled && a.StartsAt.After(now)
}

// AppointmentRequest is the REST payload for creating an appointment
type AppointmentRequest struct {
	ShopID     string    `json:"shop_id" validate:"required"`
	ClientID   string    `json:"client_id" validate:"required"`
	BarberID   string    `json:"barber_id"`
	OfferingID string    `json:"offering_id"`
	StartsAt   time.Time `json:"starts_at" validate:"required"`
	Notes      string    `json:"notes"`
}
