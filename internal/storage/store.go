package storage

import (
	"time"

	"github.com/barberzap/barberzap-backend/internal/models"
)

var storeInstance Store

// SetStore sets the global store instance (call from main.go)
func SetStore(s Store) {
	storeInstance = s
}

// GetStore returns the global store instance
func GetStore() Store {
	return storeInstance
}

// AppointmentFilter narrows appointment queries. Nil time bounds are
// ignored; nil Statuses means any status.
type AppointmentFilter struct {
	From     *time.Time
	To       *time.Time
	Statuses []string
}

// Store defines the interface for storage operations
type Store interface {
	// Shop operations
	CreateShop(shop *models.Shop) (*models.Shop, error)
	GetShopByID(shopID string) (*models.Shop, error)
	GetShopByEmail(email string) (*models.Shop, error)
	GetAllShops() ([]*models.Shop, error)
	UpdateShop(shop *models.Shop) error

	// Barber operations
	CreateBarber(barber *models.Barber) (*models.Barber, error)
	GetBarbersByShop(shopID string) ([]*models.Barber, error)

	// Client operations
	CreateClient(client *models.Client) (*models.Client, error)
	GetClientByID(clientID string) (*models.Client, error)
	GetClientsByShop(shopID string, limit int) ([]*models.Client, error)
	// FindClientsByPhoneAndName matches any of the supplied phone
	// variants combined with a case-insensitive name substring.
	FindClientsByPhoneAndName(phoneVariants []string, name string) ([]*models.Client, error)

	// Offering operations
	CreateOffering(offering *models.Offering) (*models.Offering, error)
	GetOfferingsByShop(shopID string) ([]*models.Offering, error)

	// Appointment operations
	CreateAppointment(appt *models.Appointment) (*models.Appointment, error)
	GetAppointment(appointmentID string) (*models.Appointment, error)
	GetAppointmentsByClient(clientID string, filter AppointmentFilter) ([]*models.Appointment, error)
	GetAppointmentsByShop(shopID string, filter AppointmentFilter) ([]*models.Appointment, error)
	UpdateAppointmentStatus(appointmentID string, status string) error

	// Conversation history operations
	AppendConversationMessage(msg *models.ConversationMessage) error
	// GetRecentConversation returns up to limit messages for the phone,
	// most recent first.
	GetRecentConversation(phone string, limit int) ([]*models.ConversationMessage, error)
}
