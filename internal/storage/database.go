package storage

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/barberzap/barberzap-backend/internal/models"
)

// DatabaseStore implements Store backed by PostgreSQL via GORM
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a new database-backed storage
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// Shop operations

func (d *DatabaseStore) CreateShop(shop *models.Shop) (*models.Shop, error) {
	if err := d.db.Create(shop).Error; err != nil {
		return nil, fmt.Errorf("failed to create shop: %w", err)
	}
	return shop, nil
}

func (d *DatabaseStore) GetShopByID(shopID string) (*models.Shop, error) {
	var shop models.Shop
	if err := d.db.Where("shop_id = ?", shopID).First(&shop).Error; err != nil {
		return nil, fmt.Errorf("shop not found")
	}
	return &shop, nil
}

func (d *DatabaseStore) GetShopByEmail(email string) (*models.Shop, error) {
	var shop models.Shop
	email = strings.ToLower(strings.TrimSpace(email))
	if err := d.db.Where("email = ?", email).First(&shop).Error; err != nil {
		return nil, fmt.Errorf("shop not found")
	}
	return &shop, nil
}

func (d *DatabaseStore) GetAllShops() ([]*models.Shop, error) {
	var shops []*models.Shop
	if err := d.db.Order("shop_id").Find(&shops).Error; err != nil {
		return nil, err
	}
	return shops, nil
}

func (d *DatabaseStore) UpdateShop(shop *models.Shop) error {
	return d.db.Save(shop).Error
}

// Barber operations

func (d *DatabaseStore) CreateBarber(barber *models.Barber) (*models.Barber, error) {
	if err := d.db.Create(barber).Error; err != nil {
		return nil, fmt.Errorf("failed to create barber: %w", err)
	}
	return barber, nil
}

func (d *DatabaseStore) GetBarbersByShop(shopID string) ([]*models.Barber, error) {
	var barbers []*models.Barber
	err := d.db.Where("shop_id = ? AND active = ?", shopID, true).
		Order("barber_id").Find(&barbers).Error
	if err != nil {
		return nil, err
	}
	return barbers, nil
}

// Client operations

func (d *DatabaseStore) CreateClient(client *models.Client) (*models.Client, error) {
	if err := d.db.Create(client).Error; err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

func (d *DatabaseStore) GetClientByID(clientID string) (*models.Client, error) {
	var client models.Client
	if err := d.db.Where("client_id = ?", clientID).First(&client).Error; err != nil {
		return nil, fmt.Errorf("client not found")
	}
	return &client, nil
}

func (d *DatabaseStore) GetClientsByShop(shopID string, limit int) ([]*models.Client, error) {
	var clients []*models.Client
	query := d.db.Where("shop_id = ?", shopID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (d *DatabaseStore) FindClientsByPhoneAndName(phoneVariants []string, name string) ([]*models.Client, error) {
	if len(phoneVariants) == 0 {
		return nil, nil
	}
	var clients []*models.Client
	needle := "%" + strings.ToLower(strings.TrimSpace(name)) + "%"
	err := d.db.Where("phone IN ? AND LOWER(name) LIKE ?", phoneVariants, needle).
		Order("client_id").Find(&clients).Error
	if err != nil {
		return nil, err
	}
	return clients, nil
}

// Offering operations

func (d *DatabaseStore) CreateOffering(offering *models.Offering) (*models.Offering, error) {
	if err := d.db.Create(offering).Error; err != nil {
		return nil, fmt.Errorf("failed to create offering: %w", err)
	}
	return offering, nil
}

func (d *DatabaseStore) GetOfferingsByShop(shopID string) ([]*models.Offering, error) {
	var offerings []*models.Offering
	err := d.db.Where("shop_id = ? AND active = ?", shopID, true).
		Order("offering_id").Find(&offerings).Error
	if err != nil {
		return nil, err
	}
	return offerings, nil
}

// Appointment operations

func (d *DatabaseStore) CreateAppointment(appt *models.Appointment) (*models.Appointment, error) {
	if err := d.db.Create(appt).Error; err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	return appt, nil
}

func (d *DatabaseStore) GetAppointment(appointmentID string) (*models.Appointment, error) {
	var appt models.Appointment
	if err := d.db.Where("appointment_id = ?", appointmentID).First(&appt).Error; err != nil {
		return nil, fmt.Errorf("appointment not found")
	}
	return &appt, nil
}

func (d *DatabaseStore) GetAppointmentsByClient(clientID string, filter AppointmentFilter) ([]*models.Appointment, error) {
	query := d.db.Where("client_id = ?", clientID)
	return d.findAppointments(query, filter)
}

func (d *DatabaseStore) GetAppointmentsByShop(shopID string, filter AppointmentFilter) ([]*models.Appointment, error) {
	query := d.db.Where("shop_id = ?", shopID)
	return d.findAppointments(query, filter)
}

func (d *DatabaseStore) findAppointments(query *gorm.DB, filter AppointmentFilter) ([]*models.Appointment, error) {
	if filter.From != nil {
		query = query.Where("starts_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("starts_at < ?", *filter.To)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}

	var appts []*models.Appointment
	if err := query.Order("starts_at").Find(&appts).Error; err != nil {
		return nil, err
	}
	return appts, nil
}

func (d *DatabaseStore) UpdateAppointmentStatus(appointmentID string, status string) error {
	result := d.db.Model(&models.Appointment{}).
		Where("appointment_id = ?", appointmentID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("appointment not found")
	}
	return nil
}

// Conversation history operations

func (d *DatabaseStore) AppendConversationMessage(msg *models.ConversationMessage) error {
	return d.db.Create(msg).Error
}

func (d *DatabaseStore) GetRecentConversation(phone string, limit int) ([]*models.ConversationMessage, error) {
	var msgs []*models.ConversationMessage
	query := d.db.Where("phone = ?", phone).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}
