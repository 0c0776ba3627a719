package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/barberzap/barberzap-backend/internal/models"
)

// MemoryStore holds all data in memory. Used by tests and by the
// USE_MEMORY_STORE=true development mode.
type MemoryStore struct {
	shops        map[string]*models.Shop
	barbers      map[string]*models.Barber
	clients      map[string]*models.Client
	offerings    map[string]*models.Offering
	appointments map[string]*models.Appointment
	messages     []*models.ConversationMessage

	// Mutexes for thread safety
	shopMu    sync.RWMutex
	barberMu  sync.RWMutex
	clientMu  sync.RWMutex
	offerMu   sync.RWMutex
	apptMu    sync.RWMutex
	messageMu sync.RWMutex

	// Counters for ID generation
	shopCounter   int
	barberCounter int
	clientCounter int
	offerCounter  int
	apptCounter   int
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		shops:        make(map[string]*models.Shop),
		barbers:      make(map[string]*models.Barber),
		clients:      make(map[string]*models.Client),
		offerings:    make(map[string]*models.Offering),
		appointments: make(map[string]*models.Appointment),
	}
}

// Shop operations

func (m *MemoryStore) CreateShop(shop *models.Shop) (*models.Shop, error) {
	m.shopMu.Lock()
	defer m.shopMu.Unlock()

	shop.Email = strings.ToLower(strings.TrimSpace(shop.Email))
	for _, existing := range m.shops {
		if existing.Email == shop.Email {
			return nil, fmt.Errorf("shop with email %s already exists", shop.Email)
		}
	}

	m.shopCounter++
	if shop.ShopID == "" {
		shop.ShopID = fmt.Sprintf("SHP%05d", m.shopCounter)
	}
	shop.CreatedAt = time.Now()
	shop.UpdatedAt = time.Now()

	m.shops[shop.ShopID] = shop
	return shop, nil
}

func (m *MemoryStore) GetShopByID(shopID string) (*models.Shop, error) {
	m.shopMu.RLock()
	defer m.shopMu.RUnlock()

	shop, exists := m.shops[shopID]
	if !exists {
		return nil, fmt.Errorf("shop not found")
	}
	return shop, nil
}

func (m *MemoryStore) GetShopByEmail(email string) (*models.Shop, error) {
	m.shopMu.RLock()
	defer m.shopMu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, shop := range m.shops {
		if shop.Email == email {
			return shop, nil
		}
	}
	return nil, fmt.Errorf("shop not found")
}

func (m *MemoryStore) GetAllShops() ([]*models.Shop, error) {
	m.shopMu.RLock()
	defer m.shopMu.RUnlock()

	shops := make([]*models.Shop, 0, len(m.shops))
	for _, shop := range m.shops {
		shops = append(shops, shop)
	}
	sort.Slice(shops, func(i, j int) bool { return shops[i].ShopID < shops[j].ShopID })
	return shops, nil
}

func (m *MemoryStore) UpdateShop(shop *models.Shop) error {
	m.shopMu.Lock()
	defer m.shopMu.Unlock()

	if _, exists := m.shops[shop.ShopID]; !exists {
		return fmt.Errorf("shop not found")
	}
	shop.UpdatedAt = time.Now()
	m.shops[shop.ShopID] = shop
	return nil
}

// Barber operations

func (m *MemoryStore) CreateBarber(barber *models.Barber) (*models.Barber, error) {
	m.barberMu.Lock()
	defer m.barberMu.Unlock()

	m.barberCounter++
	if barber.BarberID == "" {
		barber.BarberID = fmt.Sprintf("BRB%05d", m.barberCounter)
	}
	barber.CreatedAt = time.Now()
	barber.UpdatedAt = time.Now()

	m.barbers[barber.BarberID] = barber
	return barber, nil
}

func (m *MemoryStore) GetBarbersByShop(shopID string) ([]*models.Barber, error) {
	m.barberMu.RLock()
	defer m.barberMu.RUnlock()

	var barbers []*models.Barber
	for _, barber := range m.barbers {
		if barber.ShopID == shopID && barber.Active {
			barbers = append(barbers, barber)
		}
	}
	sort.Slice(barbers, func(i, j int) bool { return barbers[i].BarberID < barbers[j].BarberID })
	return barbers, nil
}

// Client operations

func (m *MemoryStore) CreateClient(client *models.Client) (*models.Client, error) {
	m.clientMu.Lock()
	defer m.clientMu.Unlock()

	m.clientCounter++
	if client.ClientID == "" {
		client.ClientID = fmt.Sprintf("CLI%05d", m.clientCounter)
	}
	client.Name = strings.TrimSpace(client.Name)
	client.CreatedAt = time.Now()
	client.UpdatedAt = time.Now()

	m.clients[client.ClientID] = client
	return client, nil
}

func (m *MemoryStore) GetClientByID(clientID string) (*models.Client, error) {
	m.clientMu.RLock()
	defer m.clientMu.RUnlock()

	client, exists := m.clients[clientID]
	if !exists {
		return nil, fmt.Errorf("client not found")
	}
	return client, nil
}

func (m *MemoryStore) GetClientsByShop(shopID string, limit int) ([]*models.Client, error) {
	m.clientMu.RLock()
	defer m.clientMu.RUnlock()

	var clients []*models.Client
	for _, client := range m.clients {
		if client.ShopID == shopID {
			clients = append(clients, client)
		}
	}
	// Most recently created first
	sort.Slice(clients, func(i, j int) bool { return clients[i].CreatedAt.After(clients[j].CreatedAt) })
	if limit > 0 && len(clients) > limit {
		clients = clients[:limit]
	}
	return clients, nil
}

func (m *MemoryStore) FindClientsByPhoneAndName(phoneVariants []string, name string) ([]*models.Client, error) {
	m.clientMu.RLock()
	defer m.clientMu.RUnlock()

	variants := make(map[string]bool, len(phoneVariants))
	for _, v := range phoneVariants {
		variants[v] = true
	}
	needle := strings.ToLower(strings.TrimSpace(name))

	var matches []*models.Client
	for _, client := range m.clients {
		if !variants[client.Phone] {
			continue
		}
		if !strings.Contains(strings.ToLower(client.Name), needle) {
			continue
		}
		matches = append(matches, client)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ClientID < matches[j].ClientID })
	return matches, nil
}

// Offering operations

func (m *MemoryStore) CreateOffering(offering *models.Offering) (*models.Offering, error) {
	m.offerMu.Lock()
	defer m.offerMu.Unlock()

	m.offerCounter++
	if offering.OfferingID == "" {
		offering.OfferingID = fmt.Sprintf("SRV%05d", m.offerCounter)
	}
	offering.CreatedAt = time.Now()
	offering.UpdatedAt = time.Now()

	m.offerings[offering.OfferingID] = offering
	return offering, nil
}

func (m *MemoryStore) GetOfferingsByShop(shopID string) ([]*models.Offering, error) {
	m.offerMu.RLock()
	defer m.offerMu.RUnlock()

	var offerings []*models.Offering
	for _, offering := range m.offerings {
		if offering.ShopID == shopID && offering.Active {
			offerings = append(offerings, offering)
		}
	}
	sort.Slice(offerings, func(i, j int) bool { return offerings[i].OfferingID < offerings[j].OfferingID })
	return offerings, nil
}

// Appointment operations

func (m *MemoryStore) CreateAppointment(appt *models.Appointment) (*models.Appointment, error) {
	m.apptMu.Lock()
	defer m.apptMu.Unlock()

	m.apptCounter++
	if appt.AppointmentID == "" {
		appt.AppointmentID = fmt.Sprintf("APT%05d", m.apptCounter)
	}
	if appt.Status == "" {
		appt.Status = models.AppointmentScheduled
	}
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = time.Now()

	m.appointments[appt.AppointmentID] = appt
	return appt, nil
}

func (m *MemoryStore) GetAppointment(appointmentID string) (*models.Appointment, error) {
	m.apptMu.RLock()
	defer m.apptMu.RUnlock()

	appt, exists := m.appointments[appointmentID]
	if !exists {
		return nil, fmt.Errorf("appointment not found")
	}
	return appt, nil
}

func (m *MemoryStore) GetAppointmentsByClient(clientID string, filter AppointmentFilter) ([]*models.Appointment, error) {
	m.apptMu.RLock()
	defer m.apptMu.RUnlock()

	var appts []*models.Appointment
	for _, appt := range m.appointments {
		if appt.ClientID == clientID && matchesFilter(appt, filter) {
			appts = append(appts, appt)
		}
	}
	sort.Slice(appts, func(i, j int) bool { return appts[i].StartsAt.Before(appts[j].StartsAt) })
	return appts, nil
}

func (m *MemoryStore) GetAppointmentsByShop(shopID string, filter AppointmentFilter) ([]*models.Appointment, error) {
	m.apptMu.RLock()
	defer m.apptMu.RUnlock()

	var appts []*models.Appointment
	for _, appt := range m.appointments {
		if appt.ShopID == shopID && matchesFilter(appt, filter) {
			appts = append(appts, appt)
		}
	}
	sort.Slice(appts, func(i, j int) bool { return appts[i].StartsAt.Before(appts[j].StartsAt) })
	return appts, nil
}

func (m *MemoryStore) UpdateAppointmentStatus(appointmentID string, status string) error {
	m.apptMu.Lock()
	defer m.apptMu.Unlock()

	appt, exists := m.appointments[appointmentID]
	if !exists {
		return fmt.Errorf("appointment not found")
	}
	appt.Status = status
	appt.UpdatedAt = time.Now()
	return nil
}

func matchesFilter(appt *models.Appointment, filter AppointmentFilter) bool {
	if filter.From != nil && appt.StartsAt.Before(*filter.From) {
		return false
	}
	if filter.To != nil && !appt.StartsAt.Before(*filter.To) {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, s := range filter.Statuses {
			if appt.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Conversation history operations

func (m *MemoryStore) AppendConversationMessage(msg *models.ConversationMessage) error {
	m.messageMu.Lock()
	defer m.messageMu.Unlock()

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *MemoryStore) GetRecentConversation(phone string, limit int) ([]*models.ConversationMessage, error) {
	m.messageMu.RLock()
	defer m.messageMu.RUnlock()

	var msgs []*models.ConversationMessage
	// Walk backwards so the newest messages come first
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Phone == phone {
			msgs = append(msgs, m.messages[i])
			if limit > 0 && len(msgs) >= limit {
				break
			}
		}
	}
	return msgs, nil
}
