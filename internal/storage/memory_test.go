package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barberzap/barberzap-backend/internal/models"
)

func TestCreateShopRejectsDuplicateEmail(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.CreateShop(&models.Shop{Name: "Barbearia Central", Email: "central@barber.com"})
	require.NoError(t, err)

	_, err = store.CreateShop(&models.Shop{Name: "Outra", Email: "CENTRAL@barber.com"})
	assert.Error(t, err, "email comparison is case-insensitive")
}

func TestGetShopByEmailNormalizes(t *testing.T) {
	store := NewMemoryStore()

	created, err := store.CreateShop(&models.Shop{Name: "Barbearia Central", Email: "Central@Barber.com"})
	require.NoError(t, err)

	got, err := store.GetShopByEmail("  CENTRAL@BARBER.COM  ")
	require.NoError(t, err)
	assert.Equal(t, created.ShopID, got.ShopID)
}

func TestFindClientsByPhoneAndName(t *testing.T) {
	store := NewMemoryStore()
	shop, err := store.CreateShop(&models.Shop{Name: "Barbearia Central", Email: "central@barber.com"})
	require.NoError(t, err)

	joao, err := store.CreateClient(&models.Client{ShopID: shop.ShopID, Name: "João da Silva", Phone: "89994582600"})
	require.NoError(t, err)
	_, err = store.CreateClient(&models.Client{ShopID: shop.ShopID, Name: "Maria Lima", Phone: "89994582600"})
	require.NoError(t, err)
	_, err = store.CreateClient(&models.Client{ShopID: shop.ShopID, Name: "João Pereira", Phone: "88000000000"})
	require.NoError(t, err)

	matches, err := store.FindClientsByPhoneAndName([]string{"89994582600", "5589994582600"}, "joão")
	require.NoError(t, err)
	require.Len(t, matches, 1, "both phone and name must match")
	assert.Equal(t, joao.ClientID, matches[0].ClientID)
}

func TestGetAppointmentsFilters(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()

	mk := func(startsAt time.Time, status string) *models.Appointment {
		appt, err := store.CreateAppointment(&models.Appointment{
			ShopID:   "SHP00001",
			ClientID: "CLI00001",
			StartsAt: startsAt,
			Status:   status,
		})
		require.NoError(t, err)
		return appt
	}

	past := mk(now.Add(-24*time.Hour), models.AppointmentDone)
	soon := mk(now.Add(24*time.Hour), models.AppointmentScheduled)
	later := mk(now.Add(72*time.Hour), models.AppointmentScheduled)
	mk(now.Add(48*time.Hour), models.AppointmentCancelled)

	// Future scheduled only, soonest first
	appts, err := store.GetAppointmentsByClient("CLI00001", AppointmentFilter{
		From:     &now,
		Statuses: []string{models.AppointmentScheduled},
	})
	require.NoError(t, err)
	require.Len(t, appts, 2)
	assert.Equal(t, soon.AppointmentID, appts[0].AppointmentID)
	assert.Equal(t, later.AppointmentID, appts[1].AppointmentID)

	// To is exclusive of the boundary
	appts, err = store.GetAppointmentsByClient("CLI00001", AppointmentFilter{To: &now})
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, past.AppointmentID, appts[0].AppointmentID)

	// No filter returns everything
	appts, err = store.GetAppointmentsByShop("SHP00001", AppointmentFilter{})
	require.NoError(t, err)
	assert.Len(t, appts, 4)
}

func TestUpdateAppointmentStatus(t *testing.T) {
	store := NewMemoryStore()

	appt, err := store.CreateAppointment(&models.Appointment{
		ShopID:   "SHP00001",
		ClientID: "CLI00001",
		StartsAt: time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentScheduled, appt.Status, "status defaults to scheduled")

	require.NoError(t, store.UpdateAppointmentStatus(appt.AppointmentID, models.AppointmentCancelled))

	got, err := store.GetAppointment(appt.AppointmentID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentCancelled, got.Status)

	assert.Error(t, store.UpdateAppointmentStatus("APT99999", models.AppointmentCancelled))
}

func TestGetClientsByShopLimit(t *testing.T) {
	store := NewMemoryStore()

	for i := 0; i < 5; i++ {
		_, err := store.CreateClient(&models.Client{ShopID: "SHP00001", Name: "Cliente", Phone: "89990000000"})
		require.NoError(t, err)
	}

	clients, err := store.GetClientsByShop("SHP00001", 3)
	require.NoError(t, err)
	assert.Len(t, clients, 3)
}

func TestConversationHistoryOrderAndLimit(t *testing.T) {
	store := NewMemoryStore()

	for _, text := range []string{"um", "dois", "três"} {
		require.NoError(t, store.AppendConversationMessage(&models.ConversationMessage{
			Phone: "5589994582600",
			Role:  models.RoleUser,
			Text:  text,
		}))
	}
	require.NoError(t, store.AppendConversationMessage(&models.ConversationMessage{
		Phone: "5588000000000",
		Role:  models.RoleUser,
		Text:  "de outro número",
	}))

	msgs, err := store.GetRecentConversation("5589994582600", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "três", msgs[0].Text, "most recent first")
	assert.Equal(t, "dois", msgs[1].Text)
}

func TestBarbersAndOfferingsFilterInactive(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.CreateBarber(&models.Barber{ShopID: "SHP00001", Name: "Carlos", Active: true})
	require.NoError(t, err)
	_, err = store.CreateBarber(&models.Barber{ShopID: "SHP00001", Name: "Antigo", Active: false})
	require.NoError(t, err)

	barbers, err := store.GetBarbersByShop("SHP00001")
	require.NoError(t, err)
	require.Len(t, barbers, 1)
	assert.Equal(t, "Carlos", barbers[0].Name)

	_, err = store.CreateOffering(&models.Offering{ShopID: "SHP00001", Name: "Corte", Price: 30, Active: true})
	require.NoError(t, err)
	_, err = store.CreateOffering(&models.Offering{ShopID: "SHP00001", Name: "Descontinuado", Price: 10, Active: false})
	require.NoError(t, err)

	offerings, err := store.GetOfferingsByShop("SHP00001")
	require.NoError(t, err)
	require.Len(t, offerings, 1)
	assert.Equal(t, "Corte", offerings[0].Name)
}
