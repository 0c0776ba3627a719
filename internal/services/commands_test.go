package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barberzap/barberzap-backend/internal/models"
	"github.com/barberzap/barberzap-backend/internal/storage"
)

type dispatchFixture struct {
	store    *storage.MemoryStore
	dispatch *CommandDispatcher
	shop     *models.Shop
	client   *models.Client
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()
	store := storage.NewMemoryStore()

	shop, err := store.CreateShop(&models.Shop{
		Name:         "Barbearia Central",
		Email:        "central@barber.com",
		Active:       true,
		Phone:        "8933334444",
		Address:      "Rua das Tesouras, 10",
		City:         "Picos",
		OpeningHours: "Seg a Sáb, 9h às 19h",
	})
	require.NoError(t, err)

	client, err := store.CreateClient(&models.Client{ShopID: shop.ShopID, Name: "João da Silva", Phone: "89994582600"})
	require.NoError(t, err)

	_, err = store.CreateBarber(&models.Barber{ShopID: shop.ShopID, Name: "Carlos Tesoura", Active: true})
	require.NoError(t, err)
	_, err = store.CreateOffering(&models.Offering{ShopID: shop.ShopID, Name: "Corte Degradê", Price: 35, DurationMin: 40, Active: true})
	require.NoError(t, err)

	return &dispatchFixture{
		store:    store,
		dispatch: NewCommandDispatcher(store),
		shop:     shop,
		client:   client,
	}
}

func (f *dispatchFixture) clientSession() *Session {
	return &Session{
		PhoneKey:      "5589994582600",
		ActorType:     ActorClient,
		Authenticated: true,
		Client:        f.client,
		ActiveShopID:  f.shop.ShopID,
		State:         StateAuthenticated,
	}
}

func (f *dispatchFixture) shopSession() *Session {
	return &Session{
		PhoneKey:      "5589900000000",
		ActorType:     ActorShop,
		Authenticated: true,
		Shop:          f.shop,
		ActiveShopID:  f.shop.ShopID,
		State:         StateAuthenticated,
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	f := newDispatchFixture(t)

	reply := f.dispatch.Dispatch(f.clientSession(), "xyzabc")
	assert.Contains(t, reply, "Não reconheci esse comando")
}

func TestDispatchUnauthenticatedRoleGetsRoleMenu(t *testing.T) {
	f := newDispatchFixture(t)

	reply := f.dispatch.Dispatch(&Session{ActorType: ActorNone}, "menu")
	assert.Contains(t, reply, "Bem-vindo ao BarberZap")
}

func TestDispatchRulesAreRoleScoped(t *testing.T) {
	f := newDispatchFixture(t)

	// "faturamento" is a shop command; for a client it is unrecognized
	reply := f.dispatch.Dispatch(f.clientSession(), "faturamento")
	assert.Contains(t, reply, "Não reconheci esse comando")

	reply = f.dispatch.Dispatch(f.shopSession(), "faturamento")
	assert.Contains(t, reply, "Faturamento")
}

func TestDispatchMenuTakesPrecedence(t *testing.T) {
	f := newDispatchFixture(t)

	// "menu" wins even when the text also mentions another keyword
	reply := f.dispatch.Dispatch(f.clientSession(), "menu de serviços")
	assert.Contains(t, reply, "O que você quer fazer?")
}

func TestClientUpcomingAndNext(t *testing.T) {
	f := newDispatchFixture(t)
	now := time.Now()

	_, err := f.store.CreateAppointment(&models.Appointment{
		ShopID: f.shop.ShopID, ClientID: f.client.ClientID, StartsAt: now.Add(72 * time.Hour), Price: 35,
	})
	require.NoError(t, err)
	_, err = f.store.CreateAppointment(&models.Appointment{
		ShopID: f.shop.ShopID, ClientID: f.client.ClientID, StartsAt: now.Add(24 * time.Hour), Price: 35,
	})
	require.NoError(t, err)
	// Past appointment must not show up
	_, err = f.store.CreateAppointment(&models.Appointment{
		ShopID: f.shop.ShopID, ClientID: f.client.ClientID, StartsAt: now.Add(-24 * time.Hour), Status: models.AppointmentDone,
	})
	require.NoError(t, err)

	reply := f.dispatch.Dispatch(f.clientSession(), "meus agendamentos")
	assert.Contains(t, reply, "Seus próximos agendamentos")
	assert.Equal(t, 2, strings.Count(reply, "•"))

	// "próximo" reports the soonest one
	next := f.dispatch.Dispatch(f.clientSession(), "próximo")
	assert.Contains(t, next, now.Add(24*time.Hour).Format("02/01 15:04"))
}

func TestClientHistoryMostRecentFirst(t *testing.T) {
	f := newDispatchFixture(t)
	now := time.Now()

	older, err := f.store.CreateAppointment(&models.Appointment{
		ShopID: f.shop.ShopID, ClientID: f.client.ClientID, StartsAt: now.Add(-10 * 24 * time.Hour), Status: models.AppointmentDone,
	})
	require.NoError(t, err)
	newer, err := f.store.CreateAppointment(&models.Appointment{
		ShopID: f.shop.ShopID, ClientID: f.client.ClientID, StartsAt: now.Add(-2 * 24 * time.Hour), Status: models.AppointmentCancelled,
	})
	require.NoError(t, err)

	reply := f.dispatch.Dispatch(f.clientSession(), "histórico")
	newerAt := strings.Index(reply, newer.StartsAt.Format("02/01 15:04"))
	olderAt := strings.Index(reply, older.StartsAt.Format("02/01 15:04"))
	require.GreaterOrEqual(t, newerAt, 0)
	require.GreaterOrEqual(t, olderAt, 0)
	assert.Less(t, newerAt, olderAt)
	assert.Contains(t, reply, "cancelado")
	assert.Contains(t, reply, "concluído")
}

func TestShopAgendaReports(t *testing.T) {
	f := newDispatchFixture(t)
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 14, 0, 0, 0, now.Location())
	tomorrow := today.AddDate(0, 0, 1)

	_, err := f.store.CreateAppointment(&models.Appointment{
		ShopID: f.shop.ShopID, ClientID: f.client.ClientID, StartsAt: today, Price: 35,
	})
	require.NoError(t, err)
	_, err = f.store.CreateAppointment(&models.Appointment{
		ShopID: f.shop.ShopID, ClientID: f.client.ClientID, StartsAt: tomorrow, Price: 35,
	})
	require.NoError(t, err)

	reply := f.dispatch.Dispatch(f.shopSession(), "hoje")
	assert.Contains(t, reply, "1 horário(s)")
	assert.Contains(t, reply, "João da Silva", "shop reports include the client name")

	reply = f.dispatch.Dispatch(f.shopSession(), "amanhã")
	assert.Contains(t, reply, "1 horário(s)")

	reply = f.dispatch.Dispatch(f.shopSession(), "semana")
	assert.Contains(t, reply, "2 horário(s)")
}

func TestShopRevenueSumsCurrentMonth(t *testing.T) {
	f := newDispatchFixture(t)
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	_, err := f.store.CreateAppointment(&models.Appointment{
		ShopID: f.shop.ShopID, ClientID: f.client.ClientID,
		StartsAt: monthStart.Add(10 * time.Hour), Price: 35, Status: models.AppointmentDone,
	})
	require.NoError(t, err)
	_, err = f.store.CreateAppointment(&models.Appointment{
		ShopID: f.shop.ShopID, ClientID: f.client.ClientID,
		StartsAt: monthStart.Add(34 * time.Hour), Price: 50, Status: models.AppointmentScheduled,
	})
	require.NoError(t, err)
	// Cancelled appointments never count as revenue
	_, err = f.store.CreateAppointment(&models.Appointment{
		ShopID: f.shop.ShopID, ClientID: f.client.ClientID,
		StartsAt: monthStart.Add(58 * time.Hour), Price: 100, Status: models.AppointmentCancelled,
	})
	require.NoError(t, err)
	// Previous month is out of the window
	_, err = f.store.CreateAppointment(&models.Appointment{
		ShopID: f.shop.ShopID, ClientID: f.client.ClientID,
		StartsAt: monthStart.AddDate(0, -1, 0), Price: 100, Status: models.AppointmentDone,
	})
	require.NoError(t, err)

	reply := f.dispatch.Dispatch(f.shopSession(), "faturamento")
	assert.Contains(t, reply, "R$ 85.00")
	assert.Contains(t, reply, "2 agendamento(s)")
}

func TestShopCancellationsLastSevenDays(t *testing.T) {
	f := newDispatchFixture(t)
	now := time.Now()

	_, err := f.store.CreateAppointment(&models.Appointment{
		ShopID: f.shop.ShopID, ClientID: f.client.ClientID,
		StartsAt: now.Add(-2 * 24 * time.Hour), Status: models.AppointmentCancelled,
	})
	require.NoError(t, err)
	// Too old to be listed
	_, err = f.store.CreateAppointment(&models.Appointment{
		ShopID: f.shop.ShopID, ClientID: f.client.ClientID,
		StartsAt: now.Add(-20 * 24 * time.Hour), Status: models.AppointmentCancelled,
	})
	require.NoError(t, err)

	reply := f.dispatch.Dispatch(f.shopSession(), "cancelamentos")
	assert.Contains(t, reply, "(1)")
}

func TestStaffServicesAndContactReports(t *testing.T) {
	f := newDispatchFixture(t)

	reply := f.dispatch.Dispatch(f.clientSession(), "barbeiros")
	assert.Contains(t, reply, "Carlos Tesoura")

	reply = f.dispatch.Dispatch(f.clientSession(), "serviços")
	assert.Contains(t, reply, "Corte Degradê")
	assert.Contains(t, reply, "R$ 35.00")
	assert.Contains(t, reply, "40 min")

	reply = f.dispatch.Dispatch(f.clientSession(), "contato")
	assert.Contains(t, reply, "Rua das Tesouras, 10")
	assert.Contains(t, reply, "Picos")
	assert.Contains(t, reply, "8933334444")
	assert.Contains(t, reply, "Seg a Sáb, 9h às 19h")
}

func TestShopRecentClients(t *testing.T) {
	f := newDispatchFixture(t)

	reply := f.dispatch.Dispatch(f.shopSession(), "clientes")
	assert.Contains(t, reply, "João da Silva")
}
