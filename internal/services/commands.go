package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/barberzap/barberzap-backend/internal/models"
	"github.com/barberzap/barberzap-backend/internal/storage"
)

// commandRule pairs a keyword predicate with a report handler. Rules
// are evaluated in order, first match wins, so precedence is declared
// once in the tables below instead of being scattered through code.
type commandRule struct {
	keywords []string
	handler  func(d *CommandDispatcher, sess *Session) string
}

// CommandDispatcher resolves authenticated free text into fixed,
// read-only reports. It is the terminal reply surface when the
// generative layer is off or fails, and its query paths double as the
// grounding source for the generative prompt.
type CommandDispatcher struct {
	store storage.Store
}

// NewCommandDispatcher creates a new command dispatcher
func NewCommandDispatcher(store storage.Store) *CommandDispatcher {
	return &CommandDispatcher{store: store}
}

var clientRules = []commandRule{
	{[]string{"menu", "ajuda"}, func(d *CommandDispatcher, sess *Session) string { return clientMenu() }},
	{[]string{"meus agendamentos", "meus horários", "meus horarios"}, (*CommandDispatcher).clientUpcoming},
	{[]string{"próximo", "proximo"}, (*CommandDispatcher).clientNext},
	{[]string{"histórico", "historico"}, (*CommandDispatcher).clientHistory},
	{[]string{"serviço", "servico", "preço", "preco"}, (*CommandDispatcher).shopServices},
	{[]string{"barbeiro", "equipe"}, (*CommandDispatcher).shopStaff},
	{[]string{"contato", "endereço", "endereco", "telefone"}, (*CommandDispatcher).shopContact},
	{[]string{"cancelar"}, (*CommandDispatcher).clientCancelPrompt},
}

var shopRules = []commandRule{
	{[]string{"menu", "ajuda"}, func(d *CommandDispatcher, sess *Session) string { return shopMenu() }},
	{[]string{"amanhã", "amanha"}, (*CommandDispatcher).shopTomorrow},
	{[]string{"hoje", "agenda"}, (*CommandDispatcher).shopToday},
	{[]string{"semana"}, (*CommandDispatcher).shopWeek},
	{[]string{"cancelamento", "cancelados"}, (*CommandDispatcher).shopCancellations},
	{[]string{"faturamento", "receita"}, (*CommandDispatcher).shopRevenue},
	{[]string{"barbeiro", "equipe"}, (*CommandDispatcher).shopStaff},
	{[]string{"serviço", "servico"}, (*CommandDispatcher).shopServices},
	{[]string{"clientes"}, (*CommandDispatcher).shopRecentClients},
}

// Dispatch matches the normalized text against the rule table for the
// session's role. No match produces the generic menu hint; every
// handler is a pure read.
func (d *CommandDispatcher) Dispatch(sess *Session, normalized string) string {
	var rules []commandRule
	switch sess.ActorType {
	case ActorClient:
		rules = clientRules
	case ActorShop:
		rules = shopRules
	default:
		return roleMenu()
	}

	for _, rule := range rules {
		if matchesAny(normalized, rule.keywords) {
			return rule.handler(d, sess)
		}
	}

	return "🤔 Não reconheci esse comando. Digite *menu* para ver as opções."
}

// Client reports

func (d *CommandDispatcher) clientUpcoming(sess *Session) string {
	now := time.Now()
	appts, err := d.store.GetAppointmentsByClient(sess.Client.ClientID, storage.AppointmentFilter{
		From:     &now,
		Statuses: []string{models.AppointmentScheduled},
	})
	if err != nil {
		return reportError(err)
	}
	if len(appts) == 0 {
		return "📅 Você não tem agendamentos futuros. Fale com a barbearia para marcar um horário!"
	}

	var b strings.Builder
	b.WriteString("📅 *Seus próximos agendamentos:*\n\n")
	for _, appt := range appts {
		fmt.Fprintf(&b, "• %s\n", d.appointmentLine(appt, false))
	}
	return b.String()
}

func (d *CommandDispatcher) clientNext(sess *Session) string {
	now := time.Now()
	appts, err := d.store.GetAppointmentsByClient(sess.Client.ClientID, storage.AppointmentFilter{
		From:     &now,
		Statuses: []string{models.AppointmentScheduled},
	})
	if err != nil {
		return reportError(err)
	}
	if len(appts) == 0 {
		return "📅 Você não tem nenhum horário marcado."
	}
	return fmt.Sprintf("⏭️ Seu próximo horário: %s", d.appointmentLine(appts[0], false))
}

func (d *CommandDispatcher) clientHistory(sess *Session) string {
	now := time.Now()
	appts, err := d.store.GetAppointmentsByClient(sess.Client.ClientID, storage.AppointmentFilter{
		To: &now,
	})
	if err != nil {
		return reportError(err)
	}
	if len(appts) == 0 {
		return "📜 Você ainda não tem histórico por aqui."
	}

	// Most recent first, capped at 10
	var b strings.Builder
	b.WriteString("📜 *Seu histórico:*\n\n")
	count := 0
	for i := len(appts) - 1; i >= 0 && count < 10; i-- {
		fmt.Fprintf(&b, "• %s (%s)\n", d.appointmentLine(appts[i], false), statusLabel(appts[i].Status))
		count++
	}
	return b.String()
}

func (d *CommandDispatcher) clientCancelPrompt(sess *Session) string {
	now := time.Now()
	appts, err := d.store.GetAppointmentsByClient(sess.Client.ClientID, storage.AppointmentFilter{
		From:     &now,
		Statuses: []string{models.AppointmentScheduled},
	})
	if err != nil {
		return reportError(err)
	}
	if len(appts) == 0 {
		return "📅 Você não tem agendamentos futuros para cancelar."
	}
	return fmt.Sprintf("Seu próximo horário é %s.\nPara cancelar, envie *cancelar agendamento*.",
		d.appointmentLine(appts[0], false))
}

// Shop reports

func (d *CommandDispatcher) shopToday(sess *Session) string {
	from, to := dayRange(time.Now())
	return d.shopAgenda(sess.ActiveShopID, "hoje", from, to)
}

func (d *CommandDispatcher) shopTomorrow(sess *Session) string {
	from, to := dayRange(time.Now().AddDate(0, 0, 1))
	return d.shopAgenda(sess.ActiveShopID, "amanhã", from, to)
}

func (d *CommandDispatcher) shopWeek(sess *Session) string {
	from, _ := dayRange(time.Now())
	to := from.AddDate(0, 0, 7)
	return d.shopAgenda(sess.ActiveShopID, "da semana", from, to)
}

func (d *CommandDispatcher) shopAgenda(shopID, label string, from, to time.Time) string {
	appts, err := d.store.GetAppointmentsByShop(shopID, storage.AppointmentFilter{
		From:     &from,
		To:       &to,
		Statuses: []string{models.AppointmentScheduled},
	})
	if err != nil {
		return reportError(err)
	}
	if len(appts) == 0 {
		return fmt.Sprintf("📅 Nenhum agendamento %s.", label)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 *Agenda %s* (%d horário(s)):\n\n", label, len(appts))
	for _, appt := range appts {
		fmt.Fprintf(&b, "• %s\n", d.appointmentLine(appt, true))
	}
	return b.String()
}

func (d *CommandDispatcher) shopCancellations(sess *Session) string {
	to := time.Now()
	from := to.AddDate(0, 0, -7)
	appts, err := d.store.GetAppointmentsByShop(sess.ActiveShopID, storage.AppointmentFilter{
		From:     &from,
		To:       &to,
		Statuses: []string{models.AppointmentCancelled},
	})
	if err != nil {
		return reportError(err)
	}
	if len(appts) == 0 {
		return "✅ Nenhum cancelamento nos últimos 7 dias."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "❌ *Cancelamentos dos últimos 7 dias* (%d):\n\n", len(appts))
	for _, appt := range appts {
		fmt.Fprintf(&b, "• %s\n", d.appointmentLine(appt, true))
	}
	return b.String()
}

func (d *CommandDispatcher) shopRevenue(sess *Session) string {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 1, 0)
	appts, err := d.store.GetAppointmentsByShop(sess.ActiveShopID, storage.AppointmentFilter{
		From:     &from,
		To:       &to,
		Statuses: []string{models.AppointmentScheduled, models.AppointmentDone},
	})
	if err != nil {
		return reportError(err)
	}

	var total float64
	for _, appt := range appts {
		total += appt.Price
	}
	return fmt.Sprintf("💰 *Faturamento de %s:* R$ %.2f em %d agendamento(s).",
		monthName(now.Month()), total, len(appts))
}

func (d *CommandDispatcher) shopStaff(sess *Session) string {
	barbers, err := d.store.GetBarbersByShop(sess.ActiveShopID)
	if err != nil {
		return reportError(err)
	}
	if len(barbers) == 0 {
		return "💈 Nenhum barbeiro cadastrado."
	}

	var b strings.Builder
	b.WriteString("💈 *Equipe:*\n\n")
	for _, barber := range barbers {
		fmt.Fprintf(&b, "• %s\n", barber.Name)
	}
	return b.String()
}

func (d *CommandDispatcher) shopServices(sess *Session) string {
	offerings, err := d.store.GetOfferingsByShop(sess.ActiveShopID)
	if err != nil {
		return reportError(err)
	}
	if len(offerings) == 0 {
		return "✂️ Nenhum serviço cadastrado."
	}

	var b strings.Builder
	b.WriteString("✂️ *Serviços e preços:*\n\n")
	for _, o := range offerings {
		fmt.Fprintf(&b, "• %s - R$ %.2f (%d min)\n", o.Name, o.Price, o.DurationMin)
	}
	return b.String()
}

func (d *CommandDispatcher) shopRecentClients(sess *Session) string {
	clients, err := d.store.GetClientsByShop(sess.ActiveShopID, 10)
	if err != nil {
		return reportError(err)
	}
	if len(clients) == 0 {
		return "👥 Nenhum cliente cadastrado ainda."
	}

	var b strings.Builder
	b.WriteString("👥 *Clientes recentes:*\n\n")
	for _, client := range clients {
		fmt.Fprintf(&b, "• %s\n", client.Name)
	}
	return b.String()
}

func (d *CommandDispatcher) shopContact(sess *Session) string {
	shop, err := d.store.GetShopByID(sess.ActiveShopID)
	if err != nil {
		return reportError(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📞 *%s*\n", shop.Name)
	if shop.Address != "" {
		fmt.Fprintf(&b, "📍 %s", shop.Address)
		if shop.City != "" {
			fmt.Fprintf(&b, " - %s", shop.City)
		}
		b.WriteString("\n")
	}
	if shop.Phone != "" {
		fmt.Fprintf(&b, "☎️ %s\n", shop.Phone)
	}
	if shop.OpeningHours != "" {
		fmt.Fprintf(&b, "🕐 %s\n", shop.OpeningHours)
	}
	return b.String()
}

// appointmentLine renders one appointment for a report. With withClient
// the client's name is included (shop-side reports only).
func (d *CommandDispatcher) appointmentLine(appt *models.Appointment, withClient bool) string {
	line := appt.StartsAt.Format("02/01 15:04")

	if withClient {
		if client, err := d.store.GetClientByID(appt.ClientID); err == nil {
			line += " - " + client.Name
		}
	}
	if appt.OfferingID != "" {
		if offerings, err := d.store.GetOfferingsByShop(appt.ShopID); err == nil {
			for _, o := range offerings {
				if o.OfferingID == appt.OfferingID {
					line += " (" + o.Name + ")"
					break
				}
			}
		}
	}
	return line
}

func dayRange(t time.Time) (time.Time, time.Time) {
	from := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return from, from.AddDate(0, 0, 1)
}

func statusLabel(status string) string {
	switch status {
	case models.AppointmentScheduled:
		return "agendado"
	case models.AppointmentDone:
		return "concluído"
	case models.AppointmentCancelled:
		return "cancelado"
	default:
		return strings.ToLower(status)
	}
}

var monthNames = [...]string{"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro"}

func monthName(m time.Month) string {
	return monthNames[m-1]
}

func reportError(err error) string {
	log.Printf("❌ Report query failed: %v", err)
	return "⚠️ Algo deu errado ao consultar os dados. Tente novamente em instantes."
}
