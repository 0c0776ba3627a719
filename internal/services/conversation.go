package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/barberzap/barberzap-backend/internal/models"
	"github.com/barberzap/barberzap-backend/internal/storage"
)

// Responder is the generative fallback surface. Respond returns an
// empty string when it is disabled or has nothing to say, in which case
// the caller falls back to the deterministic path. It never mutates
// appointment data.
type Responder interface {
	Respond(ctx context.Context, phoneKey, text string, sess *Session) (string, error)
}

// Logout keywords preempt every other handler on authenticated
// sessions. Substring match against the lower-cased message.
var logoutKeywords = []string{
	"trocar conta", "trocar de conta", "mudar conta", "mudar de conta",
	"sair", "logout", "deslogar", "fazer logout",
	"nova conta", "outra conta", "conta diferente", "login diferente",
}

var greetingKeywords = []string{
	"oi", "olá", "ola", "bom dia", "boa tarde", "boa noite",
	"menu", "começar", "comecar", "iniciar", "hello", "hi",
}

var (
	emailRegex    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	digitRunRegex = regexp.MustCompile(`[0-9]{8,13}`)
	separators    = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "", "+", "")
)

// ConversationEngine consumes one inbound message plus the current
// session and produces a reply, mutating the session through the
// session store. The same engine serves both chat modes: with a
// Responder wired in it is the AI surface; with fallback nil the
// deterministic dispatcher is the terminal step.
type ConversationEngine struct {
	store    storage.Store
	sessions *SessionStore
	resolver *IdentityResolver
	dispatch *CommandDispatcher
	fallback Responder
}

// NewConversationEngine creates the conversation engine
func NewConversationEngine(store storage.Store, sessions *SessionStore, resolver *IdentityResolver, dispatch *CommandDispatcher, fallback Responder) *ConversationEngine {
	return &ConversationEngine{
		store:    store,
		sessions: sessions,
		resolver: resolver,
		dispatch: dispatch,
		fallback: fallback,
	}
}

// HandleMessage processes one inbound message for the phone key and
// returns the reply text. A panic in any state handler is contained to
// this message: the session falls back to the main menu and other
// phone numbers are unaffected.
func (e *ConversationEngine) HandleMessage(ctx context.Context, phoneKey, raw string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Panic handling message from %s: %v", phoneKey, r)
			e.sessions.Logout(phoneKey)
			reply = "⚠️ Algo deu errado por aqui. Vamos recomeçar.\n\n" + roleMenu()
		}
	}()

	sess := e.sessions.GetOrCreate(phoneKey)
	text := strings.TrimSpace(raw)
	normalized := strings.ToLower(text)

	// Logout preempts every state handler where it is reachable
	if sess.Authenticated && matchesAny(normalized, logoutKeywords) {
		e.sessions.Logout(phoneKey)
		return "👋 Você saiu da sua conta. Até a próxima!\n\n" + roleMenu()
	}

	switch sess.State {
	case StateInitial:
		return e.handleInitial(ctx, sess, text, normalized)
	case StateLoginTypeSelection:
		return e.handleLoginTypeSelection(sess, normalized)
	case StateLoginClientPhone:
		return e.handleLoginClientPhone(sess, text)
	case StateLoginClientName:
		return e.handleLoginClientName(sess, text)
	case StateLoginClientShopSelection:
		return e.handleLoginClientShopSelection(sess, normalized)
	case StateLoginShopEmail:
		return e.handleLoginShopEmail(sess, normalized)
	case StateLoginShopPassword:
		return e.handleLoginShopPassword(sess, text)
	case StateAuthenticated:
		return e.handleAuthenticated(ctx, sess, text, normalized)
	case StateCancellingAppointment:
		return e.handleCancelling(sess, normalized)
	default:
		// Impossible state: reset rather than crash message processing
		log.Printf("⚠️  Session %s in unknown state %q, resetting", phoneKey, sess.State)
		e.sessions.Logout(sess.PhoneKey)
		return roleMenu()
	}
}

func (e *ConversationEngine) handleInitial(ctx context.Context, sess *Session, text, normalized string) string {
	if matchesAny(normalized, greetingKeywords) || e.fallback == nil {
		e.sessions.SetState(sess.PhoneKey, StateLoginTypeSelection)
		return roleMenu()
	}

	// Non-greeting text goes to the generative fallback with zero
	// account grounding (the session is unauthenticated); the session
	// stays in initial.
	resp, err := e.fallback.Respond(ctx, sess.PhoneKey, text, sess)
	if err != nil {
		log.Printf("⚠️  Fallback failed for %s: %v", sess.PhoneKey, err)
	}
	if resp == "" {
		e.sessions.SetState(sess.PhoneKey, StateLoginTypeSelection)
		return roleMenu()
	}
	return resp
}

func (e *ConversationEngine) handleLoginTypeSelection(sess *Session, normalized string) string {
	switch {
	case strings.Contains(normalized, "1") || strings.Contains(normalized, "cliente"):
		e.sessions.SetActorType(sess.PhoneKey, ActorClient)
		e.sessions.SetState(sess.PhoneKey, StateLoginClientPhone)
		return "📱 Para acessar seus agendamentos, me informe o número de telefone cadastrado na barbearia (com DDD):"

	case strings.Contains(normalized, "2") || strings.Contains(normalized, "barbearia"):
		e.sessions.SetActorType(sess.PhoneKey, ActorShop)
		e.sessions.SetState(sess.PhoneKey, StateLoginShopEmail)
		return "📧 Informe o e-mail de acesso da barbearia:"

	case strings.Contains(normalized, "3") || strings.Contains(normalized, "barbeiro"):
		return "💈 O acesso para barbeiros ainda não está disponível. Escolha *1* (cliente) ou *2* (barbearia)."

	default:
		return "Não entendi. 🤔\n\n" + roleMenu()
	}
}

func (e *ConversationEngine) handleLoginClientPhone(sess *Session, text string) string {
	digits := digitRunRegex.FindString(separators.Replace(text))
	if digits == "" {
		return "❌ Número inválido. Envie seu telefone com DDD, por exemplo: *89 99458-2600*"
	}

	e.sessions.SetPending(sess.PhoneKey, "phone", digits)
	e.sessions.SetState(sess.PhoneKey, StateLoginClientName)
	return "✍️ Agora me diga seu nome (como foi cadastrado na barbearia):"
}

func (e *ConversationEngine) handleLoginClientName(sess *Session, text string) string {
	name := strings.TrimSpace(text)
	if len([]rune(name)) < 2 {
		return "❌ Nome muito curto. Digite seu nome completo, por favor:"
	}

	phone, _ := e.sessions.GetPending(sess.PhoneKey, "phone")
	rawPhone, _ := phone.(string)

	matches, err := e.resolver.FindShopsForClient(rawPhone, name)
	if err != nil {
		log.Printf("❌ Client lookup failed for %s: %v", sess.PhoneKey, err)
		return "⚠️ Algo deu errado ao buscar seu cadastro. Tente novamente em instantes."
	}

	switch len(matches) {
	case 0:
		e.sessions.IncrementLoginAttempts(sess.PhoneKey)
		return "😕 Não encontrei nenhum cadastro com esse telefone e nome.\n" +
			"Confira os dados e envie o nome novamente, ou digite *menu* para recomeçar."

	case 1:
		match := matches[0]
		e.sessions.LoginAsClient(sess.PhoneKey, match.Client, match.Shop.ShopID)
		return clientWelcome(match.Client, match.Shop)

	default:
		e.sessions.SetPending(sess.PhoneKey, "shops", matches)
		e.sessions.SetPending(sess.PhoneKey, "name", name)
		e.sessions.SetState(sess.PhoneKey, StateLoginClientShopSelection)

		var b strings.Builder
		b.WriteString("🏪 Encontrei seu cadastro em mais de uma barbearia. Qual delas você quer acessar?\n\n")
		for i, m := range matches {
			fmt.Fprintf(&b, "*%d* - %s\n", i+1, m.Shop.Name)
		}
		b.WriteString("\nResponda com o número da opção.")
		return b.String()
	}
}

func (e *ConversationEngine) handleLoginClientShopSelection(sess *Session, normalized string) string {
	pending, _ := e.sessions.GetPending(sess.PhoneKey, "shops")
	matches, ok := pending.([]ShopMatch)
	if !ok || len(matches) == 0 {
		// Scratchpad corrupted: restart the funnel instead of crashing
		log.Printf("⚠️  Missing shop candidates for %s, restarting login", sess.PhoneKey)
		e.sessions.Logout(sess.PhoneKey)
		return roleMenu()
	}

	n, err := strconv.Atoi(strings.TrimSpace(normalized))
	if err != nil || n < 1 || n > len(matches) {
		return fmt.Sprintf("❌ Opção inválida. Responda com um número entre 1 e %d.", len(matches))
	}

	match := matches[n-1]
	e.sessions.LoginAsClient(sess.PhoneKey, match.Client, match.Shop.ShopID)
	return clientWelcome(match.Client, match.Shop)
}

func (e *ConversationEngine) handleLoginShopEmail(sess *Session, normalized string) string {
	email := strings.TrimSpace(normalized)
	if !emailRegex.MatchString(email) {
		return "❌ E-mail inválido. Envie no formato *nome@exemplo.com*:"
	}

	e.sessions.SetPending(sess.PhoneKey, "email", email)
	e.sessions.SetState(sess.PhoneKey, StateLoginShopPassword)
	return "🔑 Agora informe a senha de acesso:"
}

func (e *ConversationEngine) handleLoginShopPassword(sess *Session, text string) string {
	pending, _ := e.sessions.GetPending(sess.PhoneKey, "email")
	email, _ := pending.(string)
	password := strings.TrimSpace(text)

	shop, err := e.resolver.AuthenticateShop(email, password)
	if err != nil {
		e.sessions.IncrementLoginAttempts(sess.PhoneKey)
		if err == ErrInactiveAccount {
			return "🚫 Esta conta está desativada. Entre em contato com o suporte."
		}
		return "❌ E-mail ou senha incorretos. Tente a senha novamente, ou digite *menu* para recomeçar."
	}

	e.sessions.LoginAsShop(sess.PhoneKey, shop)
	return shopWelcome(shop)
}

func (e *ConversationEngine) handleAuthenticated(ctx context.Context, sess *Session, text, normalized string) string {
	switch {
	case strings.Contains(normalized, "cancelar") && strings.Contains(normalized, "agendamento"):
		return e.startCancellation(sess)

	case strings.Contains(normalized, "reagendar") || strings.Contains(normalized, "remarcar"):
		return "🔁 Reagendamento ainda não está disponível por aqui. " +
			"Você pode *cancelar agendamento* e marcar um novo horário, ou falar direto com a barbearia."
	}

	// Free text: the generative layer answers with DB-grounded context;
	// if it is off or fails, the deterministic dispatcher takes over.
	if e.fallback != nil {
		resp, err := e.fallback.Respond(ctx, sess.PhoneKey, text, sess)
		if err != nil {
			log.Printf("⚠️  Fallback failed for %s: %v", sess.PhoneKey, err)
		}
		if resp != "" {
			return resp
		}
	}

	return e.dispatch.Dispatch(sess, normalized)
}

func (e *ConversationEngine) startCancellation(sess *Session) string {
	if sess.ActorType != ActorClient || sess.Client == nil {
		return "💈 O cancelamento por aqui é só para clientes. " +
			"Para cancelar um horário da agenda, use o painel da barbearia."
	}

	now := time.Now()
	appts, err := e.store.GetAppointmentsByClient(sess.Client.ClientID, storage.AppointmentFilter{
		From:     &now,
		Statuses: []string{models.AppointmentScheduled},
	})
	if err != nil {
		log.Printf("❌ Failed to list appointments for %s: %v", sess.Client.ClientID, err)
		return "⚠️ Algo deu errado ao buscar seus agendamentos. Tente novamente em instantes."
	}

	var cancellable []*models.Appointment
	for _, appt := range appts {
		if appt.IsCancellable(now) {
			cancellable = append(cancellable, appt)
		}
	}

	if len(cancellable) == 0 {
		return "📅 Você não tem nenhum agendamento futuro para cancelar."
	}

	e.sessions.SetPending(sess.PhoneKey, "cancellable", cancellable)
	e.sessions.SetState(sess.PhoneKey, StateCancellingAppointment)

	var b strings.Builder
	b.WriteString("🗓️ Qual agendamento você quer cancelar?\n\n")
	for i, appt := range cancellable {
		fmt.Fprintf(&b, "*%d* - %s\n", i+1, e.describeAppointment(appt))
	}
	b.WriteString("\nResponda com o número da opção.")
	return b.String()
}

func (e *ConversationEngine) handleCancelling(sess *Session, normalized string) string {
	pending, _ := e.sessions.GetPending(sess.PhoneKey, "cancellable")
	appts, ok := pending.([]*models.Appointment)
	if !ok || len(appts) == 0 {
		log.Printf("⚠️  Missing cancellation candidates for %s, back to menu", sess.PhoneKey)
		e.sessions.ClearPending(sess.PhoneKey)
		e.sessions.SetState(sess.PhoneKey, StateAuthenticated)
		return clientMenu()
	}

	n, err := strconv.Atoi(strings.TrimSpace(normalized))
	if err != nil || n < 1 || n > len(appts) {
		return fmt.Sprintf("❌ Opção inválida. Responda com um número entre 1 e %d.", len(appts))
	}

	appt := appts[n-1]
	// The candidate list is already scoped to the session's client, but
	// the mutation re-checks ownership before touching the row.
	if sess.Client == nil || appt.ClientID != sess.Client.ClientID {
		log.Printf("🚫 Refused cancellation of %s: not owned by session %s", appt.AppointmentID, sess.PhoneKey)
		e.sessions.ClearPending(sess.PhoneKey)
		e.sessions.SetState(sess.PhoneKey, StateAuthenticated)
		return "⚠️ Esse agendamento não pertence à sua conta."
	}

	if err := e.store.UpdateAppointmentStatus(appt.AppointmentID, models.AppointmentCancelled); err != nil {
		log.Printf("❌ Failed to cancel %s: %v", appt.AppointmentID, err)
		return "⚠️ Algo deu errado ao cancelar. Tente novamente em instantes."
	}

	e.sessions.ClearPending(sess.PhoneKey)
	e.sessions.SetState(sess.PhoneKey, StateAuthenticated)
	return fmt.Sprintf("✅ Agendamento de %s cancelado com sucesso!\n\nPrecisa de mais alguma coisa? Digite *menu* para ver as opções.",
		appt.StartsAt.Format("02/01 às 15:04"))
}

func (e *ConversationEngine) describeAppointment(appt *models.Appointment) string {
	desc := appt.StartsAt.Format("02/01/2006 15:04")
	if appt.OfferingID != "" {
		if offerings, err := e.store.GetOfferingsByShop(appt.ShopID); err == nil {
			for _, o := range offerings {
				if o.OfferingID == appt.OfferingID {
					desc += " - " + o.Name
					break
				}
			}
		}
	}
	return desc
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func roleMenu() string {
	return "💈 *Bem-vindo ao BarberZap!*\n\n" +
		"Para começar, me diga quem você é:\n\n" +
		"*1* - Cliente (ver e cancelar agendamentos)\n" +
		"*2* - Barbearia (acompanhar a agenda)\n" +
		"*3* - Barbeiro\n\n" +
		"Responda com o número da opção."
}

func clientWelcome(client *models.Client, shop *models.Shop) string {
	return fmt.Sprintf("✅ Olá, %s! Você está conectado à *%s*.\n\n%s",
		firstName(client.Name), shop.Name, clientMenu())
}

func shopWelcome(shop *models.Shop) string {
	return fmt.Sprintf("✅ Bem-vindo de volta, *%s*!\n\n%s", shop.Name, shopMenu())
}

func clientMenu() string {
	return "O que você quer fazer?\n\n" +
		"📅 *meus agendamentos* - próximos horários\n" +
		"⏭️ *próximo* - seu próximo horário\n" +
		"📜 *histórico* - horários anteriores\n" +
		"💰 *serviços* - serviços e preços\n" +
		"💈 *barbeiros* - equipe da barbearia\n" +
		"📞 *contato* - endereço e telefone\n" +
		"❌ *cancelar agendamento*\n" +
		"🚪 *sair* - trocar de conta"
}

func shopMenu() string {
	return "O que você quer ver?\n\n" +
		"📅 *hoje* - agenda de hoje\n" +
		"🌅 *amanhã* - agenda de amanhã\n" +
		"🗓️ *semana* - agenda da semana\n" +
		"❌ *cancelamentos* - cancelados nos últimos 7 dias\n" +
		"💰 *faturamento* - receita do mês\n" +
		"💈 *barbeiros* - sua equipe\n" +
		"✂️ *serviços* - seu catálogo\n" +
		"👥 *clientes* - clientes recentes\n" +
		"🚪 *sair* - trocar de conta"
}

func firstName(full string) string {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return full
	}
	return parts[0]
}
