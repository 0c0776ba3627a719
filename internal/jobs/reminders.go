package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/barberzap/barberzap-backend/internal/models"
	"github.com/barberzap/barberzap-backend/internal/storage"
)

// MessageSender delivers one outbound WhatsApp message. Satisfied by
// services.TwilioService.
type MessageSender interface {
	SendWhatsAppMessage(to, message string) error
}

// ReminderJob sends next-day appointment reminders to clients over
// WhatsApp every evening.
type ReminderJob struct {
	store  storage.Store
	sender MessageSender
	cron   *cron.Cron
}

// NewReminderJob creates a new reminder job scheduler
func NewReminderJob(store storage.Store, sender MessageSender) *ReminderJob {
	return &ReminderJob{
		store:  store,
		sender: sender,
		cron:   cron.New(),
	}
}

// Start schedules the daily reminder run at 18:00
func (r *ReminderJob) Start() error {
	_, err := r.cron.AddFunc("0 18 * * *", r.sendTomorrowReminders)
	if err != nil {
		return fmt.Errorf("failed to schedule reminder job: %w", err)
	}
	r.cron.Start()
	log.Println("✅ Appointment reminder job scheduled (daily 18:00)")
	return nil
}

// Stop halts the scheduler
func (r *ReminderJob) Stop() {
	r.cron.Stop()
	log.Println("⏹️  Appointment reminder job stopped")
}

// sendTomorrowReminders messages every client with a scheduled
// appointment tomorrow. Send failures are logged and skipped; one bad
// number never stops the batch.
func (r *ReminderJob) sendTomorrowReminders() {
	if r.sender == nil {
		log.Println("⚠️  Skipping reminders - Twilio not configured")
		return
	}

	tomorrow := time.Now().AddDate(0, 0, 1)
	from := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, tomorrow.Location())
	to := from.AddDate(0, 0, 1)

	shops, err := r.store.GetAllShops()
	if err != nil {
		log.Printf("❌ Reminder job failed to list shops: %v", err)
		return
	}

	sent := 0
	for _, shop := range shops {
		appts, err := r.store.GetAppointmentsByShop(shop.ShopID, storage.AppointmentFilter{
			From:     &from,
			To:       &to,
			Statuses: []string{models.AppointmentScheduled},
		})
		if err != nil {
			log.Printf("❌ Reminder job failed for shop %s: %v", shop.ShopID, err)
			continue
		}

		for _, appt := range appts {
			client, err := r.store.GetClientByID(appt.ClientID)
			if err != nil || client.Phone == "" {
				continue
			}

			message := fmt.Sprintf("⏰ Olá, %s! Lembrete: você tem horário amanhã às %s na *%s*.\n"+
				"Se precisar cancelar, responda *cancelar agendamento*.",
				client.Name, appt.StartsAt.Format("15:04"), shop.Name)

			if err := r.sender.SendWhatsAppMessage(client.Phone, message); err != nil {
				log.Printf("❌ Failed to remind %s: %v", client.ClientID, err)
				continue
			}
			sent++
		}
	}

	log.Printf("📤 Reminder job done: %d message(s) sent", sent)
}
