package routes

import (
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/barberzap/barberzap-backend/internal/handlers"
	"github.com/barberzap/barberzap-backend/internal/middleware"
	"github.com/barberzap/barberzap-backend/internal/services"
	"github.com/barberzap/barberzap-backend/internal/storage"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, store storage.Store, resolver *services.IdentityResolver, whatsappService *services.WhatsAppService, twilioService *services.TwilioService) {
	shopHandler := handlers.NewShopHandler(store, resolver)
	clientHandler := handlers.NewClientHandler(store)
	appointmentHandler := handlers.NewAppointmentHandler(store)
	whatsappHandler := handlers.NewWhatsAppHandler(whatsappService, twilioService)

	// API routes
	api := app.Group("/api")

	// Public shop routes
	shops := api.Group("/shops")
	shops.Post("/register", shopHandler.Register)
	shops.Post("/login", shopHandler.Login)

	// Authenticated shop routes
	me := shops.Group("/me", middleware.RequireShopAuth())
	me.Get("/", shopHandler.Get)
	me.Post("/barbers", shopHandler.CreateBarber)
	me.Get("/barbers", shopHandler.ListBarbers)
	me.Post("/services", shopHandler.CreateOffering)
	me.Get("/services", shopHandler.ListOfferings)
	me.Post("/clients", clientHandler.Create)
	me.Get("/clients", clientHandler.List)
	me.Post("/appointments", appointmentHandler.Create)
	me.Get("/appointments", appointmentHandler.List)
	me.Put("/appointments/:id/cancel", appointmentHandler.Cancel)

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")

	// WhatsApp webhook - signature validation is skipped in development
	// so tools like ngrok can hit it directly
	if os.Getenv("ENVIRONMENT") == "development" || os.Getenv("DISABLE_WEBHOOK_VALIDATION") == "true" {
		webhooks.Post("/whatsapp", whatsappHandler.HandleWebhook)
	} else {
		webhooks.Post("/whatsapp", middleware.ValidateTwilioSignature(), whatsappHandler.HandleWebhook)
	}

	// Test WhatsApp endpoint (for development)
	app.Post("/test/whatsapp", whatsappHandler.HandleTestWebhook)
}
