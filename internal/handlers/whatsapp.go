package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/barberzap/barberzap-backend/internal/services"
)

// WhatsAppHandler handles WhatsApp webhook requests
type WhatsAppHandler struct {
	whatsappService *services.WhatsAppService
	twilioService   *services.TwilioService
}

// NewWhatsAppHandler creates a new WhatsApp handler
func NewWhatsAppHandler(whatsappService *services.WhatsAppService, twilioService *services.TwilioService) *WhatsAppHandler {
	return &WhatsAppHandler{
		whatsappService: whatsappService,
		twilioService:   twilioService,
	}
}

// TwilioWebhookPayload represents an incoming WhatsApp message from Twilio
type TwilioWebhookPayload struct {
	MessageSid          string `form:"MessageSid"`
	AccountSid          string `form:"AccountSid"`
	MessagingServiceSid string `form:"MessagingServiceSid"`
	From                string `form:"From"` // WhatsApp number (whatsapp:+5589994582600)
	To                  string `form:"To"`
	Body                string `form:"Body"` // Message text
	NumMedia            string `form:"NumMedia"`
}

// HandleWebhook processes incoming WhatsApp messages
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload

	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	// Process only incoming text messages, not status callbacks
	if payload.Body != "" && payload.From != "" {
		response, err := h.whatsappService.ProcessMessage(c.Context(), payload.From, payload.Body)
		if err != nil {
			log.Printf("Error processing message: %v", err)
			response = "⚠️ Algo deu errado por aqui. Tente novamente em instantes."
		}

		if h.twilioService != nil && response != "" {
			if err := h.twilioService.SendWhatsAppMessage(payload.From, response); err != nil {
				// Not connected is a non-fatal outcome; the webhook
				// still acknowledges receipt.
				log.Printf("❌ Failed to send WhatsApp response: %v", err)
			}
		} else if response != "" {
			log.Printf("📤 Response (not sent - Twilio not configured): %s", response)
		}
	}

	return c.SendStatus(fiber.StatusOK)
}

// TestWebhookPayload is the JSON shape for testing without Twilio
type TestWebhookPayload struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// HandleTestWebhook processes test WhatsApp messages (for development)
func (h *WhatsAppHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload

	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid test payload",
		})
	}

	log.Printf("🧪 Test webhook received from %s: %s", payload.From, payload.Message)

	response, err := h.whatsappService.ProcessMessage(c.Context(), payload.From, payload.Message)
	if err != nil {
		log.Printf("Error processing message: %v", err)
		response = "⚠️ Algo deu errado por aqui. Tente novamente em instantes."
	}

	return c.JSON(fiber.Map{
		"from":     payload.From,
		"response": response,
	})
}
