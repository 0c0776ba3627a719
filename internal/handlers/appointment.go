package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/barberzap/barberzap-backend/internal/models"
	"github.com/barberzap/barberzap-backend/internal/storage"
)

// AppointmentHandler handles appointment REST endpoints
type AppointmentHandler struct {
	store storage.Store
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(store storage.Store) *AppointmentHandler {
	return &AppointmentHandler{store: store}
}

// Create books an appointment for the authenticated shop
func (h *AppointmentHandler) Create(c *fiber.Ctx) error {
	shopID, _ := c.Locals("shop_id").(string)

	var req models.AppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if req.ClientID == "" || req.StartsAt.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "client_id and starts_at are required"})
	}

	// The client must belong to this shop
	client, err := h.store.GetClientByID(req.ClientID)
	if err != nil || client.ShopID != shopID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "client not found"})
	}

	var price float64
	if req.OfferingID != "" {
		offerings, err := h.store.GetOfferingsByShop(shopID)
		if err == nil {
			for _, o := range offerings {
				if o.OfferingID == req.OfferingID {
					price = o.Price
					break
				}
			}
		}
	}

	appt, err := h.store.CreateAppointment(&models.Appointment{
		ShopID:     shopID,
		ClientID:   req.ClientID,
		BarberID:   req.BarberID,
		OfferingID: req.OfferingID,
		StartsAt:   req.StartsAt,
		Price:      price,
		Notes:      req.Notes,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(appt)
}

// List returns the authenticated shop's appointments, optionally
// bounded by from/to query params (RFC 3339) and status.
func (h *AppointmentHandler) List(c *fiber.Ctx) error {
	shopID, _ := c.Locals("shop_id").(string)

	var filter storage.AppointmentFilter
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filter.From = &t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filter.To = &t
		}
	}
	if status := c.Query("status"); status != "" {
		filter.Statuses = []string{status}
	}

	appts, err := h.store.GetAppointmentsByShop(shopID, filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(appts)
}

// Cancel marks one of the authenticated shop's appointments CANCELADO
func (h *AppointmentHandler) Cancel(c *fiber.Ctx) error {
	shopID, _ := c.Locals("shop_id").(string)
	appointmentID := c.Params("id")

	appt, err := h.store.GetAppointment(appointmentID)
	if err != nil || appt.ShopID != shopID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "appointment not found"})
	}

	if err := h.store.UpdateAppointmentStatus(appointmentID, models.AppointmentCancelled); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": models.AppointmentCancelled})
}
