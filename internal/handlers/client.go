package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/barberzap/barberzap-backend/internal/models"
	"github.com/barberzap/barberzap-backend/internal/services"
	"github.com/barberzap/barberzap-backend/internal/storage"
)

// ClientHandler handles client REST endpoints
type ClientHandler struct {
	store storage.Store
}

// NewClientHandler creates a new client handler
func NewClientHandler(store storage.Store) *ClientHandler {
	return &ClientHandler{store: store}
}

// Create registers a new client for the authenticated shop
func (h *ClientHandler) Create(c *fiber.Ctx) error {
	shopID, _ := c.Locals("shop_id").(string)

	var reg models.ClientRegistration
	if err := c.BodyParser(&reg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if reg.Name == "" || reg.Phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name and phone are required"})
	}

	client, err := h.store.CreateClient(&models.Client{
		ShopID: shopID,
		Name:   reg.Name,
		Phone:  services.NormalizePhoneKey(reg.Phone),
		Email:  reg.Email,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(client)
}

// List returns the authenticated shop's clients
func (h *ClientHandler) List(c *fiber.Ctx) error {
	shopID, _ := c.Locals("shop_id").(string)
	clients, err := h.store.GetClientsByShop(shopID, c.QueryInt("limit", 50))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(clients)
}
