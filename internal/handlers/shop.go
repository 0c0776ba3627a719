package handlers

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/barberzap/barberzap-backend/internal/models"
	"github.com/barberzap/barberzap-backend/internal/services"
	"github.com/barberzap/barberzap-backend/internal/storage"
)

// ShopHandler handles shop REST endpoints
type ShopHandler struct {
	store    storage.Store
	resolver *services.IdentityResolver
}

// NewShopHandler creates a new shop handler
func NewShopHandler(store storage.Store, resolver *services.IdentityResolver) *ShopHandler {
	return &ShopHandler{store: store, resolver: resolver}
}

// Register creates a new shop account
func (h *ShopHandler) Register(c *fiber.Ctx) error {
	var reg models.ShopRegistration
	if err := c.BodyParser(&reg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	if reg.Name == "" || reg.Email == "" || len(reg.Password) < 6 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name, email and a password of at least 6 characters are required",
		})
	}

	hash, err := services.HashPassword(reg.Password)
	if err != nil {
		log.Printf("❌ Failed to hash password: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	shop, err := h.store.CreateShop(&models.Shop{
		Name:         reg.Name,
		Email:        reg.Email,
		PasswordHash: hash,
		Phone:        reg.Phone,
		Address:      reg.Address,
		City:         reg.City,
		Active:       true,
	})
	if err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(shop)
}

// Login authenticates a shop and returns a JWT for the REST API
func (h *ShopHandler) Login(c *fiber.Ctx) error {
	var login models.ShopLogin
	if err := c.BodyParser(&login); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	shop, err := h.resolver.AuthenticateShop(login.Email, login.Password)
	if err != nil {
		// Same message for unknown email and wrong password
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"shop_id": shop.ShopID,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	})

	signed, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		log.Printf("❌ Failed to sign token: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	return c.JSON(fiber.Map{
		"token": signed,
		"shop":  shop,
	})
}

// Get returns the authenticated shop's profile
func (h *ShopHandler) Get(c *fiber.Ctx) error {
	shopID, _ := c.Locals("shop_id").(string)
	shop, err := h.store.GetShopByID(shopID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "shop not found"})
	}
	return c.JSON(shop)
}

// CreateBarber adds a barber to the authenticated shop
func (h *ShopHandler) CreateBarber(c *fiber.Ctx) error {
	shopID, _ := c.Locals("shop_id").(string)

	var barber models.Barber
	if err := c.BodyParser(&barber); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if barber.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	barber.ShopID = shopID
	barber.Active = true
	created, err := h.store.CreateBarber(&barber)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// ListBarbers lists the authenticated shop's staff
func (h *ShopHandler) ListBarbers(c *fiber.Ctx) error {
	shopID, _ := c.Locals("shop_id").(string)
	barbers, err := h.store.GetBarbersByShop(shopID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(barbers)
}

// CreateOffering adds a service catalog entry
func (h *ShopHandler) CreateOffering(c *fiber.Ctx) error {
	shopID, _ := c.Locals("shop_id").(string)

	var offering models.Offering
	if err := c.BodyParser(&offering); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if offering.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	offering.ShopID = shopID
	offering.Active = true
	created, err := h.store.CreateOffering(&offering)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// ListOfferings lists the authenticated shop's catalog
func (h *ShopHandler) ListOfferings(c *fiber.Ctx) error {
	shopID, _ := c.Locals("shop_id").(string)
	offerings, err := h.store.GetOfferingsByShop(shopID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(offerings)
}
