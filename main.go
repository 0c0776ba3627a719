package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/barberzap/barberzap-backend/database"
	"github.com/barberzap/barberzap-backend/internal/jobs"
	"github.com/barberzap/barberzap-backend/internal/models"
	"github.com/barberzap/barberzap-backend/internal/routes"
	"github.com/barberzap/barberzap-backend/internal/services"
	"github.com/barberzap/barberzap-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found - using environment variables")
	}

	// Initialize storage
	var store storage.Store

	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.Shop{},
			&models.Barber{},
			&models.Client{},
			&models.Offering{},
			&models.Appointment{},
			&models.ConversationMessage{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(database.DB)
	}
	storage.SetStore(store)

	// Twilio is optional in development: without it replies are only logged
	twilioService, err := services.NewTwilioService()
	if err != nil {
		log.Printf("⚠️  Twilio service not initialized: %v", err)
		twilioService = nil
	} else {
		services.SetTwilioService(twilioService)
		log.Println("✅ Twilio service initialized")
	}

	// Core conversation services
	sessions := services.NewSessionStore(services.DefaultSessionTTL)
	resolver := services.NewIdentityResolver(store)
	dispatcher := services.NewCommandDispatcher(store)

	// The AI surface is governed by one global switch. When off, the
	// same state machine runs with the deterministic dispatcher as its
	// terminal step.
	aiActive := os.Getenv("AI_SYSTEM_ACTIVE") == "true"
	var fallback services.Responder
	if aiActive {
		oracle, err := services.NewGeminiOracle(context.Background(), os.Getenv("GEMINI_API_KEY"))
		if err != nil {
			log.Printf("⚠️  Gemini not initialized, running without AI: %v", err)
		} else {
			fallback = services.NewAIResponder(store, dispatcher, oracle, true)
			defer oracle.Close()
			log.Println("✅ Gemini AI initialized")
		}
	} else {
		log.Println("ℹ️  AI system disabled - deterministic replies only")
	}

	engine := services.NewConversationEngine(store, sessions, resolver, dispatcher, fallback)
	whatsappService := services.NewWhatsAppService(engine)

	// Daily appointment reminders. The typed-nil check matters: a nil
	// *TwilioService stored in the interface would not compare equal to nil.
	var reminderSender jobs.MessageSender
	if twilioService != nil {
		reminderSender = twilioService
	}
	reminderJob := jobs.NewReminderJob(store, reminderSender)
	if err := reminderJob.Start(); err != nil {
		log.Printf("⚠️  Reminder job not started: %v", err)
	}

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "BarberZap Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Health check endpoint with service status
	app.Get("/health", func(c *fiber.Ctx) error {
		status := "healthy"
		statusCode := fiber.StatusOK

		if os.Getenv("USE_MEMORY_STORE") != "true" && database.DB != nil {
			sqlDB, err := database.DB.DB()
			if err != nil || sqlDB.Ping() != nil {
				status = "unhealthy"
				statusCode = fiber.StatusServiceUnavailable
			}
		}

		return c.Status(statusCode).JSON(fiber.Map{
			"status": status,
			"services": fiber.Map{
				"database": status == "healthy",
				"twilio":   twilioService != nil,
				"ai":       fallback != nil,
				"sessions": sessions.ActiveCount(),
			},
		})
	})

	// Setup routes
	routes.SetupRoutes(app, store, resolver, whatsappService, twilioService)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		reminderJob.Stop()
		sessions.Stop()
		_ = app.Shutdown()
	}()

	log.Println("========================================")
	log.Printf("🚀 BarberZap Backend starting on port %s", port)
	log.Printf("📊 Storage: %s", storageType())
	log.Printf("📱 WhatsApp: %s", whatsappStatus(twilioService))
	log.Printf("🤖 AI assistant: %v", fallback != nil)
	log.Printf("⏳ Session TTL: %s", services.DefaultSessionTTL)
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func storageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}

func whatsappStatus(t *services.TwilioService) string {
	if t == nil {
		return "Not configured"
	}
	return "Configured"
}
