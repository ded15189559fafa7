package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tripvault/internal/config"
	"tripvault/internal/database"
	"tripvault/internal/docstore"
	"tripvault/internal/handlers"
	"tripvault/internal/logging"
	"tripvault/internal/middleware"
	"tripvault/internal/services"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting TripVault Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	log.Printf("📋 Configuration loaded (Port: %s, Store: %s, Env: %s)", cfg.Port, cfg.StoreBackend, cfg.Environment)

	// Initialize the document store
	var store docstore.Store
	var mongoDB *database.MongoDB
	switch cfg.StoreBackend {
	case config.StoreMongo:
		log.Println("🔗 Connecting to MongoDB...")
		var err error
		mongoDB, err = database.NewMongoDB(cfg.MongoURI)
		if err != nil {
			log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
		}
		initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = mongoDB.Initialize(initCtx)
		cancel()
		if err != nil {
			log.Fatalf("❌ Failed to initialize MongoDB: %v", err)
		}
		store = docstore.NewMongoStore(mongoDB)
		log.Printf("✅ MongoDB store ready (database: %s)", mongoDB.Name())
	case config.StoreMemory:
		store = docstore.NewMemoryStore()
		log.Println("⚠️  Using in-memory store - data is lost on restart (development only)")
	}
	store = docstore.Instrument(store, prometheus.DefaultRegisterer)

	// Initialize services
	itineraryService := services.NewItineraryService(store)
	adminService := services.NewAdminService(store, itineraryService)
	log.Println("✅ Itinerary and admin services initialized")

	// Rate limiting, shared through Redis when configured
	rateLimitConfig := middleware.LoadRateLimitConfig()
	var redisStorage *middleware.RedisStorage
	if cfg.RedisURL != "" {
		log.Println("🔗 Connecting to Redis...")
		var err error
		redisStorage, err = middleware.NewRedisStorage(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Failed to connect to Redis: %v (rate limits kept per instance)", err)
		} else {
			rateLimitConfig.Storage = redisStorage
			log.Println("✅ Redis connected, rate limit counters shared")
		}
	}
	log.Printf("🛡️  [RATE-LIMIT] Loaded config: API=%d/min, Admin=%d/min", rateLimitConfig.APIMax, rateLimitConfig.AdminMax)

	if cfg.AdminSecret == "" {
		log.Println("⚠️  ADMIN_SECRET not set - admin API disabled")
	}

	app := fiber.New(fiber.Config{
		AppName:      "TripVault v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    10 * 1024 * 1024, // 10MB, large multi-week itineraries
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))

	// Prometheus metrics middleware
	prom := fiberprometheus.New("tripvault")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	// Fiber's CORS middleware does not allow AllowCredentials with wildcard origins.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization," + middleware.AdminSecretHeader,
		AllowCredentials: cfg.AllowedOrigins != "*",
	}))
	log.Printf("🔒 [SECURITY] CORS allowed origins: %s", cfg.AllowedOrigins)

	routes := &handlers.Routes{
		Itineraries:  handlers.NewItineraryHandler(itineraryService),
		Admin:        handlers.NewAdminHandler(adminService, cfg.DisplayLocation),
		Health:       handlers.NewHealthHandler(store),
		AdminGate:    middleware.AdminMiddleware(cfg.AdminSecret),
		APILimiter:   middleware.APIRateLimiter(rateLimitConfig),
		AdminLimiter: middleware.AdminRateLimiter(rateLimitConfig),
	}
	routes.Register(app)

	log.Printf("✅ Server ready on port %s", cfg.Port)
	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}

	if redisStorage != nil {
		if err := redisStorage.Close(); err != nil {
			log.Printf("⚠️ Error closing Redis: %v", err)
		}
	}
	if mongoDB != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoDB.Close(ctx); err != nil {
			log.Printf("⚠️ Error closing MongoDB: %v", err)
		}
	}
	log.Println("👋 Server stopped")
}
