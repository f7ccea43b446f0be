package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"

	"github.com/ShafHaider007/expo-portal/config"
	"github.com/ShafHaider007/expo-portal/database"
	"github.com/ShafHaider007/expo-portal/handlers"
	"github.com/ShafHaider007/expo-portal/jobs"
	"github.com/ShafHaider007/expo-portal/services"
	"github.com/ShafHaider007/expo-portal/upstream"
)

func main() {
	// Load config
	cfg := config.LoadConfig()

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	// Connect to database. The gateway owns nothing durable; the database
	// only backs the plot cache and the audit log, so a missing DATABASE_URL
	// just means memory-only operation.
	if cfg.DatabaseURL != "" {
		if err := database.Connect(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()

		if err := database.Migrate("database/schema.sql"); err != nil {
			log.Printf("Migration warning: %v", err)
		}
	} else {
		logrus.Warn("DATABASE_URL not set, running memory-only (no persisted cache or audit log)")
	}

	cacheConfig := config.DefaultCacheConfig()
	if cfg.CacheTTLMinutes != "" {
		cacheConfig.DefaultTTL = cfg.GetCacheTTL()
	}

	// Upstream expo backend client
	expoClient := upstream.NewClient(cfg.ExpoAPIBaseURL, cfg.GetUpstreamTimeout())

	// Initialize services
	utilityService := services.NewUtilityService()
	cacheService := services.NewCacheServiceWithConfig(
		database.DB,
		cacheConfig.DefaultTTL,
		cacheConfig.MaxSize,
	)
	auditService := services.NewAuditService(database.DB)
	sessionService := services.NewSessionService(expoClient, auditService)
	plotService := services.NewPlotService(expoClient, cacheService, cacheConfig.DefaultTTL)
	selectionService := services.NewSelectionService(plotService)
	bookingService := services.NewBookingService(expoClient, plotService, selectionService, auditService, cacheService)
	bidService := services.NewBidService(expoClient, auditService)
	adminService := services.NewAdminService(expoClient, utilityService)
	exportService := services.NewExportService(adminService)

	// Filter changes can push the selected plot out of view; the selection
	// is pruned rather than left dangling
	plotService.SetVisibilityHook(selectionService.PruneInvisible)

	log.Println("Expo portal gateway services initialized:")
	log.Printf("  - Upstream client (base: %s, timeout: %v)", cfg.ExpoAPIBaseURL, cfg.GetUpstreamTimeout())
	log.Printf("  - Plot cache (TTL: %v, max size: %d)", cacheConfig.DefaultTTL, cacheConfig.MaxSize)
	log.Printf("  - Session registry (idle timeout: %v)", cfg.GetSessionIdleTimeout())

	// Initialize background jobs
	rankJob := jobs.NewRankRefreshJob(sessionService, cacheService, expoClient, cfg.GetRankRefreshInterval())
	sweepJob := jobs.NewSessionSweepJob(sessionService, plotService, selectionService, cfg.GetSessionIdleTimeout())
	cleanupJob := jobs.NewCacheCleanupJob(cacheService, exportService)

	rankJob.Start()
	sweepJob.Start()
	cleanupJob.Start()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(sessionService, plotService, selectionService)
	plotHandler := handlers.NewPlotHandler(plotService)
	selectionHandler := handlers.NewSelectionHandler(selectionService)
	bookingHandler := handlers.NewBookingHandler(bookingService, bidService)
	adminHandler := handlers.NewAdminHandler(adminService, exportService)
	statusHandler := handlers.NewStatusHandler(database.DB, expoClient, sessionService,
		plotService, selectionService, bookingService, cacheService)

	// Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New())

	// Health check endpoint
	app.Get("/health", statusHandler.GetHealth)

	// Routes
	api := app.Group("/api/v1")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/register", authHandler.Register)
	auth.Post("/verify-otp", authHandler.VerifyOTP)
	auth.Post("/resend-otp", authHandler.ResendOTP)
	auth.Post("/logout", handlers.RequireSession(sessionService), authHandler.Logout)
	auth.Get("/me", handlers.RequireSession(sessionService), authHandler.Me)

	// Plot routes
	plots := api.Group("/plots", handlers.RequireSession(sessionService))
	plots.Get("/", plotHandler.GetPlots)
	plots.Post("/phase", plotHandler.SetPhase)
	plots.Post("/category", plotHandler.SetCategory)
	plots.Post("/size", plotHandler.ToggleSize)
	plots.Get("/:id", plotHandler.GetPlot)

	// Selection routes
	selection := api.Group("/selection", handlers.RequireSession(sessionService))
	selection.Get("/scene", selectionHandler.Scene)
	selection.Post("/select", selectionHandler.Select)
	selection.Delete("/", selectionHandler.Clear)

	// Booking routes
	bookings := api.Group("/bookings", handlers.RequireSession(sessionService))
	bookings.Get("/", bookingHandler.MyBookings)
	bookings.Post("/hold", bookingHandler.Hold)
	bookings.Post("/pay-token", bookingHandler.PayToken)
	bookings.Get("/fee", bookingHandler.Fee)
	bookings.Put("/bid", bookingHandler.UpdateBid)

	// Admin routes
	admin := api.Group("/admin", handlers.RequireSession(sessionService), handlers.RequireDashboardRole())
	admin.Get("/stats", adminHandler.Stats)
	admin.Get("/payments", adminHandler.Payments)
	admin.Get("/top-bidders", adminHandler.TopBidders)
	admin.Get("/registered-users", adminHandler.RegisteredUsers)
	admin.Post("/exports/payments", adminHandler.ExportPayments)
	admin.Get("/exports/:id", adminHandler.GetExport)

	// Status routes
	status := api.Group("/status")
	status.Get("/metrics", statusHandler.GetMetrics)
	status.Delete("/cache", statusHandler.ClearCache)

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
