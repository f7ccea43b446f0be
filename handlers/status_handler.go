package handlers

import (
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ShafHaider007/expo-portal/services"
	"github.com/ShafHaider007/expo-portal/upstream"
)

type StatusHandler struct {
	DB               *sql.DB
	Upstream         *upstream.Client
	SessionService   *services.SessionService
	PlotService      *services.PlotService
	SelectionService *services.SelectionService
	BookingService   *services.BookingService
	CacheService     *services.CacheService
}

func NewStatusHandler(db *sql.DB, client *upstream.Client, sessionService *services.SessionService,
	plotService *services.PlotService, selectionService *services.SelectionService,
	bookingService *services.BookingService, cacheService *services.CacheService) *StatusHandler {
	return &StatusHandler{
		DB:               db,
		Upstream:         client,
		SessionService:   sessionService,
		PlotService:      plotService,
		SelectionService: selectionService,
		BookingService:   bookingService,
		CacheService:     cacheService,
	}
}

// GetHealth reports liveness of the gateway and its collaborators. The
// database is optional; without one the gateway runs memory-only and health
// stays green.
func (h *StatusHandler) GetHealth(c *fiber.Ctx) error {
	health := fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"sessions":  h.SessionService.Count(),
	}

	start := time.Now()
	if err := h.Upstream.Ping(c.Context()); err != nil {
		health["status"] = "degraded"
		health["upstream"] = fiber.Map{
			"reachable": false,
			"error":     err.Error(),
		}
	} else {
		health["upstream"] = fiber.Map{
			"reachable":  true,
			"latency_ms": time.Since(start).Milliseconds(),
		}
	}

	if h.DB != nil {
		if err := h.DB.PingContext(c.Context()); err != nil {
			health["database"] = fiber.Map{"connected": false, "error": err.Error()}
		} else {
			health["database"] = fiber.Map{"connected": true}
		}
	} else {
		health["database"] = fiber.Map{"connected": false, "mode": "memory-only"}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    health,
	})
}

// GetMetrics returns per-service request metrics, cache occupancy and
// connection pool statistics
func (h *StatusHandler) GetMetrics(c *fiber.Ctx) error {
	metrics := fiber.Map{
		"sessions":   h.SessionService.Count(),
		"plot_views": h.PlotService.ViewCount(),
		"cache_size": h.CacheService.Size(),
		"services": fiber.Map{
			"plots":     h.PlotService.Metrics(),
			"selection": h.SelectionService.Metrics(),
			"bookings":  h.BookingService.Metrics(),
			"upstream":  h.Upstream.Metrics.Snapshot(),
		},
	}

	if h.DB != nil {
		dbStats := h.DB.Stats()
		metrics["database_stats"] = fiber.Map{
			"open_connections": dbStats.OpenConnections,
			"in_use":           dbStats.InUse,
			"idle":             dbStats.Idle,
			"wait_count":       dbStats.WaitCount,
			"wait_duration_ms": dbStats.WaitDuration.Milliseconds(),
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    metrics,
	})
}

// ClearCache empties the in-memory plot cache
func (h *StatusHandler) ClearCache(c *fiber.Ctx) error {
	h.CacheService.Clear()
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cache cleared successfully",
	})
}
