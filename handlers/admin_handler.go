package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ShafHaider007/expo-portal/services"
	"github.com/ShafHaider007/expo-portal/shared"
)

type AdminHandler struct {
	AdminService  *services.AdminService
	ExportService *services.ExportService
}

func NewAdminHandler(adminService *services.AdminService, exportService *services.ExportService) *AdminHandler {
	return &AdminHandler{
		AdminService:  adminService,
		ExportService: exportService,
	}
}

// Stats returns the dashboard aggregate block
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	stats, err := h.AdminService.Stats(c.Context(), session)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    stats,
	})
}

// Payments returns one page of the merged payment list
func (h *AdminHandler) Payments(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	page, _ := strconv.Atoi(c.Query("page", "1"))

	result, err := h.AdminService.MergedPayments(c.Context(), session, page)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

// TopBidders returns the commercial bid leaderboard
func (h *AdminHandler) TopBidders(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	bidders, err := h.AdminService.TopBidders(c.Context(), session, limit)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    bidders,
	})
}

// RegisteredUsers returns the registered-user listing
func (h *AdminHandler) RegisteredUsers(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	users, err := h.AdminService.RegisteredUsers(c.Context(), session)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    users,
	})
}

// ExportPayments builds a full payments CSV and streams it back
func (h *AdminHandler) ExportPayments(c *fiber.Ctx) error {
	session := SessionFromCtx(c)

	job, err := h.ExportService.ExportPayments(c.Context(), session)
	if err != nil {
		return writeServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+job.Filename+`"`)
	return c.Send(job.Data)
}

// GetExport re-downloads a previously built export by id
func (h *AdminHandler) GetExport(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return writeServiceError(c, shared.NewValidationError("AdminHandler", "GetExport", map[string][]string{
			"id": {"Export id is not valid."},
		}))
	}

	job, ok := h.ExportService.GetExport(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Export not found",
		})
	}
	if job.Status != services.ExportStatusCompleted {
		return c.JSON(fiber.Map{
			"success": true,
			"data":    job,
		})
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+job.Filename+`"`)
	return c.Send(job.Data)
}
