package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ShafHaider007/expo-portal/services"
	"github.com/ShafHaider007/expo-portal/shared"
)

type SelectionHandler struct {
	SelectionService *services.SelectionService
}

func NewSelectionHandler(selectionService *services.SelectionService) *SelectionHandler {
	return &SelectionHandler{SelectionService: selectionService}
}

type selectRequest struct {
	PlotID int `json:"plot_id"`
}

// Select handles a plot tap: select, replace or deselect. The response is
// the full scene after the transition.
func (h *SelectionHandler) Select(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	var req selectRequest
	if err := c.BodyParser(&req); err != nil || req.PlotID <= 0 {
		return writeServiceError(c, shared.NewValidationError("SelectionHandler", "Select", map[string][]string{
			"plot_id": {"A plot is required."},
		}))
	}

	scene, err := h.SelectionService.Select(session, req.PlotID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    scene,
	})
}

// Clear drops the current selection
func (h *SelectionHandler) Clear(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	h.SelectionService.Clear(session.ID)
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.SelectionService.Scene(session.ID, ""),
	})
}

// Scene returns the current scene without changing selection. An optional
// phase query targets the camera at the phase extent when nothing is
// selected.
func (h *SelectionHandler) Scene(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	phase := c.Query("phase")
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.SelectionService.Scene(session.ID, phase),
	})
}
