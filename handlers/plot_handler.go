package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ShafHaider007/expo-portal/services"
	"github.com/ShafHaider007/expo-portal/shared"
)

type PlotHandler struct {
	PlotService *services.PlotService
}

func NewPlotHandler(plotService *services.PlotService) *PlotHandler {
	return &PlotHandler{PlotService: plotService}
}

// GetPlots returns the session's current filtered view
func (h *PlotHandler) GetPlots(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.PlotService.VisiblePlots(session.ID),
	})
}

// GetPlot returns one plot from the session's visible set
func (h *PlotHandler) GetPlot(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	plotID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return writeServiceError(c, shared.NewValidationError("PlotHandler", "GetPlot", map[string][]string{
			"id": {"Plot id must be a number."},
		}))
	}

	plot, serviceErr := h.PlotService.VisiblePlot(session.ID, plotID)
	if serviceErr != nil {
		return writeServiceError(c, serviceErr)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    plot,
	})
}

type phaseRequest struct {
	Phase string `json:"phase"`
}

// SetPhase selects a phase and reloads the view
func (h *PlotHandler) SetPhase(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	var req phaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   shared.MessageTryAgain,
		})
	}

	state, err := h.PlotService.SetPhase(c.Context(), session, req.Phase)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    state,
	})
}

type categoryRequest struct {
	Category string `json:"category"`
}

// SetCategory selects the active category within the current phase
func (h *PlotHandler) SetCategory(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   shared.MessageTryAgain,
		})
	}

	state, err := h.PlotService.SetCategory(c.Context(), session, req.Category)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    state,
	})
}

type sizeRequest struct {
	Size string `json:"size"`
}

// ToggleSize flips a size flag and refilters locally
func (h *PlotHandler) ToggleSize(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	var req sizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   shared.MessageTryAgain,
		})
	}

	state, err := h.PlotService.ToggleSize(session, req.Size)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    state,
	})
}
