package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ShafHaider007/expo-portal/services"
	"github.com/ShafHaider007/expo-portal/shared"
)

type BookingHandler struct {
	BookingService *services.BookingService
	BidService     *services.BidService
}

func NewBookingHandler(bookingService *services.BookingService, bidService *services.BidService) *BookingHandler {
	return &BookingHandler{
		BookingService: bookingService,
		BidService:     bidService,
	}
}

type holdRequest struct {
	PlotID int `json:"plot_id"`
}

// Hold places a hold on a visible plot
func (h *BookingHandler) Hold(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	var req holdRequest
	if err := c.BodyParser(&req); err != nil || req.PlotID <= 0 {
		return writeServiceError(c, shared.NewValidationError("BookingHandler", "Hold", map[string][]string{
			"plot_id": {"A plot is required."},
		}))
	}

	result, err := h.BookingService.Hold(c.Context(), session, req.PlotID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

// PayToken submits the token payment for a held plot
func (h *BookingHandler) PayToken(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	var req services.PaymentInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   shared.MessageTryAgain,
		})
	}

	result, err := h.BookingService.PayToken(c.Context(), session, req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

// Fee quotes the kuick-pay processing fee for a plot's token amount
func (h *BookingHandler) Fee(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	plotID, err := strconv.Atoi(c.Query("plot_id"))
	if err != nil || plotID <= 0 {
		return writeServiceError(c, shared.NewValidationError("BookingHandler", "Fee", map[string][]string{
			"plot_id": {"A plot is required."},
		}))
	}

	quote, serviceErr := h.BookingService.Fee(c.Context(), session, plotID)
	if serviceErr != nil {
		return writeServiceError(c, serviceErr)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    quote,
	})
}

// MyBookings lists the caller's bookings with fresh bid ranks
func (h *BookingHandler) MyBookings(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	bookings, err := h.BookingService.Bookings(c.Context(), session)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    bookings,
	})
}

type bidRequest struct {
	BookingID int     `json:"booking_id"`
	BidAmount float64 `json:"bid_amount"`
}

// UpdateBid raises the bid on a commercial booking. Failed updates answer
// with the upstream bid messages when present, the generic text otherwise.
func (h *BookingHandler) UpdateBid(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	var req bidRequest
	if err := c.BodyParser(&req); err != nil || req.BookingID <= 0 {
		return writeServiceError(c, shared.NewValidationError("BookingHandler", "UpdateBid", map[string][]string{
			"booking_id": {"A booking is required."},
		}))
	}

	result, err := h.BidService.UpdateBid(c.Context(), session, req.BookingID, req.BidAmount)
	if err != nil {
		status := fiber.StatusUnprocessableEntity
		if serviceErr, ok := err.(*shared.ServiceError); ok && serviceErr.Category != shared.ErrorCategoryValidation {
			return writeServiceError(c, err)
		}
		return c.Status(status).JSON(fiber.Map{
			"success":  false,
			"error":    shared.DisplayMessage(err),
			"messages": services.BidErrorMessages(err),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}
