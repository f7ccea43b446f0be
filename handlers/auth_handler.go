package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ShafHaider007/expo-portal/services"
	"github.com/ShafHaider007/expo-portal/shared"
	"github.com/ShafHaider007/expo-portal/upstream"
)

type AuthHandler struct {
	SessionService   *services.SessionService
	PlotService      *services.PlotService
	SelectionService *services.SelectionService
}

func NewAuthHandler(sessionService *services.SessionService, plotService *services.PlotService, selectionService *services.SelectionService) *AuthHandler {
	return &AuthHandler{
		SessionService:   sessionService,
		PlotService:      plotService,
		SelectionService: selectionService,
	}
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   shared.MessageTryAgain,
		})
	}
	if req.Identifier == "" || req.Password == "" {
		return writeServiceError(c, shared.NewValidationError("AuthHandler", "Login", map[string][]string{
			"identifier": {"Email or phone is required."},
			"password":   {"Password is required."},
		}))
	}

	result, err := h.SessionService.Login(c.Context(), req.Identifier, req.Password)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	CNIC     string `json:"cnic"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   shared.MessageTryAgain,
		})
	}

	fieldErrors := make(map[string][]string)
	if req.Name == "" {
		fieldErrors["name"] = []string{"Name is required."}
	}
	if req.Email == "" && req.Phone == "" {
		fieldErrors["email"] = []string{"An email or phone number is required."}
	}
	if req.Password == "" {
		fieldErrors["password"] = []string{"Password is required."}
	}
	if len(fieldErrors) > 0 {
		return writeServiceError(c, shared.NewValidationError("AuthHandler", "Register", fieldErrors))
	}

	result, err := h.SessionService.Register(c.Context(), upstream.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		CNIC:     req.CNIC,
		Password: req.Password,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

type otpRequest struct {
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
}

func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   shared.MessageTryAgain,
		})
	}
	if req.Identifier == "" || req.Code == "" {
		return writeServiceError(c, shared.NewValidationError("AuthHandler", "VerifyOTP", map[string][]string{
			"code": {"The verification code is required."},
		}))
	}

	result, err := h.SessionService.VerifyOTP(c.Context(), req.Identifier, req.Code)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := c.BodyParser(&req); err != nil || req.Identifier == "" {
		return writeServiceError(c, shared.NewValidationError("AuthHandler", "ResendOTP", map[string][]string{
			"identifier": {"Email or phone is required."},
		}))
	}

	result, err := h.SessionService.ResendOTP(c.Context(), req.Identifier)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

// Logout destroys the session and every piece of per-session view state
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	session := SessionFromCtx(c)

	h.SelectionService.Clear(session.ID)
	h.PlotService.DropView(session.ID)
	h.SessionService.Logout(c.Context(), session.ID.String())

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"message": "Logged out."},
	})
}

// Me returns the authenticated user
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	return c.JSON(fiber.Map{
		"success": true,
		"data":    session.User,
	})
}
