package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ShafHaider007/expo-portal/models"
	"github.com/ShafHaider007/expo-portal/services"
	"github.com/ShafHaider007/expo-portal/shared"
)

const sessionLocalKey = "portal_session"

// RequireSession resolves the bearer token to a live session and stores it in
// the request locals. Requests without a valid session get 401 with the
// generic login message; a destroyed session behaves exactly like no session.
func RequireSession(sessionService *services.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   shared.MessageLoginRequired,
			})
		}

		session, ok := sessionService.Lookup(token)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   shared.MessageLoginRequired,
			})
		}

		c.Locals(sessionLocalKey, session)
		return c.Next()
	}
}

// RequireDashboardRole gates admin routes to admin and marketing roles
func RequireDashboardRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := SessionFromCtx(c)
		if session == nil || !session.User.CanViewDashboard() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"error":   shared.MessageNotPermitted,
			})
		}
		return c.Next()
	}
}

// SessionFromCtx returns the session stored by RequireSession, or nil
func SessionFromCtx(c *fiber.Ctx) *models.Session {
	session, _ := c.Locals(sessionLocalKey).(*models.Session)
	return session
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// writeServiceError maps an error to an HTTP status and the standard
// response envelope. Validation failures carry both the flattened display
// messages and the structured per-field map.
func writeServiceError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	body := fiber.Map{
		"success": false,
		"error":   shared.DisplayMessage(err),
	}

	if serviceErr, ok := err.(*shared.ServiceError); ok {
		switch serviceErr.Category {
		case shared.ErrorCategoryValidation:
			status = fiber.StatusUnprocessableEntity
			if len(serviceErr.FieldErrors) > 0 {
				body["messages"] = shared.FlattenValidationErrors(serviceErr.FieldErrors)
				body["field_errors"] = serviceErr.FieldErrors
			}
		case shared.ErrorCategoryAuthentication:
			status = fiber.StatusUnauthorized
		case shared.ErrorCategoryAuthorization:
			status = fiber.StatusForbidden
		case shared.ErrorCategoryNetwork, shared.ErrorCategoryShape:
			status = fiber.StatusBadGateway
		case shared.ErrorCategoryTimeout:
			status = fiber.StatusGatewayTimeout
		}
	}

	return c.Status(status).JSON(body)
}
