package handlers

import (
	"merx/internal/middleware"
	"merx/internal/services/auth"
	"merx/internal/services/tenant"
	"merx/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	auth    auth.Service
	tenants tenant.Service
}

func NewAuthHandler(authSvc auth.Service, tenants tenant.Service) *AuthHandler {
	return &AuthHandler{auth: authSvc, tenants: tenants}
}

// Login authenticates an operator and returns an access/refresh token
// pair. The route is exempt from the tenant middleware, so the handler
// resolves the tenant itself from the same request signals.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if input.Email == "" || input.Password == "" {
		return response.BadRequest(c, "email and password are required")
	}

	resolved, err := h.tenants.Resolve(c.Context(), middleware.ResolveSignals(c))
	if err != nil {
		return respondError(c, err)
	}

	user, access, refresh, err := h.auth.Login(c.Context(), resolved.ID, input.Email, input.Password, c.IP())
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, fiber.Map{
		"user": fiber.Map{
			"id":         user.ID,
			"email":      user.Email,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"role":       user.Role,
		},
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// Refresh exchanges a valid refresh token for a fresh pair. Tenant and
// token-version checks happen in the service; no tenant context is
// required on the route.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if input.RefreshToken == "" {
		return response.BadRequest(c, "refresh_token is required")
	}

	access, refresh, err := h.auth.Refresh(c.Context(), input.RefreshToken)
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, fiber.Map{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// Logout invalidates every token issued to the operator so far.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims := actorClaims(c)
	if claims == nil {
		return response.Unauthorized(c, "authentication required")
	}

	if err := h.auth.Logout(c.Context(), tenantID(c), claims.UserID); err != nil {
		return respondError(c, err)
	}
	return response.Success(c, fiber.Map{"message": "logged out"})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	claims := actorClaims(c)
	if claims == nil {
		return response.Unauthorized(c, "authentication required")
	}

	var input struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	if err := h.auth.ChangePassword(c.Context(), tenantID(c), claims.UserID, input.OldPassword, input.NewPassword); err != nil {
		return respondError(c, err)
	}
	return response.Success(c, fiber.Map{"message": "password changed"})
}
