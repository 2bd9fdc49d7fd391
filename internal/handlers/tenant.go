package handlers

import (
	"merx/internal/middleware"
	"merx/internal/models"
	"merx/internal/services/tenant"
	"merx/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type TenantHandler struct {
	tenants tenant.Service
}

func NewTenantHandler(tenants tenant.Service) *TenantHandler {
	return &TenantHandler{tenants: tenants}
}

// Signup provisions a tenant with its first admin operator. The API key
// is returned here once; later reads never include it.
func (h *TenantHandler) Signup(c *fiber.Ctx) error {
	var req tenant.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	created, admin, err := h.tenants.Signup(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}

	return response.Created(c, fiber.Map{
		"tenant":  created,
		"user":    admin,
		"api_key": created.APIKey,
	})
}

// Me returns the tenant resolved for this request.
func (h *TenantHandler) Me(c *fiber.Ctx) error {
	resolved, ok := c.Locals(middleware.LocalsTenant).(*models.Tenant)
	if !ok {
		return response.InternalError(c, "no tenant context")
	}
	return response.Success(c, resolved)
}

func (h *TenantHandler) UpdatePlan(c *fiber.Ctx) error {
	var input struct {
		Plan string `json:"plan"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	updated, err := h.tenants.UpdatePlan(c.Context(), tenantID(c), input.Plan, actorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, updated)
}

// RotateAPIKey replaces the tenant's API key. The old key stops working
// as soon as the cache entry is invalidated.
func (h *TenantHandler) RotateAPIKey(c *fiber.Ctx) error {
	key, err := h.tenants.RotateAPIKey(c.Context(), tenantID(c), actorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, fiber.Map{"api_key": key})
}
