package handlers

import (
	"errors"
	"log/slog"

	"merx/internal/middleware"
	"merx/internal/models"
	"merx/internal/services/auth"
	"merx/internal/services/merchant"
	"merx/internal/services/tenant"
	"merx/internal/services/transaction"
	"merx/internal/utils/response"
	"merx/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// respondError maps service errors onto HTTP statuses. Validation
// failures keep their per-field detail; anything unrecognized is logged
// and flattened to a 500 so internals never leak.
func respondError(c *fiber.Ctx, err error) error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return response.ValidationFailed(c, verr)
	}

	switch {
	case errors.Is(err, tenant.ErrTenantNotFound),
		errors.Is(err, merchant.ErrMerchantNotFound),
		errors.Is(err, transaction.ErrTransactionNotFound),
		errors.Is(err, transaction.ErrMerchantNotFound),
		errors.Is(err, auth.ErrUserNotFound):
		return response.NotFound(c, err.Error())

	case errors.Is(err, auth.ErrInvalidCredentials):
		return response.Unauthorized(c, err.Error())

	case errors.Is(err, tenant.ErrTenantInactive),
		errors.Is(err, auth.ErrTenantInactive),
		errors.Is(err, merchant.ErrTenantInactive),
		errors.Is(err, transaction.ErrTenantInactive),
		errors.Is(err, merchant.ErrTenantMismatch),
		errors.Is(err, transaction.ErrTenantMismatch),
		errors.Is(err, merchant.ErrKycNotApproved),
		errors.Is(err, transaction.ErrMerchantNotActive):
		return response.Forbidden(c, err.Error())

	case errors.Is(err, tenant.ErrInvalidState),
		errors.Is(err, merchant.ErrInvalidState),
		errors.Is(err, transaction.ErrInvalidState),
		errors.Is(err, transaction.ErrInvalidRefundAmount):
		return response.BadRequest(c, err.Error())

	case errors.Is(err, tenant.ErrDuplicateEntity),
		errors.Is(err, merchant.ErrDuplicateEntity),
		errors.Is(err, transaction.ErrDuplicateEntity):
		return response.Error(c, fiber.StatusConflict, err.Error())

	case errors.Is(err, merchant.ErrPlanLimitExceeded),
		errors.Is(err, transaction.ErrPlanLimitExceeded):
		return response.Error(c, fiber.StatusTooManyRequests, err.Error())
	}

	slog.Error("unhandled service error", "path", c.Path(), "error", err)
	return response.InternalError(c, "internal server error")
}

// tenantID reads the tenant id the middleware attached. Routes behind
// the tenant middleware always have it; exempt routes never call this.
func tenantID(c *fiber.Ctx) uint {
	id, _ := c.Locals(middleware.LocalsTenantID).(uint)
	return id
}

// actorClaims returns the authenticated operator's claims, or nil on
// API-key-only requests.
func actorClaims(c *fiber.Ctx) *models.UserClaims {
	claims, _ := c.Locals(middleware.LocalsClaims).(*models.UserClaims)
	return claims
}

// actorID returns the operator id for audit attribution, nil when the
// request was authenticated by API key alone.
func actorID(c *fiber.Ctx) *uint {
	if claims := actorClaims(c); claims != nil {
		id := claims.UserID
		return &id
	}
	return nil
}
