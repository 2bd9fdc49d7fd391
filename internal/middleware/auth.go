package middleware

import (
	"strings"

	"merx/internal/models"
	"merx/internal/repositories"
	"merx/internal/services/audit"
	"merx/internal/utils"
	"merx/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates operator JWTs. A token is accepted only when
// its signature and expiry check out, its version matches the user row,
// and its tenant claim matches the tenant the request resolved to.
type AuthMiddleware struct {
	users repositories.UserRepository
	audit audit.Service
}

func NewAuthMiddleware(users repositories.UserRepository, auditSvc audit.Service) *AuthMiddleware {
	if users == nil {
		panic("auth middleware requires a user repository")
	}
	if auditSvc == nil {
		panic("auth middleware requires an audit service")
	}
	return &AuthMiddleware{users: users, audit: auditSvc}
}

func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return response.Unauthorized(c, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return response.Unauthorized(c, "invalid authorization format")
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	_, claims, err := utils.ParseToken(tokenString)
	if err != nil {
		return response.Unauthorized(c, "invalid token")
	}

	resolved, ok := c.Locals(LocalsTenant).(*models.Tenant)
	if !ok || resolved == nil {
		return response.Unauthorized(c, "no tenant context")
	}
	if claims.TenantID != resolved.ID {
		m.audit.RecordAsync(audit.Entry{
			TenantID:      resolved.ID,
			UserID:        &claims.UserID,
			Action:        models.AuditActionAccess,
			Level:         models.AuditLevelCritical,
			EntityType:    "user",
			EntityID:      claims.Email,
			Description:   "token presented against a different tenant",
			SecurityEvent: true,
			IPAddress:     c.IP(),
			UserAgent:     c.Get("User-Agent"),
		})
		return response.Forbidden(c, "token does not belong to this tenant")
	}

	user, err := m.users.GetByID(c.Context(), claims.TenantID, claims.UserID)
	if err != nil {
		return response.Unauthorized(c, "invalid token")
	}
	if user.TokenVersion != claims.TokenVersion {
		return response.Unauthorized(c, "session expired")
	}

	c.Locals(LocalsClaims, claims)
	c.Locals(LocalsUserID, claims.UserID)
	return c.Next()
}

// RequireAdmin allows only admin operators through.
func RequireAdmin(c *fiber.Ctx) error {
	claims, ok := c.Locals(LocalsClaims).(*models.UserClaims)
	if !ok || claims == nil {
		return response.Unauthorized(c, "unauthorized")
	}
	if claims.Role != models.RoleAdmin {
		return response.Forbidden(c, "insufficient permissions")
	}
	return c.Next()
}

// HasPermission returns a middleware admitting requests whose claims
// carry the permission. Admins pass unconditionally.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(LocalsClaims).(*models.UserClaims)
		if !ok || claims == nil {
			return response.Unauthorized(c, "unauthorized")
		}
		if claims.Role == models.RoleAdmin {
			return c.Next()
		}
		if claims.HasPermission(permission) {
			return c.Next()
		}
		return response.Forbidden(c, "insufficient permissions")
	}
}
