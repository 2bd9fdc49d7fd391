// Package middleware wires tenant resolution and operator authentication
// into the fiber request path. Tenant context is attached first; the auth
// middleware then binds token claims to the resolved tenant.
package middleware

import (
	"errors"
	"strings"

	"merx/internal/services/tenant"
	"merx/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the middleware chain.
const (
	LocalsTenant   = "tenant"
	LocalsTenantID = "tenantID"
	LocalsClaims   = "claims"
	LocalsUserID   = "userID"
)

// tenantExemptPaths never require tenant context: health, public signup
// and the auth endpoints, which resolve their tenant themselves.
var tenantExemptPaths = map[string]bool{
	"/health":                true,
	"/api/v1/tenants/signup": true,
	"/api/v1/auth/login":     true,
	"/api/v1/auth/refresh":   true,
}

// TenantMiddleware resolves the tenant for every request outside the
// exempt list and refuses requests without a resolvable, active tenant.
type TenantMiddleware struct {
	resolver tenant.Service
}

func NewTenantMiddleware(resolver tenant.Service) *TenantMiddleware {
	if resolver == nil {
		panic("tenant middleware requires a resolver")
	}
	return &TenantMiddleware{resolver: resolver}
}

func (m *TenantMiddleware) Handler(c *fiber.Ctx) error {
	if tenantExemptPaths[c.Path()] {
		return c.Next()
	}

	resolved, err := m.resolver.Resolve(c.Context(), ResolveSignals(c))
	if err != nil {
		switch {
		case errors.Is(err, tenant.ErrTenantNotFound):
			return response.NotFound(c, "tenant not found")
		case errors.Is(err, tenant.ErrTenantInactive):
			return response.Forbidden(c, "tenant is not active")
		default:
			return response.InternalError(c, "tenant resolution failed")
		}
	}

	c.Locals(LocalsTenant, resolved)
	c.Locals(LocalsTenantID, resolved.ID)
	return c.Next()
}

// ResolveSignals extracts the tenant signals from the request. A Bearer
// token with the API key prefix counts as an API key signal; real
// operator tokens are JWTs and never start with pk_. The login handler
// reuses this so exempt routes resolve tenants the same way.
func ResolveSignals(c *fiber.Ctx) tenant.ResolveRequest {
	apiKey := c.Get("X-API-Key")
	if apiKey == "" {
		if bearer := strings.TrimPrefix(c.Get("Authorization"), "Bearer "); strings.HasPrefix(bearer, "pk_") {
			apiKey = bearer
		}
	}
	return tenant.ResolveRequest{
		Host:         c.Hostname(),
		APIKey:       apiKey,
		TenantHeader: c.Get("X-Tenant-ID"),
		IPAddress:    c.IP(),
		UserAgent:    c.Get("User-Agent"),
	}
}
