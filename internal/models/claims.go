package models

import "github.com/golang-jwt/jwt/v5"

// UserClaims is the JWT payload for operator tokens. TenantID pins a token
// to the tenant it was issued for; TokenVersion must match the user row for
// the token to be accepted.
type UserClaims struct {
	jwt.RegisteredClaims
	UserID       uint     `json:"user_id"`
	TenantID     uint     `json:"tenant_id"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	Permissions  []string `json:"permissions"`
	TokenVersion int      `json:"token_version"`
}

// HasPermission checks if the claims include a specific permission
func (c *UserClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}
