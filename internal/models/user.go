package models

import (
	"time"

	"gorm.io/gorm"
)

// Operator roles
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

// User is a tenant operator account. Users authenticate with email and
// password and act within exactly one tenant.
type User struct {
	ID        uint   `gorm:"primarykey"`
	TenantID  uint   `gorm:"not null;index;uniqueIndex:idx_users_tenant_email"`
	Email     string `gorm:"not null;uniqueIndex:idx_users_tenant_email"`
	Password  string `gorm:"not null" json:"-"`
	FirstName string
	LastName  string
	Role      string `gorm:"not null;default:'operator'"`

	// Bumping TokenVersion invalidates all outstanding tokens.
	TokenVersion        int `gorm:"default:1"`
	FailedLoginAttempts int `gorm:"default:0"`
	LastLoginAt         *time.Time
	LastLoginIP         string

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
