package models

import (
	"time"

	"gorm.io/gorm"
)

// Tenant statuses
const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
	TenantStatusInactive  = "inactive"
)

// Subscription plans
const (
	PlanStarter      = "starter"
	PlanProfessional = "professional"
	PlanEnterprise   = "enterprise"
)

// Tenant is the root of data isolation. Every other entity carries a
// TenantID referencing one of these rows; mutating operations require the
// tenant to be active. Tenants are never hard-deleted.
type Tenant struct {
	ID        uint   `gorm:"primarykey"`
	Name      string `gorm:"not null"`
	Subdomain string `gorm:"uniqueIndex;not null"`
	APIKey    string `gorm:"column:api_key;uniqueIndex;not null" json:"-"`
	Status    string `gorm:"not null;default:'active'"`
	Plan      string `gorm:"not null;default:'starter'"`

	// Plan limit snapshot, rewritten on plan change.
	MaxUsers                int `gorm:"default:5"`
	MaxMerchants            int `gorm:"default:10"`
	MaxTransactionsPerMonth int `gorm:"default:1000"`
	MaxAPICallsPerMinute    int `gorm:"column:max_api_calls_per_minute;default:60"`

	TrialEndsAt    *time.Time
	LastActivityAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// PlanLimits holds the numeric caps a subscription plan grants.
type PlanLimits struct {
	MaxUsers                int
	MaxMerchants            int
	MaxTransactionsPerMonth int
	MaxAPICallsPerMinute    int
}

// DefaultPlanLimits returns the caps for a plan. Unknown plans fall back
// to starter.
func DefaultPlanLimits(plan string) PlanLimits {
	switch plan {
	case PlanProfessional:
		return PlanLimits{
			MaxUsers:                25,
			MaxMerchants:            100,
			MaxTransactionsPerMonth: 25000,
			MaxAPICallsPerMinute:    300,
		}
	case PlanEnterprise:
		return PlanLimits{
			MaxUsers:                500,
			MaxMerchants:            2500,
			MaxTransactionsPerMonth: 1000000,
			MaxAPICallsPerMinute:    3000,
		}
	default:
		return PlanLimits{
			MaxUsers:                5,
			MaxMerchants:            10,
			MaxTransactionsPerMonth: 1000,
			MaxAPICallsPerMinute:    60,
		}
	}
}

// ApplyPlan sets the plan and rewrites the limit snapshot.
func (t *Tenant) ApplyPlan(plan string) {
	limits := DefaultPlanLimits(plan)
	t.Plan = plan
	t.MaxUsers = limits.MaxUsers
	t.MaxMerchants = limits.MaxMerchants
	t.MaxTransactionsPerMonth = limits.MaxTransactionsPerMonth
	t.MaxAPICallsPerMinute = limits.MaxAPICallsPerMinute
}
