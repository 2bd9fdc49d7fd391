package models

import (
	"time"

	"gorm.io/gorm"
)

// Merchant business types
const (
	MerchantTypeIndividual  = "individual"
	MerchantTypeBusiness    = "business"
	MerchantTypeCorporation = "corporation"
	MerchantTypeNonProfit   = "non_profit"
)

// Merchant statuses
const (
	MerchantStatusPending     = "pending"
	MerchantStatusUnderReview = "under_review"
	MerchantStatusApproved    = "approved"
	MerchantStatusRejected    = "rejected"
	MerchantStatusSuspended   = "suspended"
	MerchantStatusActive      = "active"
)

// KYC statuses
const (
	KYCStatusNotStarted    = "not_started"
	KYCStatusInProgress    = "in_progress"
	KYCStatusPendingReview = "pending_review"
	KYCStatusApproved      = "approved"
	KYCStatusRejected      = "rejected"
	KYCStatusExpired       = "expired"
)

// Merchant is a payment-accepting business owned by exactly one tenant.
// Status and KYCStatus only change through the merchant lifecycle service;
// MerchantStatusActive always implies KYCStatusApproved.
type Merchant struct {
	ID         uint   `gorm:"primarykey"`
	MerchantID string `gorm:"column:merchant_id;uniqueIndex;not null"`
	TenantID   uint   `gorm:"not null;index;uniqueIndex:idx_merchants_tenant_email"`
	Email      string `gorm:"not null;uniqueIndex:idx_merchants_tenant_email"`

	BusinessName string `gorm:"not null"`
	BusinessType string `gorm:"not null;default:'individual'"`
	Status       string `gorm:"not null;default:'pending'"`
	IsActive     bool   `gorm:"default:false"`

	KYCStatus     string     `gorm:"column:kyc_status;not null;default:'not_started'"`
	KYCDocuments  JSON       `gorm:"column:kyc_documents;type:jsonb"`
	KYCVerifiedAt *time.Time `gorm:"column:kyc_verified_at"`

	ProcessingVolume float64 `gorm:"default:0"`
	TransactionCount int     `gorm:"default:0"`

	SuspensionReason  string
	RejectionReason   string
	ApprovedAt        *time.Time
	LastTransactionAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// HasKYCDocument reports whether a document of the given type has been
// uploaded.
func (m *Merchant) HasKYCDocument(docType string) bool {
	if m.KYCDocuments == nil {
		return false
	}
	ref, ok := m.KYCDocuments[docType]
	if !ok {
		return false
	}
	s, ok := ref.(string)
	return !ok || s != ""
}
