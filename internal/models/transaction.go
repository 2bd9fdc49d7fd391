package models

import (
	"time"
)

// Transaction types
const (
	TransactionTypePayment    = "payment"
	TransactionTypeRefund     = "refund"
	TransactionTypeChargeback = "chargeback"
	TransactionTypeAdjustment = "adjustment"
)

// Transaction statuses
const (
	TransactionStatusPending           = "pending"
	TransactionStatusProcessing        = "processing"
	TransactionStatusCompleted         = "completed"
	TransactionStatusFailed            = "failed"
	TransactionStatusCancelled         = "cancelled"
	TransactionStatusRefunded          = "refunded"
	TransactionStatusPartiallyRefunded = "partially_refunded"
)

// Payment methods
const (
	PaymentMethodCreditCard     = "credit_card"
	PaymentMethodDebitCard      = "debit_card"
	PaymentMethodBankTransfer   = "bank_transfer"
	PaymentMethodDigitalWallet  = "digital_wallet"
	PaymentMethodCryptocurrency = "cryptocurrency"
)

// Transaction records a payment, refund, chargeback or adjustment against a
// merchant. Refunds and chargebacks reference their original payment through
// ParentTransactionID. A transaction's TenantID always equals its merchant's.
type Transaction struct {
	ID                    uint    `gorm:"primarykey"`
	TransactionID         string  `gorm:"column:transaction_id;uniqueIndex;not null"`
	ExternalTransactionID string  `gorm:"column:external_transaction_id"`
	TenantID              uint    `gorm:"not null;index"`
	MerchantID            uint    `gorm:"not null;index"`
	Type                  string  `gorm:"not null;default:'payment'"`
	Status                string  `gorm:"not null;default:'pending'"`
	PaymentMethod         string  `gorm:"not null"`
	Amount                float64 `gorm:"not null"`
	Currency              string  `gorm:"not null;default:'USD'"`
	FeeAmount             float64 `gorm:"default:0"`
	NetAmount             float64 `gorm:"default:0"`
	Description           string

	// Risk assessment attached at creation time.
	RiskScore          int         `gorm:"default:0"`
	RiskLevel          string      `gorm:"default:''"`
	RiskRecommendation string      `gorm:"default:''"`
	RiskFactors        StringArray `gorm:"type:jsonb"`

	// Optional scoring inputs captured from the request.
	CustomerEmail   string
	CustomerCountry string
	IPAddress       string `gorm:"column:ip_address"`

	// Refund accounting. ParentTransactionID points at the original
	// payment row; RefundedAmount accumulates on the parent.
	ParentTransactionID *uint   `gorm:"column:parent_transaction_id;index"`
	RefundedAmount      float64 `gorm:"default:0"`

	FailureCode   string
	FailureReason string
	Metadata      JSON `gorm:"type:jsonb"`

	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsRefundable reports whether refund requests may target this transaction
// at all. Fully refunded parents still pass; the remaining-amount guard in
// the lifecycle service rejects them so callers see an amount error, not a
// state error.
func (t *Transaction) IsRefundable() bool {
	if t.Type != TransactionTypePayment {
		return false
	}
	switch t.Status {
	case TransactionStatusCompleted, TransactionStatusPartiallyRefunded, TransactionStatusRefunded:
		return true
	}
	return false
}
