package transaction

import (
	"merx/internal/models"
	"merx/internal/repositories"
)

// CreateRequest authorizes and settles a payment against a merchant.
type CreateRequest struct {
	MerchantID            string      `json:"merchant_id"`
	Amount                float64     `json:"amount"`
	Currency              string      `json:"currency"`
	PaymentMethod         string      `json:"payment_method"`
	Description           string      `json:"description"`
	CustomerEmail         string      `json:"customer_email"`
	CustomerCountry       string      `json:"customer_country"`
	ExternalTransactionID string      `json:"external_transaction_id"`
	Metadata              models.JSON `json:"metadata,omitempty"`

	// Filled in by the transport layer, never by the client.
	IPAddress string `json:"-"`
	IPCountry string `json:"-"`
}

// RefundRequest reverses part or all of a completed payment.
type RefundRequest struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

// UpdateRequest is the administrative correction surface. Only these
// fields are editable; a nil pointer leaves the field untouched.
type UpdateRequest struct {
	Status        *string      `json:"status"`
	FailureCode   *string      `json:"failure_code"`
	FailureReason *string      `json:"failure_reason"`
	Metadata      *models.JSON `json:"metadata"`
}

// Filter narrows transaction listings.
type Filter = repositories.TransactionFilter
