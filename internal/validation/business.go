package validation

import (
	"merx/internal/models"
)

// supportedCurrencies is the ISO 4217 subset the platform settles in.
var supportedCurrencies = map[string]bool{
	"USD": true,
	"EUR": true,
	"GBP": true,
	"CAD": true,
	"AUD": true,
	"JPY": true,
	"CHF": true,
	"SGD": true,
}

// reservedSubdomains never resolve to a tenant and cannot be claimed.
var reservedSubdomains = map[string]bool{
	"www": true,
	"api": true,
	"app": true,
}

var validPlans = map[string]bool{
	models.PlanStarter:      true,
	models.PlanProfessional: true,
	models.PlanEnterprise:   true,
}

var validMerchantTypes = map[string]bool{
	models.MerchantTypeIndividual:  true,
	models.MerchantTypeBusiness:    true,
	models.MerchantTypeCorporation: true,
	models.MerchantTypeNonProfit:   true,
}

var validPaymentMethods = map[string]bool{
	models.PaymentMethodCreditCard:     true,
	models.PaymentMethodDebitCard:      true,
	models.PaymentMethodBankTransfer:   true,
	models.PaymentMethodDigitalWallet:  true,
	models.PaymentMethodCryptocurrency: true,
}

var validTransactionStatuses = map[string]bool{
	models.TransactionStatusPending:           true,
	models.TransactionStatusProcessing:        true,
	models.TransactionStatusCompleted:         true,
	models.TransactionStatusFailed:            true,
	models.TransactionStatusCancelled:         true,
	models.TransactionStatusRefunded:          true,
	models.TransactionStatusPartiallyRefunded: true,
}

// IsValidEmail reports whether the address matches the platform email shape.
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// IsValidSubdomain reports whether a subdomain is claimable: correct length,
// lowercase letters, digits and interior hyphens, and not reserved.
func IsValidSubdomain(s string) bool {
	if len(s) < MinSubdomainLength || len(s) > MaxSubdomainLength {
		return false
	}
	return subdomainRegex.MatchString(s) && !reservedSubdomains[s]
}

// IsReservedSubdomain reports whether the label is kept for platform use.
func IsReservedSubdomain(s string) bool {
	return reservedSubdomains[s]
}

// IsValidPlan reports whether the plan name is one the platform sells.
func IsValidPlan(plan string) bool {
	return validPlans[plan]
}

// IsValidMerchantType reports whether the merchant type is a known kind.
func IsValidMerchantType(t string) bool {
	return validMerchantTypes[t]
}

// IsValidPaymentMethod reports whether the method is one the platform accepts.
func IsValidPaymentMethod(m string) bool {
	return validPaymentMethods[m]
}

// IsValidCurrency reports whether the code is a supported settlement currency.
func IsValidCurrency(code string) bool {
	return supportedCurrencies[code]
}

// IsValidTransactionStatus reports whether the status is a known
// transaction state.
func IsValidTransactionStatus(s string) bool {
	return validTransactionStatuses[s]
}

// Amount checks a monetary amount against platform limits
func (v *Validator) Amount(field string, amount float64) {
	v.Range(field, amount, MinTransactionAmount, MaxTransactionAmount)
}

// Currency checks a code against the supported settlement currencies
func (v *Validator) Currency(field, code string) {
	v.Check(IsValidCurrency(code), field, "must be a supported currency code")
}
