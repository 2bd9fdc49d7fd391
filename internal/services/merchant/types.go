package merchant

import "merx/internal/repositories"

// CreateRequest onboards a new merchant under the calling tenant.
type CreateRequest struct {
	BusinessName string `json:"business_name"`
	BusinessType string `json:"business_type"`
	Email        string `json:"email"`
}

// Filter narrows merchant listings.
type Filter = repositories.MerchantFilter
