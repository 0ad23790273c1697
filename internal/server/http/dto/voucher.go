package dto

import "time"

// PublicVoucherRequest creates a pooled discount code.
type PublicVoucherRequest struct {
	Code        string     `json:"code"`
	Quantity    int        `json:"quantity"`
	Percent     int        `json:"percent"`
	MinOrder    int64      `json:"min_order"`
	MaxDiscount int64      `json:"max_discount"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
}

// GiftVoucherRequest creates a single recipient code.
type GiftVoucherRequest struct {
	Code      string     `json:"code"`
	Recipient string     `json:"recipient"`
	Amount    int64      `json:"amount"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// PopupRequest selects the popup voucher.
type PopupRequest struct {
	Code string `json:"code"`
}

// PopupResponse describes the voucher advertised in the storefront popup.
type PopupResponse struct {
	Code        string     `json:"code"`
	Percent     int        `json:"percent"`
	MinOrder    int64      `json:"min_order"`
	MaxDiscount int64      `json:"max_discount"`
	Remaining   int        `json:"remaining"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
}

// QuoteRequest asks what a voucher is worth on an order.
type QuoteRequest struct {
	Code  string `json:"code"`
	Email string `json:"email"`
	Total int64  `json:"total"`
}

// QuoteResponse carries the granted discount.
type QuoteResponse struct {
	Code     string `json:"code"`
	Discount int64  `json:"discount"`
}

// VoucherUsageResponse describes voucher ledger entry.
type VoucherUsageResponse struct {
	Code    string    `json:"code"`
	OrderID string    `json:"order_id"`
	UsedAt  time.Time `json:"used_at"`
}
