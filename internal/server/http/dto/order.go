package dto

import "time"

// CheckoutItem references a variant, optionally through a flash sale.
type CheckoutItem struct {
	VariantID          string `json:"variant_id"`
	Quantity           int    `json:"quantity"`
	PromotionVariantID string `json:"promotion_variant_id,omitempty"`
}

// CheckoutRequest describes checkout payload.
type CheckoutRequest struct {
	CustomerName  string         `json:"customer_name"`
	Email         string         `json:"email"`
	Phone         string         `json:"phone"`
	PaymentMethod string         `json:"payment_method"`
	VoucherCode   string         `json:"voucher_code,omitempty"`
	Items         []CheckoutItem `json:"items"`
}

// OrderItemResponse is one ordered line.
type OrderItemResponse struct {
	CatalogItemID      string `json:"catalog_item_id"`
	VariantID          string `json:"variant_id"`
	Quantity           int    `json:"quantity"`
	UnitPrice          int64  `json:"unit_price"`
	PromotionVariantID string `json:"promotion_variant_id,omitempty"`
}

// OrderResponse describes an order.
type OrderResponse struct {
	ID            string              `json:"id"`
	CustomerName  string              `json:"customer_name"`
	Email         string              `json:"email"`
	Phone         string              `json:"phone"`
	Items         []OrderItemResponse `json:"items"`
	Total         int64               `json:"total"`
	Discount      int64               `json:"discount,omitempty"`
	VoucherCode   string              `json:"voucher_code,omitempty"`
	PaymentMethod string              `json:"payment_method"`
	PaymentStatus string              `json:"payment_status"`
	Status        string              `json:"status"`
	TransferToken string              `json:"transfer_token,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	PaidAt        *time.Time          `json:"paid_at,omitempty"`
}

// StepResponse reports a single cascade step.
type StepResponse struct {
	Key    string `json:"key"`
	State  string `json:"state"`
	Detail string `json:"detail,omitempty"`
}

// CascadeReportResponse is returned by admin order operations.
type CascadeReportResponse struct {
	Order   OrderResponse  `json:"order"`
	Claimed bool           `json:"claimed"`
	Source  string         `json:"source,omitempty"`
	Steps   []StepResponse `json:"steps"`
}

// StatusRequest moves an order to a new fulfilment status.
type StatusRequest struct {
	Status string `json:"status"`
}

// ConfirmRequest names the signal behind a manual confirmation.
type ConfirmRequest struct {
	Source string `json:"source"`
}

// SweepResponse summarises a reconciliation pass.
type SweepResponse struct {
	Scanned int `json:"scanned"`
	Matched int `json:"matched"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}
