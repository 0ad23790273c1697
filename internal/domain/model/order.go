package model

import "time"

// PaymentMethod is the closed set of ways an order can be paid.
type PaymentMethod string

const (
	PaymentMethodCOD          PaymentMethod = "cod"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodMoMo         PaymentMethod = "momo"
	PaymentMethodWallet       PaymentMethod = "wallet"
)

// Valid reports whether the method belongs to the supported set.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodBankTransfer, PaymentMethodMoMo, PaymentMethodWallet:
		return true
	}
	return false
}

// PaymentStatus describes whether money for the order was collected.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// OrderStatus describes the fulfilment lifecycle.
type OrderStatus string

const (
	OrderStatusConfirming OrderStatus = "confirming"
	OrderStatusPacking    OrderStatus = "packing"
	OrderStatusShipping   OrderStatus = "shipping"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var fulfilmentRank = map[OrderStatus]int{
	OrderStatusConfirming: 0,
	OrderStatusPacking:    1,
	OrderStatusShipping:   2,
	OrderStatusDelivered:  3,
}

// Valid reports whether the status is known.
func (s OrderStatus) Valid() bool {
	if s == OrderStatusCancelled {
		return true
	}
	_, ok := fulfilmentRank[s]
	return ok
}

// Terminal reports whether no transition out of the status exists.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransition reports whether an order may move from s to next.
// Fulfilment only moves forward; cancellation is allowed from any non-terminal state.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if s.Terminal() || !next.Valid() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	return fulfilmentRank[next] > fulfilmentRank[s]
}

// PaymentSource names the signal that confirmed a payment.
type PaymentSource string

const (
	PaymentSourceGateway  PaymentSource = "gateway"
	PaymentSourceAdmin    PaymentSource = "admin"
	PaymentSourceDelivery PaymentSource = "delivery"
	PaymentSourceBank     PaymentSource = "bank"
	PaymentSourceWallet   PaymentSource = "wallet"
)

// OrderItem is a single ordered line.
type OrderItem struct {
	CatalogItemID      string
	VariantID          string
	Quantity           int
	UnitPrice          int64
	PromotionVariantID string
}

// FromPromotion reports whether the line was sold through a flash sale.
func (i OrderItem) FromPromotion() bool {
	return i.PromotionVariantID != ""
}

// Order is the purchase aggregate. Amounts are whole đồng.
type Order struct {
	ID            string
	CustomerName  string
	Email         string
	Phone         string
	Items         []OrderItem
	Total         int64
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	Status        OrderStatus
	TransferToken string
	VoucherCode   string
	Discount      int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	PaidAt        *time.Time
}

// Paid reports whether payment was collected.
func (o Order) Paid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// NewOrder describes checkout input.
type NewOrder struct {
	CustomerName  string
	Email         string
	Phone         string
	Items         []NewOrderItem
	PaymentMethod PaymentMethod
	VoucherCode   string
}

// NewOrderItem references a variant, optionally through a promotion.
type NewOrderItem struct {
	VariantID          string
	Quantity           int
	PromotionVariantID string
}

// GatewayCallback is the payment gateway notification about an order.
// ResultCode 0 means the payment succeeded.
type GatewayCallback struct {
	OrderID               string
	ResultCode            int
	Amount                int64
	ExternalTransactionID string
}

// PendingCursor marks the last order of a page read by the bank sweep.
type PendingCursor struct {
	CreatedAt time.Time
	ID        string
}

// After reports whether o sorts after the cursor by creation time, then id.
func (c PendingCursor) After(o Order) bool {
	if o.CreatedAt.Equal(c.CreatedAt) {
		return o.ID > c.ID
	}
	return o.CreatedAt.After(c.CreatedAt)
}
