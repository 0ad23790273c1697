package model

import (
	"fmt"
	"time"
)

// StepKind identifies a side effect of a payment or cancellation.
type StepKind string

const (
	StepPromotion StepKind = "promotion"
	StepStock     StepKind = "stock"
	StepSales     StepKind = "sales"
	StepVoucher   StepKind = "voucher"
	StepRestock   StepKind = "restock"
	StepUnsales   StepKind = "unsales"
	StepRefund    StepKind = "refund"
)

// StepKey names one step for one order; Item is -1 for order level steps.
type StepKey struct {
	Kind StepKind
	Item int
}

func (k StepKey) String() string {
	if k.Item < 0 {
		return string(k.Kind)
	}
	return fmt.Sprintf("%s#%d", k.Kind, k.Item)
}

// StepState records how a step ended.
type StepState string

const (
	StepDone    StepState = "done"
	StepSkipped StepState = "skipped"
	StepFailed  StepState = "failed"
)

// Settled reports whether the step must not be retried.
func (s StepState) Settled() bool {
	return s == StepDone || s == StepSkipped
}

// CascadeStep is a persisted saga ledger row.
type CascadeStep struct {
	OrderID   string
	Key       string
	State     StepState
	Detail    string
	Attempts  int
	UpdatedAt time.Time
}

// StepResult reports a single step outcome to the caller.
type StepResult struct {
	Key    string
	State  StepState
	Detail string
}

// CascadeReport is returned by confirmation and status change entry points.
type CascadeReport struct {
	Order *Order
	// Claimed is true when this call performed the state transition.
	Claimed bool
	Source  PaymentSource
	Steps   []StepResult
}

// Failed returns steps that ended in failure.
func (r *CascadeReport) Failed() []StepResult {
	var failed []StepResult
	for _, s := range r.Steps {
		if s.State == StepFailed {
			failed = append(failed, s)
		}
	}
	return failed
}

// OrderEventType names events published about orders.
type OrderEventType string

const (
	OrderEventCreated       OrderEventType = "order.created"
	OrderEventPaid          OrderEventType = "order.paid"
	OrderEventStatusChanged OrderEventType = "order.status_changed"
	OrderEventCancelled     OrderEventType = "order.cancelled"
)

// OrderEvent is published after an order changes.
type OrderEvent struct {
	Type          OrderEventType `json:"type"`
	OrderID       string         `json:"order_id"`
	Status        OrderStatus    `json:"status"`
	PaymentStatus PaymentStatus  `json:"payment_status"`
	Source        PaymentSource  `json:"source,omitempty"`
	Total         int64          `json:"total"`
	OccurredAt    time.Time      `json:"occurred_at"`
}
