package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// VoucherKind discriminates the voucher variants.
type VoucherKind string

const (
	VoucherKindPublic VoucherKind = "public"
	VoucherKindGift   VoucherKind = "gift"
)

// Voucher is either a *PublicVoucher or a *GiftVoucher.
type Voucher interface {
	VoucherCode() string
	Kind() VoucherKind
	// Applicable reports whether identity may apply the voucher to an order of total at the given time.
	Applicable(identity string, total int64, at time.Time) bool
	// DiscountFor returns the discount granted on total, never exceeding it.
	DiscountFor(total int64) int64
}

// PublicVoucher is a quantity pooled discount code.
type PublicVoucher struct {
	Code        string
	Quantity    int
	Used        int
	StartsAt    time.Time
	EndsAt      time.Time
	MinOrder    int64
	Percent     int
	MaxDiscount int64
	Popup       bool
	CreatedAt   time.Time
}

func (v *PublicVoucher) VoucherCode() string { return v.Code }
func (v *PublicVoucher) Kind() VoucherKind   { return VoucherKindPublic }

// Remaining returns unused quantity.
func (v *PublicVoucher) Remaining() int {
	if v.Used >= v.Quantity {
		return 0
	}
	return v.Quantity - v.Used
}

func (v *PublicVoucher) Applicable(_ string, total int64, at time.Time) bool {
	if v.Remaining() <= 0 {
		return false
	}
	if !v.StartsAt.IsZero() && at.Before(v.StartsAt) {
		return false
	}
	if !v.EndsAt.IsZero() && !at.Before(v.EndsAt) {
		return false
	}
	return total >= v.MinOrder
}

// DiscountFor applies the percentage and caps it by MaxDiscount when set.
func (v *PublicVoucher) DiscountFor(total int64) int64 {
	if total <= 0 || v.Percent <= 0 {
		return 0
	}
	discount := decimal.NewFromInt(total).
		Mul(decimal.NewFromInt(int64(v.Percent))).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()
	if v.MaxDiscount > 0 && discount > v.MaxDiscount {
		discount = v.MaxDiscount
	}
	if discount > total {
		discount = total
	}
	return discount
}

// GiftVoucher is a single recipient, single use code.
type GiftVoucher struct {
	Code      string
	Recipient string
	Amount    int64
	Used      bool
	Disabled  bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (v *GiftVoucher) VoucherCode() string { return v.Code }
func (v *GiftVoucher) Kind() VoucherKind   { return VoucherKindGift }

func (v *GiftVoucher) Applicable(identity string, _ int64, at time.Time) bool {
	if v.Used || v.Disabled {
		return false
	}
	if !v.ExpiresAt.IsZero() && !at.Before(v.ExpiresAt) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(identity), v.Recipient)
}

func (v *GiftVoucher) DiscountFor(total int64) int64 {
	if v.Amount > total {
		return total
	}
	return v.Amount
}

// VoucherUsage records that identity consumed a voucher for an order.
type VoucherUsage struct {
	ID        int64
	Identity  string
	Code      string
	OrderID   string
	Used      bool
	UsedAt    time.Time
	ExpiresAt *time.Time
}

// ConsumeOutcome explains what voucher consumption did.
type ConsumeOutcome string

const (
	ConsumeApplied     ConsumeOutcome = "applied"
	ConsumeNotFound    ConsumeOutcome = "not_found"
	ConsumeAlreadyUsed ConsumeOutcome = "already_used"
	ConsumeExhausted   ConsumeOutcome = "exhausted"
	ConsumeDisabled    ConsumeOutcome = "disabled"
)
