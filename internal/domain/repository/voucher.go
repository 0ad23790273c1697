package repository

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// VoucherRepository stores public and gift vouchers and their usage ledger.
type VoucherRepository interface {
	CreatePublic(ctx context.Context, v *model.PublicVoucher) error
	CreateGift(ctx context.Context, v *model.GiftVoucher) error
	GetByCode(ctx context.Context, code string) (model.Voucher, error)
	GetPopup(ctx context.Context) (*model.PublicVoucher, error)
	// SetPopup marks code as the only popup voucher.
	SetPopup(ctx context.Context, code string) error
	HasUsed(ctx context.Context, identity, code string) (bool, error)
	// ConsumePublic increments used and records usage atomically; ErrVoucherUnavailable when exhausted.
	ConsumePublic(ctx context.Context, usage model.VoucherUsage) error
	// ConsumeGift marks the gift used and records usage atomically; ErrVoucherUnavailable when used or disabled.
	ConsumeGift(ctx context.Context, usage model.VoucherUsage) error
	ListUsages(ctx context.Context, identity string) ([]model.VoucherUsage, error)
}
