package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// VoucherConsumer records voucher usage for a paid order.
type VoucherConsumer interface {
	Consume(ctx context.Context, code, identity, orderID string) (model.ConsumeOutcome, error)
}

// VoucherUseCase manages public and gift vouchers.
type VoucherUseCase struct {
	vouchers repository.VoucherRepository
	logger   *slog.Logger
	// publicOncePerIdentity applies the per-identity usage gate to public codes too.
	publicOncePerIdentity bool
	now                   func() time.Time
}

var _ VoucherConsumer = (*VoucherUseCase)(nil)

// NewVoucherUseCase constructs VoucherUseCase.
func NewVoucherUseCase(vouchers repository.VoucherRepository, logger *slog.Logger, publicOncePerIdentity bool) *VoucherUseCase {
	return &VoucherUseCase{
		vouchers:              vouchers,
		logger:                logger,
		publicOncePerIdentity: publicOncePerIdentity,
		now:                   time.Now,
	}
}

// NormalizeCode canonicalises voucher codes.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreatePublic validates and stores a public voucher.
func (u *VoucherUseCase) CreatePublic(ctx context.Context, v *model.PublicVoucher) error {
	v.Code = NormalizeCode(v.Code)
	switch {
	case v.Code == "":
		return domainErrors.ErrInvalidVoucher
	case v.Quantity <= 0:
		return domainErrors.ErrInvalidVoucher
	case v.Percent <= 0 || v.Percent > 100:
		return domainErrors.ErrInvalidVoucher
	case v.MinOrder < 0 || v.MaxDiscount < 0:
		return domainErrors.ErrInvalidVoucher
	case !v.StartsAt.IsZero() && !v.EndsAt.IsZero() && !v.EndsAt.After(v.StartsAt):
		return domainErrors.ErrInvalidVoucher
	}
	v.Used = 0
	return u.vouchers.CreatePublic(ctx, v)
}

// CreateGift validates and stores a gift voucher.
func (u *VoucherUseCase) CreateGift(ctx context.Context, v *model.GiftVoucher) error {
	v.Code = NormalizeCode(v.Code)
	v.Recipient = NormalizeEmail(v.Recipient)
	if v.Code == "" || !validEmail(v.Recipient) || v.Amount <= 0 {
		return domainErrors.ErrInvalidVoucher
	}
	v.Used = false
	return u.vouchers.CreateGift(ctx, v)
}

// SetPopup makes code the single popup voucher.
func (u *VoucherUseCase) SetPopup(ctx context.Context, code string) error {
	return u.vouchers.SetPopup(ctx, NormalizeCode(code))
}

// Popup returns the current popup voucher.
func (u *VoucherUseCase) Popup(ctx context.Context) (*model.PublicVoucher, error) {
	return u.vouchers.GetPopup(ctx)
}

// Get returns the voucher by code.
func (u *VoucherUseCase) Get(ctx context.Context, code string) (model.Voucher, error) {
	return u.vouchers.GetByCode(ctx, NormalizeCode(code))
}

// Usages lists the usage ledger of an identity.
func (u *VoucherUseCase) Usages(ctx context.Context, identity string) ([]model.VoucherUsage, error) {
	return u.vouchers.ListUsages(ctx, NormalizeEmail(identity))
}

func (u *VoucherUseCase) gated(v model.Voucher) bool {
	return v.Kind() == model.VoucherKindGift || u.publicOncePerIdentity
}

// Quote returns the discount code grants identity on an order of total.
// ErrVoucherUnavailable when the voucher cannot be applied.
func (u *VoucherUseCase) Quote(ctx context.Context, code, identity string, total int64) (int64, error) {
	code, identity = NormalizeCode(code), NormalizeEmail(identity)
	v, err := u.vouchers.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return 0, domainErrors.ErrVoucherUnavailable
		}
		return 0, err
	}
	if u.gated(v) {
		used, err := u.vouchers.HasUsed(ctx, identity, code)
		if err != nil {
			return 0, err
		}
		if used {
			return 0, domainErrors.ErrVoucherUnavailable
		}
	}
	if !v.Applicable(identity, total, u.now()) {
		return 0, domainErrors.ErrVoucherUnavailable
	}
	return v.DiscountFor(total), nil
}

// Consume records that identity used code on orderID. Business outcomes such
// as exhaustion are reported through the outcome; errors are infrastructure failures.
func (u *VoucherUseCase) Consume(ctx context.Context, code, identity, orderID string) (model.ConsumeOutcome, error) {
	code, identity = NormalizeCode(code), NormalizeEmail(identity)
	logger := u.logger.With(slog.String("voucher", code), slog.String("order", orderID))

	v, err := u.vouchers.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			logger.Warn("voucher not found, skipping consumption")
			return model.ConsumeNotFound, nil
		}
		return "", err
	}

	if u.gated(v) {
		used, err := u.vouchers.HasUsed(ctx, identity, code)
		if err != nil {
			return "", err
		}
		if used {
			logger.Info("voucher already used by identity", slog.String("identity", identity))
			return model.ConsumeAlreadyUsed, nil
		}
	}

	usage := model.VoucherUsage{Identity: identity, Code: code, OrderID: orderID, Used: true, UsedAt: u.now()}

	switch voucher := v.(type) {
	case *model.GiftVoucher:
		if voucher.Used {
			return model.ConsumeAlreadyUsed, nil
		}
		if voucher.Disabled {
			return model.ConsumeDisabled, nil
		}
		if !voucher.ExpiresAt.IsZero() {
			expires := voucher.ExpiresAt
			usage.ExpiresAt = &expires
		}
		if err := u.vouchers.ConsumeGift(ctx, usage); err != nil {
			if errors.Is(err, domainErrors.ErrVoucherUnavailable) {
				return model.ConsumeAlreadyUsed, nil
			}
			return "", err
		}
	case *model.PublicVoucher:
		if voucher.Remaining() <= 0 {
			logger.Info("voucher exhausted")
			return model.ConsumeExhausted, nil
		}
		if !voucher.EndsAt.IsZero() {
			ends := voucher.EndsAt
			usage.ExpiresAt = &ends
		}
		if err := u.vouchers.ConsumePublic(ctx, usage); err != nil {
			if errors.Is(err, domainErrors.ErrVoucherUnavailable) {
				return model.ConsumeExhausted, nil
			}
			return "", err
		}
	default:
		return model.ConsumeNotFound, nil
	}

	return model.ConsumeApplied, nil
}
