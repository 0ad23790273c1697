package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
	"github.com/polkiloo/storefront/internal/lock"
)

const (
	defaultDuplicateWindow = 5 * time.Minute
	checkoutLockTTL        = 10 * time.Second
	tokenAttempts          = 3
	qrSize                 = 256
)

// VoucherQuoter prices a voucher at checkout.
type VoucherQuoter interface {
	Quote(ctx context.Context, code, identity string, total int64) (int64, error)
}

// OrderOptions tunes checkout behaviour.
type OrderOptions struct {
	DuplicateWindow time.Duration
}

// OrderUseCase encapsulates checkout and order queries.
type OrderUseCase struct {
	orders    repository.OrderRepository
	inventory repository.InventoryRepository
	vouchers  VoucherQuoter
	locker    lock.Locker
	events    EventPublisher
	logger    *slog.Logger
	window    time.Duration
	now       func() time.Time
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(
	orders repository.OrderRepository,
	inventory repository.InventoryRepository,
	vouchers VoucherQuoter,
	locker lock.Locker,
	events EventPublisher,
	logger *slog.Logger,
	opts OrderOptions,
) *OrderUseCase {
	window := opts.DuplicateWindow
	if window <= 0 {
		window = defaultDuplicateWindow
	}
	return &OrderUseCase{
		orders:    orders,
		inventory: inventory,
		vouchers:  vouchers,
		locker:    locker,
		events:    events,
		logger:    logger,
		window:    window,
		now:       time.Now,
	}
}

func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if (r >= '0' && r <= '9') || (r == '+' && b.Len() == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (u *OrderUseCase) validate(in *model.NewOrder) error {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.Email = NormalizeEmail(in.Email)
	in.Phone = normalizePhone(in.Phone)
	in.VoucherCode = NormalizeCode(in.VoucherCode)

	if in.CustomerName == "" || !validEmail(in.Email) || len(in.Phone) < 6 {
		return domainErrors.ErrInvalidOrder
	}
	if !in.PaymentMethod.Valid() || len(in.Items) == 0 {
		return domainErrors.ErrInvalidOrder
	}
	for _, it := range in.Items {
		if it.VariantID == "" || it.Quantity < 1 {
			return domainErrors.ErrInvalidOrder
		}
	}
	return nil
}

// price resolves unit prices from the catalog or the promotion and checks availability.
func (u *OrderUseCase) price(ctx context.Context, in model.NewOrder, now time.Time) ([]model.OrderItem, int64, error) {
	items := make([]model.OrderItem, 0, len(in.Items))
	var subtotal int64

	for _, line := range in.Items {
		variant, err := u.inventory.GetVariant(ctx, line.VariantID)
		if err != nil {
			if errors.Is(err, domainErrors.ErrNotFound) {
				return nil, 0, fmt.Errorf("variant %s: %w", line.VariantID, domainErrors.ErrInvalidOrder)
			}
			return nil, 0, err
		}
		if variant.Stock < line.Quantity {
			return nil, 0, fmt.Errorf("variant %s: %w", variant.ID, domainErrors.ErrInsufficientStock)
		}

		item := model.OrderItem{
			CatalogItemID: variant.CatalogItemID,
			VariantID:     variant.ID,
			Quantity:      line.Quantity,
			UnitPrice:     variant.Price,
		}
		if line.PromotionVariantID != "" {
			promo, err := u.inventory.GetPromotionVariant(ctx, line.PromotionVariantID)
			if err != nil {
				if errors.Is(err, domainErrors.ErrNotFound) {
					return nil, 0, fmt.Errorf("promotion %s: %w", line.PromotionVariantID, domainErrors.ErrInvalidOrder)
				}
				return nil, 0, err
			}
			if promo.VariantID != variant.ID || !promo.Active(now) {
				return nil, 0, fmt.Errorf("promotion %s: %w", promo.ID, domainErrors.ErrInvalidOrder)
			}
			if promo.Remaining() < line.Quantity {
				return nil, 0, fmt.Errorf("promotion %s: %w", promo.ID, domainErrors.ErrPromotionSoldOut)
			}
			item.UnitPrice = promo.Price
			item.PromotionVariantID = promo.ID
		}

		subtotal += item.UnitPrice * int64(item.Quantity)
		items = append(items, item)
	}
	return items, subtotal, nil
}

// DedupeKey identifies submissions with the same phone, total and method within one window bucket.
func DedupeKey(phone string, total int64, method model.PaymentMethod, at time.Time, window time.Duration) string {
	return fmt.Sprintf("%s|%d|%s|%d", phone, total, method, at.Truncate(window).Unix())
}

// TransferToken renders the bank-transfer matching token for the given instant.
func TransferToken(at time.Time, attempt int) string {
	return fmt.Sprintf("DH%06d", (at.UnixMilli()+int64(attempt))%1_000_000)
}

// Checkout validates and stores a new order. A pending order with the same
// phone, total and method submitted within the duplicate window is returned
// instead with created=false.
func (u *OrderUseCase) Checkout(ctx context.Context, in model.NewOrder) (*model.Order, bool, error) {
	if err := u.validate(&in); err != nil {
		return nil, false, err
	}

	now := u.now()
	items, subtotal, err := u.price(ctx, in, now)
	if err != nil {
		return nil, false, err
	}

	var discount int64
	if in.VoucherCode != "" {
		discount, err = u.vouchers.Quote(ctx, in.VoucherCode, in.Email, subtotal)
		if err != nil {
			return nil, false, err
		}
	}
	total := subtotal - discount

	lockKey := fmt.Sprintf("checkout:%s|%d|%s", in.Phone, total, in.PaymentMethod)
	unlock, err := u.locker.Acquire(ctx, lockKey, checkoutLockTTL)
	switch {
	case err == nil:
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				u.logger.Warn("release checkout lock", slog.String("error", err.Error()))
			}
		}()
	case errors.Is(err, lock.ErrNotAcquired):
		u.logger.Info("concurrent checkout in progress", slog.String("phone", in.Phone))
	default:
		u.logger.Warn("checkout lock unavailable", slog.String("error", err.Error()))
	}

	criteria := repository.DuplicateCriteria{
		Phone:         in.Phone,
		Total:         total,
		PaymentMethod: in.PaymentMethod,
		Since:         now.Add(-u.window),
	}
	existing, err := u.orders.FindPendingDuplicate(ctx, criteria)
	if err == nil {
		u.logger.Info("duplicate order suppressed", slog.String("order", existing.ID))
		return existing, false, nil
	}
	if !errors.Is(err, domainErrors.ErrNotFound) {
		return nil, false, err
	}

	order := &model.Order{
		ID:            uuid.NewString(),
		CustomerName:  in.CustomerName,
		Email:         in.Email,
		Phone:         in.Phone,
		Items:         items,
		Total:         total,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: model.PaymentStatusPending,
		Status:        model.OrderStatusConfirming,
		VoucherCode:   in.VoucherCode,
		Discount:      discount,
	}
	dedupeKey := DedupeKey(in.Phone, total, in.PaymentMethod, now, u.window)

	for attempt := 0; attempt < tokenAttempts; attempt++ {
		if order.PaymentMethod == model.PaymentMethodBankTransfer {
			order.TransferToken = TransferToken(now, attempt)
		}
		stored, created, err := u.orders.Create(ctx, order, dedupeKey)
		if errors.Is(err, domainErrors.ErrAlreadyExists) && order.TransferToken != "" {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		if !created {
			u.logger.Info("duplicate order suppressed on insert", slog.String("order", stored.ID))
			return stored, false, nil
		}
		u.publish(ctx, orderEvent(model.OrderEventCreated, stored, ""))
		return stored, true, nil
	}
	return nil, false, fmt.Errorf("allocate transfer token: %w", domainErrors.ErrAlreadyExists)
}

func (u *OrderUseCase) publish(ctx context.Context, event model.OrderEvent) {
	if err := u.events.Publish(ctx, event); err != nil {
		u.logger.Warn("publish order event", slog.String("order", event.OrderID), slog.String("error", err.Error()))
	}
}

// Get returns an order by id.
func (u *OrderUseCase) Get(ctx context.Context, id string) (*model.Order, error) {
	return u.orders.GetByID(ctx, id)
}

// ListByEmail returns the customer's orders newest first.
func (u *OrderUseCase) ListByEmail(ctx context.Context, email string) ([]model.Order, error) {
	return u.orders.ListByEmail(ctx, NormalizeEmail(email))
}

// TransferQR renders a PNG QR code carrying the transfer token and amount of a pending bank-transfer order.
func (u *OrderUseCase) TransferQR(ctx context.Context, id string) ([]byte, error) {
	order, err := u.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != model.PaymentMethodBankTransfer || order.TransferToken == "" || order.Paid() {
		return nil, domainErrors.ErrInvalidOrder
	}
	payload := fmt.Sprintf("amount=%d;memo=%s", order.Total, order.TransferToken)
	return qrcode.Encode(payload, qrcode.Medium, qrSize)
}
