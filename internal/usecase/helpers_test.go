package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/lock"
	testhelpers "github.com/polkiloo/storefront/internal/test"
)

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// steppingClock returns increasing instants so journal ordering is deterministic.
func steppingClock(start time.Time) func() time.Time {
	var (
		mu  sync.Mutex
		cur = start
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Second)
		return cur
	}
}

type fixture struct {
	store    *testhelpers.MemoryStore
	events   *testhelpers.EventRecorder
	locker   *lock.LocalLocker
	vouchers *VoucherUseCase
	wallets  *WalletUseCase
	orders   *OrderUseCase
	engine   *ReconciliationEngine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := testhelpers.NewMemoryStore()
	store.Now = steppingClock(fixedNow)
	events := &testhelpers.EventRecorder{}
	locker := lock.NewLocalLocker()
	logger := discardLogger()

	vouchers := NewVoucherUseCase(store.Vouchers(), logger, false)
	vouchers.now = func() time.Time { return fixedNow }
	wallets := NewWalletUseCase(store.Wallets())
	orders := NewOrderUseCase(store.Orders(), store.Inventory(), vouchers, locker, events, logger, OrderOptions{})
	orders.now = func() time.Time { return fixedNow }

	engine := NewReconciliationEngine(EngineDeps{
		Orders:    store.Orders(),
		Inventory: store.Inventory(),
		Vouchers:  vouchers,
		Ledger:    wallets,
		Steps:     store.CascadeSteps(),
		Bank:      store.BankTransactions(),
		Events:    events,
		Locker:    locker,
		Logger:    logger,
	}, EngineOptions{})

	seedCatalog(store)

	return &fixture{
		store:    store,
		events:   events,
		locker:   locker,
		vouchers: vouchers,
		wallets:  wallets,
		orders:   orders,
		engine:   engine,
	}
}

func seedCatalog(store *testhelpers.MemoryStore) {
	store.PutCatalogItem(model.CatalogItem{ID: "shirt", Name: "Shirt", Price: 100000})
	store.PutVariant(model.Variant{ID: "shirt-m", CatalogItemID: "shirt", Name: "M", Price: 100000, Stock: 5})
	store.PutCatalogItem(model.CatalogItem{ID: "cap", Name: "Cap", Price: 50000})
	store.PutVariant(model.Variant{ID: "cap-one", CatalogItemID: "cap", Name: "One size", Price: 50000, Stock: 10})
	store.PutPromotionVariant(model.PromotionVariant{
		ID:          "flash-shirt-m",
		PromotionID: "flash",
		VariantID:   "shirt-m",
		Price:       80000,
		Quantity:    3,
		StartsAt:    fixedNow.Add(-time.Hour),
		EndsAt:      fixedNow.Add(time.Hour),
	})
}

type orderOption func(*model.Order)

func withItems(items ...model.OrderItem) orderOption {
	return func(o *model.Order) {
		o.Items = items
		o.Total = 0
		for _, it := range items {
			o.Total += it.UnitPrice * int64(it.Quantity)
		}
	}
}

func withMethod(m model.PaymentMethod) orderOption {
	return func(o *model.Order) { o.PaymentMethod = m }
}

func withVoucher(code string) orderOption {
	return func(o *model.Order) { o.VoucherCode = code }
}

func withToken(token string) orderOption {
	return func(o *model.Order) { o.TransferToken = token }
}

func withTotal(total int64) orderOption {
	return func(o *model.Order) { o.Total = total }
}

func withCreatedAt(at time.Time) orderOption {
	return func(o *model.Order) {
		o.CreatedAt = at
		o.UpdatedAt = at
	}
}

func shirtLine(qty int) model.OrderItem {
	return model.OrderItem{CatalogItemID: "shirt", VariantID: "shirt-m", Quantity: qty, UnitPrice: 100000}
}

// putPendingOrder stores a pending, confirming order for one shirt paid through the gateway.
func (f *fixture) putPendingOrder(id string, opts ...orderOption) model.Order {
	o := model.Order{
		ID:            id,
		CustomerName:  "Lan",
		Email:         "lan@example.com",
		Phone:         "0901234567",
		PaymentMethod: model.PaymentMethodMoMo,
		PaymentStatus: model.PaymentStatusPending,
		Status:        model.OrderStatusConfirming,
		CreatedAt:     fixedNow,
		UpdatedAt:     fixedNow,
	}
	withItems(shirtLine(1))(&o)
	for _, opt := range opts {
		opt(&o)
	}
	f.store.PutOrder(o)
	return o
}

func stepState(report *model.CascadeReport, key string) model.StepState {
	for _, s := range report.Steps {
		if s.Key == key {
			return s.State
		}
	}
	return ""
}

func mustConfirm(t *testing.T, f *fixture, id string) *model.CascadeReport {
	t.Helper()
	report, err := f.engine.ConfirmPayment(context.Background(), id, model.PaymentSourceAdmin)
	if err != nil {
		t.Fatalf("confirm payment returned error: %v", err)
	}
	return report
}
