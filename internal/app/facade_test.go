package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/lock"
	testhelpers "github.com/polkiloo/storefront/internal/test"
	"github.com/polkiloo/storefront/internal/usecase"
)

func newFacade(feed BankFeed) (*StorefrontFacade, *testhelpers.MemoryStore) {
	store := testhelpers.NewMemoryStore()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	events := &testhelpers.EventRecorder{}
	locker := lock.NewLocalLocker()

	strategy := testhelpers.StrategyStub{ParseFn: func(string) (int64, error) { return 1, nil }}
	vouchers := usecase.NewVoucherUseCase(store.Vouchers(), logger, false)
	wallets := usecase.NewWalletUseCase(store.Wallets())

	services := Services{
		Auth:     usecase.NewAuthUseCase(store.Users(), testhelpers.HasherStub{}, strategy),
		Orders:   usecase.NewOrderUseCase(store.Orders(), store.Inventory(), vouchers, locker, events, logger, usecase.OrderOptions{}),
		Wallets:  wallets,
		Vouchers: vouchers,
		Catalog:  usecase.NewCatalogUseCase(store.Inventory()),
		Bank:     usecase.NewBankUseCase(store.BankTransactions()),
		Engine: usecase.NewReconciliationEngine(usecase.EngineDeps{
			Orders:    store.Orders(),
			Inventory: store.Inventory(),
			Vouchers:  vouchers,
			Ledger:    wallets,
			Steps:     store.CascadeSteps(),
			Bank:      store.BankTransactions(),
			Events:    events,
			Locker:    locker,
			Logger:    logger,
		}, usecase.EngineOptions{}),
	}

	store.PutCatalogItem(model.CatalogItem{ID: "shirt", Name: "Shirt", Price: 500000})
	store.PutVariant(model.Variant{ID: "shirt-m", CatalogItemID: "shirt", Name: "M", Price: 500000, Stock: 3})

	return NewStorefrontFacade(services, feed), store
}

func TestStorefrontFacadeAuth(t *testing.T) {
	facade, _ := newFacade(&testhelpers.BankFeedStub{})
	ctx := context.Background()

	token, err := facade.Register(ctx, "Lan@Example.com", "secret-pass")
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if token != "token-1" {
		t.Fatalf("unexpected token %q", token)
	}
	if _, err := facade.Authenticate(ctx, "lan@example.com", "secret-pass"); err != nil {
		t.Fatalf("authenticate returned error: %v", err)
	}

	id, err := facade.ParseToken("anything")
	if err != nil || id != 1 {
		t.Fatalf("unexpected parse result %d, %v", id, err)
	}
	identity, err := facade.Identity(ctx, id)
	if err != nil {
		t.Fatalf("identity returned error: %v", err)
	}
	if identity != "lan@example.com" {
		t.Fatalf("expected normalized email identity, got %q", identity)
	}
}

func TestStorefrontFacadeCheckoutAndBankFlow(t *testing.T) {
	feed := &testhelpers.BankFeedStub{}
	facade, store := newFacade(feed)
	ctx := context.Background()

	order, created, err := facade.Checkout(ctx, model.NewOrder{
		CustomerName:  "Lan",
		Email:         "lan@example.com",
		Phone:         "0901234567",
		PaymentMethod: model.PaymentMethodBankTransfer,
		Items:         []model.NewOrderItem{{VariantID: "shirt-m", Quantity: 1}},
	})
	if err != nil || !created {
		t.Fatalf("checkout failed: created=%v err=%v", created, err)
	}

	png, err := facade.TransferQR(ctx, order.ID)
	if err != nil || len(png) == 0 {
		t.Fatalf("expected qr code, got %d bytes, %v", len(png), err)
	}

	booked := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	feed.Batches = [][]model.BankTransaction{{{
		ExternalID:  "ext-1",
		Amount:      order.Total,
		Description: "chuyen tien " + order.TransferToken + " tu group",
		BookedAt:    booked,
	}}}

	imported, err := facade.ImportBankFeed(ctx)
	if err != nil || imported != 1 {
		t.Fatalf("expected one imported transaction, got %d, %v", imported, err)
	}

	report, err := facade.ScanAndAutoConfirm(ctx)
	if err != nil {
		t.Fatalf("sweep returned error: %v", err)
	}
	if report.Updated != 1 {
		t.Fatalf("expected order to be confirmed, got %+v", report)
	}
	if stored := store.Order(order.ID); !stored.Paid() {
		t.Fatal("expected order to be paid")
	}

	if _, err := facade.ImportBankFeed(ctx); err != nil {
		t.Fatalf("second import returned error: %v", err)
	}
	if len(feed.Since) != 2 || !feed.Since[1].Equal(booked) {
		t.Fatalf("expected cursor to advance to %v, got %v", booked, feed.Since)
	}

	unmatched, err := facade.UnmatchedBankTransactions(ctx, 10)
	if err != nil || len(unmatched) != 0 {
		t.Fatalf("expected no unmatched transactions, got %d, %v", len(unmatched), err)
	}

	orders, err := facade.CustomerOrders(ctx, "lan@example.com")
	if err != nil || len(orders) != 1 {
		t.Fatalf("expected one customer order, got %d, %v", len(orders), err)
	}
}

func TestStorefrontFacadeFeedErrorKeepsCursor(t *testing.T) {
	boom := errors.New("bank down")
	feed := &testhelpers.BankFeedStub{Err: boom}
	facade, _ := newFacade(feed)

	if _, err := facade.ImportBankFeed(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected feed error, got %v", err)
	}
	if !facade.feedCursor.IsZero() {
		t.Fatalf("expected cursor to stay unset, got %v", facade.feedCursor)
	}
}

func TestStorefrontFacadeAdminOperations(t *testing.T) {
	facade, store := newFacade(&testhelpers.BankFeedStub{})
	ctx := context.Background()
	store.PutOrder(*testhelpers.SampleOrder("o-1"))

	report, err := facade.ConfirmPayment(ctx, "o-1", model.PaymentSourceAdmin)
	if err != nil || !report.Claimed {
		t.Fatalf("expected claim, got %+v, %v", report, err)
	}
	if _, err := facade.UpdateOrderStatus(ctx, "o-1", model.OrderStatusPacking); err != nil {
		t.Fatalf("update status returned error: %v", err)
	}
	if _, err := facade.ReprocessOrder(ctx, "o-1"); err != nil {
		t.Fatalf("reprocess returned error: %v", err)
	}
	if _, err := facade.UpdateOrderStatus(ctx, "o-1", model.OrderStatusConfirming); !errors.Is(err, domainErrors.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	if err := facade.CreatePublicVoucher(ctx, &model.PublicVoucher{Code: "spring", Quantity: 2, Percent: 10}); err != nil {
		t.Fatalf("create public voucher returned error: %v", err)
	}
	if err := facade.SetPopupVoucher(ctx, "SPRING"); err != nil {
		t.Fatalf("set popup returned error: %v", err)
	}
	popup, err := facade.PopupVoucher(ctx)
	if err != nil || popup.Code != "SPRING" {
		t.Fatalf("unexpected popup %+v, %v", popup, err)
	}
	discount, err := facade.QuoteVoucher(ctx, "spring", "lan@example.com", 100000)
	if err != nil || discount != 10000 {
		t.Fatalf("unexpected quote %d, %v", discount, err)
	}
	if err := facade.CreateGiftVoucher(ctx, &model.GiftVoucher{Code: "g", Recipient: "lan@example.com", Amount: 1}); err != nil {
		t.Fatalf("create gift voucher returned error: %v", err)
	}

	price := int64(450000)
	item, err := facade.PatchCatalogItem(ctx, "shirt", model.CatalogItemPatch{Price: &price})
	if err != nil || item.Price != price {
		t.Fatalf("unexpected patched item %+v, %v", item, err)
	}
	if got, err := facade.CatalogItem(ctx, "shirt"); err != nil || got.Sold != 1 {
		t.Fatalf("expected sold counter from confirmation, got %+v, %v", got, err)
	}

	if _, err := facade.Deposit(ctx, "buyer@example.com", 1000, "topup"); err != nil {
		t.Fatalf("deposit returned error: %v", err)
	}
	wallet, err := facade.Wallet(ctx, "buyer@example.com")
	if err != nil || wallet.Balance != 1000 {
		t.Fatalf("unexpected wallet %+v, %v", wallet, err)
	}
	history, err := facade.WalletHistory(ctx, "buyer@example.com")
	if err != nil || len(history) != 1 {
		t.Fatalf("unexpected history %+v, %v", history, err)
	}

	if _, err := facade.ImportBankTransactions(ctx, []model.BankTransaction{{ExternalID: "m-1", Amount: 5, Description: "x"}}); err != nil {
		t.Fatalf("manual import returned error: %v", err)
	}
	if usages, err := facade.VoucherUsages(ctx, "lan@example.com"); err != nil || len(usages) != 0 {
		t.Fatalf("expected no usages, got %v, %v", usages, err)
	}
}

func TestStorefrontFacadeGatewayAndWallet(t *testing.T) {
	facade, store := newFacade(&testhelpers.BankFeedStub{})
	ctx := context.Background()

	gw := testhelpers.SampleOrder("o-gw")
	gw.PaymentMethod = model.PaymentMethodMoMo
	gw.TransferToken = ""
	store.PutOrder(*gw)

	if err := facade.HandleGatewayCallback(ctx, model.GatewayCallback{OrderID: "o-gw", Amount: gw.Total}); err != nil {
		t.Fatalf("gateway callback returned error: %v", err)
	}
	if !store.Order("o-gw").Paid() {
		t.Fatal("expected gateway payment to be confirmed")
	}

	w := testhelpers.SampleOrder("o-wallet")
	w.PaymentMethod = model.PaymentMethodWallet
	w.TransferToken = ""
	store.PutOrder(*w)
	if _, err := facade.Deposit(ctx, w.Email, w.Total, ""); err != nil {
		t.Fatalf("deposit returned error: %v", err)
	}

	report, err := facade.PayWithWallet(ctx, "o-wallet", w.Email)
	if err != nil || !report.Claimed {
		t.Fatalf("expected wallet payment, got %+v, %v", report, err)
	}
	if got, _ := facade.Order(ctx, "o-wallet"); !got.Paid() {
		t.Fatal("expected wallet order to be paid")
	}
}
