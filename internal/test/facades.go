package test

import (
	"context"
	"sync"
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// SampleOrder returns a pending bank-transfer order used as a stub default.
func SampleOrder(id string) *model.Order {
	return &model.Order{
		ID:            id,
		CustomerName:  "Lan",
		Email:         "buyer@example.com",
		Phone:         "0901234567",
		Items:         []model.OrderItem{{CatalogItemID: "shirt", VariantID: "shirt-m", Quantity: 1, UnitPrice: 500000}},
		Total:         500000,
		PaymentMethod: model.PaymentMethodBankTransfer,
		PaymentStatus: model.PaymentStatusPending,
		Status:        model.OrderStatusConfirming,
		TransferToken: "DH123456",
		CreatedAt:     time.Unix(0, 0).UTC(),
		UpdatedAt:     time.Unix(0, 0).UTC(),
	}
}

func sampleReport(id string, source model.PaymentSource) *model.CascadeReport {
	order := SampleOrder(id)
	order.PaymentStatus = model.PaymentStatusPaid
	return &model.CascadeReport{
		Order:   order,
		Claimed: true,
		Source:  source,
		Steps:   []model.StepResult{{Key: "stock#0", State: model.StepDone}},
	}
}

// OrderFacadeStub provides controllable behaviour for order endpoints.
type OrderFacadeStub struct {
	CheckoutFn func(context.Context, model.NewOrder) (*model.Order, bool, error)
	OrderFn    func(context.Context, string) (*model.Order, error)
	OrdersFn   func(context.Context, string) ([]model.Order, error)
	QRFn       func(context.Context, string) ([]byte, error)
	PayFn      func(context.Context, string, string) (*model.CascadeReport, error)
}

// Checkout delegates to provided function or returns a new order.
func (s OrderFacadeStub) Checkout(ctx context.Context, in model.NewOrder) (*model.Order, bool, error) {
	if s.CheckoutFn != nil {
		return s.CheckoutFn(ctx, in)
	}
	order := SampleOrder("order-1")
	order.PaymentMethod = in.PaymentMethod
	return order, true, nil
}

func (s OrderFacadeStub) Order(ctx context.Context, id string) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, id)
	}
	return SampleOrder(id), nil
}

// CustomerOrders returns predefined orders for given email.
func (s OrderFacadeStub) CustomerOrders(ctx context.Context, email string) ([]model.Order, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, email)
	}
	return []model.Order{*SampleOrder("order-1")}, nil
}

func (s OrderFacadeStub) TransferQR(ctx context.Context, id string) ([]byte, error) {
	if s.QRFn != nil {
		return s.QRFn(ctx, id)
	}
	return []byte("\x89PNG"), nil
}

func (s OrderFacadeStub) PayWithWallet(ctx context.Context, orderID, identity string) (*model.CascadeReport, error) {
	if s.PayFn != nil {
		return s.PayFn(ctx, orderID, identity)
	}
	return sampleReport(orderID, model.PaymentSourceWallet), nil
}

// WalletFacadeStub simulates wallet reads.
type WalletFacadeStub struct {
	WalletFn  func(context.Context, string) (*model.Wallet, error)
	HistoryFn func(context.Context, string) ([]model.LedgerEntry, error)
}

func (s WalletFacadeStub) Wallet(ctx context.Context, identity string) (*model.Wallet, error) {
	if s.WalletFn != nil {
		return s.WalletFn(ctx, identity)
	}
	return &model.Wallet{ID: 1, Identity: identity, Balance: 150000}, nil
}

func (s WalletFacadeStub) WalletHistory(ctx context.Context, identity string) ([]model.LedgerEntry, error) {
	if s.HistoryFn != nil {
		return s.HistoryFn(ctx, identity)
	}
	return []model.LedgerEntry{{Type: model.LedgerEntryDeposit, Amount: 150000, CreatedAt: time.Unix(0, 0).UTC()}}, nil
}

// VoucherFacadeStub simulates public voucher queries.
type VoucherFacadeStub struct {
	PopupFn  func(context.Context) (*model.PublicVoucher, error)
	QuoteFn  func(context.Context, string, string, int64) (int64, error)
	UsagesFn func(context.Context, string) ([]model.VoucherUsage, error)
}

func (s VoucherFacadeStub) PopupVoucher(ctx context.Context) (*model.PublicVoucher, error) {
	if s.PopupFn != nil {
		return s.PopupFn(ctx)
	}
	return &model.PublicVoucher{Code: "WELCOME", Quantity: 10, Used: 2, Percent: 10, Popup: true}, nil
}

func (s VoucherFacadeStub) QuoteVoucher(ctx context.Context, code, identity string, total int64) (int64, error) {
	if s.QuoteFn != nil {
		return s.QuoteFn(ctx, code, identity, total)
	}
	return total / 10, nil
}

func (s VoucherFacadeStub) VoucherUsages(ctx context.Context, identity string) ([]model.VoucherUsage, error) {
	if s.UsagesFn != nil {
		return s.UsagesFn(ctx, identity)
	}
	return nil, nil
}

// PaymentFacadeStub records gateway callbacks.
type PaymentFacadeStub struct {
	CallbackFn func(context.Context, model.GatewayCallback) error
}

func (s PaymentFacadeStub) HandleGatewayCallback(ctx context.Context, cb model.GatewayCallback) error {
	if s.CallbackFn != nil {
		return s.CallbackFn(ctx, cb)
	}
	return nil
}

// AdminFacadeStub simulates back office operations.
type AdminFacadeStub struct {
	ConfirmFn   func(context.Context, string, model.PaymentSource) (*model.CascadeReport, error)
	StatusFn    func(context.Context, string, model.OrderStatus) (*model.CascadeReport, error)
	ReprocessFn func(context.Context, string) (*model.CascadeReport, error)
	SweepFn     func(context.Context) (*model.SweepReport, error)
	ImportFn    func(context.Context, []model.BankTransaction) (int, error)
	UnmatchedFn func(context.Context, int) ([]model.BankTransaction, error)
	PublicFn    func(context.Context, *model.PublicVoucher) error
	GiftFn      func(context.Context, *model.GiftVoucher) error
	SetPopupFn  func(context.Context, string) error
	CatalogFn   func(context.Context, string) (*model.CatalogItem, error)
	PatchFn     func(context.Context, string, model.CatalogItemPatch) (*model.CatalogItem, error)
	DepositFn   func(context.Context, string, int64, string) (*model.Wallet, error)
}

func (s AdminFacadeStub) ConfirmPayment(ctx context.Context, id string, source model.PaymentSource) (*model.CascadeReport, error) {
	if s.ConfirmFn != nil {
		return s.ConfirmFn(ctx, id, source)
	}
	return sampleReport(id, source), nil
}

func (s AdminFacadeStub) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (*model.CascadeReport, error) {
	if s.StatusFn != nil {
		return s.StatusFn(ctx, id, status)
	}
	report := sampleReport(id, "")
	report.Order.Status = status
	return report, nil
}

func (s AdminFacadeStub) ReprocessOrder(ctx context.Context, id string) (*model.CascadeReport, error) {
	if s.ReprocessFn != nil {
		return s.ReprocessFn(ctx, id)
	}
	return sampleReport(id, model.PaymentSourceAdmin), nil
}

func (s AdminFacadeStub) ScanAndAutoConfirm(ctx context.Context) (*model.SweepReport, error) {
	if s.SweepFn != nil {
		return s.SweepFn(ctx)
	}
	return &model.SweepReport{Scanned: 2, Matched: 1, Updated: 1, Skipped: 1}, nil
}

func (s AdminFacadeStub) ImportBankTransactions(ctx context.Context, txs []model.BankTransaction) (int, error) {
	if s.ImportFn != nil {
		return s.ImportFn(ctx, txs)
	}
	return len(txs), nil
}

func (s AdminFacadeStub) UnmatchedBankTransactions(ctx context.Context, limit int) ([]model.BankTransaction, error) {
	if s.UnmatchedFn != nil {
		return s.UnmatchedFn(ctx, limit)
	}
	return []model.BankTransaction{{ID: "tx-1", ExternalID: "ext-1", Amount: 500000, Description: "DH123456", Status: model.BankTransactionCompleted}}, nil
}

func (s AdminFacadeStub) CreatePublicVoucher(ctx context.Context, v *model.PublicVoucher) error {
	if s.PublicFn != nil {
		return s.PublicFn(ctx, v)
	}
	return nil
}

func (s AdminFacadeStub) CreateGiftVoucher(ctx context.Context, v *model.GiftVoucher) error {
	if s.GiftFn != nil {
		return s.GiftFn(ctx, v)
	}
	return nil
}

func (s AdminFacadeStub) SetPopupVoucher(ctx context.Context, code string) error {
	if s.SetPopupFn != nil {
		return s.SetPopupFn(ctx, code)
	}
	return nil
}

func (s AdminFacadeStub) CatalogItem(ctx context.Context, id string) (*model.CatalogItem, error) {
	if s.CatalogFn != nil {
		return s.CatalogFn(ctx, id)
	}
	return &model.CatalogItem{ID: id, Name: "Shirt", Price: 100000, Sold: 3}, nil
}

func (s AdminFacadeStub) PatchCatalogItem(ctx context.Context, id string, patch model.CatalogItemPatch) (*model.CatalogItem, error) {
	if s.PatchFn != nil {
		return s.PatchFn(ctx, id, patch)
	}
	item := &model.CatalogItem{ID: id, Name: "Shirt", Price: 100000, Sold: 3}
	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Price != nil {
		item.Price = *patch.Price
	}
	return item, nil
}

func (s AdminFacadeStub) Deposit(ctx context.Context, identity string, amount int64, reference string) (*model.Wallet, error) {
	if s.DepositFn != nil {
		return s.DepositFn(ctx, identity, amount, reference)
	}
	return &model.Wallet{ID: 1, Identity: identity, Balance: amount}, nil
}

// StorefrontFacadeStub aggregates every stub to satisfy the router facade.
type StorefrontFacadeStub struct {
	AuthFacadeStub
	OrderFacadeStub
	WalletFacadeStub
	VoucherFacadeStub
	PaymentFacadeStub
	AdminFacadeStub
}

// WorkerFacadeStub mimics worker interactions with the storefront facade.
type WorkerFacadeStub struct {
	ImportFn func(context.Context) (int, error)
	SweepFn  func(context.Context) (*model.SweepReport, error)

	mu      sync.Mutex
	imports int
	sweeps  int
}

// ImportBankFeed counts pulls and delegates to ImportFn.
func (s *WorkerFacadeStub) ImportBankFeed(ctx context.Context) (int, error) {
	s.mu.Lock()
	s.imports++
	s.mu.Unlock()
	if s.ImportFn != nil {
		return s.ImportFn(ctx)
	}
	return 0, nil
}

// ScanAndAutoConfirm counts sweeps and delegates to SweepFn.
func (s *WorkerFacadeStub) ScanAndAutoConfirm(ctx context.Context) (*model.SweepReport, error) {
	s.mu.Lock()
	s.sweeps++
	s.mu.Unlock()
	if s.SweepFn != nil {
		return s.SweepFn(ctx)
	}
	return &model.SweepReport{}, nil
}

// Counts returns how many feed pulls and sweeps ran.
func (s *WorkerFacadeStub) Counts() (imports, sweeps int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.imports, s.sweeps
}

// BankFeedStub returns queued batches on successive fetches.
type BankFeedStub struct {
	mu      sync.Mutex
	Batches [][]model.BankTransaction
	Err     error
	Since   []time.Time
}

func (s *BankFeedStub) Fetch(_ context.Context, since time.Time) ([]model.BankTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Since = append(s.Since, since)
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.Batches) == 0 {
		return nil, nil
	}
	batch := s.Batches[0]
	s.Batches = s.Batches[1:]
	return batch, nil
}
