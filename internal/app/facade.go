package app

import (
	"context"
	"sync"
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/usecase"
)

// BankFeed pulls incoming transfers from the bank.
type BankFeed interface {
	Fetch(ctx context.Context, since time.Time) ([]model.BankTransaction, error)
}

// Services groups the use cases behind the facade.
type Services struct {
	Auth     *usecase.AuthUseCase
	Orders   *usecase.OrderUseCase
	Engine   *usecase.ReconciliationEngine
	Wallets  *usecase.WalletUseCase
	Vouchers *usecase.VoucherUseCase
	Catalog  *usecase.CatalogUseCase
	Bank     *usecase.BankUseCase
}

// StorefrontFacade is the single entry point used by HTTP handlers and the worker.
type StorefrontFacade struct {
	auth     *usecase.AuthUseCase
	orders   *usecase.OrderUseCase
	engine   *usecase.ReconciliationEngine
	wallets  *usecase.WalletUseCase
	vouchers *usecase.VoucherUseCase
	catalog  *usecase.CatalogUseCase
	bank     *usecase.BankUseCase
	feed     BankFeed

	feedMu     sync.Mutex
	feedCursor time.Time
}

func NewStorefrontFacade(s Services, feed BankFeed) *StorefrontFacade {
	return &StorefrontFacade{
		auth:     s.Auth,
		orders:   s.Orders,
		engine:   s.Engine,
		wallets:  s.Wallets,
		vouchers: s.Vouchers,
		catalog:  s.Catalog,
		bank:     s.Bank,
		feed:     feed,
	}
}

func (f *StorefrontFacade) Register(ctx context.Context, email, password string) (string, error) {
	_, token, err := f.auth.Register(ctx, email, password)
	return token, err
}

func (f *StorefrontFacade) Authenticate(ctx context.Context, email, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, email, password)
	return token, err
}

func (f *StorefrontFacade) ParseToken(token string) (int64, error) {
	return f.auth.ParseToken(token)
}

// Identity resolves the email identity of an authenticated user.
func (f *StorefrontFacade) Identity(ctx context.Context, userID int64) (string, error) {
	user, err := f.auth.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

func (f *StorefrontFacade) Checkout(ctx context.Context, in model.NewOrder) (*model.Order, bool, error) {
	return f.orders.Checkout(ctx, in)
}

func (f *StorefrontFacade) Order(ctx context.Context, id string) (*model.Order, error) {
	return f.orders.Get(ctx, id)
}

func (f *StorefrontFacade) CustomerOrders(ctx context.Context, email string) ([]model.Order, error) {
	return f.orders.ListByEmail(ctx, email)
}

func (f *StorefrontFacade) TransferQR(ctx context.Context, orderID string) ([]byte, error) {
	return f.orders.TransferQR(ctx, orderID)
}

func (f *StorefrontFacade) PayWithWallet(ctx context.Context, orderID, identity string) (*model.CascadeReport, error) {
	return f.engine.PayWithWallet(ctx, orderID, identity)
}

func (f *StorefrontFacade) Wallet(ctx context.Context, identity string) (*model.Wallet, error) {
	return f.wallets.Get(ctx, identity)
}

func (f *StorefrontFacade) WalletHistory(ctx context.Context, identity string) ([]model.LedgerEntry, error) {
	return f.wallets.History(ctx, identity)
}

func (f *StorefrontFacade) Deposit(ctx context.Context, identity string, amount int64, reference string) (*model.Wallet, error) {
	return f.wallets.Deposit(ctx, identity, amount, reference)
}

func (f *StorefrontFacade) HandleGatewayCallback(ctx context.Context, cb model.GatewayCallback) error {
	return f.engine.HandleGatewayCallback(ctx, cb)
}

func (f *StorefrontFacade) ConfirmPayment(ctx context.Context, orderID string, source model.PaymentSource) (*model.CascadeReport, error) {
	return f.engine.ConfirmPayment(ctx, orderID, source)
}

func (f *StorefrontFacade) UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.CascadeReport, error) {
	return f.engine.UpdateStatus(ctx, orderID, status)
}

func (f *StorefrontFacade) ReprocessOrder(ctx context.Context, orderID string) (*model.CascadeReport, error) {
	return f.engine.Reprocess(ctx, orderID)
}

func (f *StorefrontFacade) ScanAndAutoConfirm(ctx context.Context) (*model.SweepReport, error) {
	return f.engine.ScanAndAutoConfirm(ctx)
}

func (f *StorefrontFacade) ImportBankTransactions(ctx context.Context, txs []model.BankTransaction) (int, error) {
	return f.bank.Import(ctx, txs)
}

func (f *StorefrontFacade) UnmatchedBankTransactions(ctx context.Context, limit int) ([]model.BankTransaction, error) {
	return f.bank.Unmatched(ctx, limit)
}

// ImportBankFeed pulls transfers booked since the last pull and stores the new ones.
// The cursor only advances after a successful import so failed batches are fetched again.
func (f *StorefrontFacade) ImportBankFeed(ctx context.Context) (int, error) {
	f.feedMu.Lock()
	defer f.feedMu.Unlock()

	txs, err := f.feed.Fetch(ctx, f.feedCursor)
	if err != nil {
		return 0, err
	}
	imported, err := f.bank.Import(ctx, txs)
	if err != nil {
		return 0, err
	}
	for _, tx := range txs {
		if tx.BookedAt.After(f.feedCursor) {
			f.feedCursor = tx.BookedAt
		}
	}
	return imported, nil
}

func (f *StorefrontFacade) CreatePublicVoucher(ctx context.Context, v *model.PublicVoucher) error {
	return f.vouchers.CreatePublic(ctx, v)
}

func (f *StorefrontFacade) CreateGiftVoucher(ctx context.Context, v *model.GiftVoucher) error {
	return f.vouchers.CreateGift(ctx, v)
}

func (f *StorefrontFacade) SetPopupVoucher(ctx context.Context, code string) error {
	return f.vouchers.SetPopup(ctx, code)
}

func (f *StorefrontFacade) PopupVoucher(ctx context.Context) (*model.PublicVoucher, error) {
	return f.vouchers.Popup(ctx)
}

func (f *StorefrontFacade) QuoteVoucher(ctx context.Context, code, identity string, total int64) (int64, error) {
	return f.vouchers.Quote(ctx, code, identity, total)
}

func (f *StorefrontFacade) VoucherUsages(ctx context.Context, identity string) ([]model.VoucherUsage, error) {
	return f.vouchers.Usages(ctx, identity)
}

func (f *StorefrontFacade) CatalogItem(ctx context.Context, id string) (*model.CatalogItem, error) {
	return f.catalog.Get(ctx, id)
}

func (f *StorefrontFacade) PatchCatalogItem(ctx context.Context, id string, patch model.CatalogItemPatch) (*model.CatalogItem, error) {
	return f.catalog.Patch(ctx, id, patch)
}
