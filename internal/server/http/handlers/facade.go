package handlers

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, email, password string) (string, error)
	ParseToken(token string) (int64, error)
	IdentityResolver
}

// IdentityResolver maps an authenticated user to the email identity used by orders and wallets.
type IdentityResolver interface {
	Identity(ctx context.Context, userID int64) (string, error)
}

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	Checkout(ctx context.Context, in model.NewOrder) (*model.Order, bool, error)
	Order(ctx context.Context, id string) (*model.Order, error)
	CustomerOrders(ctx context.Context, email string) ([]model.Order, error)
	TransferQR(ctx context.Context, id string) ([]byte, error)
	PayWithWallet(ctx context.Context, orderID, identity string) (*model.CascadeReport, error)
}

// WalletFacade provides wallet reads.
type WalletFacade interface {
	Wallet(ctx context.Context, identity string) (*model.Wallet, error)
	WalletHistory(ctx context.Context, identity string) ([]model.LedgerEntry, error)
}

// VoucherFacade provides storefront voucher queries.
type VoucherFacade interface {
	PopupVoucher(ctx context.Context) (*model.PublicVoucher, error)
	QuoteVoucher(ctx context.Context, code, identity string, total int64) (int64, error)
	VoucherUsages(ctx context.Context, identity string) ([]model.VoucherUsage, error)
}

// PaymentFacade consumes payment gateway notifications.
type PaymentFacade interface {
	HandleGatewayCallback(ctx context.Context, cb model.GatewayCallback) error
}

// AdminFacade groups back office operations.
type AdminFacade interface {
	ConfirmPayment(ctx context.Context, id string, source model.PaymentSource) (*model.CascadeReport, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (*model.CascadeReport, error)
	ReprocessOrder(ctx context.Context, id string) (*model.CascadeReport, error)
	ScanAndAutoConfirm(ctx context.Context) (*model.SweepReport, error)
	ImportBankTransactions(ctx context.Context, txs []model.BankTransaction) (int, error)
	UnmatchedBankTransactions(ctx context.Context, limit int) ([]model.BankTransaction, error)
	CreatePublicVoucher(ctx context.Context, v *model.PublicVoucher) error
	CreateGiftVoucher(ctx context.Context, v *model.GiftVoucher) error
	SetPopupVoucher(ctx context.Context, code string) error
	CatalogItem(ctx context.Context, id string) (*model.CatalogItem, error)
	PatchCatalogItem(ctx context.Context, id string, patch model.CatalogItemPatch) (*model.CatalogItem, error)
	Deposit(ctx context.Context, identity string, amount int64, reference string) (*model.Wallet, error)
}

// StorefrontFacade aggregates the full set of operations used across handlers.
type StorefrontFacade interface {
	AuthFacade
	OrderFacade
	WalletFacade
	VoucherFacade
	PaymentFacade
	AdminFacade
}
