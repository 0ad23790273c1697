package usecase

import (
	"context"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// Ledger is the narrow wallet capability used by the reconciliation engine.
type Ledger interface {
	Credit(ctx context.Context, req model.LedgerRequest) (*model.Wallet, error)
	Debit(ctx context.Context, req model.LedgerRequest) (*model.Wallet, error)
	Balance(ctx context.Context, identity string) (int64, error)
}

// WalletUseCase manages customer wallets keyed by email identity.
type WalletUseCase struct {
	wallets repository.WalletRepository
}

var _ Ledger = (*WalletUseCase)(nil)

// NewWalletUseCase constructs WalletUseCase.
func NewWalletUseCase(wallets repository.WalletRepository) *WalletUseCase {
	return &WalletUseCase{wallets: wallets}
}

// Get returns the wallet, creating an empty one on first access.
func (u *WalletUseCase) Get(ctx context.Context, identity string) (*model.Wallet, error) {
	identity = NormalizeEmail(identity)
	if identity == "" {
		return nil, domainErrors.ErrInvalidCredentials
	}
	return u.wallets.GetOrCreate(ctx, identity)
}

// Balance returns the current wallet balance.
func (u *WalletUseCase) Balance(ctx context.Context, identity string) (int64, error) {
	w, err := u.Get(ctx, identity)
	if err != nil {
		return 0, err
	}
	return w.Balance, nil
}

// Deposit tops up the wallet.
func (u *WalletUseCase) Deposit(ctx context.Context, identity string, amount int64, reference string) (*model.Wallet, error) {
	identity = NormalizeEmail(identity)
	if identity == "" {
		return nil, domainErrors.ErrInvalidCredentials
	}
	if amount <= 0 {
		return nil, domainErrors.ErrInvalidAmount
	}
	return u.wallets.Deposit(ctx, identity, amount, reference)
}

// Refund credits amount labelled with the method the money was originally paid with.
func (u *WalletUseCase) Refund(ctx context.Context, identity string, amount int64, reference string, method model.PaymentMethod) (*model.Wallet, error) {
	return u.Credit(ctx, model.LedgerRequest{
		Identity:      identity,
		Amount:        amount,
		Kind:          model.MovementRefund,
		Reference:     reference,
		PaymentMethod: method,
	})
}

// Spend debits amount; ErrInsufficientBalance when the wallet is short.
func (u *WalletUseCase) Spend(ctx context.Context, identity string, amount int64, reference string) (*model.Wallet, error) {
	return u.Debit(ctx, model.LedgerRequest{
		Identity:      identity,
		Amount:        amount,
		Kind:          model.MovementSpend,
		Reference:     reference,
		PaymentMethod: model.PaymentMethodWallet,
	})
}

// PayOrder debits the order amount once per order id.
func (u *WalletUseCase) PayOrder(ctx context.Context, identity, orderID string, amount int64) (*model.Wallet, error) {
	if orderID == "" {
		return nil, domainErrors.ErrInvalidOrder
	}
	return u.Debit(ctx, model.LedgerRequest{
		Identity:      identity,
		Amount:        amount,
		Kind:          model.MovementOrderPayment,
		Reference:     orderID,
		PaymentMethod: model.PaymentMethodWallet,
	})
}

// Credit appends a positive movement.
func (u *WalletUseCase) Credit(ctx context.Context, req model.LedgerRequest) (*model.Wallet, error) {
	if err := normalizeLedgerRequest(&req); err != nil {
		return nil, err
	}
	return u.wallets.Credit(ctx, req)
}

// Debit appends a negative movement.
func (u *WalletUseCase) Debit(ctx context.Context, req model.LedgerRequest) (*model.Wallet, error) {
	if err := normalizeLedgerRequest(&req); err != nil {
		return nil, err
	}
	return u.wallets.Debit(ctx, req)
}

// History returns deposits and movements merged newest first.
func (u *WalletUseCase) History(ctx context.Context, identity string) ([]model.LedgerEntry, error) {
	identity = NormalizeEmail(identity)
	if identity == "" {
		return nil, domainErrors.ErrInvalidCredentials
	}
	return u.wallets.History(ctx, identity)
}

func normalizeLedgerRequest(req *model.LedgerRequest) error {
	req.Identity = NormalizeEmail(req.Identity)
	if req.Identity == "" {
		return domainErrors.ErrInvalidCredentials
	}
	if req.Amount <= 0 {
		return domainErrors.ErrInvalidAmount
	}
	return nil
}
