package repository

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// WalletRepository manages wallets with their deposit and movement journals.
type WalletRepository interface {
	GetOrCreate(ctx context.Context, identity string) (*model.Wallet, error)
	Deposit(ctx context.Context, identity string, amount int64, reference string) (*model.Wallet, error)
	// Credit appends a positive movement and raises the balance in one transaction.
	Credit(ctx context.Context, req model.LedgerRequest) (*model.Wallet, error)
	// Debit appends a negative movement; ErrInsufficientBalance when the balance is short.
	// A repeated order payment with the same reference returns ErrAlreadyExists.
	Debit(ctx context.Context, req model.LedgerRequest) (*model.Wallet, error)
	History(ctx context.Context, identity string) ([]model.LedgerEntry, error)
}
