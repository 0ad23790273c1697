package repository

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// BankTransactionRepository is the inbox of imported bank transactions.
type BankTransactionRepository interface {
	// Import stores transactions and skips external ids that are already known.
	Import(ctx context.Context, txs []model.BankTransaction) (int, error)
	FindCandidates(ctx context.Context, amount int64, token string) ([]model.BankTransaction, error)
	// Claim marks the transaction matched for orderID if it is not matched yet.
	Claim(ctx context.Context, id, orderID string) (bool, error)
	// Release reverts a claim that could not be settled.
	Release(ctx context.Context, id, orderID string) error
	ListUnmatched(ctx context.Context, limit int) ([]model.BankTransaction, error)
}
