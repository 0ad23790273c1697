package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// BankUseCase maintains the bank transaction inbox.
type BankUseCase struct {
	bank repository.BankTransactionRepository
}

// NewBankUseCase constructs BankUseCase.
func NewBankUseCase(bank repository.BankTransactionRepository) *BankUseCase {
	return &BankUseCase{bank: bank}
}

// Import stores incoming transfers, ignoring external ids already known.
// It returns how many transactions were new.
func (u *BankUseCase) Import(ctx context.Context, txs []model.BankTransaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}
	batch := make([]model.BankTransaction, 0, len(txs))
	for _, tx := range txs {
		tx.ExternalID = strings.TrimSpace(tx.ExternalID)
		if tx.ExternalID == "" || tx.Amount <= 0 {
			return 0, domainErrors.ErrInvalidAmount
		}
		if tx.ID == "" {
			tx.ID = uuid.NewString()
		}
		if tx.Status == "" || tx.Status == model.BankTransactionMatched {
			tx.Status = model.BankTransactionCompleted
		}
		tx.OrderID = ""
		tx.MatchedAt = nil
		batch = append(batch, tx)
	}
	return u.bank.Import(ctx, batch)
}

// Unmatched lists transactions not linked to an order yet.
func (u *BankUseCase) Unmatched(ctx context.Context, limit int) ([]model.BankTransaction, error) {
	return u.bank.ListUnmatched(ctx, limit)
}
