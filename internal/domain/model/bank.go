package model

import (
	"strings"
	"time"
)

// BankTransactionStatus describes matching state of an imported transfer.
type BankTransactionStatus string

const (
	BankTransactionPending   BankTransactionStatus = "pending"
	BankTransactionCompleted BankTransactionStatus = "completed"
	BankTransactionMatched   BankTransactionStatus = "matched"
)

// BankTransaction is an externally imported incoming transfer.
type BankTransaction struct {
	ID          string
	ExternalID  string
	Amount      int64
	Description string
	Status      BankTransactionStatus
	OrderID     string
	BookedAt    time.Time
	MatchedAt   *time.Time
}

// Matches reports whether the transfer settles the order: same amount and the
// transfer token appears in the description regardless of case.
func (t *BankTransaction) Matches(order *Order) bool {
	if t.Status == BankTransactionMatched || order.TransferToken == "" {
		return false
	}
	if t.Amount != order.Total {
		return false
	}
	return strings.Contains(strings.ToLower(t.Description), strings.ToLower(order.TransferToken))
}

// SweepReport summarises one reconciliation pass over pending transfer orders.
// Skipped counts orders with no fitting transaction in the inbox yet.
type SweepReport struct {
	Scanned int
	Matched int
	Updated int
	Skipped int
	Errors  int
}
