package model

import "time"

// Wallet holds a user's stored value. Balance is the sum of deposits and signed movements.
type Wallet struct {
	ID        int64
	Identity  string
	Balance   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MovementKind labels a refund or spend entry.
type MovementKind string

const (
	MovementRefund       MovementKind = "refund"
	MovementSpend        MovementKind = "spend"
	MovementOrderPayment MovementKind = "order_payment"
)

// Deposit is a credit that tops up a wallet.
type Deposit struct {
	ID        int64
	WalletID  int64
	Amount    int64
	Reference string
	CreatedAt time.Time
}

// Movement is a refund (positive amount) or a spend (negative amount).
type Movement struct {
	ID            int64
	WalletID      int64
	Amount        int64
	Kind          MovementKind
	Reference     string
	PaymentMethod PaymentMethod
	CreatedAt     time.Time
}

// LedgerEntryType distinguishes journals in a merged history.
type LedgerEntryType string

const (
	LedgerEntryDeposit  LedgerEntryType = "deposit"
	LedgerEntryMovement LedgerEntryType = "movement"
)

// LedgerEntry is one line of a wallet history.
type LedgerEntry struct {
	Type          LedgerEntryType
	Amount        int64
	Kind          MovementKind
	Reference     string
	PaymentMethod PaymentMethod
	CreatedAt     time.Time
}

// LedgerRequest describes a wallet credit or debit.
type LedgerRequest struct {
	Identity      string
	Amount        int64
	Kind          MovementKind
	Reference     string
	PaymentMethod PaymentMethod
}
