package dto

import "time"

// WalletResponse describes wallet balance.
type WalletResponse struct {
	Identity string `json:"identity"`
	Balance  int64  `json:"balance"`
}

// LedgerEntryResponse describes wallet history entry.
type LedgerEntryResponse struct {
	Type          string    `json:"type"`
	Amount        int64     `json:"amount"`
	Kind          string    `json:"kind,omitempty"`
	Reference     string    `json:"reference,omitempty"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// DepositRequest tops up a customer wallet.
type DepositRequest struct {
	Identity  string `json:"identity"`
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}
