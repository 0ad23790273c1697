package dto

import "time"

// BankTransactionRequest describes an incoming transfer imported by an operator.
type BankTransactionRequest struct {
	ExternalID  string    `json:"external_id"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	BookedAt    time.Time `json:"booked_at"`
}

// ImportResponse reports how many transfers were new.
type ImportResponse struct {
	Imported int `json:"imported"`
}

// BankTransactionResponse describes a stored transfer.
type BankTransactionResponse struct {
	ID          string    `json:"id"`
	ExternalID  string    `json:"external_id"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	OrderID     string    `json:"order_id,omitempty"`
	BookedAt    time.Time `json:"booked_at"`
}
