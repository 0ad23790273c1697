package errors

import "errors"

var (
	ErrAlreadyExists       = errors.New("already exists")
	ErrNotFound            = errors.New("not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidOrder        = errors.New("invalid order")
	ErrInvalidTransition   = errors.New("invalid order status transition")
	ErrConcurrentUpdate    = errors.New("order was modified concurrently")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrPromotionSoldOut    = errors.New("promotion allocation exhausted")
	ErrVoucherUnavailable  = errors.New("voucher unavailable")
	ErrInvalidVoucher      = errors.New("invalid voucher definition")
	ErrProtectedField      = errors.New("field can only be changed through dedicated operations")
	ErrSweepInProgress     = errors.New("reconciliation sweep already running")
)
