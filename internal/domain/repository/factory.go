package repository

// Factory describes access to different domain repositories.
type Factory interface {
	Users() UserRepository
	Orders() OrderRepository
	Inventory() InventoryRepository
	Vouchers() VoucherRepository
	Wallets() WalletRepository
	BankTransactions() BankTransactionRepository
	CascadeSteps() CascadeStepRepository
}
