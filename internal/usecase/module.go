package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/repository"
	"github.com/polkiloo/storefront/internal/lock"
)

// Module provides core business use cases to the fx container.
var Module = fx.Options(
	fx.Provide(
		NewAuthUseCase,
		NewCatalogUseCase,
		NewWalletUseCase,
		NewBankUseCase,
		newVoucherUseCase,
		newOrderUseCase,
		newReconciliationEngine,
	),
)

type voucherParams struct {
	fx.In

	Vouchers repository.VoucherRepository
	Config   *config.Config
	Logger   *slog.Logger
}

func newVoucherUseCase(p voucherParams) *VoucherUseCase {
	return NewVoucherUseCase(p.Vouchers, p.Logger, p.Config.VoucherPublicOncePerIdentity)
}

type orderParams struct {
	fx.In

	Orders    repository.OrderRepository
	Inventory repository.InventoryRepository
	Vouchers  *VoucherUseCase
	Locker    lock.Locker
	Events    EventPublisher
	Config    *config.Config
	Logger    *slog.Logger
}

func newOrderUseCase(p orderParams) *OrderUseCase {
	return NewOrderUseCase(p.Orders, p.Inventory, p.Vouchers, p.Locker, p.Events, p.Logger,
		OrderOptions{DuplicateWindow: p.Config.DuplicateWindow})
}

type engineParams struct {
	fx.In

	Orders    repository.OrderRepository
	Inventory repository.InventoryRepository
	Vouchers  *VoucherUseCase
	Wallets   *WalletUseCase
	Steps     repository.CascadeStepRepository
	Bank      repository.BankTransactionRepository
	Events    EventPublisher
	Locker    lock.Locker
	Config    *config.Config
	Logger    *slog.Logger
}

func newReconciliationEngine(p engineParams) *ReconciliationEngine {
	return NewReconciliationEngine(EngineDeps{
		Orders:    p.Orders,
		Inventory: p.Inventory,
		Vouchers:  p.Vouchers,
		Ledger:    p.Wallets,
		Steps:     p.Steps,
		Bank:      p.Bank,
		Events:    p.Events,
		Locker:    p.Locker,
		Logger:    p.Logger,
	}, EngineOptions{
		SweepBatch:   p.Config.ReconcileBatchSize,
		SweepLockTTL: p.Config.SweepLockTTL,
		SweepWorkers: p.Config.WorkerPoolSize,
	})
}
