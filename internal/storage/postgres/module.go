package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// Module wires PostgreSQL storage and repository adapters.
var Module = fx.Options(
	fx.Provide(newStorage),
	fx.Provide(
		func(s *Storage) repository.UserRepository { return s.Users() },
		func(s *Storage) repository.OrderRepository { return s.Orders() },
		func(s *Storage) repository.InventoryRepository { return s.Inventory() },
		func(s *Storage) repository.VoucherRepository { return s.Vouchers() },
		func(s *Storage) repository.WalletRepository { return s.Wallets() },
		func(s *Storage) repository.BankTransactionRepository { return s.BankTransactions() },
		func(s *Storage) repository.CascadeStepRepository { return s.CascadeSteps() },
	),
	fx.Invoke(registerLifecycle),
)

// reservedConns covers HTTP traffic on top of the reconciliation workers.
const reservedConns = 4

type storageParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

func newStorage(p storageParams) (*Storage, error) {
	maxConns := int32(p.Config.WorkerPoolSize + reservedConns)
	return New(p.Ctx, p.Config.DatabaseURI, p.Logger, WithMaxConns(maxConns))
}

func registerLifecycle(lc fx.Lifecycle, storage *Storage) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := storage.HealthCheck(ctx); err != nil {
				return fmt.Errorf("postgres not reachable: %w", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			storage.Close()
			return nil
		},
	})
}
