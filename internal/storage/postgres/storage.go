package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/polkiloo/storefront/internal/domain/repository"
)

const uniqueViolation = "23505"

var errNotConnected = errors.New("storage not connected")

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

type userRepository struct {
	storage *Storage
}

type orderRepository struct {
	storage *Storage
}

type inventoryRepository struct {
	storage *Storage
}

type voucherRepository struct {
	storage *Storage
}

type walletRepository struct {
	storage *Storage
}

type bankRepository struct {
	storage *Storage
}

type cascadeRepository struct {
	storage *Storage
}

// Option tunes the pool before it connects.
type Option func(*pgxpool.Config)

// WithMaxConns bounds the pool. Non-positive values keep the pgx default.
func WithMaxConns(n int32) Option {
	return func(cfg *pgxpool.Config) {
		if n > 0 {
			cfg.MaxConns = n
		}
	}
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger, opts ...Option) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	for _, opt := range opts {
		opt(cfg)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Users() repository.UserRepository {
	return &userRepository{storage: s}
}

func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Inventory() repository.InventoryRepository {
	return &inventoryRepository{storage: s}
}

func (s *Storage) Vouchers() repository.VoucherRepository {
	return &voucherRepository{storage: s}
}

func (s *Storage) Wallets() repository.WalletRepository {
	return &walletRepository{storage: s}
}

func (s *Storage) BankTransactions() repository.BankTransactionRepository {
	return &bankRepository{storage: s}
}

func (s *Storage) CascadeSteps() repository.CascadeStepRepository {
	return &cascadeRepository{storage: s}
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            email TEXT UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	`CREATE TABLE IF NOT EXISTS catalog_items (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            price BIGINT NOT NULL,
            sold INTEGER NOT NULL DEFAULT 0 CHECK (sold >= 0),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	`CREATE TABLE IF NOT EXISTS variants (
            id TEXT PRIMARY KEY,
            catalog_item_id TEXT NOT NULL REFERENCES catalog_items(id),
            name TEXT NOT NULL,
            price BIGINT NOT NULL,
            stock INTEGER NOT NULL CHECK (stock >= 0)
        )`,
	`CREATE TABLE IF NOT EXISTS promotion_variants (
            id TEXT PRIMARY KEY,
            promotion_id TEXT NOT NULL,
            variant_id TEXT NOT NULL REFERENCES variants(id),
            price BIGINT NOT NULL,
            quantity INTEGER NOT NULL,
            sold INTEGER NOT NULL DEFAULT 0,
            starts_at TIMESTAMPTZ NOT NULL,
            ends_at TIMESTAMPTZ NOT NULL,
            CHECK (sold <= quantity)
        )`,
	`CREATE TABLE IF NOT EXISTS orders (
            id TEXT PRIMARY KEY,
            customer_name TEXT NOT NULL,
            email TEXT NOT NULL,
            phone TEXT NOT NULL,
            items JSONB NOT NULL,
            total BIGINT NOT NULL,
            payment_method TEXT NOT NULL,
            payment_status TEXT NOT NULL,
            status TEXT NOT NULL,
            transfer_token TEXT NOT NULL DEFAULT '',
            voucher_code TEXT NOT NULL DEFAULT '',
            discount BIGINT NOT NULL DEFAULT 0,
            dedupe_key TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            paid_at TIMESTAMPTZ
        )`,
	`CREATE TABLE IF NOT EXISTS vouchers (
            code TEXT PRIMARY KEY,
            kind TEXT NOT NULL,
            quantity INTEGER NOT NULL,
            used INTEGER NOT NULL DEFAULT 0,
            starts_at TIMESTAMPTZ,
            ends_at TIMESTAMPTZ,
            min_order BIGINT NOT NULL DEFAULT 0,
            percent INTEGER NOT NULL DEFAULT 0,
            max_discount BIGINT NOT NULL DEFAULT 0,
            popup BOOLEAN NOT NULL DEFAULT FALSE,
            recipient TEXT NOT NULL DEFAULT '',
            amount BIGINT NOT NULL DEFAULT 0,
            disabled BOOLEAN NOT NULL DEFAULT FALSE,
            expires_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK (used <= quantity)
        )`,
	`CREATE TABLE IF NOT EXISTS voucher_usages (
            id SERIAL PRIMARY KEY,
            identity TEXT NOT NULL,
            code TEXT NOT NULL REFERENCES vouchers(code),
            order_id TEXT NOT NULL,
            used BOOLEAN NOT NULL DEFAULT TRUE,
            used_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            expires_at TIMESTAMPTZ
        )`,
	`CREATE TABLE IF NOT EXISTS wallets (
            id SERIAL PRIMARY KEY,
            identity TEXT UNIQUE NOT NULL,
            balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	`CREATE TABLE IF NOT EXISTS wallet_deposits (
            id SERIAL PRIMARY KEY,
            wallet_id BIGINT NOT NULL REFERENCES wallets(id),
            amount BIGINT NOT NULL,
            reference TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	`CREATE TABLE IF NOT EXISTS wallet_movements (
            id SERIAL PRIMARY KEY,
            wallet_id BIGINT NOT NULL REFERENCES wallets(id),
            amount BIGINT NOT NULL,
            kind TEXT NOT NULL,
            reference TEXT NOT NULL DEFAULT '',
            payment_method TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	`CREATE TABLE IF NOT EXISTS bank_transactions (
            id TEXT PRIMARY KEY,
            external_id TEXT UNIQUE NOT NULL,
            amount BIGINT NOT NULL,
            description TEXT NOT NULL,
            status TEXT NOT NULL,
            order_id TEXT NOT NULL DEFAULT '',
            claimed_from TEXT NOT NULL DEFAULT '',
            booked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            matched_at TIMESTAMPTZ
        )`,
	`CREATE TABLE IF NOT EXISTS order_cascade_steps (
            order_id TEXT NOT NULL REFERENCES orders(id),
            step TEXT NOT NULL,
            state TEXT NOT NULL,
            detail TEXT NOT NULL DEFAULT '',
            attempts INTEGER NOT NULL DEFAULT 1,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY (order_id, step)
        )`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_open_transfer_token ON orders(transfer_token)
            WHERE transfer_token <> '' AND payment_status = 'pending' AND status <> 'cancelled'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_dedupe ON orders(dedupe_key) WHERE payment_status = 'pending' AND status <> 'cancelled'`,
	`CREATE INDEX IF NOT EXISTS idx_orders_pending ON orders(payment_status, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_email ON orders(email, created_at DESC)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_vouchers_popup ON vouchers(popup) WHERE popup`,
	`CREATE INDEX IF NOT EXISTS idx_voucher_usages_identity ON voucher_usages(identity, code)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_wallet_movements_reference ON wallet_movements(wallet_id, kind, reference) WHERE reference <> ''`,
	`CREATE INDEX IF NOT EXISTS idx_bank_transactions_amount ON bank_transactions(amount, status)`,
}

func (s *Storage) initSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	if s.pool == nil {
		return errNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
