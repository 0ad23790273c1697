package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmockv3 "github.com/pashagolub/pgxmock/v3"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

var walletCols = []string{"id", "identity", "balance", "created_at", "updated_at"}

func expectWalletLock(mock pgxmockv3.PgxPoolIface, identity string, balance int64) {
	now := time.Now()
	mock.ExpectExec("INSERT INTO wallets").WithArgs(identity).WillReturnResult(pgxmockv3.NewResult("INSERT", 0))
	mock.ExpectQuery("FROM wallets WHERE identity=").WithArgs(identity).WillReturnRows(
		pgxmockv3.NewRows(walletCols).AddRow(int64(7), identity, balance, now, now))
}

func expectBalance(mock pgxmockv3.PgxPoolIface, delta, balance int64) {
	mock.ExpectQuery("UPDATE wallets SET balance=balance").WithArgs(int64(7), delta).WillReturnRows(
		pgxmockv3.NewRows([]string{"balance", "updated_at"}).AddRow(balance, time.Now()))
}

func TestWalletRepositoryGetOrCreate(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &walletRepository{storage: storage}

	mock.ExpectBegin()
	expectWalletLock(mock, "a@example.com", 0)
	mock.ExpectCommit()
	w, err := repo.GetOrCreate(context.Background(), "a@example.com")
	if err != nil || w.ID != 7 || w.Balance != 0 {
		t.Fatalf("unexpected wallet: %+v err=%v", w, err)
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO wallets").WithArgs("a@example.com").WillReturnError(errors.New("insert"))
	mock.ExpectRollback()
	if _, err := repo.GetOrCreate(context.Background(), "a@example.com"); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestWalletRepositoryDeposit(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &walletRepository{storage: storage}

	mock.ExpectBegin()
	expectWalletLock(mock, "a@example.com", 100)
	mock.ExpectExec("INSERT INTO wallet_deposits").WithArgs(int64(7), int64(50), "momo-1").WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	expectBalance(mock, 50, 150)
	mock.ExpectCommit()
	w, err := repo.Deposit(context.Background(), "a@example.com", 50, "momo-1")
	if err != nil || w.Balance != 150 {
		t.Fatalf("unexpected wallet: %+v err=%v", w, err)
	}

	if _, err := repo.Deposit(context.Background(), "a@example.com", 0, ""); !errors.Is(err, domainErrors.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestWalletRepositoryMovements(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &walletRepository{storage: storage}
	ctx := context.Background()

	refund := model.LedgerRequest{Identity: "a@example.com", Amount: 500, Kind: model.MovementRefund, Reference: "o1", PaymentMethod: model.PaymentMethodMoMo}
	mock.ExpectBegin()
	expectWalletLock(mock, "a@example.com", 0)
	mock.ExpectExec("INSERT INTO wallet_movements").WithArgs(int64(7), int64(500), model.MovementRefund, "o1", model.PaymentMethodMoMo).
		WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	expectBalance(mock, 500, 500)
	mock.ExpectCommit()
	w, err := repo.Credit(ctx, refund)
	if err != nil || w.Balance != 500 {
		t.Fatalf("unexpected wallet: %+v err=%v", w, err)
	}

	mock.ExpectBegin()
	expectWalletLock(mock, "a@example.com", 500)
	mock.ExpectExec("INSERT INTO wallet_movements").WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()
	if _, err := repo.Credit(ctx, refund); !errors.Is(err, domainErrors.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}

	spend := model.LedgerRequest{Identity: "a@example.com", Amount: 800, Kind: model.MovementOrderPayment, Reference: "o2", PaymentMethod: model.PaymentMethodWallet}
	mock.ExpectBegin()
	expectWalletLock(mock, "a@example.com", 500)
	mock.ExpectRollback()
	if _, err := repo.Debit(ctx, spend); !errors.Is(err, domainErrors.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	spend.Amount = 200
	mock.ExpectBegin()
	expectWalletLock(mock, "a@example.com", 500)
	mock.ExpectExec("INSERT INTO wallet_movements").WithArgs(int64(7), int64(-200), model.MovementOrderPayment, "o2", model.PaymentMethodWallet).
		WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	expectBalance(mock, -200, 300)
	mock.ExpectCommit()
	w, err = repo.Debit(ctx, spend)
	if err != nil || w.Balance != 300 {
		t.Fatalf("unexpected wallet: %+v err=%v", w, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestWalletRepositoryHistory(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &walletRepository{storage: storage}

	now := time.Now()
	mock.ExpectQuery("FROM wallet_deposits").WithArgs("a@example.com").WillReturnRows(
		pgxmockv3.NewRows([]string{"type", "amount", "kind", "reference", "payment_method", "created_at"}).
			AddRow(model.LedgerEntryMovement, int64(-200), model.MovementOrderPayment, "o2", model.PaymentMethodWallet, now).
			AddRow(model.LedgerEntryDeposit, int64(500), model.MovementKind(""), "momo-1", model.PaymentMethod(""), now.Add(-time.Minute)))
	entries, err := repo.History(context.Background(), "a@example.com")
	if err != nil || len(entries) != 2 || entries[0].Type != model.LedgerEntryMovement {
		t.Fatalf("unexpected history: %+v err=%v", entries, err)
	}

	storage = &Storage{pool: &rowsErrorPool{rows: &errorRows{err: errors.New("rows err")}}}
	repo = &walletRepository{storage: storage}
	if _, err := repo.History(context.Background(), "a@example.com"); err == nil || err.Error() != "rows err" {
		t.Fatalf("expected rows err, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
