package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

// lockWalletTx creates the wallet if it is missing and locks its row for the transaction.
func lockWalletTx(ctx context.Context, tx pgx.Tx, identity string) (*model.Wallet, error) {
	const upsert = `INSERT INTO wallets (identity) VALUES ($1) ON CONFLICT (identity) DO NOTHING`
	const selectWallet = `SELECT id, identity, balance, created_at, updated_at FROM wallets WHERE identity=$1 FOR UPDATE`

	if _, err := tx.Exec(ctx, upsert, identity); err != nil {
		return nil, err
	}
	var w model.Wallet
	if err := tx.QueryRow(ctx, selectWallet, identity).Scan(&w.ID, &w.Identity, &w.Balance, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

func adjustBalanceTx(ctx context.Context, tx pgx.Tx, w *model.Wallet, delta int64) error {
	const update = `UPDATE wallets SET balance=balance+$2, updated_at=NOW() WHERE id=$1 RETURNING balance, updated_at`
	return tx.QueryRow(ctx, update, w.ID, delta).Scan(&w.Balance, &w.UpdatedAt)
}

func (r *walletRepository) GetOrCreate(ctx context.Context, identity string) (*model.Wallet, error) {
	var wallet *model.Wallet
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		w, err := lockWalletTx(ctx, tx, identity)
		if err != nil {
			return err
		}
		wallet = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

func (r *walletRepository) Deposit(ctx context.Context, identity string, amount int64, reference string) (*model.Wallet, error) {
	if amount <= 0 {
		return nil, domainErrors.ErrInvalidAmount
	}
	const insertDeposit = `INSERT INTO wallet_deposits (wallet_id, amount, reference) VALUES ($1, $2, $3)`

	var wallet *model.Wallet
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		w, err := lockWalletTx(ctx, tx, identity)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insertDeposit, w.ID, amount, reference); err != nil {
			return err
		}
		if err := adjustBalanceTx(ctx, tx, w, amount); err != nil {
			return err
		}
		wallet = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

func (r *walletRepository) Credit(ctx context.Context, req model.LedgerRequest) (*model.Wallet, error) {
	return r.move(ctx, req, req.Amount)
}

func (r *walletRepository) Debit(ctx context.Context, req model.LedgerRequest) (*model.Wallet, error) {
	return r.move(ctx, req, -req.Amount)
}

// move appends a signed movement and applies it to the balance in the same transaction.
func (r *walletRepository) move(ctx context.Context, req model.LedgerRequest, signed int64) (*model.Wallet, error) {
	if req.Amount <= 0 {
		return nil, domainErrors.ErrInvalidAmount
	}
	const insertMovement = `INSERT INTO wallet_movements (wallet_id, amount, kind, reference, payment_method)
                            VALUES ($1, $2, $3, $4, $5)`

	var wallet *model.Wallet
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		w, err := lockWalletTx(ctx, tx, req.Identity)
		if err != nil {
			return err
		}
		if signed < 0 && w.Balance < req.Amount {
			return domainErrors.ErrInsufficientBalance
		}
		if _, err := tx.Exec(ctx, insertMovement, w.ID, signed, req.Kind, req.Reference, req.PaymentMethod); err != nil {
			if isUniqueViolation(err) {
				return domainErrors.ErrAlreadyExists
			}
			return err
		}
		if err := adjustBalanceTx(ctx, tx, w, signed); err != nil {
			return err
		}
		wallet = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

func (r *walletRepository) History(ctx context.Context, identity string) ([]model.LedgerEntry, error) {
	const query = `SELECT 'deposit', d.amount, '', d.reference, '', d.created_at
                   FROM wallet_deposits d JOIN wallets w ON w.id = d.wallet_id WHERE w.identity=$1
                   UNION ALL
                   SELECT 'movement', m.amount, m.kind, m.reference, m.payment_method, m.created_at
                   FROM wallet_movements m JOIN wallets w ON w.id = m.wallet_id WHERE w.identity=$1
                   ORDER BY 6 DESC`
	rows, err := r.storage.pool.Query(ctx, query, identity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		if err := rows.Scan(&e.Type, &e.Amount, &e.Kind, &e.Reference, &e.PaymentMethod, &e.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
