package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/polkiloo/storefront/internal/domain/model"
)

const bankColumns = `id, external_id, amount, description, status, order_id, booked_at, matched_at`

func (r *bankRepository) Import(ctx context.Context, txs []model.BankTransaction) (int, error) {
	const insert = `INSERT INTO bank_transactions (id, external_id, amount, description, status, booked_at)
                    VALUES ($1, $2, $3, $4, $5, $6)
                    ON CONFLICT (external_id) DO NOTHING`
	var imported int
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		for _, t := range txs {
			tag, err := tx.Exec(ctx, insert, t.ID, t.ExternalID, t.Amount, t.Description, t.Status, t.BookedAt)
			if err != nil {
				return err
			}
			imported += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return imported, nil
}

func (r *bankRepository) FindCandidates(ctx context.Context, amount int64, token string) ([]model.BankTransaction, error) {
	query := `SELECT ` + bankColumns + ` FROM bank_transactions
              WHERE status<>'matched' AND amount=$1 AND description ILIKE '%' || $2 || '%'
              ORDER BY booked_at`
	rows, err := r.storage.pool.Query(ctx, query, amount, token)
	if err != nil {
		return nil, err
	}
	return collectBankTransactions(rows)
}

func (r *bankRepository) Claim(ctx context.Context, id, orderID string) (bool, error) {
	const query = `UPDATE bank_transactions SET status='matched', claimed_from=status, order_id=$2, matched_at=NOW()
                   WHERE id=$1 AND status<>'matched'`
	tag, err := r.storage.pool.Exec(ctx, query, id, orderID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Release puts the transaction back to the status it had before the claim.
func (r *bankRepository) Release(ctx context.Context, id, orderID string) error {
	const query = `UPDATE bank_transactions
                   SET status=COALESCE(NULLIF(claimed_from, ''), 'completed'), claimed_from='', order_id='', matched_at=NULL
                   WHERE id=$1 AND order_id=$2 AND status='matched'`
	_, err := r.storage.pool.Exec(ctx, query, id, orderID)
	return err
}

func (r *bankRepository) ListUnmatched(ctx context.Context, limit int) ([]model.BankTransaction, error) {
	query := `SELECT ` + bankColumns + ` FROM bank_transactions
              WHERE status<>'matched' ORDER BY booked_at DESC LIMIT $1`
	rows, err := r.storage.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return collectBankTransactions(rows)
}

func collectBankTransactions(rows pgx.Rows) ([]model.BankTransaction, error) {
	defer rows.Close()

	var result []model.BankTransaction
	for rows.Next() {
		var t model.BankTransaction
		if err := rows.Scan(&t.ID, &t.ExternalID, &t.Amount, &t.Description, &t.Status, &t.OrderID, &t.BookedAt, &t.MatchedAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
