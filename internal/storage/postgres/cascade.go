package postgres

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
)

func (r *cascadeRepository) List(ctx context.Context, orderID string) ([]model.CascadeStep, error) {
	const query = `SELECT order_id, step, state, detail, attempts, updated_at
                   FROM order_cascade_steps WHERE order_id=$1 ORDER BY step`
	rows, err := r.storage.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.CascadeStep
	for rows.Next() {
		var s model.CascadeStep
		if err := rows.Scan(&s.OrderID, &s.Key, &s.State, &s.Detail, &s.Attempts, &s.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *cascadeRepository) Record(ctx context.Context, orderID, key string, state model.StepState, detail string) error {
	const query = `INSERT INTO order_cascade_steps (order_id, step, state, detail, attempts)
                   VALUES ($1, $2, $3, $4, 1)
                   ON CONFLICT (order_id, step) DO UPDATE
                   SET state=EXCLUDED.state, detail=EXCLUDED.detail,
                       attempts=order_cascade_steps.attempts+1, updated_at=NOW()`
	_, err := r.storage.pool.Exec(ctx, query, orderID, key, state, detail)
	return err
}
