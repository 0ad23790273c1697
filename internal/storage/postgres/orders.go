package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

const (
	orderColumns = `id, customer_name, email, phone, items, total, payment_method, payment_status, status,
                    transfer_token, voucher_code, discount, created_at, updated_at, paid_at`
	dedupeIndex = "idx_orders_dedupe"
)

type orderItemRecord struct {
	CatalogItemID      string `json:"catalog_item_id"`
	VariantID          string `json:"variant_id"`
	Quantity           int    `json:"quantity"`
	UnitPrice          int64  `json:"unit_price"`
	PromotionVariantID string `json:"promotion_variant_id,omitempty"`
}

type rowScanner interface {
	Scan(dest ...any) error
}

func encodeItems(items []model.OrderItem) ([]byte, error) {
	records := make([]orderItemRecord, 0, len(items))
	for _, it := range items {
		records = append(records, orderItemRecord(it))
	}
	return json.Marshal(records)
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var (
		o     model.Order
		items []byte
	)
	err := row.Scan(&o.ID, &o.CustomerName, &o.Email, &o.Phone, &items, &o.Total, &o.PaymentMethod, &o.PaymentStatus,
		&o.Status, &o.TransferToken, &o.VoucherCode, &o.Discount, &o.CreatedAt, &o.UpdatedAt, &o.PaidAt)
	if err != nil {
		return nil, err
	}
	var records []orderItemRecord
	if err := json.Unmarshal(items, &records); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	o.Items = make([]model.OrderItem, 0, len(records))
	for _, rec := range records {
		o.Items = append(o.Items, model.OrderItem(rec))
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]model.Order, error) {
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order, dedupeKey string) (*model.Order, bool, error) {
	const query = `INSERT INTO orders (id, customer_name, email, phone, items, total, payment_method, payment_status,
                   status, transfer_token, voucher_code, discount, dedupe_key)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
                   RETURNING created_at, updated_at`
	items, err := encodeItems(order.Items)
	if err != nil {
		return nil, false, err
	}

	created := *order
	err = r.storage.pool.QueryRow(ctx, query, order.ID, order.CustomerName, order.Email, order.Phone, items, order.Total,
		order.PaymentMethod, order.PaymentStatus, order.Status, order.TransferToken, order.VoucherCode, order.Discount, dedupeKey).
		Scan(&created.CreatedAt, &created.UpdatedAt)
	if err == nil {
		return &created, true, nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil, false, err
	}
	if pgErr.ConstraintName != dedupeIndex {
		return nil, false, domainErrors.ErrAlreadyExists
	}

	existing, err := r.FindPendingDuplicate(ctx, repository.DuplicateCriteria{
		Phone:         order.Phone,
		Total:         order.Total,
		PaymentMethod: order.PaymentMethod,
	})
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, false, domainErrors.ErrAlreadyExists
		}
		return nil, false, err
	}
	return existing, false, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) FindPendingDuplicate(ctx context.Context, c repository.DuplicateCriteria) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
              WHERE phone=$1 AND total=$2 AND payment_method=$3 AND payment_status='pending'
                AND status<>'cancelled' AND created_at>=$4
              ORDER BY created_at DESC LIMIT 1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, c.Phone, c.Total, c.PaymentMethod, c.Since))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) ListByEmail(ctx context.Context, email string) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE email=$1 ORDER BY created_at DESC`
	rows, err := r.storage.pool.Query(ctx, query, email)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (r *orderRepository) ListPendingTransfers(ctx context.Context, after model.PendingCursor, limit int) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
              WHERE payment_status='pending' AND status<>'cancelled' AND transfer_token<>''
                AND (created_at, id) > ($1, $2)
              ORDER BY created_at, id LIMIT $3`
	rows, err := r.storage.pool.Query(ctx, query, after.CreatedAt, after.ID, limit)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (r *orderRepository) ClaimPayment(ctx context.Context, id string) (*model.Order, bool, error) {
	query := `UPDATE orders SET payment_status='paid', paid_at=NOW(), updated_at=NOW()
              WHERE id=$1 AND payment_status='pending' AND status<>'cancelled'
              RETURNING ` + orderColumns
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err == nil {
		return order, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus) (*model.Order, error) {
	query := `UPDATE orders SET status=$3, updated_at=NOW()
              WHERE id=$1 AND status=$2
              RETURNING ` + orderColumns
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id, from, to))
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, domainErrors.ErrConcurrentUpdate
}
