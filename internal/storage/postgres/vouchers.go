package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

const voucherColumns = `code, kind, quantity, used, starts_at, ends_at, min_order, percent, max_discount, popup,
                        recipient, amount, disabled, expires_at, created_at`

func scanVoucher(row rowScanner) (model.Voucher, error) {
	var (
		code, recipient               string
		kind                          model.VoucherKind
		quantity, used, percent       int
		minOrder, maxDiscount, amount int64
		popup, disabled               bool
		startsAt, endsAt, expiresAt   *time.Time
		createdAt                     time.Time
	)
	err := row.Scan(&code, &kind, &quantity, &used, &startsAt, &endsAt, &minOrder, &percent, &maxDiscount, &popup,
		&recipient, &amount, &disabled, &expiresAt, &createdAt)
	if err != nil {
		return nil, err
	}

	switch kind {
	case model.VoucherKindPublic:
		return &model.PublicVoucher{
			Code:        code,
			Quantity:    quantity,
			Used:        used,
			StartsAt:    derefTime(startsAt),
			EndsAt:      derefTime(endsAt),
			MinOrder:    minOrder,
			Percent:     percent,
			MaxDiscount: maxDiscount,
			Popup:       popup,
			CreatedAt:   createdAt,
		}, nil
	case model.VoucherKindGift:
		return &model.GiftVoucher{
			Code:      code,
			Recipient: recipient,
			Amount:    amount,
			Used:      used > 0,
			Disabled:  disabled,
			ExpiresAt: derefTime(expiresAt),
			CreatedAt: createdAt,
		}, nil
	default:
		return nil, fmt.Errorf("unknown voucher kind %q", kind)
	}
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (r *voucherRepository) CreatePublic(ctx context.Context, v *model.PublicVoucher) error {
	const insert = `INSERT INTO vouchers (code, kind, quantity, used, starts_at, ends_at, min_order, percent, max_discount, popup)
                    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		if v.Popup {
			if _, err := tx.Exec(ctx, `UPDATE vouchers SET popup=false WHERE popup`); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, insert, v.Code, model.VoucherKindPublic, v.Quantity, v.Used, nullableTime(v.StartsAt),
			nullableTime(v.EndsAt), v.MinOrder, v.Percent, v.MaxDiscount, v.Popup)
		if err != nil {
			if isUniqueViolation(err) {
				return domainErrors.ErrAlreadyExists
			}
			return err
		}
		return nil
	})
}

func (r *voucherRepository) CreateGift(ctx context.Context, v *model.GiftVoucher) error {
	const insert = `INSERT INTO vouchers (code, kind, quantity, used, recipient, amount, disabled, expires_at)
                    VALUES ($1, $2, 1, 0, $3, $4, $5, $6)`
	_, err := r.storage.pool.Exec(ctx, insert, v.Code, model.VoucherKindGift, v.Recipient, v.Amount, v.Disabled, nullableTime(v.ExpiresAt))
	if err != nil {
		if isUniqueViolation(err) {
			return domainErrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *voucherRepository) GetByCode(ctx context.Context, code string) (model.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE code=$1`
	v, err := scanVoucher(r.storage.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *voucherRepository) GetPopup(ctx context.Context) (*model.PublicVoucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE popup AND kind='public' LIMIT 1`
	v, err := scanVoucher(r.storage.pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	public, ok := v.(*model.PublicVoucher)
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return public, nil
}

func (r *voucherRepository) SetPopup(ctx context.Context, code string) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE vouchers SET popup=false WHERE popup AND code<>$1`, code); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `UPDATE vouchers SET popup=true WHERE code=$1 AND kind='public' AND used<quantity`, code)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domainErrors.ErrVoucherUnavailable
		}
		return nil
	})
}

func (r *voucherRepository) HasUsed(ctx context.Context, identity, code string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM voucher_usages WHERE identity=$1 AND code=$2 AND used)`
	var used bool
	if err := r.storage.pool.QueryRow(ctx, query, identity, code).Scan(&used); err != nil {
		return false, err
	}
	return used, nil
}

func (r *voucherRepository) ConsumePublic(ctx context.Context, usage model.VoucherUsage) error {
	const consume = `UPDATE vouchers SET used=used+1, popup=CASE WHEN used+1>=quantity THEN false ELSE popup END
                     WHERE code=$1 AND kind='public' AND used<quantity`
	return r.consume(ctx, consume, usage)
}

func (r *voucherRepository) ConsumeGift(ctx context.Context, usage model.VoucherUsage) error {
	const consume = `UPDATE vouchers SET used=1 WHERE code=$1 AND kind='gift' AND used=0 AND NOT disabled`
	return r.consume(ctx, consume, usage)
}

func (r *voucherRepository) consume(ctx context.Context, consume string, usage model.VoucherUsage) error {
	const insertUsage = `INSERT INTO voucher_usages (identity, code, order_id, used, expires_at) VALUES ($1, $2, $3, true, $4)`
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, consume, usage.Code)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domainErrors.ErrVoucherUnavailable
		}
		if _, err := tx.Exec(ctx, insertUsage, usage.Identity, usage.Code, usage.OrderID, usage.ExpiresAt); err != nil {
			return err
		}
		return nil
	})
}

func (r *voucherRepository) ListUsages(ctx context.Context, identity string) ([]model.VoucherUsage, error) {
	const query = `SELECT id, identity, code, order_id, used, used_at, expires_at
                   FROM voucher_usages WHERE identity=$1 ORDER BY used_at DESC`
	rows, err := r.storage.pool.Query(ctx, query, identity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.VoucherUsage
	for rows.Next() {
		var u model.VoucherUsage
		if err := rows.Scan(&u.ID, &u.Identity, &u.Code, &u.OrderID, &u.Used, &u.UsedAt, &u.ExpiresAt); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
