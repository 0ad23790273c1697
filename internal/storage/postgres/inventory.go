package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

func (r *inventoryRepository) GetVariant(ctx context.Context, id string) (*model.Variant, error) {
	const query = `SELECT id, catalog_item_id, name, price, stock FROM variants WHERE id=$1`
	var v model.Variant
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&v.ID, &v.CatalogItemID, &v.Name, &v.Price, &v.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *inventoryRepository) GetPromotionVariant(ctx context.Context, id string) (*model.PromotionVariant, error) {
	const query = `SELECT id, promotion_id, variant_id, price, quantity, sold, starts_at, ends_at
                   FROM promotion_variants WHERE id=$1`
	var p model.PromotionVariant
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.PromotionID, &p.VariantID, &p.Price, &p.Quantity, &p.Sold, &p.StartsAt, &p.EndsAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *inventoryRepository) GetCatalogItem(ctx context.Context, id string) (*model.CatalogItem, error) {
	const query = `SELECT id, name, price, sold, updated_at FROM catalog_items WHERE id=$1`
	var c model.CatalogItem
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Price, &c.Sold, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// UpdateCatalogItem applies a generic patch. The sold counter is not reachable from here.
func (r *inventoryRepository) UpdateCatalogItem(ctx context.Context, id string, name *string, price *int64) (*model.CatalogItem, error) {
	const query = `UPDATE catalog_items SET name=COALESCE($2, name), price=COALESCE($3, price), updated_at=NOW()
                   WHERE id=$1 RETURNING id, name, price, sold, updated_at`
	var c model.CatalogItem
	err := r.storage.pool.QueryRow(ctx, query, id, name, price).Scan(&c.ID, &c.Name, &c.Price, &c.Sold, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *inventoryRepository) DecrementStock(ctx context.Context, variantID string, qty int) error {
	const query = `UPDATE variants SET stock=stock-$2 WHERE id=$1 AND stock>=$2`
	return r.conditional(ctx, query, domainErrors.ErrInsufficientStock, variantID, qty)
}

func (r *inventoryRepository) IncrementStock(ctx context.Context, variantID string, qty int) error {
	const query = `UPDATE variants SET stock=stock+$2 WHERE id=$1`
	return r.conditional(ctx, query, domainErrors.ErrNotFound, variantID, qty)
}

func (r *inventoryRepository) IncrementPromotionSold(ctx context.Context, promotionVariantID string, qty int) error {
	const query = `UPDATE promotion_variants SET sold=sold+$2 WHERE id=$1 AND sold+$2<=quantity`
	return r.conditional(ctx, query, domainErrors.ErrPromotionSoldOut, promotionVariantID, qty)
}

func (r *inventoryRepository) IncrementSold(ctx context.Context, catalogItemID string, qty int) error {
	const query = `UPDATE catalog_items SET sold=sold+$2 WHERE id=$1`
	return r.conditional(ctx, query, domainErrors.ErrNotFound, catalogItemID, qty)
}

func (r *inventoryRepository) DecrementSold(ctx context.Context, catalogItemID string, qty int) error {
	const query = `UPDATE catalog_items SET sold=GREATEST(sold-$2, 0) WHERE id=$1`
	return r.conditional(ctx, query, domainErrors.ErrNotFound, catalogItemID, qty)
}

// conditional runs a single row update and returns miss when no row matched.
func (r *inventoryRepository) conditional(ctx context.Context, query string, miss error, id string, qty int) error {
	if qty <= 0 {
		return domainErrors.ErrInvalidAmount
	}
	tag, err := r.storage.pool.Exec(ctx, query, id, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return miss
	}
	return nil
}
