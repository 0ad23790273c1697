package repository

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// InventoryRepository covers variant stock, promotion counters and catalog sales counters.
type InventoryRepository interface {
	GetVariant(ctx context.Context, id string) (*model.Variant, error)
	GetPromotionVariant(ctx context.Context, id string) (*model.PromotionVariant, error)
	GetCatalogItem(ctx context.Context, id string) (*model.CatalogItem, error)
	UpdateCatalogItem(ctx context.Context, id string, name *string, price *int64) (*model.CatalogItem, error)

	// DecrementStock fails with ErrInsufficientStock when stock < qty.
	DecrementStock(ctx context.Context, variantID string, qty int) error
	IncrementStock(ctx context.Context, variantID string, qty int) error
	// IncrementPromotionSold fails with ErrPromotionSoldOut when sold+qty would exceed quantity.
	IncrementPromotionSold(ctx context.Context, promotionVariantID string, qty int) error
	IncrementSold(ctx context.Context, catalogItemID string, qty int) error
	// DecrementSold never drives the counter below zero.
	DecrementSold(ctx context.Context, catalogItemID string, qty int) error
}
