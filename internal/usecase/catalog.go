package usecase

import (
	"context"
	"strings"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// CatalogUseCase exposes catalog maintenance. Sales counters are owned by the reconciliation engine.
type CatalogUseCase struct {
	inventory repository.InventoryRepository
}

// NewCatalogUseCase constructs CatalogUseCase.
func NewCatalogUseCase(inventory repository.InventoryRepository) *CatalogUseCase {
	return &CatalogUseCase{inventory: inventory}
}

// Get returns the catalog item.
func (u *CatalogUseCase) Get(ctx context.Context, id string) (*model.CatalogItem, error) {
	return u.inventory.GetCatalogItem(ctx, id)
}

// Patch applies a partial update. Touching Sold is rejected with ErrProtectedField.
func (u *CatalogUseCase) Patch(ctx context.Context, id string, patch model.CatalogItemPatch) (*model.CatalogItem, error) {
	if patch.Sold != nil {
		return nil, domainErrors.ErrProtectedField
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, domainErrors.ErrInvalidOrder
		}
		patch.Name = &name
	}
	if patch.Price != nil && *patch.Price < 0 {
		return nil, domainErrors.ErrInvalidAmount
	}
	if patch.Name == nil && patch.Price == nil {
		return u.inventory.GetCatalogItem(ctx, id)
	}
	return u.inventory.UpdateCatalogItem(ctx, id, patch.Name, patch.Price)
}
