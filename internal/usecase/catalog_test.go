package usecase

import (
	"context"
	"errors"
	"testing"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	testhelpers "github.com/polkiloo/storefront/internal/test"
)

func TestCatalogPatch(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	seedCatalog(store)
	u := NewCatalogUseCase(store.Inventory())
	ctx := context.Background()

	sold := 10
	if _, err := u.Patch(ctx, "shirt", model.CatalogItemPatch{Sold: &sold}); !errors.Is(err, domainErrors.ErrProtectedField) {
		t.Fatalf("expected protected field, got %v", err)
	}
	blank := "  "
	if _, err := u.Patch(ctx, "shirt", model.CatalogItemPatch{Name: &blank}); !errors.Is(err, domainErrors.ErrInvalidOrder) {
		t.Fatalf("expected empty name rejection, got %v", err)
	}
	negative := int64(-1)
	if _, err := u.Patch(ctx, "shirt", model.CatalogItemPatch{Price: &negative}); !errors.Is(err, domainErrors.ErrInvalidAmount) {
		t.Fatalf("expected negative price rejection, got %v", err)
	}

	name, price := " Linen shirt ", int64(120000)
	item, err := u.Patch(ctx, "shirt", model.CatalogItemPatch{Name: &name, Price: &price})
	if err != nil {
		t.Fatalf("patch returned error: %v", err)
	}
	if item.Name != "Linen shirt" || item.Price != 120000 || item.Sold != 0 {
		t.Fatalf("unexpected patched item %+v", item)
	}

	unchanged, err := u.Patch(ctx, "shirt", model.CatalogItemPatch{})
	if err != nil || unchanged.Name != "Linen shirt" {
		t.Fatalf("expected empty patch to return current item, got %+v, %v", unchanged, err)
	}

	if _, err := u.Patch(ctx, "ghost", model.CatalogItemPatch{Price: &price}); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := u.Get(ctx, "ghost"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
