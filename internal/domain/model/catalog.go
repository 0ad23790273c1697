package model

import "time"

// CatalogItem is a sellable product. Sold is only changed by dedicated counters.
type CatalogItem struct {
	ID        string
	Name      string
	Price     int64
	Sold      int
	UpdatedAt time.Time
}

// CatalogItemPatch carries a generic partial update. Sold is rejected when set.
type CatalogItemPatch struct {
	Name  *string
	Price *int64
	Sold  *int
}

// Variant is a stock keeping unit of a catalog item.
type Variant struct {
	ID            string
	CatalogItemID string
	Name          string
	Price         int64
	Stock         int
}

// PromotionVariant is a time boxed, quantity capped offering of a variant.
type PromotionVariant struct {
	ID          string
	PromotionID string
	VariantID   string
	Price       int64
	Quantity    int
	Sold        int
	StartsAt    time.Time
	EndsAt      time.Time
}

// Remaining returns how many units are still allocated for sale.
func (p *PromotionVariant) Remaining() int {
	if p.Sold >= p.Quantity {
		return 0
	}
	return p.Quantity - p.Sold
}

// Active reports whether the sale window contains at.
func (p *PromotionVariant) Active(at time.Time) bool {
	return !at.Before(p.StartsAt) && at.Before(p.EndsAt)
}
