package dto

import "time"

// CatalogItemResponse describes a catalog item.
type CatalogItemResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Sold      int       `json:"sold"`
	UpdatedAt time.Time `json:"updated_at"`
}
