package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog SKU. Created or updated on every import, never deleted.
type Product struct {
	ID               int              `json:"id"`
	SKU              string           `json:"sku"`
	Title            string           `json:"title"`
	Category         string           `json:"category"`
	Subcategory      string           `json:"subcategory,omitempty"`
	ImageURL         string           `json:"image_url,omitempty"`
	Price            *decimal.Decimal `json:"price,omitempty"`
	VendorName       string           `json:"vendor_name,omitempty"`
	VariationDetails string           `json:"variation_details,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
