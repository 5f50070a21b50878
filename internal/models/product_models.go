package models

import "time"

// Product represents a sellable item owned by a user.
// StockQuantity is nil for products whose stock is not monitored; reservation
// and release are no-ops for them.
type Product struct {
	ID            int64     `json:"id" db:"id"`
	UserID        int64     `json:"user_id" db:"user_id"`
	Name          string    `json:"name" db:"name" binding:"required"`
	Price         float64   `json:"price" db:"price" binding:"required,gt=0"`
	StockQuantity *int      `json:"stock_quantity,omitempty" db:"stock_quantity"`
	MinStock      int       `json:"min_stock" db:"min_stock"`
	Category      *string   `json:"category,omitempty" db:"category"`
	Barcode       *string   `json:"barcode,omitempty" db:"barcode"`
	Description   *string   `json:"description,omitempty" db:"description"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Tracked reports whether the product's stock is monitored.
func (p *Product) Tracked() bool {
	return p.StockQuantity != nil
}

// StockLevel is the stock-read projection consumed by low-stock warnings.
type StockLevel struct {
	ProductID     int64  `json:"product_id"`
	Name          string `json:"name"`
	Tracked       bool   `json:"tracked"`
	StockQuantity *int   `json:"stock_quantity,omitempty"`
	MinStock      int    `json:"min_stock"`
	Low           bool   `json:"low"`
}

// ProductFilters defines the available filters for querying products.
type ProductFilters struct {
	Category *string  `form:"category"`
	Search   *string  `form:"search"` // matches name or barcode
	MinPrice *float64 `form:"min_price"`
	MaxPrice *float64 `form:"max_price"`
	Page     int      `form:"page"`
	PageSize int      `form:"page_size"`
}
