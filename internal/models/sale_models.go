package models

import "time"

// Sale is the immutable record produced when an order is closed or a retail
// checkout completes. Once written, a sale and its items are never mutated.
type Sale struct {
	ID            int64      `json:"id" db:"id"`
	UserID        int64      `json:"user_id" db:"user_id"`
	TableID       *int64     `json:"table_id,omitempty" db:"table_id"` // nil for retail checkout
	TotalAmount   float64    `json:"total_amount" db:"total_amount"`
	PaymentMethod string     `json:"payment_method" db:"payment_method"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	Items         []SaleItem `json:"items,omitempty"`
}

// SaleItem mirrors an order item at close time.
type SaleItem struct {
	ID        int64   `json:"id" db:"id"`
	SaleID    int64   `json:"sale_id" db:"sale_id"`
	ProductID int64   `json:"product_id" db:"product_id"`
	Quantity  int     `json:"quantity" db:"quantity"`
	UnitPrice float64 `json:"unit_price" db:"unit_price"`
	LineTotal float64 `json:"line_total" db:"line_total"`
}

// SaleFilters defines the available filters for querying sales.
type SaleFilters struct {
	StartDate     *string `form:"start_date"` // Expected format YYYY-MM-DD
	EndDate       *string `form:"end_date"`   // Expected format YYYY-MM-DD
	PaymentMethod *string `form:"payment_method"`
	TableID       *int64  `form:"table_id"`
	Page          int     `form:"page"`
	PageSize      int     `form:"page_size"`
}
