package models

import "time"

// OrderStatus is the lifecycle state of a table order. The active → closed
// transition is one-way; a closed order is never re-opened.
type OrderStatus string

const (
	OrderStatusActive OrderStatus = "active"
	OrderStatusClosed OrderStatus = "closed"
)

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusActive, OrderStatusClosed:
		return true
	default:
		return false
	}
}

// Order is an in-progress or settled bill for a table. At most one active
// order exists per table at a time.
type Order struct {
	ID          int64       `json:"id" db:"id"`
	TableID     int64       `json:"table_id" db:"table_id"`
	UserID      int64       `json:"user_id" db:"user_id"`
	Status      OrderStatus `json:"status" db:"status"`
	TotalAmount float64     `json:"total_amount" db:"total_amount"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	ClosedAt    *time.Time  `json:"closed_at,omitempty" db:"closed_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
	Items       []OrderItem `json:"items,omitempty"`
	TableName   *string     `json:"table_name,omitempty"`
}

// OrderItem is a line item of an order. LineTotal = Quantity × UnitPrice.
type OrderItem struct {
	ID          int64   `json:"id" db:"id"`
	OrderID     int64   `json:"order_id" db:"order_id"`
	ProductID   int64   `json:"product_id" db:"product_id"`
	Quantity    int     `json:"quantity" db:"quantity"`
	UnitPrice   float64 `json:"unit_price" db:"unit_price"`
	LineTotal   float64 `json:"line_total" db:"line_total"`
	ProductName *string `json:"product_name,omitempty"`
}

// OrderFilters defines the available filters for querying orders.
type OrderFilters struct {
	TableID  *int64  `form:"table_id"`
	Status   *string `form:"status"`
	Date     *string `form:"date"` // Expected format YYYY-MM-DD
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}
