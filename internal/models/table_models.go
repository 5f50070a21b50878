package models

import "time"

// TableStatus is the occupancy state of a table. It is derived state: a table
// is occupied exactly while one active order references it.
type TableStatus string

const (
	TableStatusEmpty    TableStatus = "empty"
	TableStatusOccupied TableStatus = "occupied"
)

// Valid reports whether s is one of the known table statuses.
func (s TableStatus) Valid() bool {
	switch s {
	case TableStatusEmpty, TableStatusOccupied:
		return true
	default:
		return false
	}
}

// Table represents a café table owned by a user. Number is unique per owner.
type Table struct {
	ID            int64       `json:"id" db:"id"`
	UserID        int64       `json:"user_id" db:"user_id"`
	Name          string      `json:"name" db:"name" binding:"required"`
	Number        int         `json:"number" db:"number" binding:"required,gt=0"`
	Status        TableStatus `json:"status" db:"status"`
	ActiveOrderID *int64      `json:"active_order_id,omitempty"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}
