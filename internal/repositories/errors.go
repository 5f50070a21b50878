package repositories

import (
	"database/sql"
	"errors"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("requested record not found")

	// ErrDatabaseError is returned for unexpected database errors.
	// It can be used to wrap more specific driver errors.
	ErrDatabaseError = errors.New("database error")

	// ErrDuplicateKey is returned when an insert/update violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

	// ErrInsufficientStock is returned when a reservation asks for more units
	// than a tracked product has available. It is an expected business
	// outcome, not a fault.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrTableOccupied is returned when a claim targets a table that already
	// has an open order.
	ErrTableOccupied = errors.New("table already occupied")

	// ErrReferenced is returned when a delete would orphan order or sale
	// history that still points at the record.
	ErrReferenced = errors.New("record is referenced by other records")
)

// SQLExecutor defines an interface that can be satisfied by *sql.DB or *sql.Tx
// This allows repository methods to be used within transactions or with a direct DB connection.
type SQLExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
}
