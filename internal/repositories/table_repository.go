package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cafe_pos_backend/internal/models"

	"github.com/lib/pq"
)

// TableRepository defines the interface for table-related database
// operations. ClaimTable and ReleaseTable are the occupancy state machine:
// empty --claim--> occupied --release--> empty.
type TableRepository interface {
	CreateTable(executor SQLExecutor, table *models.Table) (int64, error)
	GetTableByID(userID, tableID int64) (*models.Table, error)
	GetTables(userID int64) ([]models.Table, error)
	RenameTable(executor SQLExecutor, userID, tableID int64, name string) error

	// GetTableForUpdate locks the table row for the rest of the transaction.
	// A concurrent claim holds the same lock, so whoever wins settles the
	// table's fate before the other proceeds.
	GetTableForUpdate(executor SQLExecutor, userID, tableID int64) (*models.Table, error)

	// HasActiveOrder reports whether an active order references the table.
	HasActiveOrder(executor SQLExecutor, tableID int64) (bool, error)

	// DeleteTable removes the table. The active-order guard lives in the
	// service, which must call this with the row already locked.
	DeleteTable(executor SQLExecutor, userID, tableID int64) error

	// ClaimTable flips an empty table to occupied. Returns ErrTableOccupied
	// if the table is already occupied, ErrNotFound if it does not exist.
	ClaimTable(executor SQLExecutor, userID, tableID int64) error

	// ReleaseTable flips a table back to empty. Releasing an already-empty
	// table is a no-op, not an error.
	ReleaseTable(executor SQLExecutor, userID, tableID int64) error
}

type tableRepository struct {
	db *sql.DB
}

// NewTableRepository creates a new instance of TableRepository.
func NewTableRepository(db *sql.DB) TableRepository {
	return &tableRepository{db: db}
}

func (r *tableRepository) CreateTable(executor SQLExecutor, table *models.Table) (int64, error) {
	query := `INSERT INTO tables (user_id, name, number, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	currentTime := time.Now()
	table.Status = models.TableStatusEmpty
	table.CreatedAt = currentTime
	table.UpdatedAt = currentTime

	err := executor.QueryRow(query,
		table.UserID, table.Name, table.Number, table.Status, table.CreatedAt, table.UpdatedAt,
	).Scan(&table.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: table number %d already exists (constraint: %s)", ErrDuplicateKey, table.Number, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating table: %v", ErrDatabaseError, err)
	}
	return table.ID, nil
}

func (r *tableRepository) GetTableByID(userID, tableID int64) (*models.Table, error) {
	table := &models.Table{}
	query := `SELECT t.id, t.user_id, t.name, t.number, t.status, t.created_at, t.updated_at, o.id AS active_order_id
	          FROM tables t
	          LEFT JOIN orders o ON o.table_id = t.id AND o.status = 'active'
	          WHERE t.id = $1 AND t.user_id = $2`
	var activeOrderID sql.NullInt64
	err := r.db.QueryRow(query, tableID, userID).Scan(
		&table.ID, &table.UserID, &table.Name, &table.Number, &table.Status,
		&table.CreatedAt, &table.UpdatedAt, &activeOrderID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting table by ID %d: %v", ErrDatabaseError, tableID, err)
	}
	if activeOrderID.Valid {
		table.ActiveOrderID = &activeOrderID.Int64
	}
	return table, nil
}

func (r *tableRepository) GetTables(userID int64) ([]models.Table, error) {
	tables := []models.Table{}
	query := `SELECT t.id, t.user_id, t.name, t.number, t.status, t.created_at, t.updated_at, o.id AS active_order_id
	          FROM tables t
	          LEFT JOIN orders o ON o.table_id = t.id AND o.status = 'active'
	          WHERE t.user_id = $1
	          ORDER BY t.number`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying tables: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.Table
		var activeOrderID sql.NullInt64
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.Name, &t.Number, &t.Status,
			&t.CreatedAt, &t.UpdatedAt, &activeOrderID,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning table: %v", ErrDatabaseError, err)
		}
		if activeOrderID.Valid {
			t.ActiveOrderID = &activeOrderID.Int64
		}
		tables = append(tables, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating table rows: %v", ErrDatabaseError, err)
	}
	return tables, nil
}

func (r *tableRepository) RenameTable(executor SQLExecutor, userID, tableID int64, name string) error {
	query := `UPDATE tables SET name = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`
	result, err := executor.Exec(query, name, time.Now(), tableID, userID)
	if err != nil {
		return fmt.Errorf("%w: renaming table ID %d: %v", ErrDatabaseError, tableID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *tableRepository) GetTableForUpdate(executor SQLExecutor, userID, tableID int64) (*models.Table, error) {
	table := &models.Table{}
	query := `SELECT id, user_id, name, number, status, created_at, updated_at
	          FROM tables WHERE id = $1 AND user_id = $2 FOR UPDATE`
	err := executor.QueryRow(query, tableID, userID).Scan(
		&table.ID, &table.UserID, &table.Name, &table.Number, &table.Status,
		&table.CreatedAt, &table.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking table ID %d: %v", ErrDatabaseError, tableID, err)
	}
	return table, nil
}

func (r *tableRepository) HasActiveOrder(executor SQLExecutor, tableID int64) (bool, error) {
	var orderID int64
	err := executor.QueryRow(
		`SELECT id FROM orders WHERE table_id = $1 AND status = 'active' LIMIT 1`, tableID,
	).Scan(&orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: checking active orders for table ID %d: %v", ErrDatabaseError, tableID, err)
	}
	return true, nil
}

func (r *tableRepository) DeleteTable(executor SQLExecutor, userID, tableID int64) error {
	query := `DELETE FROM tables WHERE id = $1 AND user_id = $2`
	result, err := executor.Exec(query, tableID, userID)
	if err != nil {
		return fmt.Errorf("%w: deleting table ID %d: %v", ErrDatabaseError, tableID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for deleting table ID %d: %v", ErrDatabaseError, tableID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClaimTable relies on the conditional UPDATE for exclusivity: of N
// concurrent claims on the same empty table, the row lock lets exactly one
// update a row, and the rest observe zero rows affected.
func (r *tableRepository) ClaimTable(executor SQLExecutor, userID, tableID int64) error {
	query := `UPDATE tables SET status = $1, updated_at = $2
	          WHERE id = $3 AND user_id = $4 AND status = $5`
	result, err := executor.Exec(query, models.TableStatusOccupied, time.Now(), tableID, userID, models.TableStatusEmpty)
	if err != nil {
		return fmt.Errorf("%w: claiming table ID %d: %v", ErrDatabaseError, tableID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for claiming table ID %d: %v", ErrDatabaseError, tableID, err)
	}
	if rowsAffected > 0 {
		return nil
	}
	var status models.TableStatus
	checkErr := executor.QueryRow(`SELECT status FROM tables WHERE id = $1 AND user_id = $2`, tableID, userID).Scan(&status)
	if errors.Is(checkErr, sql.ErrNoRows) {
		return ErrNotFound
	}
	if checkErr != nil {
		return fmt.Errorf("%w: checking table ID %d after failed claim: %v", ErrDatabaseError, tableID, checkErr)
	}
	return ErrTableOccupied
}

func (r *tableRepository) ReleaseTable(executor SQLExecutor, userID, tableID int64) error {
	query := `UPDATE tables SET status = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`
	_, err := executor.Exec(query, models.TableStatusEmpty, time.Now(), tableID, userID)
	if err != nil {
		return fmt.Errorf("%w: releasing table ID %d: %v", ErrDatabaseError, tableID, err)
	}
	return nil
}
