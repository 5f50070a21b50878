package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cafe_pos_backend/internal/models"

	"github.com/lib/pq"
)

// OrderRepository defines the interface for order-related database operations.
type OrderRepository interface {
	// Order methods
	CreateOrder(executor SQLExecutor, order *models.Order) (int64, error)
	GetOrderByID(userID, orderID int64) (*models.Order, error)
	GetOrderForUpdate(executor SQLExecutor, userID, orderID int64) (*models.Order, error)
	GetOrders(userID int64, filters models.OrderFilters) ([]models.Order, int, error)
	GetActiveOrderByTableID(userID, tableID int64) (*models.Order, error)
	UpdateOrderTotal(executor SQLExecutor, orderID int64, totalAmount float64, updatedAt time.Time) error

	// CloseOrder marks an active order closed. Returns rows affected; zero
	// means the order was already closed (the transition is one-way, so a
	// second close can never fire).
	CloseOrder(executor SQLExecutor, orderID int64, closedAt time.Time) (int64, error)

	// OrderItem methods
	CreateOrderItem(executor SQLExecutor, item *models.OrderItem) (int64, error)
	GetOrderItemsByOrderID(executor SQLExecutor, orderID int64) ([]models.OrderItem, error)
	DeleteOrderItemsByOrderID(executor SQLExecutor, orderID int64) (int64, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// --- Order Methods ---

func (r *orderRepository) CreateOrder(executor SQLExecutor, order *models.Order) (int64, error) {
	query := `INSERT INTO orders (table_id, user_id, status, total_amount, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = order.CreatedAt
	}

	err := executor.QueryRow(query,
		order.TableID, order.UserID, order.Status, order.TotalAmount,
		order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			// The one-active-order-per-table index fired.
			return 0, fmt.Errorf("%w: table ID %d already has an active order (constraint: %s)", ErrTableOccupied, order.TableID, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating order: %v", ErrDatabaseError, err)
	}
	return order.ID, nil
}

const orderColumns = `id, table_id, user_id, status, total_amount, created_at, closed_at, updated_at`

func scanOrder(row *sql.Row, order *models.Order) error {
	var closedAt sql.NullTime
	err := row.Scan(
		&order.ID, &order.TableID, &order.UserID, &order.Status, &order.TotalAmount,
		&order.CreatedAt, &closedAt, &order.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if closedAt.Valid {
		order.ClosedAt = &closedAt.Time
	}
	return nil
}

func (r *orderRepository) GetOrderByID(userID, orderID int64) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`
	err := scanOrder(r.db.QueryRow(query, orderID, userID), order)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return order, nil
}

// GetOrderForUpdate locks the order row for the rest of the transaction, so
// concurrent close/replace operations on the same order serialize.
func (r *orderRepository) GetOrderForUpdate(executor SQLExecutor, userID, orderID int64) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2 FOR UPDATE`
	err := scanOrder(executor.QueryRow(query, orderID, userID), order)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return order, nil
}

func (r *orderRepository) GetOrders(userID int64, filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
        SELECT
            o.id, o.table_id, o.user_id, o.status, o.total_amount,
            o.created_at, o.closed_at, o.updated_at,
            t.name AS table_name,
            COUNT(*) OVER() AS total_count
        FROM orders o
        JOIN tables t ON o.table_id = t.id
    `)

	conditions := []string{"o.user_id = $1"}
	args := []interface{}{userID}
	argCounter := 2

	if filters.TableID != nil {
		conditions = append(conditions, fmt.Sprintf("o.table_id = $%d", argCounter))
		args = append(args, *filters.TableID)
		argCounter++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if filters.Date != nil && *filters.Date != "" {
		parsedDate, err := time.Parse("2006-01-02", *filters.Date)
		if err == nil {
			startOfDay := time.Date(parsedDate.Year(), parsedDate.Month(), parsedDate.Day(), 0, 0, 0, 0, parsedDate.Location())
			endOfDay := startOfDay.AddDate(0, 0, 1).Add(-time.Nanosecond)
			conditions = append(conditions, fmt.Sprintf("o.created_at BETWEEN $%d AND $%d", argCounter, argCounter+1))
			args = append(args, startOfDay, endOfDay)
			argCounter += 2
		}
	}

	queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY o.created_at DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filters.PageSize)
		argCounter++
		if filters.Page > 0 {
			offset := (filters.Page - 1) * filters.PageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.Order
		var closedAt sql.NullTime
		var tableName sql.NullString

		err := rows.Scan(
			&o.ID, &o.TableID, &o.UserID, &o.Status, &o.TotalAmount,
			&o.CreatedAt, &closedAt, &o.UpdatedAt,
			&tableName, &totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		if closedAt.Valid {
			o.ClosedAt = &closedAt.Time
		}
		if tableName.Valid {
			name := tableName.String
			o.TableName = &name
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}
	return orders, totalCount, nil
}

func (r *orderRepository) GetActiveOrderByTableID(userID, tableID int64) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders
	          WHERE table_id = $1 AND user_id = $2 AND status = 'active'`
	err := scanOrder(r.db.QueryRow(query, tableID, userID), order)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting active order for table ID %d: %v", ErrDatabaseError, tableID, err)
	}
	return order, nil
}

func (r *orderRepository) UpdateOrderTotal(executor SQLExecutor, orderID int64, totalAmount float64, updatedAt time.Time) error {
	query := `UPDATE orders SET total_amount = $1, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, totalAmount, updatedAt, orderID)
	if err != nil {
		return fmt.Errorf("%w: updating total for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for order total update ID %d: %v", ErrDatabaseError, orderID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) CloseOrder(executor SQLExecutor, orderID int64, closedAt time.Time) (int64, error) {
	query := `UPDATE orders SET status = $1, closed_at = $2, updated_at = $2
	          WHERE id = $3 AND status = $4`
	result, err := executor.Exec(query, models.OrderStatusClosed, closedAt, orderID, models.OrderStatusActive)
	if err != nil {
		return 0, fmt.Errorf("%w: closing order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for closing order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return rowsAffected, nil
}

// --- OrderItem Methods ---

func (r *orderRepository) CreateOrderItem(executor SQLExecutor, item *models.OrderItem) (int64, error) {
	query := `INSERT INTO order_items (order_id, product_id, quantity, unit_price, line_total)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	err := executor.QueryRow(query,
		item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.LineTotal,
	).Scan(&item.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return 0, fmt.Errorf("%w: creating order item (constraint: %s): %v", ErrDatabaseError, pqErr.Constraint, err)
		}
		return 0, fmt.Errorf("%w: creating order item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *orderRepository) GetOrderItemsByOrderID(executor SQLExecutor, orderID int64) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price, oi.line_total,
		       p.name AS product_name
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		WHERE oi.order_id = $1
		ORDER BY oi.id`

	rows, err := executor.Query(query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying order items for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		var productName sql.NullString
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.LineTotal,
			&productName,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning order item for order ID %d: %v", ErrDatabaseError, orderID, err)
		}
		if productName.Valid {
			name := productName.String
			item.ProductName = &name
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order item rows for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return items, nil
}

func (r *orderRepository) DeleteOrderItemsByOrderID(executor SQLExecutor, orderID int64) (int64, error) {
	query := `DELETE FROM order_items WHERE order_id = $1`
	result, err := executor.Exec(query, orderID)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting order items for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for deleting order items for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return rowsAffected, nil
}
