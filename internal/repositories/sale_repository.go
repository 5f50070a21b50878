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

// SaleRepository defines the interface for sale-related database operations.
// Sales are append-only: there are no update or delete methods.
type SaleRepository interface {
	CreateSale(executor SQLExecutor, sale *models.Sale) (int64, error)
	CreateSaleItem(executor SQLExecutor, item *models.SaleItem) (int64, error)
	GetSaleByID(userID, saleID int64) (*models.Sale, error)
	GetSaleItemsBySaleID(saleID int64) ([]models.SaleItem, error)
	GetSales(userID int64, filters models.SaleFilters) ([]models.Sale, int, error)
}

type saleRepository struct {
	db *sql.DB
}

// NewSaleRepository creates a new instance of SaleRepository.
func NewSaleRepository(db *sql.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) CreateSale(executor SQLExecutor, sale *models.Sale) (int64, error) {
	query := `INSERT INTO sales (user_id, table_id, total_amount, payment_method, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now()
	}

	var tableID sql.NullInt64
	if sale.TableID != nil {
		tableID = sql.NullInt64{Int64: *sale.TableID, Valid: true}
	}

	err := executor.QueryRow(query,
		sale.UserID, tableID, sale.TotalAmount, sale.PaymentMethod, sale.CreatedAt,
	).Scan(&sale.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating sale: %v", ErrDatabaseError, err)
	}
	return sale.ID, nil
}

func (r *saleRepository) CreateSaleItem(executor SQLExecutor, item *models.SaleItem) (int64, error) {
	query := `INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, line_total)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	err := executor.QueryRow(query,
		item.SaleID, item.ProductID, item.Quantity, item.UnitPrice, item.LineTotal,
	).Scan(&item.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return 0, fmt.Errorf("%w: creating sale item (constraint: %s): %v", ErrDatabaseError, pqErr.Constraint, err)
		}
		return 0, fmt.Errorf("%w: creating sale item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *saleRepository) GetSaleByID(userID, saleID int64) (*models.Sale, error) {
	sale := &models.Sale{}
	var tableID sql.NullInt64
	query := `SELECT id, user_id, table_id, total_amount, payment_method, created_at
	          FROM sales WHERE id = $1 AND user_id = $2`
	err := r.db.QueryRow(query, saleID, userID).Scan(
		&sale.ID, &sale.UserID, &tableID, &sale.TotalAmount, &sale.PaymentMethod, &sale.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting sale by ID %d: %v", ErrDatabaseError, saleID, err)
	}
	if tableID.Valid {
		sale.TableID = &tableID.Int64
	}
	return sale, nil
}

func (r *saleRepository) GetSaleItemsBySaleID(saleID int64) ([]models.SaleItem, error) {
	items := []models.SaleItem{}
	query := `SELECT id, sale_id, product_id, quantity, unit_price, line_total
	          FROM sale_items WHERE sale_id = $1 ORDER BY id`
	rows, err := r.db.Query(query, saleID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying sale items for sale ID %d: %v", ErrDatabaseError, saleID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.LineTotal); err != nil {
			return nil, fmt.Errorf("%w: scanning sale item for sale ID %d: %v", ErrDatabaseError, saleID, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sale item rows for sale ID %d: %v", ErrDatabaseError, saleID, err)
	}
	return items, nil
}

func (r *saleRepository) GetSales(userID int64, filters models.SaleFilters) ([]models.Sale, int, error) {
	sales := []models.Sale{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    id, user_id, table_id, total_amount, payment_method, created_at,
	    COUNT(*) OVER() AS total_count
	  FROM sales`)

	conditions := []string{"user_id = $1"}
	args := []interface{}{userID}
	argCount := 2

	if filters.StartDate != nil && *filters.StartDate != "" {
		if startDate, err := time.Parse("2006-01-02", *filters.StartDate); err == nil {
			conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argCount))
			args = append(args, startDate)
			argCount++
		}
	}
	if filters.EndDate != nil && *filters.EndDate != "" {
		if endDate, err := time.Parse("2006-01-02", *filters.EndDate); err == nil {
			conditions = append(conditions, fmt.Sprintf("created_at < $%d", argCount))
			args = append(args, endDate.AddDate(0, 0, 1))
			argCount++
		}
	}
	if filters.PaymentMethod != nil && *filters.PaymentMethod != "" {
		conditions = append(conditions, fmt.Sprintf("payment_method = $%d", argCount))
		args = append(args, *filters.PaymentMethod)
		argCount++
	}
	if filters.TableID != nil {
		conditions = append(conditions, fmt.Sprintf("table_id = $%d", argCount))
		args = append(args, *filters.TableID)
		argCount++
	}

	queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY created_at DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying sales: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.Sale
		var tableID sql.NullInt64
		if err := rows.Scan(
			&s.ID, &s.UserID, &tableID, &s.TotalAmount, &s.PaymentMethod, &s.CreatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning sale: %v", ErrDatabaseError, err)
		}
		if tableID.Valid {
			s.TableID = &tableID.Int64
		}
		sales = append(sales, s)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating sale rows: %v", ErrDatabaseError, err)
	}
	return sales, totalCount, nil
}
