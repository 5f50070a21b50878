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

// ProductRepository defines the interface for product-related database
// operations, including the stock ledger primitives used by order creation
// and retail checkout.
type ProductRepository interface {
	CreateProduct(executor SQLExecutor, product *models.Product) (int64, error)
	GetProductByID(userID, productID int64) (*models.Product, error)
	GetProducts(userID int64, filters models.ProductFilters) ([]models.Product, int, error)
	UpdateProduct(executor SQLExecutor, product *models.Product) error
	DeleteProduct(executor SQLExecutor, userID, productID int64) error
	GetLowStockProducts(userID int64) ([]models.Product, error)

	// GetPriceAndName reads the pricing data needed to build a line item.
	// It accepts an executor so the read shares the caller's transaction.
	GetPriceAndName(executor SQLExecutor, userID, productID int64) (price float64, name string, err error)

	// ReserveStock atomically decrements a tracked product's stock by quantity.
	// It is a no-op for untracked products and returns ErrInsufficientStock
	// when fewer than quantity units are available.
	ReserveStock(executor SQLExecutor, userID, productID int64, quantity int) error

	// ReleaseStock atomically increments a tracked product's stock by quantity.
	// It is a no-op for untracked products.
	ReleaseStock(executor SQLExecutor, userID, productID int64, quantity int) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, user_id, name, price, stock_quantity, min_stock, category, barcode, description, created_at, updated_at`

func (r *productRepository) CreateProduct(executor SQLExecutor, product *models.Product) (int64, error) {
	query := `INSERT INTO products
	            (user_id, name, price, stock_quantity, min_stock, category, barcode, description, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`
	currentTime := time.Now()
	product.CreatedAt = currentTime
	product.UpdatedAt = currentTime

	var stock sql.NullInt64
	if product.StockQuantity != nil {
		stock = sql.NullInt64{Int64: int64(*product.StockQuantity), Valid: true}
	}

	err := executor.QueryRow(query,
		product.UserID, product.Name, product.Price, stock, product.MinStock,
		product.Category, product.Barcode, product.Description, product.CreatedAt, product.UpdatedAt,
	).Scan(&product.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: product barcode already in use (constraint: %s)", ErrDuplicateKey, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating product: %v", ErrDatabaseError, err)
	}
	return product.ID, nil
}

func (r *productRepository) GetProductByID(userID, productID int64) (*models.Product, error) {
	product := &models.Product{}
	var stock sql.NullInt64
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND user_id = $2`
	err := r.db.QueryRow(query, productID, userID).Scan(
		&product.ID, &product.UserID, &product.Name, &product.Price, &stock, &product.MinStock,
		&product.Category, &product.Barcode, &product.Description, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by ID %d: %v", ErrDatabaseError, productID, err)
	}
	if stock.Valid {
		val := int(stock.Int64)
		product.StockQuantity = &val
	}
	return product, nil
}

func (r *productRepository) GetProducts(userID int64, filters models.ProductFilters) ([]models.Product, int, error) {
	products := []models.Product{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + productColumns + `, COUNT(*) OVER() AS total_count
	  FROM products`)

	conditions := []string{"user_id = $1"}
	args := []interface{}{userID}
	argCount := 2

	if filters.Category != nil && *filters.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argCount))
		args = append(args, *filters.Category)
		argCount++
	}
	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR barcode ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+*filters.Search+"%")
		argCount++
	}
	if filters.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price >= $%d", argCount))
		args = append(args, *filters.MinPrice)
		argCount++
	}
	if filters.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price <= $%d", argCount))
		args = append(args, *filters.MaxPrice)
		argCount++
	}

	queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Product
		var stock sql.NullInt64
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Name, &p.Price, &stock, &p.MinStock,
			&p.Category, &p.Barcode, &p.Description, &p.CreatedAt, &p.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		if stock.Valid {
			val := int(stock.Int64)
			p.StockQuantity = &val
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating product rows: %v", ErrDatabaseError, err)
	}
	return products, totalCount, nil
}

func (r *productRepository) UpdateProduct(executor SQLExecutor, product *models.Product) error {
	query := `UPDATE products SET
	            name = $1, price = $2, stock_quantity = $3, min_stock = $4,
	            category = $5, barcode = $6, description = $7, updated_at = $8
	          WHERE id = $9 AND user_id = $10`

	var stock sql.NullInt64
	if product.StockQuantity != nil {
		stock = sql.NullInt64{Int64: int64(*product.StockQuantity), Valid: true}
	}

	result, err := executor.Exec(query,
		product.Name, product.Price, stock, product.MinStock,
		product.Category, product.Barcode, product.Description, time.Now(),
		product.ID, product.UserID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: product barcode already in use (constraint: %s)", ErrDuplicateKey, pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating product ID %d: %v", ErrDatabaseError, product.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) DeleteProduct(executor SQLExecutor, userID, productID int64) error {
	query := `DELETE FROM products WHERE id = $1 AND user_id = $2`
	result, err := executor.Exec(query, productID, userID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return fmt.Errorf("%w: product ID %d appears in order or sale items (constraint: %s)", ErrReferenced, productID, pqErr.Constraint)
		}
		return fmt.Errorf("%w: deleting product ID %d: %v", ErrDatabaseError, productID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) GetLowStockProducts(userID int64) ([]models.Product, error) {
	products := []models.Product{}
	query := `SELECT ` + productColumns + ` FROM products
	          WHERE user_id = $1 AND stock_quantity IS NOT NULL AND stock_quantity <= min_stock
	          ORDER BY stock_quantity, name`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying low stock products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Product
		var stock sql.NullInt64
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Name, &p.Price, &stock, &p.MinStock,
			&p.Category, &p.Barcode, &p.Description, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning low stock product: %v", ErrDatabaseError, err)
		}
		if stock.Valid {
			val := int(stock.Int64)
			p.StockQuantity = &val
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating low stock product rows: %v", ErrDatabaseError, err)
	}
	return products, nil
}

func (r *productRepository) GetPriceAndName(executor SQLExecutor, userID, productID int64) (float64, string, error) {
	var price float64
	var name string
	query := `SELECT price, name FROM products WHERE id = $1 AND user_id = $2`
	err := executor.QueryRow(query, productID, userID).Scan(&price, &name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", ErrNotFound
		}
		return 0, "", fmt.Errorf("%w: getting price for product ID %d: %v", ErrDatabaseError, productID, err)
	}
	return price, name, nil
}

// ReserveStock performs the availability check and the decrement as one
// conditional UPDATE, so concurrent reservations against the same product
// serialize on the row and can never oversell it. When no row qualifies, the
// follow-up read distinguishes a missing product from an untracked one from
// genuine shortage.
func (r *productRepository) ReserveStock(executor SQLExecutor, userID, productID int64, quantity int) error {
	query := `UPDATE products
	          SET stock_quantity = stock_quantity - $1, updated_at = $2
	          WHERE id = $3 AND user_id = $4 AND stock_quantity >= $1`
	result, err := executor.Exec(query, quantity, time.Now(), productID, userID)
	if err != nil {
		return fmt.Errorf("%w: reserving stock for product ID %d: %v", ErrDatabaseError, productID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for stock reservation on product ID %d: %v", ErrDatabaseError, productID, err)
	}
	if rowsAffected > 0 {
		return nil
	}
	return r.diagnoseStockFailure(executor, userID, productID, quantity)
}

func (r *productRepository) ReleaseStock(executor SQLExecutor, userID, productID int64, quantity int) error {
	query := `UPDATE products
	          SET stock_quantity = stock_quantity + $1, updated_at = $2
	          WHERE id = $3 AND user_id = $4 AND stock_quantity IS NOT NULL`
	result, err := executor.Exec(query, quantity, time.Now(), productID, userID)
	if err != nil {
		return fmt.Errorf("%w: releasing stock for product ID %d: %v", ErrDatabaseError, productID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for stock release on product ID %d: %v", ErrDatabaseError, productID, err)
	}
	if rowsAffected > 0 {
		return nil
	}
	// Zero rows: either the product is gone or it does not track stock.
	var stock sql.NullInt64
	checkErr := executor.QueryRow(`SELECT stock_quantity FROM products WHERE id = $1 AND user_id = $2`, productID, userID).Scan(&stock)
	if errors.Is(checkErr, sql.ErrNoRows) {
		return ErrNotFound
	}
	if checkErr != nil {
		return fmt.Errorf("%w: checking product ID %d after stock release: %v", ErrDatabaseError, productID, checkErr)
	}
	return nil // untracked product, release is a no-op
}

func (r *productRepository) diagnoseStockFailure(executor SQLExecutor, userID, productID int64, quantity int) error {
	var stock sql.NullInt64
	checkErr := executor.QueryRow(`SELECT stock_quantity FROM products WHERE id = $1 AND user_id = $2`, productID, userID).Scan(&stock)
	if errors.Is(checkErr, sql.ErrNoRows) {
		return ErrNotFound
	}
	if checkErr != nil {
		return fmt.Errorf("%w: checking product ID %d after failed reservation: %v", ErrDatabaseError, productID, checkErr)
	}
	if !stock.Valid {
		return nil // untracked product, reservation is a no-op
	}
	return fmt.Errorf("%w: product ID %d: requested %d, available %d", ErrInsufficientStock, productID, quantity, stock.Int64)
}
