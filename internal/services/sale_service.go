package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/internal/repositories"
)

// DefaultPaymentMethod is applied when a checkout or close request leaves the
// payment method unset.
const DefaultPaymentMethod = "cash"

// CheckoutRequest is a direct retail sale with no table involved.
type CheckoutRequest struct {
	Items         []OrderItemRequest `json:"items" binding:"required,dive"`
	PaymentMethod string             `json:"payment_method"`
}

// SaleService owns retail checkout and read access to the immutable sale
// records produced by checkouts and order closes.
type SaleService interface {
	Checkout(userID int64, req CheckoutRequest) (*models.Sale, error)
	GetSales(userID int64, filters models.SaleFilters) ([]models.Sale, int, error)
	GetSaleByID(userID, saleID int64) (*models.Sale, error)
}

type saleService struct {
	saleRepo    repositories.SaleRepository
	productRepo repositories.ProductRepository
	db          *sql.DB // For managing transactions
}

// NewSaleService creates a new instance of SaleService.
func NewSaleService(sr repositories.SaleRepository, pr repositories.ProductRepository, db *sql.DB) SaleService {
	return &saleService{saleRepo: sr, productRepo: pr, db: db}
}

// Checkout reserves stock for every item and writes the sale in one
// transaction, with the same all-or-nothing batch semantics as opening an
// order: one failed reservation rolls the whole sale back.
func (s *saleService) Checkout(userID int64, req CheckoutRequest) (*models.Sale, error) {
	if err := validateItemRequests(req.Items); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	// Product rows are locked in id order, matching the order paths, so a
	// concurrent open or checkout over the same products cannot deadlock.
	var totalAmount float64
	saleItems := make([]models.SaleItem, 0, len(req.Items))
	for _, itemReq := range sortedByProductID(req.Items) {
		price, name, err := s.productRepo.GetPriceAndName(tx, userID, itemReq.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: product ID %d", ErrProductNotFound, itemReq.ProductID)
			}
			return nil, fmt.Errorf("failed to fetch product %d details: %w", itemReq.ProductID, err)
		}
		if err := s.productRepo.ReserveStock(tx, userID, itemReq.ProductID, itemReq.Quantity); err != nil {
			if errors.Is(err, repositories.ErrInsufficientStock) {
				return nil, fmt.Errorf("%w: %s (ID: %d)", ErrInsufficientStock, name, itemReq.ProductID)
			}
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: product ID %d", ErrProductNotFound, itemReq.ProductID)
			}
			return nil, fmt.Errorf("failed to reserve stock for %s (ID: %d): %w", name, itemReq.ProductID, err)
		}

		lineTotal := price * float64(itemReq.Quantity)
		totalAmount += lineTotal
		saleItems = append(saleItems, models.SaleItem{
			ProductID: itemReq.ProductID,
			Quantity:  itemReq.Quantity,
			UnitPrice: price,
			LineTotal: lineTotal,
		})
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = DefaultPaymentMethod
	}
	sale := &models.Sale{
		UserID:        userID,
		TotalAmount:   totalAmount,
		PaymentMethod: paymentMethod,
		CreatedAt:     time.Now(),
		Items:         saleItems,
	}
	if _, err := s.saleRepo.CreateSale(tx, sale); err != nil {
		return nil, fmt.Errorf("failed to create sale record: %w", err)
	}
	for i := range sale.Items {
		sale.Items[i].SaleID = sale.ID
		if _, err := s.saleRepo.CreateSaleItem(tx, &sale.Items[i]); err != nil {
			return nil, fmt.Errorf("failed to create sale item (product_id: %d): %w", sale.Items[i].ProductID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit checkout transaction: %w", err)
	}
	return sale, nil
}

func (s *saleService) GetSales(userID int64, filters models.SaleFilters) ([]models.Sale, int, error) {
	sales, totalCount, err := s.saleRepo.GetSales(userID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get sales: %w", err)
	}
	return sales, totalCount, nil
}

func (s *saleService) GetSaleByID(userID, saleID int64) (*models.Sale, error) {
	sale, err := s.saleRepo.GetSaleByID(userID, saleID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to get sale by ID: %w", err)
	}
	items, err := s.saleRepo.GetSaleItemsBySaleID(saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sale items for sale ID %d: %w", saleID, err)
	}
	sale.Items = items
	return sale, nil
}

// finalizeSale converts a closed order and its items into an immutable sale
// record. It is a pure transformation: it never touches stock or table state,
// and calling it is guarded by the one-way active → closed transition.
func finalizeSale(order *models.Order, items []models.OrderItem, paymentMethod string) *models.Sale {
	if paymentMethod == "" {
		paymentMethod = DefaultPaymentMethod
	}
	createdAt := time.Now()
	if order.ClosedAt != nil {
		createdAt = *order.ClosedAt
	}
	tableID := order.TableID
	sale := &models.Sale{
		UserID:        order.UserID,
		TableID:       &tableID,
		TotalAmount:   order.TotalAmount,
		PaymentMethod: paymentMethod,
		CreatedAt:     createdAt,
	}
	for _, item := range items {
		sale.Items = append(sale.Items, models.SaleItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	return sale
}
