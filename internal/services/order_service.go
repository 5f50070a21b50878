package services

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/internal/repositories"
)

// --- Data Transfer Objects (DTOs) ---

// OrderItemRequest is one requested line item. The unit price always comes
// from the product record, never from the client.
type OrderItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,gt=0"`
}

// OpenOrderRequest opens an order on an empty table.
type OpenOrderRequest struct {
	TableID int64              `json:"table_id" binding:"required"`
	Items   []OrderItemRequest `json:"items" binding:"required,dive"`
}

// ReplaceItemsRequest swaps an active order's item set.
type ReplaceItemsRequest struct {
	Items []OrderItemRequest `json:"items" binding:"required,dive"`
}

// CloseOrderRequest settles an order's bill.
type CloseOrderRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// --- OrderService Interface ---

// OrderService owns the open-order lifecycle: it claims and releases tables,
// reserves stock, and hands closed orders to sale finalization.
type OrderService interface {
	OpenOrder(userID int64, req OpenOrderRequest) (*models.Order, error)
	ReplaceItems(userID, orderID int64, req ReplaceItemsRequest) (*models.Order, error)
	CloseOrder(userID, orderID int64, req CloseOrderRequest) (*models.Sale, error)
	GetActiveOrder(userID, tableID int64) (*models.Order, error)
	GetOrders(userID int64, filters models.OrderFilters) ([]models.Order, int, error)
	GetOrderByID(userID, orderID int64) (*models.Order, error)
}

type orderService struct {
	orderRepo   repositories.OrderRepository
	tableRepo   repositories.TableRepository
	productRepo repositories.ProductRepository
	saleRepo    repositories.SaleRepository
	db          *sql.DB // For managing transactions
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(
	or repositories.OrderRepository,
	tr repositories.TableRepository,
	pr repositories.ProductRepository,
	sr repositories.SaleRepository,
	db *sql.DB,
) OrderService {
	return &orderService{
		orderRepo:   or,
		tableRepo:   tr,
		productRepo: pr,
		saleRepo:    sr,
		db:          db,
	}
}

// --- Method Implementations ---

// OpenOrder claims the table, reserves stock for every item, and persists the
// order, all inside one transaction: failure at any step rolls back every
// prior step, so a table is never left occupied without an order and stock is
// never left reserved without an item.
func (s *orderService) OpenOrder(userID int64, req OpenOrderRequest) (*models.Order, error) {
	if err := validateItemRequests(req.Items); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.tableRepo.ClaimTable(tx, userID, req.TableID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrTableNotFound
		case errors.Is(err, repositories.ErrTableOccupied):
			return nil, fmt.Errorf("%w: table ID %d", ErrTableOccupied, req.TableID)
		default:
			return nil, fmt.Errorf("failed to claim table %d: %w", req.TableID, err)
		}
	}

	itemsToCreate, totalAmount, err := s.buildOrderItems(tx, userID, req.Items)
	if err != nil {
		return nil, err
	}

	order := models.Order{
		TableID:     req.TableID,
		UserID:      userID,
		Status:      models.OrderStatusActive,
		TotalAmount: totalAmount,
		CreatedAt:   time.Now(),
	}
	orderID, err := s.orderRepo.CreateOrder(tx, &order)
	if err != nil {
		if errors.Is(err, repositories.ErrTableOccupied) {
			return nil, fmt.Errorf("%w: table ID %d", ErrTableOccupied, req.TableID)
		}
		return nil, fmt.Errorf("failed to create order record: %w", err)
	}

	for i := range itemsToCreate {
		itemsToCreate[i].OrderID = orderID
		if _, err := s.orderRepo.CreateOrderItem(tx, &itemsToCreate[i]); err != nil {
			return nil, fmt.Errorf("failed to create order item (product_id: %d): %w", itemsToCreate[i].ProductID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order transaction: %w", err)
	}
	return s.GetOrderByID(userID, orderID)
}

// ReplaceItems discards the order's item set and installs the requested one.
// The stock ledger is reconciled with the per-product quantity delta between
// the two sets, so repeated edits cannot drift stock away from consumption.
func (s *orderService) ReplaceItems(userID, orderID int64, req ReplaceItemsRequest) (*models.Order, error) {
	if err := validateItemRequests(req.Items); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := s.orderRepo.GetOrderForUpdate(tx, userID, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to fetch order for item replacement: %w", err)
	}
	if order.Status == models.OrderStatusClosed {
		return nil, fmt.Errorf("%w: order ID %d", ErrOrderAlreadyClosed, orderID)
	}

	oldItems, err := s.orderRepo.GetOrderItemsByOrderID(tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current order items: %w", err)
	}

	if err := s.applyStockDeltas(tx, userID, itemQuantityDeltas(oldItems, req.Items)); err != nil {
		return nil, err
	}

	// Stock is already reconciled above, so the new item set only needs pricing.
	itemsToCreate, totalAmount, err := s.priceOrderItems(tx, userID, req.Items)
	if err != nil {
		return nil, err
	}

	if _, err := s.orderRepo.DeleteOrderItemsByOrderID(tx, orderID); err != nil {
		return nil, fmt.Errorf("failed to delete old order items: %w", err)
	}
	for i := range itemsToCreate {
		itemsToCreate[i].OrderID = orderID
		if _, err := s.orderRepo.CreateOrderItem(tx, &itemsToCreate[i]); err != nil {
			return nil, fmt.Errorf("failed to create order item (product_id: %d): %w", itemsToCreate[i].ProductID, err)
		}
	}
	if err := s.orderRepo.UpdateOrderTotal(tx, orderID, totalAmount, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to update order total: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit item replacement transaction: %w", err)
	}
	return s.GetOrderByID(userID, orderID)
}

// CloseOrder settles the bill: the order's items are copied into an immutable
// sale, the order flips to closed, and the table returns to empty. Stock is
// deliberately not released here; the reservation made at open time is the
// permanent consumption record for the sale.
func (s *orderService) CloseOrder(userID, orderID int64, req CloseOrderRequest) (*models.Sale, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := s.orderRepo.GetOrderForUpdate(tx, userID, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to fetch order for closing: %w", err)
	}
	if order.Status == models.OrderStatusClosed {
		return nil, fmt.Errorf("%w: order ID %d", ErrOrderAlreadyClosed, orderID)
	}

	items, err := s.orderRepo.GetOrderItemsByOrderID(tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order items for closing: %w", err)
	}

	closedAt := time.Now()
	rowsAffected, err := s.orderRepo.CloseOrder(tx, orderID, closedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to close order: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: order ID %d", ErrOrderAlreadyClosed, orderID)
	}
	order.Status = models.OrderStatusClosed
	order.ClosedAt = &closedAt

	sale := finalizeSale(order, items, req.PaymentMethod)
	if _, err := s.saleRepo.CreateSale(tx, sale); err != nil {
		return nil, fmt.Errorf("failed to create sale record: %w", err)
	}
	for i := range sale.Items {
		sale.Items[i].SaleID = sale.ID
		if _, err := s.saleRepo.CreateSaleItem(tx, &sale.Items[i]); err != nil {
			return nil, fmt.Errorf("failed to create sale item (product_id: %d): %w", sale.Items[i].ProductID, err)
		}
	}

	if err := s.tableRepo.ReleaseTable(tx, userID, order.TableID); err != nil {
		return nil, fmt.Errorf("failed to release table %d: %w", order.TableID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order close transaction: %w", err)
	}
	return sale, nil
}

func (s *orderService) GetActiveOrder(userID, tableID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetActiveOrderByTableID(userID, tableID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get active order for table %d: %w", tableID, err)
	}
	items, err := s.orderRepo.GetOrderItemsByOrderID(s.db, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items for active order %d: %w", order.ID, err)
	}
	order.Items = items
	return order, nil
}

func (s *orderService) GetOrders(userID int64, filters models.OrderFilters) ([]models.Order, int, error) {
	orders, totalCount, err := s.orderRepo.GetOrders(userID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, totalCount, nil
}

func (s *orderService) GetOrderByID(userID, orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(userID, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by ID: %w", err)
	}
	items, err := s.orderRepo.GetOrderItemsByOrderID(s.db, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items for order ID %d: %w", orderID, err)
	}
	order.Items = items
	return order, nil
}

// --- Helpers ---

// buildOrderItems resolves prices and reserves stock for every requested
// item inside the caller's transaction. Reservation failures surface as
// typed errors; the caller's rollback undoes any reservations already made.
// Items are processed in product id order so concurrent batches lock product
// rows in the same sequence and cannot deadlock each other.
func (s *orderService) buildOrderItems(tx repositories.SQLExecutor, userID int64, reqs []OrderItemRequest) ([]models.OrderItem, float64, error) {
	reqs = sortedByProductID(reqs)

	var totalAmount float64
	items := make([]models.OrderItem, 0, len(reqs))

	for _, itemReq := range reqs {
		price, name, err := s.productRepo.GetPriceAndName(tx, userID, itemReq.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, 0, fmt.Errorf("%w: product ID %d", ErrProductNotFound, itemReq.ProductID)
			}
			return nil, 0, fmt.Errorf("failed to fetch product %d details: %w", itemReq.ProductID, err)
		}
		if err := s.productRepo.ReserveStock(tx, userID, itemReq.ProductID, itemReq.Quantity); err != nil {
			if errors.Is(err, repositories.ErrInsufficientStock) {
				return nil, 0, fmt.Errorf("%w: %s (ID: %d)", ErrInsufficientStock, name, itemReq.ProductID)
			}
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, 0, fmt.Errorf("%w: product ID %d", ErrProductNotFound, itemReq.ProductID)
			}
			return nil, 0, fmt.Errorf("failed to reserve stock for %s (ID: %d): %w", name, itemReq.ProductID, err)
		}

		lineTotal := price * float64(itemReq.Quantity)
		totalAmount += lineTotal
		items = append(items, models.OrderItem{
			ProductID: itemReq.ProductID,
			Quantity:  itemReq.Quantity,
			UnitPrice: price,
			LineTotal: lineTotal,
		})
	}
	return items, totalAmount, nil
}

// priceOrderItems resolves prices for a requested item set without touching
// the stock ledger. Used when reconciliation already happened via deltas.
func (s *orderService) priceOrderItems(tx repositories.SQLExecutor, userID int64, reqs []OrderItemRequest) ([]models.OrderItem, float64, error) {
	var totalAmount float64
	items := make([]models.OrderItem, 0, len(reqs))

	for _, itemReq := range reqs {
		price, _, err := s.productRepo.GetPriceAndName(tx, userID, itemReq.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, 0, fmt.Errorf("%w: product ID %d", ErrProductNotFound, itemReq.ProductID)
			}
			return nil, 0, fmt.Errorf("failed to fetch product %d details: %w", itemReq.ProductID, err)
		}

		lineTotal := price * float64(itemReq.Quantity)
		totalAmount += lineTotal
		items = append(items, models.OrderItem{
			ProductID: itemReq.ProductID,
			Quantity:  itemReq.Quantity,
			UnitPrice: price,
			LineTotal: lineTotal,
		})
	}
	return items, totalAmount, nil
}

// applyStockDeltas reconciles the stock ledger with a per-product quantity
// delta map. Products are visited in id order so two concurrent edits lock
// rows in the same sequence.
func (s *orderService) applyStockDeltas(tx repositories.SQLExecutor, userID int64, deltas map[int64]int) error {
	productIDs := make([]int64, 0, len(deltas))
	for productID := range deltas {
		productIDs = append(productIDs, productID)
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	for _, productID := range productIDs {
		delta := deltas[productID]
		switch {
		case delta > 0:
			if err := s.productRepo.ReserveStock(tx, userID, productID, delta); err != nil {
				if errors.Is(err, repositories.ErrInsufficientStock) {
					return fmt.Errorf("%w: product ID %d", ErrInsufficientStock, productID)
				}
				if errors.Is(err, repositories.ErrNotFound) {
					return fmt.Errorf("%w: product ID %d", ErrProductNotFound, productID)
				}
				return fmt.Errorf("failed to reserve stock delta for product %d: %w", productID, err)
			}
		case delta < 0:
			if err := s.productRepo.ReleaseStock(tx, userID, productID, -delta); err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return fmt.Errorf("%w: product ID %d", ErrProductNotFound, productID)
				}
				return fmt.Errorf("failed to release stock delta for product %d: %w", productID, err)
			}
		}
	}
	return nil
}

// sortedByProductID returns a copy of reqs ordered by product id. The caller's
// slice keeps its request order.
func sortedByProductID(reqs []OrderItemRequest) []OrderItemRequest {
	sorted := append([]OrderItemRequest(nil), reqs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })
	return sorted
}

// itemQuantityDeltas computes, per product, how many additional units the new
// item set consumes compared to the old one. Positive values need a
// reservation, negative ones a release.
func itemQuantityDeltas(old []models.OrderItem, updated []OrderItemRequest) map[int64]int {
	deltas := make(map[int64]int, len(updated))
	for _, item := range updated {
		deltas[item.ProductID] += item.Quantity
	}
	for _, item := range old {
		deltas[item.ProductID] -= item.Quantity
	}
	for productID, delta := range deltas {
		if delta == 0 {
			delete(deltas, productID)
		}
	}
	return deltas
}

func validateItemRequests(items []OrderItemRequest) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}
	for _, item := range items {
		if item.ProductID <= 0 {
			return fmt.Errorf("%w: invalid product ID %d", ErrValidation, item.ProductID)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: quantity for product ID %d must be positive", ErrValidation, item.ProductID)
		}
	}
	return nil
}
