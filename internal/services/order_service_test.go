package services

import (
	"database/sql"
	"testing"
	"time"

	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockedOrderService backs the real repositories with a sqlmock database,
// so transaction behavior can be asserted without Postgres.
func newMockedOrderService(t *testing.T) (OrderService, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewOrderService(
		repositories.NewOrderRepository(db),
		repositories.NewTableRepository(db),
		repositories.NewProductRepository(db),
		repositories.NewSaleRepository(db),
		db,
	)
	return svc, mock, db
}

func orderRows(status models.OrderStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "table_id", "user_id", "status", "total_amount", "created_at", "closed_at", "updated_at",
	}).AddRow(9, 3, 1, string(status), 20.0, time.Now(), nil, time.Now())
}

func emptyOrderItemRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "order_id", "product_id", "quantity", "unit_price", "line_total", "product_name",
	})
}

func TestItemQuantityDeltas(t *testing.T) {
	tests := []struct {
		name    string
		old     []models.OrderItem
		updated []OrderItemRequest
		want    map[int64]int
	}{
		{
			name:    "first items on empty order",
			old:     nil,
			updated: []OrderItemRequest{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}},
			want:    map[int64]int{1: 2, 2: 1},
		},
		{
			name:    "quantity increased",
			old:     []models.OrderItem{{ProductID: 1, Quantity: 2}},
			updated: []OrderItemRequest{{ProductID: 1, Quantity: 5}},
			want:    map[int64]int{1: 3},
		},
		{
			name:    "quantity decreased",
			old:     []models.OrderItem{{ProductID: 1, Quantity: 5}},
			updated: []OrderItemRequest{{ProductID: 1, Quantity: 2}},
			want:    map[int64]int{1: -3},
		},
		{
			name:    "unchanged quantities produce no deltas",
			old:     []models.OrderItem{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 4}},
			updated: []OrderItemRequest{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 4}},
			want:    map[int64]int{},
		},
		{
			name:    "product removed entirely",
			old:     []models.OrderItem{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 3}},
			updated: []OrderItemRequest{{ProductID: 1, Quantity: 2}},
			want:    map[int64]int{2: -3},
		},
		{
			name:    "duplicate request lines are summed",
			old:     []models.OrderItem{{ProductID: 1, Quantity: 1}},
			updated: []OrderItemRequest{{ProductID: 1, Quantity: 2}, {ProductID: 1, Quantity: 3}},
			want:    map[int64]int{1: 4},
		},
		{
			name:    "mixed add remove and change",
			old:     []models.OrderItem{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}},
			updated: []OrderItemRequest{{ProductID: 2, Quantity: 4}, {ProductID: 3, Quantity: 1}},
			want:    map[int64]int{1: -2, 2: 3, 3: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := itemQuantityDeltas(tt.old, tt.updated)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateItemRequests(t *testing.T) {
	tests := []struct {
		name    string
		items   []OrderItemRequest
		wantErr bool
	}{
		{name: "valid items", items: []OrderItemRequest{{ProductID: 1, Quantity: 1}}, wantErr: false},
		{name: "empty item set", items: nil, wantErr: true},
		{name: "zero product ID", items: []OrderItemRequest{{ProductID: 0, Quantity: 1}}, wantErr: true},
		{name: "negative quantity", items: []OrderItemRequest{{ProductID: 1, Quantity: -1}}, wantErr: true},
		{name: "zero quantity", items: []OrderItemRequest{{ProductID: 1, Quantity: 0}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateItemRequests(tt.items)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestOpenOrderRejectsInvalidItemsBeforeTouchingTheDatabase(t *testing.T) {
	// A nil db handle proves validation happens before any transaction starts.
	svc := NewOrderService(nil, nil, nil, nil, nil)

	_, err := svc.OpenOrder(1, OpenOrderRequest{TableID: 1, Items: nil})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.OpenOrder(1, OpenOrderRequest{
		TableID: 1,
		Items:   []OrderItemRequest{{ProductID: 7, Quantity: 0}},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestReplaceItemsRejectsInvalidItemsBeforeTouchingTheDatabase(t *testing.T) {
	svc := NewOrderService(nil, nil, nil, nil, nil)

	_, err := svc.ReplaceItems(1, 1, ReplaceItemsRequest{Items: nil})
	require.ErrorIs(t, err, ErrValidation)
}

func TestOpenOrderRollsBackWhenReservationFails(t *testing.T) {
	svc, mock, _ := newMockedOrderService(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE tables SET status = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT price, name FROM products`).
		WillReturnRows(sqlmock.NewRows([]string{"price", "name"}).AddRow(4.5, "Espresso"))
	// The conditional decrement finds less stock than requested.
	mock.ExpectExec(`SET stock_quantity = stock_quantity - \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT stock_quantity FROM products`).
		WillReturnRows(sqlmock.NewRows([]string{"stock_quantity"}).AddRow(1))
	mock.ExpectRollback()

	_, err := svc.OpenOrder(1, OpenOrderRequest{
		TableID: 3,
		Items:   []OrderItemRequest{{ProductID: 7, Quantity: 5}},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// No order INSERT was expected, so meeting the expectations proves the
	// table claim and the failed reservation both rolled back together.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseOrderLosingTheCloseRaceProducesNoSale(t *testing.T) {
	svc, mock, _ := newMockedOrderService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM orders WHERE id = \$1 AND user_id = \$2 FOR UPDATE`).
		WillReturnRows(orderRows(models.OrderStatusActive))
	mock.ExpectQuery(`SELECT oi.id`).
		WillReturnRows(emptyOrderItemRows())
	// Another close won the conditional update between our read and write.
	mock.ExpectExec(`UPDATE orders SET status = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.CloseOrder(1, 9, CloseOrderRequest{})
	require.ErrorIs(t, err, ErrOrderAlreadyClosed)

	// No sales INSERT and no table release were expected past the rollback.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenOrderReservesProductsInIDOrder(t *testing.T) {
	svc, mock, _ := newMockedOrderService(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE tables SET status = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Product 2 must be priced and reserved before product 5 even though the
	// request listed them the other way around.
	mock.ExpectQuery(`SELECT price, name FROM products`).
		WithArgs(int64(2), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"price", "name"}).AddRow(3.0, "Croissant"))
	mock.ExpectExec(`SET stock_quantity = stock_quantity - \$1`).
		WithArgs(1, sqlmock.AnyArg(), int64(2), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT price, name FROM products`).
		WithArgs(int64(5), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"price", "name"}).AddRow(4.5, "Espresso"))
	mock.ExpectExec(`SET stock_quantity = stock_quantity - \$1`).
		WithArgs(2, sqlmock.AnyArg(), int64(5), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO orders`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectQuery(`INSERT INTO order_items`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO order_items`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM orders WHERE id = \$1 AND user_id = \$2`).
		WillReturnRows(orderRows(models.OrderStatusActive))
	mock.ExpectQuery(`SELECT oi.id`).
		WillReturnRows(emptyOrderItemRows())

	order, err := svc.OpenOrder(1, OpenOrderRequest{
		TableID: 3,
		Items: []OrderItemRequest{
			{ProductID: 5, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), order.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
