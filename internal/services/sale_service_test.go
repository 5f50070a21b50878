package services

import (
	"testing"
	"time"

	"cafe_pos_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalizeSaleCopiesOrderIntoImmutableRecord(t *testing.T) {
	closedAt := time.Date(2026, 3, 14, 20, 30, 0, 0, time.UTC)
	order := &models.Order{
		ID:          42,
		TableID:     7,
		UserID:      3,
		Status:      models.OrderStatusClosed,
		TotalAmount: 18.50,
		ClosedAt:    &closedAt,
	}
	items := []models.OrderItem{
		{OrderID: 42, ProductID: 1, Quantity: 2, UnitPrice: 4.25, LineTotal: 8.50},
		{OrderID: 42, ProductID: 5, Quantity: 1, UnitPrice: 10.00, LineTotal: 10.00},
	}

	sale := finalizeSale(order, items, "card")

	assert.Equal(t, int64(3), sale.UserID)
	require.NotNil(t, sale.TableID)
	assert.Equal(t, int64(7), *sale.TableID)
	assert.Equal(t, 18.50, sale.TotalAmount)
	assert.Equal(t, "card", sale.PaymentMethod)
	assert.Equal(t, closedAt, sale.CreatedAt)

	require.Len(t, sale.Items, 2)
	assert.Equal(t, int64(1), sale.Items[0].ProductID)
	assert.Equal(t, 2, sale.Items[0].Quantity)
	assert.Equal(t, 4.25, sale.Items[0].UnitPrice)
	assert.Equal(t, 8.50, sale.Items[0].LineTotal)
	assert.Equal(t, int64(5), sale.Items[1].ProductID)

	// The sale keeps its own copy of the table ID.
	order.TableID = 99
	assert.Equal(t, int64(7), *sale.TableID)
}

func TestFinalizeSaleDefaultsPaymentMethod(t *testing.T) {
	order := &models.Order{ID: 1, TableID: 2, UserID: 1, TotalAmount: 5}

	sale := finalizeSale(order, nil, "")

	assert.Equal(t, DefaultPaymentMethod, sale.PaymentMethod)
	// Without a close timestamp the sale is stamped with the current time.
	assert.WithinDuration(t, time.Now(), sale.CreatedAt, time.Minute)
}

func TestCheckoutRejectsInvalidItemsBeforeTouchingTheDatabase(t *testing.T) {
	svc := NewSaleService(nil, nil, nil)

	_, err := svc.Checkout(1, CheckoutRequest{Items: nil})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Checkout(1, CheckoutRequest{
		Items: []OrderItemRequest{{ProductID: 0, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrValidation)
}
