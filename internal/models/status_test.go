package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableStatusValid(t *testing.T) {
	assert.True(t, TableStatusEmpty.Valid())
	assert.True(t, TableStatusOccupied.Valid())
	assert.False(t, TableStatus("reserved").Valid())
	assert.False(t, TableStatus("").Valid())
}

func TestOrderStatusValid(t *testing.T) {
	assert.True(t, OrderStatusActive.Valid())
	assert.True(t, OrderStatusClosed.Valid())
	assert.False(t, OrderStatus("cancelled").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestProductTracked(t *testing.T) {
	stock := 5
	tracked := Product{Name: "Espresso", StockQuantity: &stock}
	untracked := Product{Name: "Americano"}

	assert.True(t, tracked.Tracked())
	assert.False(t, untracked.Tracked())
}
