package services

import "errors"

// Business error taxonomy. These are expected real-world conditions the
// caller must react to; they are never retried automatically.
var (
	ErrValidation = errors.New("validation error")

	ErrProductNotFound = errors.New("product not found")
	ErrTableNotFound   = errors.New("table not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrSaleNotFound    = errors.New("sale not found")

	ErrTableOccupied       = errors.New("table already occupied")
	ErrTableHasActiveOrder = errors.New("table has an active order")
	ErrOrderAlreadyClosed  = errors.New("order already closed")
	ErrInsufficientStock   = errors.New("insufficient stock for item")

	ErrDuplicateBarcode     = errors.New("product barcode already in use")
	ErrDuplicateTableNumber = errors.New("table number already in use")
	ErrProductInUse         = errors.New("product appears in order or sale history")
)
