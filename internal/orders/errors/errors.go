package errors

import "errors"

var (
	ErrNotFound = errors.New("order not found")

	ErrInvalidID = errors.New("invalid order ID format")

	// ErrDuplicateReference means an order for the payment reference already exists.
	ErrDuplicateReference = errors.New("order already recorded for payment reference")
)
