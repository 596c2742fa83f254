package domain

import "fmt"

// CustomerNotFoundError signals that the order references a customer that
// does not exist.
type CustomerNotFoundError struct {
	CustomerID int64
}

func (e *CustomerNotFoundError) Error() string {
	return fmt.Sprintf("customer with id %d not found", e.CustomerID)
}

// OrderNotFoundError signals a point lookup miss.
type OrderNotFoundError struct {
	OrderID int64
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("order with id %d not found", e.OrderID)
}

// ProductNotFoundError signals that one or more of the referenced products
// have no catalog row. It is an aggregate failure: the create path checks
// requested-set size against returned-set size and does not name the missing
// identifier.
type ProductNotFoundError struct{}

func (e *ProductNotFoundError) Error() string {
	return "one or more referenced products not found"
}

// InsufficientStockError signals that a stock decrement would have driven a
// product's stock quantity negative. Retryable by resubmission: a concurrent
// order may have consumed the stock between request and decrement.
type InsufficientStockError struct {
	Message string
}

func (e *InsufficientStockError) Error() string {
	if e.Message == "" {
		return "insufficient stock"
	}
	return "insufficient stock: " + e.Message
}

// InvalidOrderDataError covers structural and constraint-level rejections:
// empty item lists, non-positive quantities, and write-time check violations
// not classified more specifically.
type InvalidOrderDataError struct {
	Message string
}

func (e *InvalidOrderDataError) Error() string {
	return e.Message
}
