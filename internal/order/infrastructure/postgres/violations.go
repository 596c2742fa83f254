package postgres

import (
	"github.com/orderflow/order-service/internal/order/domain"
	"github.com/orderflow/order-service/internal/platform/pgerr"
)

type violationKind int

const (
	kindCustomerMissing violationKind = iota
	kindProductMissing
	kindInsufficientStock
	kindInvalidData
)

// violations declares every constraint the create-order statements can trip
// and the domain error kind each one maps to. Anything outside this table is
// an infrastructure failure and passes through unclassified.
var violations = pgerr.NewTable(map[pgerr.Violation]violationKind{
	{Code: pgerr.ForeignKeyViolation, Constraint: "orders_customer_id_fkey"}:     kindCustomerMissing,
	{Code: pgerr.ForeignKeyViolation, Constraint: "order_items_order_id_fkey"}:   kindInvalidData,
	{Code: pgerr.ForeignKeyViolation, Constraint: "order_items_product_id_fkey"}: kindProductMissing,
	{Code: pgerr.CheckViolation, Constraint: "products_stock_non_negative"}:      kindInsufficientStock,
	{Code: pgerr.CheckViolation, Constraint: "orders_status_valid"}:              kindInvalidData,
	{Code: pgerr.CheckViolation, Constraint: "orders_total_positive"}:            kindInvalidData,
	{Code: pgerr.CheckViolation, Constraint: "order_items_quantity_positive"}:    kindInvalidData,
	{Code: pgerr.CheckViolation, Constraint: "order_items_price_positive"}:       kindInvalidData,
})

// classify reclassifies storage violations into domain error kinds. customerID
// is threaded through so the not-found kind can carry it.
func classify(customerID int64, err error) error {
	kind, pgErr, ok := violations.Classify(err)
	if !ok {
		return err
	}
	switch kind {
	case kindCustomerMissing:
		return &domain.CustomerNotFoundError{CustomerID: customerID}
	case kindProductMissing:
		return &domain.ProductNotFoundError{}
	case kindInsufficientStock:
		return &domain.InsufficientStockError{Message: pgErr.Message}
	default:
		return &domain.InvalidOrderDataError{Message: pgErr.Message}
	}
}
