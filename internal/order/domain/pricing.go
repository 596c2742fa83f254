package domain

import "github.com/shopspring/decimal"

// ItemRequest is one (product, quantity) pair of a validated create-order
// request.
type ItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// ProductSnapshot is the catalog state of one product as observed inside the
// transaction that is creating the order.
type ProductSnapshot struct {
	Price         decimal.Decimal
	StockQuantity int
}

// PricedItem is an item extended with its price-at-purchase snapshot.
type PricedItem struct {
	ProductID       int64
	Quantity        int
	PriceAtPurchase decimal.Decimal
}

// PriceOrder prices the requested items against the catalog snapshot and
// returns the priced items plus the order total. It is pure: no I/O, no
// side effects.
//
// Shape validation normally happens at the request boundary, but this is the
// last point before money values are computed, so empty item lists and
// non-positive quantities are rejected again here.
func PriceOrder(items []ItemRequest, catalog map[int64]ProductSnapshot) ([]PricedItem, decimal.Decimal, error) {
	if len(items) == 0 {
		return nil, decimal.Zero, &InvalidOrderDataError{Message: "order must contain at least one item"}
	}

	priced := make([]PricedItem, 0, len(items))
	total := decimal.Zero
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, decimal.Zero, &InvalidOrderDataError{Message: "item quantity must be positive"}
		}
		snapshot, ok := catalog[item.ProductID]
		if !ok {
			return nil, decimal.Zero, &ProductNotFoundError{}
		}
		priced = append(priced, PricedItem{
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			PriceAtPurchase: snapshot.Price,
		})
		total = total.Add(snapshot.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return priced, total, nil
}
