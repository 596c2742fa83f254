package domain

// OrderCreated is the outbox event emitted in the same transaction that
// persists the order.
type OrderCreated struct {
	OrderID     int64              `json:"order_id"`
	CustomerID  int64              `json:"customer_id"`
	TotalAmount string             `json:"total_amount"`
	Items       []OrderCreatedItem `json:"items"`
}

type OrderCreatedItem struct {
	ProductID       int64  `json:"product_id"`
	Quantity        int    `json:"quantity"`
	PriceAtPurchase string `json:"price_at_purchase"`
}

func NewOrderCreated(o Order, items []PricedItem) OrderCreated {
	event := OrderCreated{
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		TotalAmount: o.TotalAmount.StringFixed(2),
		Items:       make([]OrderCreatedItem, 0, len(items)),
	}
	for _, item := range items {
		event.Items = append(event.Items, OrderCreatedItem{
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase.StringFixed(2),
		})
	}
	return event
}
