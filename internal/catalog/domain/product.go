package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product with id %d not found", e.ProductID)
}

type DuplicateProductError struct {
	Name string
}

func (e *DuplicateProductError) Error() string {
	return fmt.Sprintf("product with name %s already exists", e.Name)
}

type NegativeProductPriceError struct {
	Name  string
	Price decimal.Decimal
}

func (e *NegativeProductPriceError) Error() string {
	return fmt.Sprintf("product %s price must not be negative: %s", e.Name, e.Price)
}

type NegativeProductStockError struct {
	Name          string
	StockQuantity int
}

func (e *NegativeProductStockError) Error() string {
	return fmt.Sprintf("product %s stock quantity must not be negative: %d", e.Name, e.StockQuantity)
}
