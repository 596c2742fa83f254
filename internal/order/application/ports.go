package application

import (
	"context"

	"github.com/orderflow/order-service/internal/order/domain"
	"github.com/orderflow/order-service/pkg/pagination"
)

type OrderRepository interface {
	Create(ctx context.Context, customerID int64, items []domain.ItemRequest) (domain.Order, error)
	FindByID(ctx context.Context, id int64) (domain.Order, error)
	List(ctx context.Context, p pagination.Params) (pagination.Page[domain.Order], error)
}
