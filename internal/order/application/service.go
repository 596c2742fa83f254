package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/orderflow/order-service/internal/order/domain"
	"github.com/orderflow/order-service/pkg/metrics"
	"github.com/orderflow/order-service/pkg/pagination"
)

// MaxItemQuantity bounds a single line item at the validation boundary.
const MaxItemQuantity = 1000

type CreateOrderRequest struct {
	CustomerID int64                `json:"customer_id"`
	Items      []domain.ItemRequest `json:"items"`
}

func (r CreateOrderRequest) Validate() error {
	if r.CustomerID <= 0 {
		return &domain.InvalidOrderDataError{Message: "customer_id must be a positive integer"}
	}
	if len(r.Items) == 0 {
		return &domain.InvalidOrderDataError{Message: "order must contain at least one item"}
	}
	for _, item := range r.Items {
		if item.ProductID <= 0 {
			return &domain.InvalidOrderDataError{Message: "product_id must be a positive integer"}
		}
		if item.Quantity <= 0 {
			return &domain.InvalidOrderDataError{Message: "item quantity must be positive"}
		}
		if item.Quantity > MaxItemQuantity {
			return &domain.InvalidOrderDataError{Message: "item quantity exceeds maximum"}
		}
	}
	return nil
}

type Service struct {
	log     *slog.Logger
	repo    OrderRepository
	metrics *metrics.OrderMetrics
}

func NewService(log *slog.Logger, repo OrderRepository, m *metrics.OrderMetrics) *Service {
	return &Service{log: log, repo: repo, metrics: m}
}

func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (domain.Order, error) {
	if err := req.Validate(); err != nil {
		s.metrics.Rejected.WithLabelValues(rejectionReason(err)).Inc()
		return domain.Order{}, err
	}

	order, err := s.repo.Create(ctx, req.CustomerID, req.Items)
	if err != nil {
		s.metrics.Rejected.WithLabelValues(rejectionReason(err)).Inc()
		return domain.Order{}, err
	}

	s.metrics.Created.Inc()
	s.log.Info("order created",
		"order_id", order.ID,
		"customer_id", order.CustomerID,
		"total_amount", order.TotalAmount.StringFixed(2),
	)
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context, p pagination.Params) (pagination.Page[domain.Order], error) {
	return s.repo.List(ctx, p)
}

func rejectionReason(err error) string {
	var (
		customerNotFound *domain.CustomerNotFoundError
		productNotFound  *domain.ProductNotFoundError
		insufficient     *domain.InsufficientStockError
		invalid          *domain.InvalidOrderDataError
	)
	switch {
	case errors.As(err, &customerNotFound):
		return "customer_not_found"
	case errors.As(err, &productNotFound):
		return "product_not_found"
	case errors.As(err, &insufficient):
		return "insufficient_stock"
	case errors.As(err, &invalid):
		return "invalid_data"
	default:
		return "infrastructure"
	}
}
