package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderflow/order-service/internal/order/domain"
	platform "github.com/orderflow/order-service/internal/platform/postgres"
	"github.com/orderflow/order-service/pkg/pagination"
	"github.com/orderflow/order-service/pkg/tracing"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// Create runs the whole order-creation sequence in one transaction: price
// lookup, pricing, header insert, batched item insert, stock decrement, and
// the OrderCreated outbox row. Rollback on any failure leaves no trace of the
// attempt. The returned order is the header only; items are a separate read.
func (r *Repository) Create(ctx context.Context, customerID int64, items []domain.ItemRequest) (domain.Order, error) {
	var order domain.Order
	err := platform.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		catalog, err := fetchCatalog(ctx, tx, items)
		if err != nil {
			return err
		}

		priced, total, err := domain.PriceOrder(items, catalog)
		if err != nil {
			return err
		}

		order = domain.Order{CustomerID: customerID, Status: domain.StatusPending, TotalAmount: total}
		err = tx.QueryRow(ctx,
			`INSERT INTO orders (customer_id, status, total_amount)
			 VALUES ($1, $2, $3)
			 RETURNING id, created_at, updated_at`,
			customerID, order.Status, total,
		).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return classify(customerID, err)
		}

		// Items reference the header id, so the header insert above must come
		// first.
		batch := &pgx.Batch{}
		for _, item := range priced {
			batch.Queue(
				`INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
				 VALUES ($1, $2, $3, $4)`,
				order.ID, item.ProductID, item.Quantity, item.PriceAtPurchase)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return classify(customerID, err)
		}

		// No stock pre-check: the products_stock_non_negative constraint is
		// the backstop, and the violation classifies as insufficient stock.
		for _, item := range priced {
			_, err := tx.Exec(ctx,
				`UPDATE products SET stock_quantity = stock_quantity - $1, updated_at = now() WHERE id = $2`,
				item.Quantity, item.ProductID)
			if err != nil {
				return classify(customerID, err)
			}
		}

		return insertOutbox(ctx, tx, order, priced, tracing.Traceparent(ctx))
	})
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// fetchCatalog reads price and stock for the distinct requested products
// inside the open transaction. Fewer rows than requested means at least one
// product has no catalog row.
func fetchCatalog(ctx context.Context, tx pgx.Tx, items []domain.ItemRequest) (map[int64]domain.ProductSnapshot, error) {
	seen := make(map[int64]struct{}, len(items))
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	rows, err := tx.Query(ctx, `SELECT id, price, stock_quantity FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	catalog := make(map[int64]domain.ProductSnapshot, len(ids))
	for rows.Next() {
		var id int64
		var snapshot domain.ProductSnapshot
		if err := rows.Scan(&id, &snapshot.Price, &snapshot.StockQuantity); err != nil {
			return nil, err
		}
		catalog[id] = snapshot
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(catalog) != len(ids) {
		return nil, &domain.ProductNotFoundError{}
	}
	return catalog, nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, order domain.Order, priced []domain.PricedItem, traceparent string) error {
	payload, err := json.Marshal(domain.NewOrderCreated(order, priced))
	if err != nil {
		return fmt.Errorf("marshal order created event: %w", err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
		 VALUES ($1, $2, $3, $4, $5, 'pending')`,
		"order", strconv.FormatInt(order.ID, 10), "OrderCreated", payload, traceparent)
	return err
}

const orderWithItemsSQL = `
	SELECT
		o.id, o.customer_id, o.status, o.total_amount, o.created_at, o.updated_at,
		COALESCE(
			json_agg(json_build_object(
				'id', oi.id,
				'product_id', oi.product_id,
				'quantity', oi.quantity,
				'price_at_purchase', oi.price_at_purchase
			)) FILTER (WHERE oi.id IS NOT NULL),
			'[]'
		) AS items
	FROM orders o
	LEFT JOIN order_items oi ON oi.order_id = o.id`

func (r *Repository) FindByID(ctx context.Context, id int64) (domain.Order, error) {
	row := r.pool.QueryRow(ctx, orderWithItemsSQL+` WHERE o.id = $1 GROUP BY o.id`, id)
	order, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, &domain.OrderNotFoundError{OrderID: id}
	}
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (r *Repository) List(ctx context.Context, p pagination.Params) (pagination.Page[domain.Order], error) {
	var zero pagination.Page[domain.Order]

	rows, err := r.pool.Query(ctx,
		orderWithItemsSQL+` GROUP BY o.id ORDER BY o.created_at DESC LIMIT $1 OFFSET $2`,
		p.Limit, p.Offset())
	if err != nil {
		return zero, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, p.Limit)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return zero, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return zero, err
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
		return zero, err
	}
	return pagination.NewPage(orders, p, total), nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var items []byte
	err := row.Scan(&o.ID, &o.CustomerID, &o.Status, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt, &items)
	if err != nil {
		return domain.Order{}, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return domain.Order{}, fmt.Errorf("decode order items: %w", err)
	}
	return o, nil
}
