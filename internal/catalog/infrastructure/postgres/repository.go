package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/orderflow/order-service/internal/catalog/domain"
	"github.com/orderflow/order-service/internal/platform/pgerr"
	"github.com/orderflow/order-service/pkg/pagination"
)

type violationKind int

const (
	kindDuplicateName violationKind = iota
	kindNegativePrice
	kindNegativeStock
)

var violations = pgerr.NewTable(map[pgerr.Violation]violationKind{
	{Code: pgerr.UniqueViolation, Constraint: "products_name_unique"}:       kindDuplicateName,
	{Code: pgerr.CheckViolation, Constraint: "products_price_positive"}:     kindNegativePrice,
	{Code: pgerr.CheckViolation, Constraint: "products_stock_non_negative"}: kindNegativeStock,
})

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, price, stock_quantity, created_at, updated_at FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Price, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, &domain.ProductNotFoundError{ProductID: id}
	}
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (r *Repository) List(ctx context.Context, p pagination.Params) (pagination.Page[domain.Product], error) {
	var zero pagination.Page[domain.Product]

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, price, stock_quantity, created_at, updated_at FROM products ORDER BY id DESC LIMIT $1 OFFSET $2`,
		p.Limit, p.Offset())
	if err != nil {
		return zero, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, p.Limit)
	for rows.Next() {
		var prod domain.Product
		if err := rows.Scan(&prod.ID, &prod.Name, &prod.Price, &prod.StockQuantity, &prod.CreatedAt, &prod.UpdatedAt); err != nil {
			return zero, err
		}
		products = append(products, prod)
	}
	if err := rows.Err(); err != nil {
		return zero, err
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return zero, err
	}
	return pagination.NewPage(products, p, total), nil
}

func (r *Repository) Insert(ctx context.Context, name string, price decimal.Decimal, stockQuantity int) (domain.Product, error) {
	var p domain.Product
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (name, price, stock_quantity)
		 VALUES ($1, $2, $3)
		 RETURNING id, name, price, stock_quantity, created_at, updated_at`,
		name, price, stockQuantity,
	).Scan(&p.ID, &p.Name, &p.Price, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, classify(name, price, stockQuantity, err)
	}
	return p, nil
}

func classify(name string, price decimal.Decimal, stockQuantity int, err error) error {
	kind, _, ok := violations.Classify(err)
	if !ok {
		return err
	}
	switch kind {
	case kindDuplicateName:
		return &domain.DuplicateProductError{Name: name}
	case kindNegativePrice:
		return &domain.NegativeProductPriceError{Name: name, Price: price}
	default:
		return &domain.NegativeProductStockError{Name: name, StockQuantity: stockQuantity}
	}
}
