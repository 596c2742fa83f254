package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderflow/order-service/internal/customer/domain"
	"github.com/orderflow/order-service/internal/platform/pgerr"
	"github.com/orderflow/order-service/pkg/pagination"
)

var violations = pgerr.NewTable(map[pgerr.Violation]struct{}{
	{Code: pgerr.UniqueViolation, Constraint: "customers_email_unique"}: {},
})

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) FindByID(ctx context.Context, id int64) (domain.Customer, error) {
	var c domain.Customer
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, name, created_at FROM customers WHERE id = $1`, id,
	).Scan(&c.ID, &c.Email, &c.Name, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Customer{}, &domain.CustomerNotFoundError{CustomerID: id}
	}
	if err != nil {
		return domain.Customer{}, err
	}
	return c, nil
}

func (r *Repository) List(ctx context.Context, p pagination.Params) (pagination.Page[domain.Customer], error) {
	var zero pagination.Page[domain.Customer]

	rows, err := r.pool.Query(ctx,
		`SELECT id, email, name, created_at FROM customers ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		p.Limit, p.Offset())
	if err != nil {
		return zero, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, p.Limit)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Email, &c.Name, &c.CreatedAt); err != nil {
			return zero, err
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return zero, err
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&total); err != nil {
		return zero, err
	}
	return pagination.NewPage(customers, p, total), nil
}

func (r *Repository) Insert(ctx context.Context, email, name string) (domain.Customer, error) {
	var c domain.Customer
	err := r.pool.QueryRow(ctx,
		`INSERT INTO customers (email, name) VALUES ($1, $2) RETURNING id, email, name, created_at`,
		email, name,
	).Scan(&c.ID, &c.Email, &c.Name, &c.CreatedAt)
	if err != nil {
		if _, _, ok := violations.Classify(err); ok {
			return domain.Customer{}, &domain.DuplicateCustomerError{Email: email}
		}
		return domain.Customer{}, err
	}
	return c, nil
}
