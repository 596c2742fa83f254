package postgres

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderflow/order-service/internal/order/domain"
	"github.com/orderflow/order-service/pkg/pagination"
	"github.com/orderflow/order-service/test/integration"
)

var seedSeq int

func seedCustomer(t *testing.T, ctx context.Context, pool *pgxpool.Pool) int64 {
	t.Helper()
	seedSeq++
	var id int64
	err := pool.QueryRow(ctx,
		`INSERT INTO customers (email, name) VALUES ($1, $2) RETURNING id`,
		fmt.Sprintf("customer%d@example.com", seedSeq), "Test Customer",
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedProduct(t *testing.T, ctx context.Context, pool *pgxpool.Pool, price string, stock int) int64 {
	t.Helper()
	seedSeq++
	var id int64
	err := pool.QueryRow(ctx,
		`INSERT INTO products (name, price, stock_quantity) VALUES ($1, $2, $3) RETURNING id`,
		fmt.Sprintf("product-%d", seedSeq), price, stock,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func productStock(t *testing.T, ctx context.Context, pool *pgxpool.Pool, id int64) int {
	t.Helper()
	var stock int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT stock_quantity FROM products WHERE id = $1`, id).Scan(&stock))
	return stock
}

func customerOrderCount(t *testing.T, ctx context.Context, pool *pgxpool.Pool, customerID int64) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE customer_id = $1`, customerID).Scan(&n))
	return n
}

func TestRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test, requires docker")
	}

	ctx := context.Background()
	env, err := integration.SetupPostgres(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { env.Teardown(context.Background()) })

	repo := NewRepository(slog.New(slog.NewTextHandler(io.Discard, nil)), env.Pool)

	t.Run("creates order with snapshot prices and decremented stock", func(t *testing.T) {
		customerID := seedCustomer(t, ctx, env.Pool)
		productID := seedProduct(t, ctx, env.Pool, "50.00", 5)

		order, err := repo.Create(ctx, customerID, []domain.ItemRequest{{ProductID: productID, Quantity: 2}})
		require.NoError(t, err)
		assert.NotZero(t, order.ID)
		assert.Equal(t, customerID, order.CustomerID)
		assert.Equal(t, domain.StatusPending, order.Status)
		assert.Equal(t, "100.00", order.TotalAmount.StringFixed(2))
		assert.False(t, order.CreatedAt.IsZero())
		assert.Empty(t, order.Items, "create returns the header only")

		assert.Equal(t, 3, productStock(t, ctx, env.Pool, productID))

		read, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		require.Len(t, read.Items, 1)
		assert.Equal(t, productID, read.Items[0].ProductID)
		assert.Equal(t, 2, read.Items[0].Quantity)
		assert.Equal(t, "50.00", read.Items[0].PriceAtPurchase.StringFixed(2))
		assert.Equal(t, "100.00", read.TotalAmount.StringFixed(2))

		var outboxType string
		require.NoError(t, env.Pool.QueryRow(ctx,
			`SELECT type FROM outbox WHERE aggregate_id = $1 AND status = 'pending'`,
			fmt.Sprint(order.ID)).Scan(&outboxType))
		assert.Equal(t, "OrderCreated", outboxType)
	})

	t.Run("stored prices survive catalog price changes", func(t *testing.T) {
		customerID := seedCustomer(t, ctx, env.Pool)
		productID := seedProduct(t, ctx, env.Pool, "50.00", 5)

		order, err := repo.Create(ctx, customerID, []domain.ItemRequest{{ProductID: productID, Quantity: 1}})
		require.NoError(t, err)

		_, err = env.Pool.Exec(ctx, `UPDATE products SET price = 75.00 WHERE id = $1`, productID)
		require.NoError(t, err)

		read, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		require.Len(t, read.Items, 1)
		assert.Equal(t, "50.00", read.Items[0].PriceAtPurchase.StringFixed(2))
	})

	t.Run("ordering more than available stock fails and writes nothing", func(t *testing.T) {
		customerID := seedCustomer(t, ctx, env.Pool)
		productID := seedProduct(t, ctx, env.Pool, "50.00", 5)

		_, err := repo.Create(ctx, customerID, []domain.ItemRequest{{ProductID: productID, Quantity: 6}})
		var insufficient *domain.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)

		assert.Equal(t, 5, productStock(t, ctx, env.Pool, productID))
		assert.Equal(t, 0, customerOrderCount(t, ctx, env.Pool, customerID))
	})

	t.Run("failed decrement rolls back every prior write", func(t *testing.T) {
		customerID := seedCustomer(t, ctx, env.Pool)
		plenty := seedProduct(t, ctx, env.Pool, "10.00", 10)
		scarce := seedProduct(t, ctx, env.Pool, "20.00", 1)

		_, err := repo.Create(ctx, customerID, []domain.ItemRequest{
			{ProductID: plenty, Quantity: 1},
			{ProductID: scarce, Quantity: 5},
		})
		var insufficient *domain.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)

		// The first item's decrement succeeded inside the transaction; it
		// must not be visible after rollback.
		assert.Equal(t, 10, productStock(t, ctx, env.Pool, plenty))
		assert.Equal(t, 1, productStock(t, ctx, env.Pool, scarce))
		assert.Equal(t, 0, customerOrderCount(t, ctx, env.Pool, customerID))
	})

	t.Run("nonexistent customer is rejected with its id", func(t *testing.T) {
		productID := seedProduct(t, ctx, env.Pool, "50.00", 5)

		_, err := repo.Create(ctx, 999, []domain.ItemRequest{{ProductID: productID, Quantity: 1}})
		var notFound *domain.CustomerNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, int64(999), notFound.CustomerID)

		assert.Equal(t, 5, productStock(t, ctx, env.Pool, productID))
	})

	t.Run("nonexistent product is rejected before any write", func(t *testing.T) {
		customerID := seedCustomer(t, ctx, env.Pool)

		_, err := repo.Create(ctx, customerID, []domain.ItemRequest{{ProductID: 12345678, Quantity: 1}})
		var notFound *domain.ProductNotFoundError
		require.ErrorAs(t, err, &notFound)

		assert.Equal(t, 0, customerOrderCount(t, ctx, env.Pool, customerID))
	})

	t.Run("concurrent orders cannot oversell", func(t *testing.T) {
		customerID := seedCustomer(t, ctx, env.Pool)
		productID := seedProduct(t, ctx, env.Pool, "50.00", 5)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = repo.Create(ctx, customerID,
					[]domain.ItemRequest{{ProductID: productID, Quantity: 3}})
			}(i)
		}
		wg.Wait()

		failures := 0
		for _, err := range errs {
			if err != nil {
				var insufficient *domain.InsufficientStockError
				require.ErrorAs(t, err, &insufficient)
				failures++
			}
		}
		assert.Equal(t, 1, failures, "exactly one of the racing orders must fail")
		assert.Equal(t, 2, productStock(t, ctx, env.Pool, productID))
		assert.Equal(t, 1, customerOrderCount(t, ctx, env.Pool, customerID))
	})

	t.Run("find missing order", func(t *testing.T) {
		_, err := repo.FindByID(ctx, 987654321)
		var notFound *domain.OrderNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, int64(987654321), notFound.OrderID)
	})

	t.Run("list paginates newest first with items attached", func(t *testing.T) {
		customerID := seedCustomer(t, ctx, env.Pool)
		productID := seedProduct(t, ctx, env.Pool, "5.00", 100)

		for i := 0; i < 3; i++ {
			_, err := repo.Create(ctx, customerID, []domain.ItemRequest{{ProductID: productID, Quantity: 1}})
			require.NoError(t, err)
		}

		page, err := repo.List(ctx, pagination.Params{Page: 1, Limit: 2})
		require.NoError(t, err)
		assert.Len(t, page.Data, 2)
		assert.GreaterOrEqual(t, page.Total, int64(3))
		for _, o := range page.Data {
			assert.NotEmpty(t, o.Items)
		}
		if len(page.Data) == 2 {
			assert.True(t, !page.Data[0].CreatedAt.Before(page.Data[1].CreatedAt))
		}
	})
}

func TestPricedTotalMatchesDecimalArithmetic(t *testing.T) {
	// 0.1-style fractions must not drift: 3 × 19.99 is exactly 59.97.
	priced, total, err := domain.PriceOrder(
		[]domain.ItemRequest{{ProductID: 1, Quantity: 3}},
		map[int64]domain.ProductSnapshot{1: {Price: decimal.RequireFromString("19.99")}},
	)
	require.NoError(t, err)
	require.Len(t, priced, 1)
	assert.Equal(t, "59.97", total.StringFixed(2))
}
