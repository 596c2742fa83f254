// Package integration boots throwaway infrastructure for integration tests.
package integration

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	platformpg "github.com/orderflow/order-service/internal/platform/postgres"
)

type PostgresEnv struct {
	Pool      *pgxpool.Pool
	URL       string
	container *postgres.PostgresContainer
}

// SetupPostgres starts a postgres container and applies the schema.
func SetupPostgres(ctx context.Context) (*PostgresEnv, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	pgC, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("orderflow"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, err
	}

	url, err := pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgC.Terminate(ctx)
		return nil, err
	}

	pool, err := platformpg.NewPool(ctx, url)
	if err != nil {
		_ = pgC.Terminate(ctx)
		return nil, err
	}
	if err := platformpg.ApplySchema(ctx, pool); err != nil {
		pool.Close()
		_ = pgC.Terminate(ctx)
		return nil, err
	}

	return &PostgresEnv{Pool: pool, URL: url, container: pgC}, nil
}

func (e *PostgresEnv) Teardown(ctx context.Context) {
	e.Pool.Close()
	_ = e.container.Terminate(ctx)
}

type KafkaEnv struct {
	Brokers   []string
	container *kafka.KafkaContainer
}

// SetupKafka starts a single-broker kafka container.
func SetupKafka(ctx context.Context) (*KafkaEnv, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	kafkaC, err := kafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		kafka.WithClusterID("orderflow-test"),
	)
	if err != nil {
		return nil, err
	}
	brokers, err := kafkaC.Brokers(ctx)
	if err != nil {
		_ = kafkaC.Terminate(ctx)
		return nil, err
	}
	return &KafkaEnv{Brokers: brokers, container: kafkaC}, nil
}

func (e *KafkaEnv) Teardown(ctx context.Context) {
	_ = e.container.Terminate(ctx)
}
