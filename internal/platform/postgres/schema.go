package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// SchemaSQL exposes the embedded schema so tests can check declared
// constraints against error-mapping tables.
func SchemaSQL() string { return schemaSQL }

// ApplySchema bootstraps the database schema. All statements are idempotent,
// so running it on every startup is safe.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
