//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// schema is everything the sale persists: role membership, the ordered phase
// collection, purchase receipts, and the running totals row.
const schema = `
CREATE TABLE IF NOT EXISTS role_members (
    account TEXT NOT NULL,
    role    TEXT NOT NULL,
    granted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (account, role)
);

CREATE TABLE IF NOT EXISTS sale_phases (
    id         BIGSERIAL PRIMARY KEY,
    start_date BIGINT NOT NULL CHECK (start_date >= 0),
    end_date   BIGINT NOT NULL CHECK (end_date > start_date),
    price_usdc BIGINT NOT NULL CHECK (price_usdc > 0),
    cap_tokens BIGINT NOT NULL CHECK (cap_tokens >= 0),
    issued     BIGINT NOT NULL DEFAULT 0 CHECK (issued >= 0 AND issued <= cap_tokens)
);

CREATE TABLE IF NOT EXISTS sale_purchases (
    id          UUID PRIMARY KEY,
    purchaser   TEXT NOT NULL,
    beneficiary TEXT NOT NULL,
    value       BIGINT NOT NULL,
    amount      BIGINT NOT NULL,
    rate        BIGINT NOT NULL,
    phase_index INT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS sale_totals (
    singleton     BOOL PRIMARY KEY DEFAULT TRUE CHECK (singleton),
    total_raised  BIGINT NOT NULL DEFAULT 0,
    total_issued  BIGINT NOT NULL DEFAULT 0
);
INSERT INTO sale_totals (singleton) VALUES (TRUE) ON CONFLICT DO NOTHING;
`

// PostgresContainer wraps a testcontainers Postgres instance with the sale
// schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
}

// NewPostgresContainer starts a Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("mintgate"),
		tcpostgres.WithUsername("mintgate"),
		tcpostgres.WithPassword("mintgate"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	db.SetConnMaxLifetime(time.Minute)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	pc := &PostgresContainer{Container: container, DB: db}
	t.Cleanup(func() {
		_ = db.Close()
		_ = container.Terminate(context.Background())
	})
	return pc
}

// TruncateTables empties the given tables between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx,
		fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY", strings.Join(tables, ", ")))
	return err
}
