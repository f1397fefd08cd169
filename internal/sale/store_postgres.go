package sale

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore persists purchase receipts and totals in PostgreSQL. Schema:
//
//	CREATE TABLE sale_purchases (
//	    id          UUID PRIMARY KEY,
//	    purchaser   TEXT NOT NULL,
//	    beneficiary TEXT NOT NULL,
//	    value       BIGINT NOT NULL,
//	    amount      BIGINT NOT NULL,
//	    rate        BIGINT NOT NULL,
//	    phase_index INT NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL
//	);
//
//	CREATE TABLE sale_totals (
//	    singleton    BOOL PRIMARY KEY DEFAULT TRUE CHECK (singleton),
//	    total_raised BIGINT NOT NULL DEFAULT 0,
//	    total_issued BIGINT NOT NULL DEFAULT 0
//	);
//	INSERT INTO sale_totals (singleton) VALUES (TRUE) ON CONFLICT DO NOTHING;
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SavePurchase(ctx context.Context, p Purchase) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sale_purchases (id, purchaser, beneficiary, value, amount, rate, phase_index, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Purchaser, p.Beneficiary, int64(p.Value), int64(p.Amount), int64(p.Rate), p.PhaseIndex, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("save purchase: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPurchases(ctx context.Context) ([]Purchase, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, purchaser, beneficiary, value, amount, rate, phase_index, created_at
		 FROM sale_purchases ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []Purchase
	for rows.Next() {
		var p Purchase
		var value, amount, rate int64
		if err := rows.Scan(&p.ID, &p.Purchaser, &p.Beneficiary, &value, &amount, &rate, &p.PhaseIndex, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		p.Value = uint64(value)
		p.Amount = uint64(amount)
		p.Rate = uint64(rate)
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return purchases, nil
}

func (s *PostgresStore) Totals(ctx context.Context) (Totals, error) {
	var raised, issued int64
	err := s.db.QueryRowContext(ctx,
		`SELECT total_raised, total_issued FROM sale_totals WHERE singleton`).Scan(&raised, &issued)
	if errors.Is(err, sql.ErrNoRows) {
		// Seed row not applied yet; nothing sold is zero totals, not a failure.
		return Totals{}, nil
	}
	if err != nil {
		return Totals{}, fmt.Errorf("read totals: %w", err)
	}
	return Totals{TotalRaised: uint64(raised), TotalIssued: uint64(issued)}, nil
}

// AddTotals upserts so a missing singleton row is created rather than silently
// matching zero rows. A plain UPDATE would report success without writing.
func (s *PostgresStore) AddTotals(ctx context.Context, value, amount uint64) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sale_totals (singleton, total_raised, total_issued)
		 VALUES (TRUE, $1, $2)
		 ON CONFLICT (singleton) DO UPDATE
		 SET total_raised = sale_totals.total_raised + EXCLUDED.total_raised,
		     total_issued = sale_totals.total_issued + EXCLUDED.total_issued`,
		int64(value), int64(amount))
	if err != nil {
		return fmt.Errorf("add totals: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("add totals: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("add totals: no totals row written")
	}
	return nil
}
