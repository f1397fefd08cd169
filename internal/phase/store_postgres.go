package phase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mintgate/pkg/platform/sentinel"
)

// PostgresStore persists phases in PostgreSQL. Schema:
//
//	CREATE TABLE sale_phases (
//	    id         BIGSERIAL PRIMARY KEY,
//	    start_date BIGINT NOT NULL CHECK (start_date >= 0),
//	    end_date   BIGINT NOT NULL CHECK (end_date > start_date),
//	    price_usdc BIGINT NOT NULL CHECK (price_usdc > 0),
//	    cap_tokens BIGINT NOT NULL CHECK (cap_tokens >= 0),
//	    issued     BIGINT NOT NULL DEFAULT 0 CHECK (issued >= 0 AND issued <= cap_tokens)
//	);
//
// Insertion order is the BIGSERIAL order; positional indices map to row rank
// under ORDER BY id.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) List(ctx context.Context) ([]Phase, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT start_date, end_date, price_usdc, cap_tokens, issued
		 FROM sale_phases ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list phases: %w", err)
	}
	defer rows.Close()

	var phases []Phase
	for rows.Next() {
		var start, end, price, cap, issued int64
		if err := rows.Scan(&start, &end, &price, &cap, &issued); err != nil {
			return nil, fmt.Errorf("scan phase: %w", err)
		}
		phases = append(phases, Phase{
			StartDate: uint64(start),
			EndDate:   uint64(end),
			PriceUSDc: uint64(price),
			Cap:       uint64(cap),
			Issued:    uint64(issued),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list phases: %w", err)
	}
	return phases, nil
}

func (s *PostgresStore) Get(ctx context.Context, index int) (Phase, error) {
	if index < 0 {
		return Phase{}, sentinel.ErrNotFound
	}
	var start, end, price, cap, issued int64
	err := s.db.QueryRowContext(ctx,
		`SELECT start_date, end_date, price_usdc, cap_tokens, issued
		 FROM sale_phases ORDER BY id OFFSET $1 LIMIT 1`,
		index).Scan(&start, &end, &price, &cap, &issued)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Phase{}, sentinel.ErrNotFound
		}
		return Phase{}, fmt.Errorf("get phase: %w", err)
	}
	return Phase{
		StartDate: uint64(start),
		EndDate:   uint64(end),
		PriceUSDc: uint64(price),
		Cap:       uint64(cap),
		Issued:    uint64(issued),
	}, nil
}

func (s *PostgresStore) Append(ctx context.Context, p Phase) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sale_phases (start_date, end_date, price_usdc, cap_tokens, issued)
		 VALUES ($1, $2, $3, $4, $5)`,
		int64(p.StartDate), int64(p.EndDate), int64(p.PriceUSDc), int64(p.Cap), int64(p.Issued))
	if err != nil {
		return fmt.Errorf("append phase: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, index int) error {
	if index < 0 {
		return sentinel.ErrNotFound
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sale_phases WHERE id =
		 (SELECT id FROM sale_phases ORDER BY id OFFSET $1 LIMIT 1)`,
		index)
	if err != nil {
		return fmt.Errorf("delete phase: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete phase: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AddIssued(ctx context.Context, index int, amount uint64) error {
	if index < 0 {
		return sentinel.ErrNotFound
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sale_phases SET issued = issued + $2
		 WHERE id = (SELECT id FROM sale_phases ORDER BY id OFFSET $1 LIMIT 1)
		   AND issued + $2 <= cap_tokens`,
		index, int64(amount))
	if err != nil {
		return fmt.Errorf("add issued: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("add issued: %w", err)
	}
	if affected == 0 {
		// Either the position is gone or the increment would breach the cap.
		if _, getErr := s.Get(ctx, index); getErr != nil {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	return nil
}
