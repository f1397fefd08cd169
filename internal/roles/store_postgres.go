package roles

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists role membership in PostgreSQL. Schema:
//
//	CREATE TABLE role_members (
//	    account TEXT NOT NULL,
//	    role    TEXT NOT NULL,
//	    granted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    PRIMARY KEY (account, role)
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Grant(ctx context.Context, account string, role Role) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO role_members (account, role) VALUES ($1, $2)
		 ON CONFLICT (account, role) DO NOTHING`,
		account, role.String())
	if err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	return nil
}

func (s *PostgresStore) Revoke(ctx context.Context, account string, role Role) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM role_members WHERE account = $1 AND role = $2`,
		account, role.String())
	if err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	return nil
}

func (s *PostgresStore) Has(ctx context.Context, account string, role Role) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM role_members WHERE account = $1 AND role = $2)`,
		account, role.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check role: %w", err)
	}
	return exists, nil
}
