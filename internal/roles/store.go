package roles

import "context"

// Store persists account → role membership. Implementations must make Grant
// and Revoke idempotent: granting an existing role or revoking an absent one
// is not an error.
type Store interface {
	Grant(ctx context.Context, account string, role Role) error
	Revoke(ctx context.Context, account string, role Role) error
	Has(ctx context.Context, account string, role Role) (bool, error)
}
