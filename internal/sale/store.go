package sale

import "context"

// Store persists purchase receipts and the sale-wide totals.
type Store interface {
	SavePurchase(ctx context.Context, p Purchase) error
	ListPurchases(ctx context.Context) ([]Purchase, error)
	Totals(ctx context.Context) (Totals, error)
	AddTotals(ctx context.Context, value, amount uint64) error
}

// IdempotencyStore fences payment references. Reserve claims a reference for
// the purchase in flight; Release frees it again when the purchase aborts so
// a client retry is not locked out by a failed attempt.
type IdempotencyStore interface {
	Reserve(ctx context.Context, ref string) error
	Release(ctx context.Context, ref string) error
}
