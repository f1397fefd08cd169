package phase

import "context"

// Store holds the ordered phase collection. Order is insertion order, never
// chronological: readers scan, they do not assume sortedness. Positions are
// not stable across a Delete; callers must not cache indices.
type Store interface {
	List(ctx context.Context) ([]Phase, error)
	Get(ctx context.Context, index int) (Phase, error)
	Append(ctx context.Context, p Phase) error
	Delete(ctx context.Context, index int) error

	// AddIssued increments a phase's issued counter. Implementations must
	// refuse increments that would push Issued past Cap (sentinel.ErrConflict)
	// so the cap invariant holds even if a caller's check was stale.
	AddIssued(ctx context.Context, index int, amount uint64) error
}
