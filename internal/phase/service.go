package phase

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"mintgate/internal/events"
	dErrors "mintgate/pkg/domain-errors"
	"mintgate/pkg/platform/sentinel"
)

// Authorizer gates registry mutations. Satisfied by roles.Service.
type Authorizer interface {
	RequireAdmin(ctx context.Context, caller string) error
}

// Service enforces the registry invariants: windows are well-formed, stored
// intervals never overlap, and every mutation is role-gated.
type Service struct {
	// mu orders registry mutations against in-flight purchases. The purchase
	// engine holds it (via Lock) for its whole critical section, so a phase's
	// position cannot shift between resolution and counter commit.
	mu sync.Mutex

	store   Store
	authz   Authorizer
	pub     events.Publisher
	logger  *slog.Logger
	metrics *Metrics
}

// Lock acquires the registry mutation lock. Held by the purchase engine across
// an entire purchase; AddPhase and DelPhase block until it is released.
func (s *Service) Lock() { s.mu.Lock() }

// Unlock releases the registry mutation lock.
func (s *Service) Unlock() { s.mu.Unlock() }

func NewService(store Store, authz Authorizer, pub events.Publisher, logger *slog.Logger, metrics *Metrics) *Service {
	return &Service{
		store:   store,
		authz:   authz,
		pub:     pub,
		logger:  logger,
		metrics: metrics,
	}
}

// ValidateDateRange reports whether [start, end) is a well-formed window that
// is strictly disjoint from every stored phase. Touching at an endpoint is
// adjacency, not overlap.
func (s *Service) ValidateDateRange(ctx context.Context, start, end uint64) (bool, error) {
	if start >= end {
		return false, nil
	}
	phases, err := s.store.List(ctx)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "list phases")
	}
	for _, p := range phases {
		if p.Overlaps(start, end) {
			return false, nil
		}
	}
	return true, nil
}

// AddPhase validates and appends a new phase with nothing issued yet.
func (s *Service) AddPhase(ctx context.Context, caller string, start, end, price, cap uint64) (Phase, error) {
	if err := s.authz.RequireAdmin(ctx, caller); err != nil {
		return Phase{}, err
	}
	if price == 0 {
		return Phase{}, dErrors.New(dErrors.CodeBadRequest, "unit price must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.ValidateDateRange(ctx, start, end)
	if err != nil {
		return Phase{}, err
	}
	if !ok {
		return Phase{}, dErrors.New(dErrors.CodeInvalidPhaseRange, "window is malformed or overlaps an existing phase")
	}

	p := Phase{StartDate: start, EndDate: end, PriceUSDc: price, Cap: cap, Issued: 0}
	if err := s.store.Append(ctx, p); err != nil {
		return Phase{}, dErrors.Wrap(err, dErrors.CodeInternal, "append phase")
	}

	s.logger.InfoContext(ctx, "phase added",
		"caller", caller, "start", start, "end", end, "price_usdc", price, "cap", cap)
	s.metrics.RecordAdd(s.count(ctx))
	s.pub.Emit(ctx, events.PhaseAdded{
		Sender:    caller,
		StartDate: start,
		EndDate:   end,
		PriceUSDc: price,
		Cap:       cap,
	})
	return p, nil
}

// DelPhase removes the phase at the given position. Remaining phases keep
// their relative order; positions after the removed one shift down.
func (s *Service) DelPhase(ctx context.Context, caller string, index int) error {
	if err := s.authz.RequireAdmin(ctx, caller); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, index); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeIndexOutOfRange, "no phase at that position")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete phase")
	}

	s.logger.InfoContext(ctx, "phase deleted", "caller", caller, "index", index)
	s.metrics.RecordDelete(s.count(ctx))
	s.pub.Emit(ctx, events.PhaseDeleted{Sender: caller, Index: index})
	return nil
}

// GetPhase returns the phase at the given position.
func (s *Service) GetPhase(ctx context.Context, index int) (Phase, error) {
	p, err := s.store.Get(ctx, index)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Phase{}, dErrors.New(dErrors.CodeIndexOutOfRange, "no phase at that position")
		}
		return Phase{}, dErrors.Wrap(err, dErrors.CodeInternal, "get phase")
	}
	return p, nil
}

// List returns all phases in storage order.
func (s *Service) List(ctx context.Context) ([]Phase, error) {
	phases, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list phases")
	}
	return phases, nil
}

// ActivePhaseIndex scans phases in storage order and returns the position of
// the one whose window contains now. Disjointness makes more than one match
// impossible; if it ever happened the first match in storage order wins - an
// explicit tie-break, not a silent ambiguity.
func (s *Service) ActivePhaseIndex(ctx context.Context, now uint64) (int, error) {
	phases, err := s.store.List(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "list phases")
	}
	for i, p := range phases {
		if p.Contains(now) {
			return i, nil
		}
	}
	return 0, dErrors.New(dErrors.CodeNoActivePhase, "no phase is open at this time")
}

// CurrentPhase resolves the phase active at now along with its position.
func (s *Service) CurrentPhase(ctx context.Context, now uint64) (Phase, int, error) {
	idx, err := s.ActivePhaseIndex(ctx, now)
	if err != nil {
		return Phase{}, 0, err
	}
	p, err := s.GetPhase(ctx, idx)
	if err != nil {
		return Phase{}, 0, err
	}
	return p, idx, nil
}

// RecordIssued increments a phase's issued counter after a committed
// purchase. Only the purchase engine calls this; issuedSoFar has no other
// writer. The store re-checks the cap so a stale caller cannot breach it.
func (s *Service) RecordIssued(ctx context.Context, index int, amount uint64) error {
	if err := s.store.AddIssued(ctx, index, amount); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeIndexOutOfRange, "no phase at that position")
		case errors.Is(err, sentinel.ErrConflict):
			return dErrors.New(dErrors.CodeCapExceeded, "issuance would exceed the phase cap")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "record issuance")
		}
	}
	return nil
}

func (s *Service) count(ctx context.Context) int {
	phases, err := s.store.List(ctx)
	if err != nil {
		return 0
	}
	return len(phases)
}
