package sale

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mintgate/internal/events"
	"mintgate/internal/ledger"
	"mintgate/internal/oracle"
	"mintgate/internal/phase"
	"mintgate/internal/treasury"
	dErrors "mintgate/pkg/domain-errors"
	"mintgate/pkg/platform/sentinel"
)

// Authorizer gates sale configuration changes. Satisfied by roles.Service.
type Authorizer interface {
	RequireAdmin(ctx context.Context, caller string) error
}

// Params wires an Engine. All collaborator references are required.
type Params struct {
	Phases   *phase.Service
	Oracle   *oracle.Service
	Ledger   ledger.AssetLedger
	Treasury treasury.Treasury
	Store    Store
	Idem     IdempotencyStore
	Authz    Authorizer
	Pub      events.Publisher
	Logger   *slog.Logger
	Metrics  *Metrics
	Wallet   string

	// Now overrides the clock in tests. Defaults to time.Now.
	Now func() time.Time
}

// Engine is the sale's admission control: it decides whether a payment is
// accepted and keeps the issuance counters truthful.
//
// A single mutex serializes every purchase, standing in for the platform-level
// call serialization the design assumes. Cap check and counter commit happen
// inside the same critical section, so enforcement is race-free without any
// store-level locking tricks. The critical section also holds the phase
// registry's mutation lock: a concurrent phase add or delete cannot shift the
// resolved position while a payment's outbound calls are in flight.
type Engine struct {
	mu     sync.Mutex
	wallet string

	phases   *phase.Service
	oracle   *oracle.Service
	ledger   ledger.AssetLedger
	treasury treasury.Treasury
	store    Store
	idem     IdempotencyStore
	authz    Authorizer
	pub      events.Publisher
	logger   *slog.Logger
	metrics  *Metrics
	now      func() time.Time
	tracer   trace.Tracer
}

func NewEngine(p Params) *Engine {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		wallet:   p.Wallet,
		phases:   p.Phases,
		oracle:   p.Oracle,
		ledger:   p.Ledger,
		treasury: p.Treasury,
		store:    p.Store,
		idem:     p.Idem,
		authz:    p.Authz,
		pub:      p.Pub,
		logger:   p.Logger,
		metrics:  p.Metrics,
		now:      now,
		tracer:   otel.Tracer("mintgate/sale"),
	}
}

// Purchase runs the full admission sequence for one payment. Either all of it
// happens - mint, fund forwarding, counter commit, receipt - or none of it
// does. Counters are committed only after both external calls succeed, so the
// engine never records issuance that did not happen.
func (e *Engine) Purchase(ctx context.Context, req PurchaseRequest) (Purchase, error) {
	ctx, span := e.tracer.Start(ctx, "sale.Purchase",
		trace.WithAttributes(attribute.String("purchaser", req.Purchaser)))
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Registry mutations wait until this purchase either commits or aborts.
	e.phases.Lock()
	defer e.phases.Unlock()

	p, err := e.purchaseLocked(ctx, req)
	if err != nil {
		span.RecordError(err)
		e.metrics.RecordPurchase(outcomeOf(err), 0, 0)
		return Purchase{}, err
	}
	e.metrics.RecordPurchase("ok", p.Value, p.Amount)
	return p, nil
}

func (e *Engine) purchaseLocked(ctx context.Context, req PurchaseRequest) (Purchase, error) {
	if req.Purchaser == "" {
		return Purchase{}, dErrors.New(dErrors.CodeBadRequest, "purchaser account is required")
	}
	if req.Value == 0 {
		return Purchase{}, dErrors.New(dErrors.CodeBadRequest, "payment value must be positive")
	}

	reserved := false
	if req.PaymentRef != "" {
		if err := e.idem.Reserve(ctx, req.PaymentRef); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return Purchase{}, dErrors.New(dErrors.CodeConflict, "payment reference already processed")
			}
			return Purchase{}, dErrors.Wrap(err, dErrors.CodeInternal, "reserve payment reference")
		}
		reserved = true
	}
	release := func() {
		if reserved {
			if err := e.idem.Release(ctx, req.PaymentRef); err != nil {
				e.logger.ErrorContext(ctx, "failed to release payment reference",
					"payment_ref", req.PaymentRef, "error", err)
			}
		}
	}

	now := uint64(e.now().Unix())
	active, idx, err := e.phases.CurrentPhase(ctx, now)
	if err != nil {
		release()
		return Purchase{}, err
	}

	rate, err := e.oracle.Price(ctx)
	if err != nil {
		release()
		return Purchase{}, err
	}

	amount, err := tokenAmount(req.Value, rate, active.PriceUSDc)
	if err != nil {
		release()
		return Purchase{}, err
	}

	if amount > active.Remaining() {
		release()
		return Purchase{}, dErrors.New(dErrors.CodeCapExceeded, "purchase exceeds remaining phase capacity")
	}

	beneficiary := req.Beneficiary
	if beneficiary == "" {
		beneficiary = req.Purchaser
	}

	// External calls before any counter moves. A failure here leaves the sale
	// exactly as it was.
	if err := e.ledger.Mint(ctx, beneficiary, amount); err != nil {
		release()
		return Purchase{}, dErrors.Wrap(err, dErrors.CodeInternal, "mint failed")
	}
	if err := e.treasury.Forward(ctx, e.wallet, req.Value); err != nil {
		release()
		return Purchase{}, dErrors.Wrap(err, dErrors.CodeInternal, "fund forwarding failed")
	}

	if err := e.phases.RecordIssued(ctx, idx, amount); err != nil {
		// Unreachable while the engine is the only issuer: the cap was checked
		// in this critical section. Surface it rather than guess.
		release()
		return Purchase{}, err
	}
	if err := e.store.AddTotals(ctx, req.Value, amount); err != nil {
		release()
		return Purchase{}, dErrors.Wrap(err, dErrors.CodeInternal, "commit totals")
	}

	p := Purchase{
		ID:          uuid.New(),
		Purchaser:   req.Purchaser,
		Beneficiary: beneficiary,
		Value:       req.Value,
		Amount:      amount,
		Rate:        rate,
		PhaseIndex:  idx,
		CreatedAt:   e.now(),
	}
	if err := e.store.SavePurchase(ctx, p); err != nil {
		// Counters committed; losing the receipt is a bookkeeping defect, not
		// a reason to double-issue. Log loudly and return the purchase.
		e.logger.ErrorContext(ctx, "failed to persist purchase receipt",
			"purchase_id", p.ID, "error", err)
	}

	e.logger.InfoContext(ctx, "purchase committed",
		"purchaser", p.Purchaser,
		"beneficiary", p.Beneficiary,
		"value", p.Value,
		"amount", p.Amount,
		"rate", p.Rate,
		"phase_index", p.PhaseIndex,
	)
	e.pub.Emit(ctx, events.TokenPurchase{
		Purchaser:   p.Purchaser,
		Beneficiary: p.Beneficiary,
		Value:       p.Value,
		Amount:      p.Amount,
	})
	return p, nil
}

// tokenAmount computes floor(value * rate / price) without intermediate
// overflow. Truncation is deterministic and always favors the sale: the
// remainder stays with the house.
func tokenAmount(value, rate, price uint64) (uint64, error) {
	if price == 0 {
		return 0, dErrors.New(dErrors.CodeInternal, "phase has zero unit price")
	}
	wide := new(uint256.Int).Mul(uint256.NewInt(value), uint256.NewInt(rate))
	wide.Div(wide, uint256.NewInt(price))
	if !wide.IsUint64() {
		return 0, dErrors.New(dErrors.CodeBadRequest, "token amount out of range")
	}
	amount := wide.Uint64()
	if amount == 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "payment too small to issue any tokens")
	}
	return amount, nil
}

// SetWallet replaces the receiving account. Owner/admin only.
func (e *Engine) SetWallet(ctx context.Context, caller, account string) error {
	if err := e.authz.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	if account == "" {
		return dErrors.New(dErrors.CodeBadRequest, "wallet account is required")
	}

	e.mu.Lock()
	e.wallet = account
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "wallet replaced", "caller", caller, "wallet", account)
	e.pub.Emit(ctx, events.WalletChanged{NewWallet: account})
	return nil
}

// Wallet reports the current receiving account.
func (e *Engine) Wallet() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wallet
}

// Totals reports the sale-wide counters.
func (e *Engine) Totals(ctx context.Context) (Totals, error) {
	t, err := e.store.Totals(ctx)
	if err != nil {
		return Totals{}, dErrors.Wrap(err, dErrors.CodeInternal, "read totals")
	}
	return t, nil
}

// Purchases lists committed receipts.
func (e *Engine) Purchases(ctx context.Context) ([]Purchase, error) {
	ps, err := e.store.ListPurchases(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list purchases")
	}
	return ps, nil
}

func outcomeOf(err error) string {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeNoActivePhase:
		return "no_active_phase"
	case dErrors.CodePriceUnavailable:
		return "price_unavailable"
	case dErrors.CodeCapExceeded:
		return "cap_exceeded"
	case dErrors.CodeConflict:
		return "duplicate_ref"
	case dErrors.CodeBadRequest:
		return "bad_request"
	default:
		return "error"
	}
}
