package sale

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"mintgate/internal/events"
	"mintgate/internal/ledger"
	"mintgate/internal/oracle"
	"mintgate/internal/phase"
	"mintgate/internal/roles"
	"mintgate/internal/treasury"
	dErrors "mintgate/pkg/domain-errors"

	"github.com/stretchr/testify/suite"
)

const (
	owner        = "acct-owner"
	unprivileged = "acct-unprivileged"
	purchaser    = "acct-purchaser"
	saleWallet   = "acct-wallet"
)

type EngineSuite struct {
	suite.Suite
	engine   *Engine
	phaseSvc *phase.Service
	roleSvc  *roles.Service
	gateway  *oracle.StaticGateway
	ledger   *ledger.FakeLedger
	treasury *treasury.FakeTreasury
	store    *InMemoryStore
	sink     *events.MemorySink
	now      time.Time
}

func (s *EngineSuite) SetupTest() {
	logger := slog.New(slog.DiscardHandler)
	s.sink = events.NewMemorySink()
	pub := events.NewSyncPublisher(s.sink, logger)

	s.roleSvc = roles.NewService(roles.NewInMemoryStore(), owner)
	s.phaseSvc = phase.NewService(phase.NewInMemoryStore(), s.roleSvc, pub, logger, nil)
	s.gateway = oracle.NewStaticGateway("static", 1)
	s.ledger = ledger.NewFakeLedger()
	s.treasury = treasury.NewFakeTreasury()
	s.store = NewInMemoryStore()
	s.now = time.Unix(150, 0)

	s.engine = NewEngine(Params{
		Phases:   s.phaseSvc,
		Oracle:   oracle.NewService(s.gateway, s.roleSvc, pub, logger, nil),
		Ledger:   s.ledger,
		Treasury: s.treasury,
		Store:    s.store,
		Idem:     NewInMemoryIdempotencyStore(),
		Authz:    s.roleSvc,
		Pub:      pub,
		Logger:   logger,
		Metrics:  nil,
		Wallet:   saleWallet,
		Now:      func() time.Time { return s.now },
	})
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

// addPhase seeds one window at unit price 1000 with the given cap, covering
// the suite's fixed clock at t=150.
func (s *EngineSuite) addPhase(cap uint64) {
	_, err := s.phaseSvc.AddPhase(context.Background(), owner, 100, 200, 1000, cap)
	s.Require().NoError(err)
}

func (s *EngineSuite) issuedAt(index int) uint64 {
	p, err := s.phaseSvc.GetPhase(context.Background(), index)
	s.Require().NoError(err)
	return p.Issued
}

func (s *EngineSuite) TestPurchaseHappyPath() {
	ctx := context.Background()
	s.addPhase(999999)

	p, err := s.engine.Purchase(ctx, PurchaseRequest{Purchaser: purchaser, Value: 30000})
	s.Require().NoError(err)

	s.Equal(uint64(30), p.Amount)
	s.Equal(uint64(30000), p.Value)
	s.Equal(uint64(1), p.Rate)
	s.Equal(0, p.PhaseIndex)
	s.Equal(purchaser, p.Beneficiary)
	s.NotEqual("00000000-0000-0000-0000-000000000000", p.ID.String())

	s.Require().Len(s.ledger.Mints(), 1)
	s.Equal(purchaser, s.ledger.Mints()[0].Beneficiary)
	s.Equal(uint64(30), s.ledger.Mints()[0].Amount)

	s.Require().Len(s.treasury.Transfers(), 1)
	s.Equal(saleWallet, s.treasury.Transfers()[0].Wallet)
	s.Equal(uint64(30000), s.treasury.Transfers()[0].Amount)

	s.Equal(uint64(30), s.issuedAt(0))
	totals, err := s.engine.Totals(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(30000), totals.TotalRaised)
	s.Equal(uint64(30), totals.TotalIssued)

	receipts, err := s.engine.Purchases(ctx)
	s.Require().NoError(err)
	s.Require().Len(receipts, 1)
	s.Equal(p.ID, receipts[0].ID)

	evs := s.sink.Events(ctx)
	s.Require().NotEmpty(evs)
	last := evs[len(evs)-1]
	s.Equal("TokenPurchase", last.Type)
}

func (s *EngineSuite) TestBeneficiaryDefaultsToPurchaser() {
	ctx := context.Background()
	s.addPhase(999999)

	p, err := s.engine.Purchase(ctx, PurchaseRequest{Purchaser: purchaser, Beneficiary: "acct-gift", Value: 5000})
	s.Require().NoError(err)
	s.Equal("acct-gift", p.Beneficiary)
	s.Equal("acct-gift", s.ledger.Mints()[0].Beneficiary)

	p, err = s.engine.Purchase(ctx, PurchaseRequest{Purchaser: purchaser, Value: 5000})
	s.Require().NoError(err)
	s.Equal(purchaser, p.Beneficiary)
}

func (s *EngineSuite) TestCapEnforcement() {
	ctx := context.Background()
	s.addPhase(50)

	p, err := s.engine.Purchase(ctx, PurchaseRequest{Purchaser: purchaser, Value: 30000})
	s.Require().NoError(err)
	s.Equal(uint64(30), p.Amount)
	s.Equal(uint64(30), s.issuedAt(0))

	_, err = s.engine.Purchase(ctx, PurchaseRequest{Purchaser: purchaser, Value: 25000})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeCapExceeded))

	s.Equal(uint64(30), s.issuedAt(0))
	totals, err := s.engine.Totals(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(30000), totals.TotalRaised)
	s.Equal(uint64(30), totals.TotalIssued)
	s.Len(s.ledger.Mints(), 1)

	// Filling the phase exactly to its cap is allowed.
	p, err = s.engine.Purchase(ctx, PurchaseRequest{Purchaser: purchaser, Value: 20000})
	s.Require().NoError(err)
	s.Equal(uint64(20), p.Amount)
	s.Equal(uint64(50), s.issuedAt(0))
}

func (s *EngineSuite) TestAmountTruncatesTowardSale() {
	ctx := context.Background()
	s.gateway.SetPrice(121233)
	_, err := s.phaseSvc.AddPhase(ctx, owner, 100, 200, 150, 999999999)
	s.Require().NoError(err)

	// 1 * 121233 / 150 = 808.22, remainder stays with the house.
	p, err := s.engine.Purchase(ctx, PurchaseRequest{Purchaser: purchaser, Value: 1})
	s.Require().NoError(err)
	s.Equal(uint64(808), p.Amount)
}

func (s *EngineSuite) TestRejectsZeroValue() {
	ctx := context.Background()
	s.addPhase(999999)

	_, err := s.engine.Purchase(ctx, PurchaseRequest{Purchaser: purchaser, Value: 0})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	s.Empty(s.ledger.Mints())
}

func (s *EngineSuite) TestRejectsPaymentTooSmallForOneToken() {
	ctx := context.Background()
	s.addPhase(999999)

	// 500 * 1 / 1000 truncates to zero tokens.
	_, err := s.engine.Purchase(ctx, PurchaseRequest{Purchaser: purchaser, Value: 500})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	s.Empty(s.ledger.Mints())
	s.Equal(uint64(0), s.issuedAt(0))
}

func (s *EngineSuite) TestRejectsOutsideAnyPhase() {
	ctx := context.Background()
	s.addPhase(999999)
	s.now = time.Unix(200, 0) // end boundary is exclusive

	_, err := s.engine.Purchase(ctx, PurchaseRequest{Purchaser: purchaser, Value: 30000})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeNoActivePhase))
	s.Empty(s.ledger.Mints())
}

func (s *EngineSuite) TestPhaseDeletionWaitsForInFlightPurchase() {
	ctx := context.Background()
	s.addPhase(50)
	_, err := s.phaseSvc.AddPhase(ctx, owner, 200, 300, 1000, 50)
	s.Require().NoError(err)

	// Fire a delete from inside the mint call, while the purchase sits between
	// phase resolution and counter commit. It must block until the purchase is
	// done; if it slipped through, positions would shift under the purchase and
	// issuance would land on the wrong phase or nowhere at all.
	deleted := make(chan error, 1)
	s.ledger.OnMint(func() {
		go func() {
			deleted <- s.phaseSvc.DelPhase(ctx, owner, 0)
		}()
		time.Sleep(20 * time.Millisecond)
		select {
		case <-deleted:
			s.Fail("phase deletion completed while a purchase was in flight")
		default:
		}
	})

	p, err := s.engine.Purchase(ctx, PurchaseRequest{Purchaser: purchaser, Value: 30000})
	s.Require().NoError(err)
	s.Equal(uint64(30), p.Amount)
	s.Equal(0, p.PhaseIndex)

	s.Require().NoError(<-deleted)

	// The purchased phase recorded its issuance before being deleted; the
	// survivor shifted into position 0 untouched.
	remaining, err := s.phaseSvc.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(remaining, 1)
	s.Equal(uint64(200), remaining[0].StartDate)
	s.Equal(uint64(0), remaining[0].Issued)

	totals, err := s.engine.Totals(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(30000), totals.TotalRaised)
	s.Equal(uint64(30), totals.TotalIssued)
}

func (s *EngineSuite) TestRejectsWhenPriceFeedDown() {
	ctx := context.Background()
	s.addPhase(999999)
	s.gateway.SetFailing(true)

	_, err := s.engine.Purchase(ctx, PurchaseRequest{Purchaser: purchaser, Value: 30000})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodePriceUnavailable))
	s.Empty(s.ledger.Mints())
	s.Empty(s.treasury.Transfers())
}

func (s *EngineSuite) TestMintFailureCommitsNothing() {
	ctx := context.Background()
	s.addPhase(999999)
	s.ledger.SetFailing(true)

	_, err := s.engine.Purchase(ctx, PurchaseRequest{Purchaser: purchaser, Value: 30000, PaymentRef: "pay-1"})
	s.Require().Error(err)

	s.Equal(uint64(0), s.issuedAt(0))
	totals, err := s.engine.Totals(ctx)
	s.Require().NoError(err)
	s.Equal(Totals{}, totals)
	s.Empty(s.treasury.Transfers())

	// The failed attempt released its payment reference, so the retry goes
	// through once the ledger recovers.
	s.ledger.SetFailing(false)
	_, err = s.engine.Purchase(ctx, PurchaseRequest{Purchaser: purchaser, Value: 30000, PaymentRef: "pay-1"})
	s.Require().NoError(err)
}

func (s *EngineSuite) TestForwardFailureCommitsNoCounters() {
	ctx := context.Background()
	s.addPhase(999999)
	s.treasury.SetFailing(true)

	_, err := s.engine.Purchase(ctx, PurchaseRequest{Purchaser: purchaser, Value: 30000})
	s.Require().Error(err)

	s.Equal(uint64(0), s.issuedAt(0))
	totals, err := s.engine.Totals(ctx)
	s.Require().NoError(err)
	s.Equal(Totals{}, totals)
	receipts, err := s.engine.Purchases(ctx)
	s.Require().NoError(err)
	s.Empty(receipts)
}

func (s *EngineSuite) TestDuplicatePaymentRefRejected() {
	ctx := context.Background()
	s.addPhase(999999)

	_, err := s.engine.Purchase(ctx, PurchaseRequest{Purchaser: purchaser, Value: 30000, PaymentRef: "pay-7"})
	s.Require().NoError(err)

	_, err = s.engine.Purchase(ctx, PurchaseRequest{Purchaser: purchaser, Value: 30000, PaymentRef: "pay-7"})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeConflict))
	s.Len(s.ledger.Mints(), 1)
}

func (s *EngineSuite) TestSetWalletRequiresRole() {
	ctx := context.Background()

	err := s.engine.SetWallet(ctx, unprivileged, "acct-new-wallet")
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
	s.Equal(saleWallet, s.engine.Wallet())

	s.Require().NoError(s.roleSvc.Grant(ctx, owner, unprivileged, roles.RoleAdmin))
	s.Require().NoError(s.engine.SetWallet(ctx, unprivileged, "acct-new-wallet"))
	s.Equal("acct-new-wallet", s.engine.Wallet())

	evs := s.sink.Events(ctx)
	s.Require().NotEmpty(evs)
	s.Equal("WalletChanged", evs[len(evs)-1].Type)

	// Revocation takes effect on the next call, not retroactively.
	s.Require().NoError(s.roleSvc.Revoke(ctx, owner, unprivileged, roles.RoleAdmin))
	err = s.engine.SetWallet(ctx, unprivileged, "acct-other")
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
	s.Equal("acct-new-wallet", s.engine.Wallet())
}

func (s *EngineSuite) TestForwardsToReplacedWallet() {
	ctx := context.Background()
	s.addPhase(999999)
	s.Require().NoError(s.engine.SetWallet(ctx, owner, "acct-treasury-2"))

	_, err := s.engine.Purchase(ctx, PurchaseRequest{Purchaser: purchaser, Value: 30000})
	s.Require().NoError(err)
	s.Equal("acct-treasury-2", s.treasury.Transfers()[0].Wallet)
}

func (s *EngineSuite) TestRejectsMissingWalletAccount() {
	err := s.engine.SetWallet(context.Background(), owner, "")
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))
}
