package oracle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mintgate/internal/events"
	dErrors "mintgate/pkg/domain-errors"
	"mintgate/pkg/platform/circuit"
)

// Authorizer gates gateway replacement. Satisfied by roles.Service.
type Authorizer interface {
	RequireAdmin(ctx context.Context, caller string) error
}

// Service holds the live gateway reference. Reads delegate with no caching and
// no staleness check; replacement is a privileged configuration change.
type Service struct {
	mu      sync.RWMutex
	gateway Gateway

	authz   Authorizer
	pub     events.Publisher
	logger  *slog.Logger
	metrics *Metrics
	breaker *circuit.Breaker
}

func NewService(gateway Gateway, authz Authorizer, pub events.Publisher, logger *slog.Logger, metrics *Metrics) *Service {
	return &Service{
		gateway: gateway,
		authz:   authz,
		pub:     pub,
		logger:  logger,
		metrics: metrics,
		breaker: circuit.New("oracle"),
	}
}

// Price returns the feed's latest reported integer price. A failed read
// surfaces as PriceUnavailable; no fallback price is ever substituted. A
// breaker fails reads fast while the feed stays down, letting probe reads
// through periodically.
func (s *Service) Price(ctx context.Context) (uint64, error) {
	if !s.breaker.Allow() {
		return 0, dErrors.New(dErrors.CodePriceUnavailable, "oracle circuit open")
	}

	s.mu.RLock()
	gw := s.gateway
	s.mu.RUnlock()

	start := time.Now()
	price, err := gw.LatestPrice(ctx)
	s.metrics.ObserveRead(time.Since(start), err == nil)
	if err != nil {
		if _, change := s.breaker.RecordFailure(); change.Opened {
			s.logger.WarnContext(ctx, "oracle circuit opened", "oracle", gw.Ref(), "error", err)
		}
		return 0, dErrors.Wrap(err, dErrors.CodePriceUnavailable, "oracle read failed")
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "oracle circuit closed", "oracle", gw.Ref())
	}
	return price, nil
}

// SetGateway replaces the live reference. Owner/admin only.
func (s *Service) SetGateway(ctx context.Context, caller string, gw Gateway) error {
	if err := s.authz.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	if gw == nil {
		return dErrors.New(dErrors.CodeBadRequest, "gateway reference is required")
	}

	s.mu.Lock()
	s.gateway = gw
	s.mu.Unlock()
	// A fresh feed starts with a clean slate.
	s.breaker.Reset()

	s.logger.InfoContext(ctx, "oracle gateway replaced", "caller", caller, "oracle", gw.Ref())
	s.pub.Emit(ctx, events.OracleChanged{NewOracle: gw.Ref()})
	return nil
}

// GatewayRef reports the currently bound gateway reference.
func (s *Service) GatewayRef() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gateway.Ref()
}
