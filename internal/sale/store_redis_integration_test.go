//go:build integration

package sale_test

import (
	"context"
	"testing"

	"mintgate/internal/sale"
	"mintgate/pkg/platform/sentinel"
	"mintgate/pkg/testutil/containers"

	"github.com/stretchr/testify/suite"
)

type RedisIdempotencySuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *sale.RedisIdempotencyStore
}

func TestRedisIdempotencySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisIdempotencySuite))
}

func (s *RedisIdempotencySuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = sale.NewRedisIdempotencyStore(s.redis.Client)
}

func (s *RedisIdempotencySuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisIdempotencySuite) TestReserveFencesDuplicates() {
	ctx := context.Background()

	s.Require().NoError(s.store.Reserve(ctx, "pay-1"))
	s.Require().ErrorIs(s.store.Reserve(ctx, "pay-1"), sentinel.ErrConflict)

	// A different reference is unaffected.
	s.Require().NoError(s.store.Reserve(ctx, "pay-2"))
}

func (s *RedisIdempotencySuite) TestReleaseFreesReference() {
	ctx := context.Background()

	s.Require().NoError(s.store.Reserve(ctx, "pay-1"))
	s.Require().NoError(s.store.Release(ctx, "pay-1"))
	s.Require().NoError(s.store.Reserve(ctx, "pay-1"))
}
