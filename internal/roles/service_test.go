package roles

import (
	"context"
	"testing"

	dErrors "mintgate/pkg/domain-errors"

	"github.com/stretchr/testify/suite"
)

const (
	owner    = "acct-owner"
	stranger = "acct-stranger"
)

type RoleServiceSuite struct {
	suite.Suite
	svc *Service
}

func (s *RoleServiceSuite) SetupTest() {
	s.svc = NewService(NewInMemoryStore(), owner)
}

func TestRoleServiceSuite(t *testing.T) {
	suite.Run(t, new(RoleServiceSuite))
}

func (s *RoleServiceSuite) TestOwnerIsDistinguished() {
	s.True(s.svc.IsOwner(owner))
	s.False(s.svc.IsOwner(stranger))
	s.False(s.svc.IsOwner(""))

	has, err := s.svc.HasRole(context.Background(), owner, RoleOwner)
	s.Require().NoError(err)
	s.True(has)
}

func (s *RoleServiceSuite) TestGrantRequiresOwner() {
	ctx := context.Background()

	err := s.svc.Grant(ctx, stranger, stranger, RoleAdmin)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))

	has, err := s.svc.HasRole(ctx, stranger, RoleAdmin)
	s.Require().NoError(err)
	s.False(has)
}

func (s *RoleServiceSuite) TestGrantAndRevokeAdmin() {
	ctx := context.Background()

	s.Require().NoError(s.svc.Grant(ctx, owner, stranger, RoleAdmin))
	s.Require().NoError(s.svc.RequireAdmin(ctx, stranger))

	s.Require().NoError(s.svc.Revoke(ctx, owner, stranger, RoleAdmin))
	err := s.svc.RequireAdmin(ctx, stranger)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
}

func (s *RoleServiceSuite) TestOwnerRoleIsImmutable() {
	ctx := context.Background()

	err := s.svc.Grant(ctx, owner, stranger, RoleOwner)
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))

	err = s.svc.Revoke(ctx, owner, owner, RoleOwner)
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))

	// Owner still passes authorization after the failed revoke.
	s.Require().NoError(s.svc.RequireAdmin(ctx, owner))
}

func (s *RoleServiceSuite) TestRequireAdminAllowsOwnerWithoutGrant() {
	s.Require().NoError(s.svc.RequireAdmin(context.Background(), owner))
}
