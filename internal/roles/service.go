package roles

import (
	"context"

	dErrors "mintgate/pkg/domain-errors"
)

// Service is the single authorization predicate for the sale. Every mutating
// operation elsewhere calls RequireAdmin before touching state, so privilege
// enforcement stays in one auditable place.
//
// The owner is fixed at construction and is not represented in the store; it
// cannot be revoked through the admin-management path.
type Service struct {
	store Store
	owner string
}

func NewService(store Store, owner string) *Service {
	return &Service{store: store, owner: owner}
}

// IsOwner reports whether the account is the distinguished owner.
func (s *Service) IsOwner(account string) bool {
	return account != "" && account == s.owner
}

// HasRole reports role membership. The owner implicitly holds the owner role.
func (s *Service) HasRole(ctx context.Context, account string, role Role) (bool, error) {
	if role == RoleOwner {
		return s.IsOwner(account), nil
	}
	return s.store.Has(ctx, account, role)
}

// Grant adds a role to target. Only the owner may manage roles.
func (s *Service) Grant(ctx context.Context, caller, target string, role Role) error {
	if !s.IsOwner(caller) {
		return dErrors.New(dErrors.CodeUnauthorized, "only the owner may grant roles")
	}
	if !role.IsValid() || role == RoleOwner {
		return dErrors.New(dErrors.CodeBadRequest, "role is not grantable")
	}
	if target == "" {
		return dErrors.New(dErrors.CodeBadRequest, "target account is required")
	}
	if err := s.store.Grant(ctx, target, role); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "grant failed")
	}
	return nil
}

// Revoke removes a role from target. Only the owner may manage roles; the
// owner role itself is immutable.
func (s *Service) Revoke(ctx context.Context, caller, target string, role Role) error {
	if !s.IsOwner(caller) {
		return dErrors.New(dErrors.CodeUnauthorized, "only the owner may revoke roles")
	}
	if !role.IsValid() || role == RoleOwner {
		return dErrors.New(dErrors.CodeBadRequest, "role is not revocable")
	}
	if err := s.store.Revoke(ctx, target, role); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "revoke failed")
	}
	return nil
}

// RequireAdmin authorizes a mutating operation: the caller must be the owner
// or hold the admin role at the time of the call. Membership is read per call,
// so a revocation takes effect on the next operation, never retroactively.
func (s *Service) RequireAdmin(ctx context.Context, caller string) error {
	if s.IsOwner(caller) {
		return nil
	}
	ok, err := s.store.Has(ctx, caller, RoleAdmin)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "role lookup failed")
	}
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "caller lacks required role")
	}
	return nil
}
