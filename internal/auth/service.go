package auth

import (
	"context"
	"errors"
	"time"

	"mintgate/internal/jwttoken"
	dErrors "mintgate/pkg/domain-errors"
	"mintgate/pkg/platform/sentinel"

	"golang.org/x/crypto/bcrypt"
)

// AccessTokenTTL bounds how long a caller identity stays valid without
// re-authenticating. Role revocation still applies immediately on the next
// call; the token only names the caller, it carries no privileges.
const AccessTokenTTL = 15 * time.Minute

// Service authenticates accounts and issues access tokens.
type Service struct {
	store Store
	jwt   *jwttoken.JWTService
}

func NewService(store Store, jwt *jwttoken.JWTService) *Service {
	return &Service{store: store, jwt: jwt}
}

// Register stores bcrypt-hashed credentials for an account. Re-registering an
// account rotates its secret.
func (s *Service) Register(ctx context.Context, account, secret string) error {
	if account == "" || secret == "" {
		return dErrors.New(dErrors.CodeBadRequest, "account and secret are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "hash secret")
	}
	return s.store.Save(ctx, Credential{Account: account, SecretHash: hash})
}

// Token verifies the secret and returns a signed access token for the account.
func (s *Service) Token(ctx context.Context, account, secret string) (string, error) {
	cred, err := s.store.Find(ctx, account)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "unknown account or bad secret")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "credential lookup failed")
	}
	if bcrypt.CompareHashAndPassword(cred.SecretHash, []byte(secret)) != nil {
		return "", dErrors.New(dErrors.CodeUnauthorized, "unknown account or bad secret")
	}
	token, err := s.jwt.GenerateAccessToken(account, AccessTokenTTL)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "token generation failed")
	}
	return token, nil
}
