package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// JWTValidator defines the interface for validating bearer tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator. Account is
// the caller identity every role check in the sale runs against.
type JWTClaims struct {
	Account string
}

type contextKeyAccount struct{}

// ContextKeyAccount is exported for use in handler tests.
var ContextKeyAccount = contextKeyAccount{}

// GetAccount retrieves the authenticated caller account from the context.
func GetAccount(ctx context.Context) string {
	account, ok := ctx.Value(ContextKeyAccount).(string)
	if !ok {
		return ""
	}
	return account
}

// WithAccount stores a caller account in the context. Handler tests use this to
// bypass the auth middleware.
func WithAccount(ctx context.Context, account string) context.Context {
	return context.WithValue(ctx, ContextKeyAccount, account)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller account in the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccount(ctx, claims.Account)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
