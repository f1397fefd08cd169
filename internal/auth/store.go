package auth

import "context"

// Credential holds the bcrypt hash of an account's secret. The plaintext
// secret is never stored.
type Credential struct {
	Account    string
	SecretHash []byte
}

type Store interface {
	Save(ctx context.Context, cred Credential) error
	Find(ctx context.Context, account string) (Credential, error)
}
