package auth

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Logger is satisfied by *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

func defaultLogger() Logger {
	return slog.Default()
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defaultLogger()
	}
	return l
}

// TokenIssuer mints signed tokens for a principal.
type TokenIssuer interface {
	Issue(id uuid.UUID, principal Principal) (Token, error)
}

// PrincipalResolver turns a raw token into a Principal, or fails with an
// invalid token error.
type PrincipalResolver interface {
	Resolve(token string) (Principal, error)
}

// PrincipalResolverFunc adapts a function to the PrincipalResolver interface.
type PrincipalResolverFunc func(token string) (Principal, error)

// Resolve implements PrincipalResolver.
func (f PrincipalResolverFunc) Resolve(token string) (Principal, error) {
	return f(token)
}

// Authenticator turns a credential into an identity. A blank credential
// yields a nil identity and a nil error.
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (*AuthenticatedIdentity, error)
}

// PasswordEncoder hashes and checks secrets.
type PasswordEncoder interface {
	Encode(raw string) (string, error)
	Matches(raw, hash string) bool
}
