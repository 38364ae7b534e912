package auth

import (
	"context"
	"strings"
)

// AuthState names the steps of an authentication attempt. They are only
// used for tracing.
type AuthState string

const (
	StateNoCredential  AuthState = "no_credential"
	StateTokenPresent  AuthState = "token_present"
	StateVerified      AuthState = "verified"
	StateAuthenticated AuthState = "authenticated"
	StateRejected      AuthState = "rejected"
)

// AuthenticationManager resolves a raw credential into an identity.
type AuthenticationManager struct {
	resolver     PrincipalResolver
	logger       Logger
	activitySink ActivitySink
}

var _ Authenticator = (*AuthenticationManager)(nil)

// NewAuthenticationManager returns a manager backed by resolver.
func NewAuthenticationManager(resolver PrincipalResolver) *AuthenticationManager {
	return &AuthenticationManager{
		resolver:     resolver,
		logger:       defaultLogger(),
		activitySink: noopActivitySink{},
	}
}

func (m *AuthenticationManager) WithLogger(logger Logger) *AuthenticationManager {
	m.logger = normalizeLogger(logger)
	return m
}

// WithActivitySink configures an ActivitySink for rejected tokens.
func (m *AuthenticationManager) WithActivitySink(sink ActivitySink) *AuthenticationManager {
	m.activitySink = normalizeActivitySink(sink)
	return m
}

// Authenticate resolves credential. A blank credential returns (nil, nil). A
// resolved but disabled principal is returned with IsAuthenticated false;
// callers decide what to do with it.
func (m *AuthenticationManager) Authenticate(ctx context.Context, credential string) (*AuthenticatedIdentity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(credential) == "" {
		m.trace(StateNoCredential)
		return nil, nil
	}

	m.trace(StateTokenPresent)
	principal, err := m.resolver.Resolve(credential)
	if err != nil {
		m.trace(StateRejected, "error", err)
		m.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventTokenRejected,
			Metadata:  map[string]any{"error": AsError(err).TextCode},
		})
		return nil, err
	}
	m.trace(StateVerified, "user_id", principal.ID())

	identity := NewAuthenticatedIdentity(principal, credential)
	if identity.IsAuthenticated() {
		m.trace(StateAuthenticated, "user_id", principal.ID())
	} else {
		m.trace(StateVerified, "user_id", principal.ID(), "authenticated", false)
	}
	return identity, nil
}

func (m *AuthenticationManager) trace(state AuthState, args ...any) {
	m.logger.Debug("authentication state", append([]any{"state", string(state)}, args...)...)
}

func (m *AuthenticationManager) recordActivity(ctx context.Context, event ActivityEvent) {
	if err := recordActivity(ctx, m.activitySink, event); err != nil {
		m.logger.Warn("authentication activity sink failed", "error", err)
	}
}
