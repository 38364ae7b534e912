package auth_test

import (
	"context"
	"testing"

	"github.com/carthy/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticResolver(p auth.Principal, err error) auth.PrincipalResolver {
	return auth.PrincipalResolverFunc(func(string) (auth.Principal, error) {
		return p, err
	})
}

func TestAuthenticationManager_Authenticate(t *testing.T) {
	disabled := newTestPrincipal(func(p *auth.PrincipalParams) { p.Enabled = false })
	roleless := newTestPrincipal(func(p *auth.PrincipalParams) { p.Roles = nil })

	tests := []struct {
		name              string
		resolver          auth.PrincipalResolver
		credential        string
		wantIdentity      bool
		wantAuthenticated bool
		wantErr           bool
		wantStates        []string
	}{
		{
			name:       "blank credential is no authentication",
			resolver:   staticResolver(newTestPrincipal(), nil),
			credential: "  ",
			wantStates: []string{"no_credential"},
		},
		{
			name:              "valid credential",
			resolver:          staticResolver(newTestPrincipal(), nil),
			credential:        "token",
			wantIdentity:      true,
			wantAuthenticated: true,
			wantStates:        []string{"token_present", "verified", "authenticated"},
		},
		{
			name:         "disabled principal is not authenticated",
			resolver:     staticResolver(disabled, nil),
			credential:   "token",
			wantIdentity: true,
			wantStates:   []string{"token_present", "verified", "verified"},
		},
		{
			name:         "principal without roles is not authenticated",
			resolver:     staticResolver(roleless, nil),
			credential:   "token",
			wantIdentity: true,
			wantStates:   []string{"token_present", "verified", "verified"},
		},
		{
			name:       "resolver failure",
			resolver:   staticResolver(auth.Principal{}, auth.InvalidTokenError(nil)),
			credential: "token",
			wantErr:    true,
			wantStates: []string{"token_present", "rejected"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &captureLogger{}
			manager := auth.NewAuthenticationManager(tt.resolver).WithLogger(logger)

			identity, err := manager.Authenticate(context.Background(), tt.credential)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, auth.IsInvalidTokenError(err))
			} else {
				require.NoError(t, err)
			}
			if tt.wantIdentity {
				require.NotNil(t, identity)
				assert.Equal(t, tt.credential, identity.Credentials())
				assert.Equal(t, tt.wantAuthenticated, identity.IsAuthenticated())
			} else {
				assert.Nil(t, identity)
			}
			assert.Equal(t, tt.wantStates, logger.states())
		})
	}
}

func TestAuthenticationManager_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	manager := auth.NewAuthenticationManager(auth.PrincipalResolverFunc(func(string) (auth.Principal, error) {
		called = true
		return newTestPrincipal(), nil
	}))

	identity, err := manager.Authenticate(ctx, "token")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, identity)
	assert.False(t, called)
}

func TestAuthenticationManager_RecordsRejectedTokens(t *testing.T) {
	sink := &recordingSink{}
	manager := auth.NewAuthenticationManager(staticResolver(auth.Principal{}, auth.TokenExpiredError(nil))).
		WithLogger(&captureLogger{}).
		WithActivitySink(sink)

	_, err := manager.Authenticate(context.Background(), "token")
	require.Error(t, err)

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, auth.ActivityEventTokenRejected, events[0].EventType)
	assert.Equal(t, auth.CodeTokenExpired, events[0].Metadata["error"])
	assert.False(t, events[0].OccurredAt.IsZero())
}

func TestAuthenticatedIdentity_NilIsNotAuthenticated(t *testing.T) {
	var identity *auth.AuthenticatedIdentity
	assert.False(t, identity.IsAuthenticated())
}
