package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIdentityFromContext(t *testing.T) {
	principal := NewPrincipal(PrincipalParams{
		ID:       uuid.New(),
		Sex:      SexFemale,
		Username: "jane@yopmail.com",
		Roles:    []Authority{AuthorityUser},
		Enabled:  true,
	})

	tests := []struct {
		name          string
		setupCtx      func() context.Context
		wantOK        bool
		wantPrincipal bool
	}{
		{
			name: "should return identity when present in context",
			setupCtx: func() context.Context {
				return WithIdentity(context.Background(), NewAuthenticatedIdentity(principal, "token"))
			},
			wantOK:        true,
			wantPrincipal: true,
		},
		{
			name: "should not expose principal of an unauthenticated identity",
			setupCtx: func() context.Context {
				disabled := NewPrincipal(PrincipalParams{ID: uuid.New(), Roles: []Authority{AuthorityUser}})
				return WithIdentity(context.Background(), NewAuthenticatedIdentity(disabled, "token"))
			},
			wantOK:        true,
			wantPrincipal: false,
		},
		{
			name: "should return false when no identity in context",
			setupCtx: func() context.Context {
				return context.Background()
			},
		},
		{
			name: "should return false for a nil identity",
			setupCtx: func() context.Context {
				return WithIdentity(context.Background(), nil)
			},
		},
		{
			name: "should return false when context has wrong type",
			setupCtx: func() context.Context {
				return context.WithValue(context.Background(), identityCtxKey, "not-an-identity")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := tt.setupCtx()

			identity, ok := IdentityFromContext(ctx)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Nil(t, identity)
			}

			got, ok := PrincipalFromContext(ctx)
			assert.Equal(t, tt.wantPrincipal, ok)
			if tt.wantPrincipal {
				assert.Equal(t, principal.ID(), got.ID())
			}
		})
	}
}
