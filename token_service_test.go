package auth_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/carthy/go-auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenService(t *testing.T) {
	t.Run("creates token service with logger", func(t *testing.T) {
		service := auth.NewTokenService(testProperties(), &captureLogger{})
		assert.NotNil(t, service)
		assert.Equal(t, 24*time.Hour, service.TTL())
	})

	t.Run("creates token service with nil logger", func(t *testing.T) {
		service := auth.NewTokenService(testProperties(), nil)
		assert.NotNil(t, service)
	})

	t.Run("warns about short signing keys", func(t *testing.T) {
		logger := &captureLogger{}
		props := testProperties()
		props.SigningKey = "short"

		auth.NewTokenService(props, logger)

		assert.Len(t, logger.levels("warn"), 1)
	})
}

func TestTokenService_IssueAndResolve(t *testing.T) {
	service := auth.NewTokenService(testProperties(), nil).WithClock(clockAt(fixedNow))
	principal := newTestPrincipal()

	token, err := service.Issue(principal.ID(), principal)
	require.NoError(t, err)
	assert.NotEmpty(t, token.Value)
	assert.Equal(t, fixedNow.Add(24*time.Hour), token.Expiry)
	assert.Len(t, strings.Split(token.Value, "."), 3)

	resolved, err := service.Resolve(token.Value)
	require.NoError(t, err)

	assert.Equal(t, principal.ID(), resolved.ID())
	assert.Equal(t, principal.Username(), resolved.Username())
	assert.Equal(t, principal.Sex(), resolved.Sex())
	assert.Equal(t, principal.Roles(), resolved.Roles())
	assert.True(t, resolved.AccountNonExpired())
	assert.True(t, resolved.AccountNonLocked())
	assert.True(t, resolved.CredentialsNonExpired())
	assert.True(t, resolved.Enabled())
	assert.Empty(t, resolved.PasswordHash())
}

func TestTokenService_IssueUsesHS512AndSubject(t *testing.T) {
	service := auth.NewTokenService(testProperties(), nil).WithClock(clockAt(fixedNow))
	principal := newTestPrincipal()

	token, err := service.Issue(principal.ID(), principal)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	parsed, _, err := jwt.NewParser().ParseUnverified(token.Value, claims)
	require.NoError(t, err)

	assert.Equal(t, "HS512", parsed.Method.Alg())
	assert.Equal(t, principal.ID().String(), claims["sub"])
	assert.Equal(t, principal.ID().String(), claims[auth.ClaimID])
	assert.Equal(t, "2024-03-09T14:27:00Z", claims[auth.ClaimTokenCreateTime])
	assert.Equal(t, float64(fixedNow.Add(24*time.Hour).Unix()), claims["exp"])
}

func TestTokenService_IssueWithoutKey(t *testing.T) {
	props := testProperties()
	props.SigningKey = ""
	service := auth.NewTokenService(props, nil)

	_, err := service.Issue(newTestPrincipal().ID(), newTestPrincipal())
	require.Error(t, err)
	assert.Equal(t, auth.CodeServerError, auth.AsError(err).TextCode)
}

func TestTokenService_ResolveFailures(t *testing.T) {
	issuer := auth.NewTokenService(testProperties(), nil).WithClock(clockAt(fixedNow))
	principal := newTestPrincipal()
	valid, err := issuer.Issue(principal.ID(), principal)
	require.NoError(t, err)

	otherProps := testProperties()
	otherProps.SigningKey = "another-signing-key-that-is-long-enough"
	otherKey := auth.NewTokenService(otherProps, nil).WithClock(clockAt(fixedNow))

	hs256, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": principal.ID().String(),
		"exp": fixedNow.Add(time.Hour).Unix(),
	}).SignedString([]byte(testSigningKey))
	require.NoError(t, err)

	parts := strings.Split(valid.Value, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	sig := parts[2]
	tamperedSig := parts[0] + "." + parts[1] + "." + sig[:len(sig)-1] + nextBase64URLChar(sig[len(sig)-1])

	tests := []struct {
		name        string
		resolver    *auth.TokenService
		token       string
		wantExpired bool
	}{
		{name: "wrong signing key", resolver: otherKey, token: valid.Value},
		{name: "unexpected algorithm", resolver: issuer, token: hs256},
		{name: "tampered payload", resolver: issuer, token: tampered},
		{name: "tampered signature", resolver: issuer, token: tamperedSig},
		{name: "garbage", resolver: issuer, token: "not-a-token"},
		{name: "empty", resolver: issuer, token: ""},
		{
			name:        "expired",
			resolver:    auth.NewTokenService(testProperties(), nil).WithClock(clockAt(fixedNow.Add(25 * time.Hour))),
			token:       valid.Value,
			wantExpired: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.resolver.Resolve(tt.token)
			require.Error(t, err)
			assert.True(t, auth.IsInvalidTokenError(err))
			assert.Equal(t, tt.wantExpired, auth.IsTokenExpiredError(err))
			assert.Equal(t, 401, auth.AsError(err).Code)
		})
	}
}

const base64URLAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

func nextBase64URLChar(c byte) string {
	i := strings.IndexByte(base64URLAlphabet, c)
	return string(base64URLAlphabet[(i+1)%len(base64URLAlphabet)])
}

// Every single character change of the signature must be rejected, including
// those that only touch the unused padding bits of the last character.
func TestTokenService_ResolveRejectsEverySignatureVariant(t *testing.T) {
	issuer := auth.NewTokenService(testProperties(), nil).WithClock(clockAt(fixedNow))
	principal := newTestPrincipal()
	valid, err := issuer.Issue(principal.ID(), principal)
	require.NoError(t, err)

	parts := strings.Split(valid.Value, ".")
	sig := parts[2]
	last := sig[len(sig)-1]

	for i := 0; i < len(base64URLAlphabet); i++ {
		c := base64URLAlphabet[i]
		if c == last {
			continue
		}
		token := parts[0] + "." + parts[1] + "." + sig[:len(sig)-1] + string(c)

		_, err := issuer.Resolve(token)
		require.Error(t, err, "last signature char %q -> %q", last, c)
		assert.True(t, auth.IsInvalidTokenError(err))
	}
}

func signRaw(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = fixedNow.Add(time.Hour).Unix()
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSigningKey))
	require.NoError(t, err)
	return signed
}

func baseClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":                           "5f0c3a52-1c1f-4b7e-9a43-2f1f0f6f8a10",
		auth.ClaimUsername:              "jane@yopmail.com",
		auth.ClaimSex:                   "FEMALE",
		auth.ClaimRoles:                 []string{"USER"},
		auth.ClaimAccountNonExpired:     true,
		auth.ClaimAccountNonLocked:      true,
		auth.ClaimCredentialsNonExpired: true,
		auth.ClaimEnabled:               true,
	}
}

func TestTokenService_ResolveClaimDecoding(t *testing.T) {
	service := auth.NewTokenService(testProperties(), nil).WithClock(clockAt(fixedNow))

	t.Run("missing boolean claim resolves to a disabled principal", func(t *testing.T) {
		claims := baseClaims()
		delete(claims, auth.ClaimEnabled)

		p, err := service.Resolve(signRaw(t, claims))
		require.NoError(t, err)
		assert.False(t, p.Enabled())
		assert.True(t, p.AccountNonLocked())
	})

	t.Run("boolean claims are coerced from strings", func(t *testing.T) {
		claims := baseClaims()
		claims[auth.ClaimEnabled] = "TRUE"
		claims[auth.ClaimAccountNonLocked] = "yes"

		p, err := service.Resolve(signRaw(t, claims))
		require.NoError(t, err)
		assert.True(t, p.Enabled())
		assert.False(t, p.AccountNonLocked())
	})

	t.Run("subject must be a uuid", func(t *testing.T) {
		claims := baseClaims()
		claims["sub"] = "42"

		_, err := service.Resolve(signRaw(t, claims))
		assert.True(t, errors.Is(err, auth.ErrMalformedClaims))
	})

	t.Run("roles must be strings", func(t *testing.T) {
		claims := baseClaims()
		claims[auth.ClaimRoles] = []any{"USER", 7}

		_, err := service.Resolve(signRaw(t, claims))
		assert.True(t, errors.Is(err, auth.ErrMalformedClaims))
	})

	t.Run("missing expiry is rejected", func(t *testing.T) {
		claims := baseClaims()
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSigningKey))
		require.NoError(t, err)

		_, err = service.Resolve(signed)
		assert.True(t, auth.IsInvalidTokenError(err))
	})
}
