package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token is a signed credential and the instant it stops being valid.
type Token struct {
	Value  string    `json:"token"`
	Expiry time.Time `json:"expiry"`
}

// TokenService signs and verifies HS512 tokens carrying a Principal.
type TokenService struct {
	signingKey []byte
	ttl        time.Duration
	codec      ClaimsCodec
	now        func() time.Time
	logger     Logger
}

var (
	_ TokenIssuer       = (*TokenService)(nil)
	_ PrincipalResolver = (*TokenService)(nil)
)

// NewTokenService creates a new TokenService instance
func NewTokenService(props SecurityProperties, logger Logger) *TokenService {
	logger = normalizeLogger(logger)
	key, err := props.KeyBytes()
	if err != nil {
		logger.Error("TokenService signing key could not be decoded", "error", err)
		key = nil
	}
	if props.WeakKey() {
		logger.Warn("TokenService signing key is shorter than recommended", "min_length", minSigningKeyLen)
	}
	return &TokenService{
		signingKey: key,
		ttl:        props.TTL(),
		codec:      NewClaimsCodec(),
		now:        time.Now,
		logger:     logger,
	}
}

// WithClock replaces the time source used for issuing and expiry checks.
func (ts *TokenService) WithClock(now func() time.Time) *TokenService {
	if now != nil {
		ts.now = now
		ts.codec = ts.codec.WithClock(now)
	}
	return ts
}

func (ts *TokenService) WithLogger(logger Logger) *TokenService {
	ts.logger = normalizeLogger(logger)
	return ts
}

// TTL is the lifetime given to issued tokens.
func (ts *TokenService) TTL() time.Duration {
	return ts.ttl
}

// Issue signs a token whose subject and id claim are id.
func (ts *TokenService) Issue(id uuid.UUID, principal Principal) (Token, error) {
	if len(ts.signingKey) == 0 {
		return Token{}, InternalError(errors.New("token service has no signing key"))
	}

	now := ts.now()
	expiry := now.Add(ts.ttl)

	claims := ts.codec.Encode(principal)
	claims[ClaimID] = id.String()
	claims["sub"] = id.String()
	claims["iat"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(expiry)

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		ts.logger.Error("TokenService failed to sign token", "error", err)
		return Token{}, InternalError(fmt.Errorf("sign token: %w", err))
	}

	return Token{Value: signed, Expiry: expiry}, nil
}

// Resolve verifies the signature and expiry of raw and decodes its claims.
func (ts *TokenService) Resolve(raw string) (Principal, error) {
	if len(ts.signingKey) == 0 {
		return Principal{}, InvalidTokenError(errors.New("token service has no signing key"))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Debug("TokenService resolve encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(ts.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, TokenExpiredError(err)
		}
		return Principal{}, InvalidTokenError(err)
	}

	principal, err := ts.codec.Decode(claims)
	if err != nil {
		return Principal{}, InvalidTokenError(err)
	}
	return principal, nil
}
