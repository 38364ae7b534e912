package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claim keys. They are part of the wire format shared with other services
// and must not change.
const (
	ClaimID                    = "id"
	ClaimUsername              = "username"
	ClaimSex                   = "sexe"
	ClaimRoles                 = "roles"
	ClaimAccountNonExpired     = "accountNonExpired"
	ClaimAccountNonLocked      = "accountNonLocked"
	ClaimCredentialsNonExpired = "credentialsNonExpired"
	ClaimEnabled               = "enable"
	ClaimTokenCreateTime       = "TOKEN_CREATE_TIME"
)

// ClaimsCodec maps a Principal to the custom claims of a token and back.
// Standard registered claims (sub, iat, exp) are owned by the TokenService.
type ClaimsCodec struct {
	now func() time.Time
}

func NewClaimsCodec() ClaimsCodec {
	return ClaimsCodec{now: time.Now}
}

// WithClock overrides the clock used for TOKEN_CREATE_TIME.
func (c ClaimsCodec) WithClock(now func() time.Time) ClaimsCodec {
	if now != nil {
		c.now = now
	}
	return c
}

// Encode returns the custom claims for p.
func (c ClaimsCodec) Encode(p Principal) jwt.MapClaims {
	now := time.Now
	if c.now != nil {
		now = c.now
	}

	roles := p.Roles()
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.String())
	}

	return jwt.MapClaims{
		ClaimID:                    p.ID().String(),
		ClaimUsername:              p.Username(),
		ClaimSex:                   p.Sex().String(),
		ClaimRoles:                 names,
		ClaimAccountNonExpired:     p.AccountNonExpired(),
		ClaimAccountNonLocked:      p.AccountNonLocked(),
		ClaimCredentialsNonExpired: p.CredentialsNonExpired(),
		ClaimEnabled:               p.Enabled(),
		ClaimTokenCreateTime:       now().UTC().Truncate(time.Minute).Format(time.RFC3339),
	}
}

// Decode rebuilds a Principal from verified claims. The subject is the
// account id. Every failure wraps ErrMalformedClaims.
func (c ClaimsCodec) Decode(claims jwt.MapClaims) (Principal, error) {
	sub, err := claims.GetSubject()
	if err != nil {
		return Principal{}, claimError("sub", err.Error())
	}
	if sub == "" {
		return Principal{}, claimError("sub", "missing")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return Principal{}, claimError("sub", "not a uuid")
	}

	username, err := stringClaim(claims, ClaimUsername)
	if err != nil {
		return Principal{}, err
	}

	rawSex, err := stringClaim(claims, ClaimSex)
	if err != nil {
		return Principal{}, err
	}
	sex, err := ParseSex(rawSex)
	if err != nil {
		return Principal{}, claimError(ClaimSex, err.Error())
	}

	roles, err := rolesClaim(claims)
	if err != nil {
		return Principal{}, err
	}

	return NewPrincipal(PrincipalParams{
		ID:                    id,
		Sex:                   sex,
		Username:              username,
		Roles:                 roles,
		AccountNonExpired:     boolClaim(claims, ClaimAccountNonExpired),
		AccountNonLocked:      boolClaim(claims, ClaimAccountNonLocked),
		CredentialsNonExpired: boolClaim(claims, ClaimCredentialsNonExpired),
		Enabled:               boolClaim(claims, ClaimEnabled),
	}), nil
}

func claimError(key, reason string) error {
	return fmt.Errorf("%w: claim %q %s", ErrMalformedClaims, key, reason)
}

func stringClaim(claims jwt.MapClaims, key string) (string, error) {
	raw, ok := claims[key]
	if !ok || raw == nil {
		return "", claimError(key, "missing")
	}
	s, ok := raw.(string)
	if !ok {
		return "", claimError(key, "not a string")
	}
	return s, nil
}

// boolClaim is lenient: anything whose string form is "true", ignoring case,
// is true. Everything else, a missing or null claim included, is false.
func boolClaim(claims jwt.MapClaims, key string) bool {
	raw, ok := claims[key]
	if !ok || raw == nil {
		return false
	}
	return strings.EqualFold(fmt.Sprint(raw), "true")
}

func rolesClaim(claims jwt.MapClaims) ([]Authority, error) {
	raw, ok := claims[ClaimRoles]
	if !ok || raw == nil {
		return nil, claimError(ClaimRoles, "missing")
	}

	switch v := raw.(type) {
	case []string:
		out := make([]Authority, 0, len(v))
		for _, r := range v {
			out = append(out, Authority(r))
		}
		return out, nil
	case []any:
		out := make([]Authority, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, claimError(ClaimRoles, "contains a non string value")
			}
			out = append(out, Authority(s))
		}
		return out, nil
	default:
		return nil, claimError(ClaimRoles, "not a list")
	}
}
