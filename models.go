package auth

import (
	"sort"

	"github.com/google/uuid"
)

// PrincipalParams is used to build an immutable Principal.
type PrincipalParams struct {
	ID                    uuid.UUID
	Sex                   Sex
	Username              string
	PasswordHash          string
	Roles                 []Authority
	AccountNonExpired     bool
	AccountNonLocked      bool
	CredentialsNonExpired bool
	Enabled               bool
}

// Principal is the identity of an account as carried in a token. It is a
// value type and never changes once built.
type Principal struct {
	id                    uuid.UUID
	sex                   Sex
	username              string
	passwordHash          string
	roles                 map[Authority]struct{}
	accountNonExpired     bool
	accountNonLocked      bool
	credentialsNonExpired bool
	enabled               bool
}

func NewPrincipal(p PrincipalParams) Principal {
	roles := make(map[Authority]struct{}, len(p.Roles))
	for _, r := range p.Roles {
		if r == "" {
			continue
		}
		roles[r] = struct{}{}
	}
	return Principal{
		id:                    p.ID,
		sex:                   p.Sex,
		username:              p.Username,
		passwordHash:          p.PasswordHash,
		roles:                 roles,
		accountNonExpired:     p.AccountNonExpired,
		accountNonLocked:      p.AccountNonLocked,
		credentialsNonExpired: p.CredentialsNonExpired,
		enabled:               p.Enabled,
	}
}

func (p Principal) ID() uuid.UUID               { return p.id }
func (p Principal) Sex() Sex                    { return p.sex }
func (p Principal) Username() string            { return p.username }
func (p Principal) DisplayName() string         { return p.username }
func (p Principal) PasswordHash() string        { return p.passwordHash }
func (p Principal) AccountNonExpired() bool     { return p.accountNonExpired }
func (p Principal) AccountNonLocked() bool      { return p.accountNonLocked }
func (p Principal) CredentialsNonExpired() bool { return p.credentialsNonExpired }
func (p Principal) Enabled() bool               { return p.enabled }

// Roles returns a sorted copy of the granted authorities.
func (p Principal) Roles() []Authority {
	out := make([]Authority, 0, len(p.roles))
	for r := range p.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p Principal) HasRole(role Authority) bool {
	_, ok := p.roles[role]
	return ok
}

// Params returns the values used to build p.
func (p Principal) Params() PrincipalParams {
	return PrincipalParams{
		ID:                    p.id,
		Sex:                   p.sex,
		Username:              p.username,
		PasswordHash:          p.passwordHash,
		Roles:                 p.Roles(),
		AccountNonExpired:     p.accountNonExpired,
		AccountNonLocked:      p.accountNonLocked,
		CredentialsNonExpired: p.credentialsNonExpired,
		Enabled:               p.enabled,
	}
}

// AuthenticatedIdentity binds a resolved principal to the credential it came
// from. It is only considered authenticated when the principal is enabled
// and holds at least one authority.
type AuthenticatedIdentity struct {
	principal  Principal
	credential string
}

func NewAuthenticatedIdentity(principal Principal, credential string) *AuthenticatedIdentity {
	return &AuthenticatedIdentity{principal: principal, credential: credential}
}

func (a *AuthenticatedIdentity) Principal() Principal {
	return a.principal
}

func (a *AuthenticatedIdentity) Credentials() string {
	return a.credential
}

func (a *AuthenticatedIdentity) Authorities() []Authority {
	return a.principal.Roles()
}

func (a *AuthenticatedIdentity) IsAuthenticated() bool {
	if a == nil {
		return false
	}
	return a.principal.Enabled() && len(a.principal.roles) > 0
}
