package auth

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Access is the requirement a PathRule places on a request.
type Access int

const (
	AccessAuthenticated Access = iota
	AccessPermitAll
	AccessDenyAll
)

func (a Access) String() string {
	switch a {
	case AccessPermitAll:
		return "permit_all"
	case AccessDenyAll:
		return "deny_all"
	default:
		return "authenticated"
	}
}

// PathRule applies Access to requests whose method and path match. Patterns
// are ant style globs such as /api/mocks/**. An empty method list matches
// every method.
type PathRule struct {
	Methods  []string
	Patterns []string
	Access   Access
}

func PermitAll(patterns ...string) PathRule {
	return PathRule{Patterns: patterns, Access: AccessPermitAll}
}

func Authenticated(patterns ...string) PathRule {
	return PathRule{Patterns: patterns, Access: AccessAuthenticated}
}

func DenyAll(patterns ...string) PathRule {
	return PathRule{Patterns: patterns, Access: AccessDenyAll}
}

// ForMethods restricts the rule to the given HTTP methods.
func (r PathRule) ForMethods(methods ...string) PathRule {
	r.Methods = append([]string(nil), methods...)
	return r
}

// Matches reports whether the rule applies. A rule without patterns never
// matches.
func (r PathRule) Matches(method, path string) bool {
	if len(r.Patterns) == 0 {
		return false
	}
	if !r.matchesMethod(method) {
		return false
	}
	for _, pattern := range r.Patterns {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}

func (r PathRule) matchesMethod(method string) bool {
	if len(r.Methods) == 0 {
		return true
	}
	for _, m := range r.Methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

// Decision is the outcome of a Policy evaluation.
type Decision int

const (
	DecisionAllow Decision = iota
	DecisionUnauthenticated
	DecisionForbidden
)

func (d Decision) String() string {
	switch d {
	case DecisionUnauthenticated:
		return "unauthenticated"
	case DecisionForbidden:
		return "forbidden"
	default:
		return "allow"
	}
}

// Err returns the error to render for a refused decision, nil on allow.
func (d Decision) Err() error {
	switch d {
	case DecisionUnauthenticated:
		return AccessDeniedError(CodeAuthenticationDenied, "Full authentication is required to access this resource")
	case DecisionForbidden:
		return ForbiddenError("Access is denied")
	default:
		return nil
	}
}

// Policy is an ordered list of rules. The first matching rule wins and a
// request no rule matches must be authenticated.
type Policy struct {
	rules []PathRule
}

// NewPolicy validates every pattern and keeps rules in order. Rules without
// patterns are dropped.
func NewPolicy(rules ...PathRule) (*Policy, error) {
	kept := make([]PathRule, 0, len(rules))
	for i, rule := range rules {
		if len(rule.Patterns) == 0 {
			continue
		}
		for _, pattern := range rule.Patterns {
			if !doublestar.ValidatePattern(pattern) {
				return nil, fmt.Errorf("policy rule %d: invalid pattern %q", i, pattern)
			}
		}
		kept = append(kept, rule)
	}
	return &Policy{rules: kept}, nil
}

// MustPolicy is NewPolicy that panics on invalid patterns.
func MustPolicy(rules ...PathRule) *Policy {
	p, err := NewPolicy(rules...)
	if err != nil {
		panic(err)
	}
	return p
}

// Rules returns a copy of the effective rules.
func (p *Policy) Rules() []PathRule {
	return append([]PathRule(nil), p.rules...)
}

// Access returns the requirement for method and path.
func (p *Policy) Access(method, path string) Access {
	if p != nil {
		for _, rule := range p.rules {
			if rule.Matches(method, path) {
				return rule.Access
			}
		}
	}
	return AccessAuthenticated
}

// Decide evaluates the request. identity may be nil.
func (p *Policy) Decide(method, path string, identity *AuthenticatedIdentity) Decision {
	switch p.Access(method, path) {
	case AccessPermitAll:
		return DecisionAllow
	case AccessDenyAll:
		if identity.IsAuthenticated() {
			return DecisionForbidden
		}
		return DecisionUnauthenticated
	default:
		if identity.IsAuthenticated() {
			return DecisionAllow
		}
		return DecisionUnauthenticated
	}
}
