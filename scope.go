package auth

import "github.com/google/uuid"

// ScopeRule names a resource level check.
type ScopeRule int

const (
	ScopeAny ScopeRule = iota
	ScopeAdmin
	ScopeMe
	ScopeAdminOrMe
)

// IsAdmin reports whether p holds the ADMIN authority.
func IsAdmin(p Principal) bool {
	return p.HasRole(AuthorityAdmin)
}

// IsMe reports whether p owns the resource.
func IsMe(p Principal, ownerID uuid.UUID) bool {
	return ownerID != uuid.Nil && p.ID() == ownerID
}

// AdminOrMe checks admin first.
func AdminOrMe(p Principal, ownerID uuid.UUID) bool {
	if IsAdmin(p) {
		return true
	}
	return IsMe(p, ownerID)
}

// IsAuthorized evaluates rule for p against a resource owned by ownerID.
func IsAuthorized(p Principal, rule ScopeRule, ownerID uuid.UUID) bool {
	switch rule {
	case ScopeAdmin:
		return IsAdmin(p)
	case ScopeMe:
		return IsMe(p, ownerID)
	case ScopeAdminOrMe:
		return AdminOrMe(p, ownerID)
	default:
		return true
	}
}
