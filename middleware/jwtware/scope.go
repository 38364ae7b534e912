package jwtware

import (
	"context"
	"fmt"

	"github.com/carthy/go-auth"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// OwnerLookup finds the owner of the entity identified by id. A missing
// entity must be reported with an error for which auth.IsNotFoundError holds.
type OwnerLookup interface {
	OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// OwnerLookupFunc adapts a function to the OwnerLookup interface.
type OwnerLookupFunc func(ctx context.Context, id uuid.UUID) (uuid.UUID, error)

func (f OwnerLookupFunc) OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	return f(ctx, id)
}

// AdminOrMe guards a route whose path parameter param identifies an entity.
// Admins pass without a lookup and let the handler report missing entities.
// Everybody else must own the entity; a missing entity is reported as 403 so
// existence does not leak.
func AdminOrMe(lookup OwnerLookup, param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := auth.PrincipalFromContext(c.UserContext())
		if !ok {
			return auth.DecisionUnauthenticated.Err()
		}

		raw := c.Params(param)
		id, err := uuid.Parse(raw)
		if err != nil {
			return auth.ValidationError(
				fmt.Sprintf("Invalid %s : %s", param, raw),
				auth.FieldError{Field: param, Message: "must be a valid uuid", RejectedValue: raw},
			)
		}

		if auth.IsAdmin(principal) {
			return c.Next()
		}

		owner, err := lookup.OwnerOf(c.UserContext(), id)
		if err != nil {
			if auth.IsNotFoundError(err) {
				return auth.ForbiddenError("Access is denied")
			}
			return err
		}

		if !auth.IsMe(principal, owner) {
			return auth.ForbiddenError("Access is denied")
		}
		return c.Next()
	}
}

// RequireScope guards a route with a fixed scope that needs no owner, such
// as auth.ScopeAdmin.
func RequireScope(rule auth.ScopeRule) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := auth.PrincipalFromContext(c.UserContext())
		if !ok {
			return auth.DecisionUnauthenticated.Err()
		}
		if !auth.IsAuthorized(principal, rule, uuid.Nil) {
			return auth.ForbiddenError("Access is denied")
		}
		return c.Next()
	}
}
