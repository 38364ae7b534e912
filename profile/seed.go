package profile

import (
	"context"
	"fmt"

	"github.com/carthy/go-auth"
)

const (
	SeedUsername = "john.doe@yopmail.com"
	SeedPassword = "doe"
)

// EnsureSeedUser creates the bootstrap administrator when no account uses
// SeedUsername. It reports whether a user was created.
func EnsureSeedUser(ctx context.Context, repo UserRepo, encoder auth.PasswordEncoder) (*User, bool, error) {
	existing, err := repo.FindByUsernameIgnoreCase(ctx, SeedUsername)
	if err == nil {
		return existing, false, nil
	}
	if !auth.IsNotFoundError(err) {
		return nil, false, err
	}

	if encoder == nil {
		encoder = auth.BcryptEncoder{}
	}
	hash, err := encoder.Encode(SeedPassword)
	if err != nil {
		return nil, false, fmt.Errorf("hash seed password: %w", err)
	}

	user := &User{
		Username:              SeedUsername,
		PasswordHash:          hash,
		Sex:                   auth.SexMale,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
		Authorities:           []auth.Authority{auth.AuthorityAdmin},
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}
