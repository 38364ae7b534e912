package auth

import (
	"fmt"
	"strings"
)

// Authority is a granted role name.
type Authority string

const (
	AuthorityAdmin Authority = "ADMIN"
	AuthorityUser  Authority = "USER"
)

func (a Authority) String() string {
	return string(a)
}

// Sex is the closed set of values carried in the "sexe" claim.
type Sex string

const (
	SexMale   Sex = "MALE"
	SexFemale Sex = "FEMALE"
)

func (s Sex) String() string {
	return string(s)
}

// IsValid reports whether s is one of the known values.
func (s Sex) IsValid() bool {
	switch s {
	case SexMale, SexFemale:
		return true
	}
	return false
}

// ParseSex accepts the known values, case insensitive.
func ParseSex(value string) (Sex, error) {
	s := Sex(strings.ToUpper(strings.TrimSpace(value)))
	if !s.IsValid() {
		return "", fmt.Errorf("unknown sex %q", value)
	}
	return s, nil
}
