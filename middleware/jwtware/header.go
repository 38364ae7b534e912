package jwtware

import (
	"regexp"

	"github.com/carthy/go-auth"
)

var bearerPattern = regexp.MustCompile(`(?i)^Bearer *([^ ]+)*$`)

// ParseAuthorizationHeader extracts the token of a Bearer header. An empty
// header and a bare "Bearer" both yield an empty token. Anything else that
// does not match the scheme is a malformed header error.
func ParseAuthorizationHeader(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	m := bearerPattern.FindStringSubmatch(value)
	if m == nil {
		return "", auth.MalformedHeaderError(value)
	}
	return m[1], nil
}
