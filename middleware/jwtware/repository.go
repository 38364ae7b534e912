package jwtware

import (
	"errors"
	"log/slog"

	"github.com/carthy/go-auth"
	"github.com/gofiber/fiber/v2"
)

// ErrSaveUnsupported is returned by SecurityContextRepository.Save. The
// security context only lives for the duration of a request.
var ErrSaveUnsupported = errors.New("jwtware: security context is request scoped and cannot be saved")

// SecurityContext holds what was resolved for one request. Identity is nil
// when the request carried no credential.
type SecurityContext struct {
	Identity *auth.AuthenticatedIdentity
}

func (s *SecurityContext) Authenticated() bool {
	return s != nil && s.Identity.IsAuthenticated()
}

// SecurityContextRepository derives a SecurityContext from the request
// headers. Nothing is stored between requests.
type SecurityContextRepository struct {
	authenticator auth.Authenticator
	header        string
	malformed     MalformedHeaderPolicy
	logger        auth.Logger
}

func NewSecurityContextRepository(authenticator auth.Authenticator) *SecurityContextRepository {
	return &SecurityContextRepository{
		authenticator: authenticator,
		header:        fiber.HeaderAuthorization,
		logger:        defaultLogger(),
	}
}

func (r *SecurityContextRepository) WithHeader(name string) *SecurityContextRepository {
	if name != "" {
		r.header = name
	}
	return r
}

func (r *SecurityContextRepository) WithMalformedHeaderPolicy(p MalformedHeaderPolicy) *SecurityContextRepository {
	r.malformed = p
	return r
}

func (r *SecurityContextRepository) WithLogger(logger auth.Logger) *SecurityContextRepository {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Load resolves the request credential. Invalid tokens are returned as
// errors; the caller must not fall back to anonymous access.
func (r *SecurityContextRepository) Load(c *fiber.Ctx) (*SecurityContext, error) {
	token, err := ParseAuthorizationHeader(c.Get(r.header))
	if err != nil {
		if r.malformed != MalformedHeaderAnonymous {
			return nil, err
		}
		r.logger.Warn("malformed authorization header treated as anonymous",
			"method", c.Method(),
			"path", c.Path(),
		)
		token = ""
	}

	identity, err := r.authenticator.Authenticate(c.UserContext(), token)
	if err != nil {
		return nil, err
	}
	return &SecurityContext{Identity: identity}, nil
}

// Save always fails with ErrSaveUnsupported.
func (r *SecurityContextRepository) Save(*fiber.Ctx, *SecurityContext) error {
	return ErrSaveUnsupported
}

func defaultLogger() auth.Logger {
	return slog.Default()
}
