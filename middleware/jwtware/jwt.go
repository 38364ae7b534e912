package jwtware

import (
	"github.com/carthy/go-auth"
	"github.com/gofiber/fiber/v2"
)

// DefaultContextKey is the fiber Locals key holding the identity.
const DefaultContextKey = "identity"

// MalformedHeaderPolicy decides what happens to an Authorization header that
// does not follow the Bearer scheme.
type MalformedHeaderPolicy int

const (
	// MalformedHeaderReject answers 400.
	MalformedHeaderReject MalformedHeaderPolicy = iota
	// MalformedHeaderAnonymous treats the request as carrying no credential
	// and logs a warning. The path policy then decides.
	MalformedHeaderAnonymous
)

// ValidationListener is invoked after an identity has been resolved but
// before the path policy is evaluated.
type ValidationListener func(c *fiber.Ctx, identity *auth.AuthenticatedIdentity) error

type Config struct {
	Filter         func(*fiber.Ctx) bool
	SuccessHandler fiber.Handler
	ErrorHandler   fiber.ErrorHandler

	// Authenticator is required.
	Authenticator auth.Authenticator

	// Policy is evaluated on every request. A nil policy requires every
	// request to be authenticated.
	Policy *auth.Policy

	ContextKey      string
	AuthHeader      string
	MalformedHeader MalformedHeaderPolicy
	Logger          auth.Logger

	ValidationListeners []ValidationListener
}

// New returns the per request security middleware. It resolves the
// Authorization header into an identity, stores it in Locals and in the
// request context, then enforces the path policy. A bad token is always a
// 401, even on public routes.
func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)
	repo := NewSecurityContextRepository(cfg.Authenticator).
		WithHeader(cfg.AuthHeader).
		WithMalformedHeaderPolicy(cfg.MalformedHeader).
		WithLogger(cfg.Logger)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		sc, err := repo.Load(c)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		if sc.Identity != nil {
			c.Locals(cfg.ContextKey, sc.Identity)
			c.SetUserContext(auth.WithIdentity(c.UserContext(), sc.Identity))

			if err := cfg.runValidationListeners(c, sc.Identity); err != nil {
				return cfg.ErrorHandler(c, err)
			}
		}

		decision := cfg.Policy.Decide(c.Method(), c.Path(), sc.Identity)
		if err := decision.Err(); err != nil {
			cfg.Logger.Debug("request refused by path policy",
				"method", c.Method(),
				"path", c.Path(),
				"decision", decision.String(),
			)
			return cfg.ErrorHandler(c, err)
		}

		return cfg.SuccessHandler(c)
	}
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Authenticator == nil {
		panic("AUTH: JWT middleware configuration: Authenticator is required.")
	}

	if cfg.Logger == nil {
		cfg.Logger = defaultLogger()
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = NewErrorHandler(cfg.Logger)
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.AuthHeader == "" {
		cfg.AuthHeader = fiber.HeaderAuthorization
	}

	return cfg
}

func (cfg *Config) runValidationListeners(c *fiber.Ctx, identity *auth.AuthenticatedIdentity) error {
	for _, listener := range cfg.ValidationListeners {
		if listener == nil {
			continue
		}
		if err := listener(c, identity); err != nil {
			return err
		}
	}
	return nil
}

// IdentityFromLocals returns the identity stored by New.
func IdentityFromLocals(c *fiber.Ctx, key ...string) (*auth.AuthenticatedIdentity, bool) {
	k := DefaultContextKey
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}
	identity, ok := c.Locals(k).(*auth.AuthenticatedIdentity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}
