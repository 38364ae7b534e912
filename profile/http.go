package profile

import (
	"log/slog"
	"net/http"

	"github.com/carthy/go-auth"
	"github.com/carthy/go-auth/middleware/jwtware"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	TokenPath = "/api/v1/auth/token"
	UsersPath = "/api/v1/users"
	CodePath  = UsersPath + "/code"
	MocksPath = "/api/mocks"
)

// DefaultPolicy permits the anonymous account endpoints and the mocks, and
// requires authentication everywhere else. Empty extra patterns are skipped.
func DefaultPolicy(extraPublic ...string) (*auth.Policy, error) {
	public := make([]string, 0, len(extraPublic))
	for _, p := range extraPublic {
		if p != "" {
			public = append(public, p)
		}
	}
	return auth.NewPolicy(
		auth.PermitAll(TokenPath).ForMethods(http.MethodPost),
		auth.PermitAll(UsersPath).ForMethods(http.MethodPost),
		auth.PermitAll(CodePath).ForMethods(http.MethodPost, http.MethodPut),
		auth.PermitAll(MocksPath+"/**"),
		auth.PermitAll(public...),
		auth.Authenticated("/api/**"),
	)
}

// ErrorHandler renders every error as auth.ErrorDetails JSON.
func ErrorHandler(logger auth.Logger) fiber.ErrorHandler {
	return jwtware.NewErrorHandler(logger)
}

// Dependencies wires the HTTP surface.
type Dependencies struct {
	Login         *LoginService
	Users         *UserService
	Authenticator auth.Authenticator
	Policy        *auth.Policy
	Logger        auth.Logger
}

// NewApp builds a fiber app with the security middleware and every route.
func NewApp(deps Dependencies) (*fiber.App, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Policy == nil {
		policy, err := DefaultPolicy()
		if err != nil {
			return nil, err
		}
		deps.Policy = policy
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          ErrorHandler(deps.Logger),
		DisableStartupMessage: true,
	})
	Register(app, deps)
	return app, nil
}

// Register mounts the security middleware and the routes on router.
func Register(router fiber.Router, deps Dependencies) {
	h := &handlers{login: deps.Login, users: deps.Users}

	router.Use(jwtware.New(jwtware.Config{
		Authenticator: deps.Authenticator,
		Policy:        deps.Policy,
		Logger:        deps.Logger,
		ErrorHandler:  ErrorHandler(deps.Logger),
	}))

	router.Post(TokenPath, h.createToken)
	router.Post(UsersPath, h.register)
	router.Put(CodePath, h.verifyCode)
	router.Get(UsersPath+"/:id", jwtware.AdminOrMe(deps.Users, "id"), h.getByID)
	router.Get(UsersPath, h.getAll)
	router.Get(MocksPath+"/*", h.mock)
}

type handlers struct {
	login *LoginService
	users *UserService
}

func bindJSON(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return auth.ValidationError("Malformed JSON request")
	}
	return nil
}

func (h *handlers) createToken(c *fiber.Ctx) error {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := validationError(req.Validate()); err != nil {
		return err
	}

	token, err := h.login.CreateToken(c.UserContext(), FiberMetadata(c), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(token)
}

func (h *handlers) register(c *fiber.Ctx) error {
	var req RegistrationRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	user, err := h.users.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(ToUserOutput(user))
}

func (h *handlers) verifyCode(c *fiber.Ctx) error {
	var req VerifyCodeRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := h.users.VerifyCode(c.UserContext(), req); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) getByID(c *fiber.Ctx) error {
	// AdminOrMe already rejected malformed ids
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return auth.ValidationError("Invalid id : " + c.Params("id"))
	}

	user, err := h.users.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(ToUserOutput(user))
}

func (h *handlers) getAll(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c.UserContext())
	if !ok {
		return auth.DecisionUnauthenticated.Err()
	}

	users, err := h.users.GetAll(c.UserContext(), principal)
	if err != nil {
		return err
	}
	out := make([]UserOutput, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserOutput(u))
	}
	return c.JSON(out)
}

func (h *handlers) mock(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"path":   c.Path(),
	})
}
