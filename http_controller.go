package tasktrack

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// RegisterRequest is the registration payload
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 0)),
	)
}

// AuthController serves registration, login, and the auth probe routes.
type AuthController struct {
	Debug  bool
	Logger Logger
	Repo   RepositoryManager
	Auther Authenticator
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

func WithAuthControllerLogger(l Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = l
		return c
	}
}

func WithAuthControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithAuthControllerAuther(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

// RegisterRoutes mounts the controller under the given group, expected to
// be rooted at /auth.
func (c *AuthController) RegisterRoutes(group RouteRegistrar) {
	group.Post("/register", c.Register)
	group.Post("/login", c.Login)
	group.Get("/test", c.Probe)
	group.Get("/admin/test", c.AdminProbe)
}

// Register creates a new account. No token is issued; the client logs in
// afterwards.
func (c *AuthController) Register(ctx router.Context) error {
	payload := &RegisterRequest{}
	if err := ctx.Bind(payload); err != nil {
		return RespondError(ctx, errors.Wrap(err, errors.CategoryBadInput, "invalid registration payload"))
	}

	if err := payload.Validate(); err != nil {
		return RespondError(ctx, errors.Wrap(err, errors.CategoryValidation, err.Error()))
	}

	if c.Debug {
		c.Logger.Debug("register payload %s", print.MaybeHighlightJSON(payload))
	}

	var created *User
	handler := NewRegisterUserHandler(c.Repo)
	handler.OnResponse = func(u *User) {
		created = u
	}

	if err := handler.Execute(ctx.Context(), RegisterUserMessage{
		Name:     payload.Name,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Password: payload.Password,
		Role:     RoleUser,
	}); err != nil {
		return RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"id":    created.ID,
		"email": created.Email,
		"name":  created.Name,
	})
}

// Login verifies the credentials and returns a signed token.
func (c *AuthController) Login(ctx router.Context) error {
	payload := &LoginRequest{}
	if err := ctx.Bind(payload); err != nil {
		return RespondError(ctx, errors.Wrap(err, errors.CategoryBadInput, "invalid login payload"))
	}

	if err := payload.Validate(); err != nil {
		return RespondError(ctx, errors.Wrap(err, errors.CategoryValidation, err.Error()))
	}

	token, err := c.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"token": token,
	})
}

// Probe reports the caller's resolved identity, or anonymous. The route is
// public; it exists so clients can check what the backend sees.
func (c *AuthController) Probe(ctx router.Context) error {
	identity, ok := IdentityFromRouterContext(ctx, "")
	if !ok {
		return ctx.JSON(router.StatusOK, map[string]any{
			"authenticated": false,
		})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"authenticated": true,
		"email":         identity.Email(),
		"role":          identity.Role(),
	})
}

// AdminProbe only answers for admins; the access policy guards the route.
func (c *AuthController) AdminProbe(ctx router.Context) error {
	identity, ok := IdentityFromRouterContext(ctx, "")
	if !ok {
		return RespondError(ctx, ErrInvalidCredentials)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "admin access confirmed",
		"email":   identity.Email(),
	})
}
