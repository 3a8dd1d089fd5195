package tasktrack

import (
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// UpdateUserRequest is the payload for self-service and admin updates.
// Empty fields are left untouched.
type UpdateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(1, 120)),
		validation.Field(&r.Email, is.Email),
	)
}

// UsersController serves user self-service routes plus the admin CRUD
// subtree. The access policy keeps /users/admin/** behind the ADMIN role;
// /me routes enforce authentication themselves since /users/** is public
// for registration flows.
type UsersController struct {
	Logger Logger
	Repo   RepositoryManager
}

func NewUsersController(repo RepositoryManager) *UsersController {
	return &UsersController{
		Logger: defLogger{},
		Repo:   repo,
	}
}

func (c *UsersController) WithLogger(l Logger) *UsersController {
	if l != nil {
		c.Logger = l
	}
	return c
}

// RegisterRoutes mounts the controller under the given group, expected to
// be rooted at /users.
func (c *UsersController) RegisterRoutes(group RouteRegistrar) {
	group.Get("/me", c.Me)
	group.Put("/me", c.UpdateMe)
	group.Get("/admin", c.AdminList)
	group.Get("/admin/:id", c.AdminShow)
	group.Put("/admin/:id", c.AdminUpdate)
	group.Delete("/admin/:id", c.AdminDelete)
}

// Me returns the caller's own record.
func (c *UsersController) Me(ctx router.Context) error {
	identity, ok := IdentityFromRouterContext(ctx, "")
	if !ok {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error":   "Unauthorized",
			"message": "authentication required",
		})
	}

	user, err := c.Repo.Users().GetByIdentifier(ctx.Context(), identity.Email())
	if err != nil {
		return RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, user)
}

// UpdateMe updates the caller's own record.
func (c *UsersController) UpdateMe(ctx router.Context) error {
	identity, ok := IdentityFromRouterContext(ctx, "")
	if !ok {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error":   "Unauthorized",
			"message": "authentication required",
		})
	}

	user, err := c.Repo.Users().GetByIdentifier(ctx.Context(), identity.Email())
	if err != nil {
		return RespondError(ctx, err)
	}

	return c.applyUpdate(ctx, user)
}

// AdminList returns every user, paginated with page/size query params.
func (c *UsersController) AdminList(ctx router.Context) error {
	limit, offset := Pagination(ctx)

	records, total, err := c.Repo.Users().ListPage(ctx.Context(), limit, offset)
	if err != nil {
		return RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"items": records,
		"total": total,
	})
}

// AdminShow returns a single user by id.
func (c *UsersController) AdminShow(ctx router.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	user, err := c.Repo.Users().GetByID(ctx.Context(), id.String())
	if err != nil {
		return RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, user)
}

// AdminUpdate updates any user by id.
func (c *UsersController) AdminUpdate(ctx router.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	user, err := c.Repo.Users().GetByID(ctx.Context(), id.String())
	if err != nil {
		return RespondError(ctx, err)
	}

	return c.applyUpdate(ctx, user)
}

// AdminDelete removes a user by id.
func (c *UsersController) AdminDelete(ctx router.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	if err := c.Repo.Users().DeleteByID(ctx.Context(), id); err != nil {
		return RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "deleted",
	})
}

func (c *UsersController) applyUpdate(ctx router.Context, user *User) error {
	payload := &UpdateUserRequest{}
	if err := ctx.Bind(payload); err != nil {
		return RespondError(ctx, errors.Wrap(err, errors.CategoryBadInput, "invalid user payload"))
	}

	if err := payload.Validate(); err != nil {
		return RespondError(ctx, errors.Wrap(err, errors.CategoryValidation, err.Error()))
	}

	if payload.Name != "" {
		user.Name = payload.Name
	}
	if payload.Email != "" {
		user.Email = payload.Email
	}
	if payload.Phone != "" {
		user.Phone = payload.Phone
	}

	updated, err := c.Repo.Users().Update(ctx.Context(), user, repository.UpdateByID(user.ID.String()))
	if err != nil {
		return RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, updated)
}

func parseIDParam(ctx router.Context) (uuid.UUID, error) {
	raw := ctx.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, errors.CategoryBadInput, "invalid id").
			WithMetadata(map[string]any{"id": raw})
	}
	return id, nil
}

// Pagination reads page/size query params, defaulting to the first page
// of 20 and capping size at 100.
func Pagination(ctx router.Context) (limit, offset int) {
	page := queryInt(ctx, "page", 0)
	size := queryInt(ctx, "size", 20)

	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	if page < 0 {
		page = 0
	}

	return size, page * size
}

func queryInt(ctx router.Context, key string, def int) int {
	raw := ctx.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
