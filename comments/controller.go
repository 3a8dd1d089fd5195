// Package comments exposes the comment routes: users comment on tasks
// they can see and may delete only their own comments; admins moderate
// everything.
package comments

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/tasktrack/tasktrack"
)

// CreateCommentRequest is the comment creation payload.
type CreateCommentRequest struct {
	Body   string `json:"body"`
	TaskID string `json:"task_id"`
}

func (r CreateCommentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Body, validation.Required, validation.Length(1, 2000)),
		validation.Field(&r.TaskID, validation.Required),
	)
}

// Controller serves comment routes.
type Controller struct {
	repo   tasktrack.RepositoryManager
	logger tasktrack.Logger
}

func NewController(repo tasktrack.RepositoryManager) *Controller {
	return &Controller{
		repo:   repo,
		logger: tasktrack.NoopLogger{},
	}
}

func (c *Controller) WithLogger(l tasktrack.Logger) *Controller {
	if l != nil {
		c.logger = l
	}
	return c
}

// RegisterRoutes mounts the controller under the given group, expected to
// be rooted at /comments.
func (c *Controller) RegisterRoutes(group tasktrack.RouteRegistrar) {
	group.Get("/admin/task/:taskId", c.AdminListByTask)
	group.Delete("/admin/:id", c.AdminDelete)
	group.Get("/task/:taskId", c.ListByTask)
	group.Post("/", c.Create)
	group.Delete("/me/:id", c.DeleteOwn)
}

// Create attaches a comment to one of the caller's tasks.
func (c *Controller) Create(ctx router.Context) error {
	identity, userID, err := currentUser(ctx)
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	payload := &CreateCommentRequest{}
	if err := ctx.Bind(payload); err != nil {
		return tasktrack.RespondError(ctx, errors.Wrap(err, errors.CategoryBadInput, "invalid comment payload"))
	}

	if err := payload.Validate(); err != nil {
		return tasktrack.RespondError(ctx, errors.Wrap(err, errors.CategoryValidation, err.Error()))
	}

	taskID, err := uuid.Parse(payload.TaskID)
	if err != nil {
		return tasktrack.RespondError(ctx, errors.Wrap(err, errors.CategoryBadInput, "invalid task_id"))
	}

	task, err := c.repo.Tasks().GetByID(ctx.Context(), taskID.String())
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	if identity.Role() != tasktrack.RoleAdmin && !task.BelongsToUser(userID) {
		return tasktrack.RespondError(ctx, tasktrack.ErrNotTaskOwner)
	}

	created, err := c.repo.Comments().Create(ctx.Context(), &tasktrack.Comment{
		Body:   payload.Body,
		TaskID: task.ID,
		UserID: userID,
	})
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, created)
}

// ListByTask returns the comments on one of the caller's tasks.
func (c *Controller) ListByTask(ctx router.Context) error {
	identity, userID, err := currentUser(ctx)
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	taskID, err := taskIDParam(ctx)
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	task, err := c.repo.Tasks().GetByID(ctx.Context(), taskID.String())
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	if identity.Role() != tasktrack.RoleAdmin && !task.BelongsToUser(userID) {
		return tasktrack.RespondError(ctx, tasktrack.ErrNotTaskOwner)
	}

	return c.respondComments(ctx, task.ID)
}

// DeleteOwn removes one of the caller's own comments. Anyone else's
// comment is off limits even on the caller's task.
func (c *Controller) DeleteOwn(ctx router.Context) error {
	_, userID, err := currentUser(ctx)
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	id, err := commentIDParam(ctx)
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	comment, err := c.repo.Comments().GetByID(ctx.Context(), id.String())
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	if !comment.BelongsToUser(userID) {
		return tasktrack.RespondError(ctx, tasktrack.ErrNotCommentOwner)
	}

	if err := c.repo.Comments().DeleteByID(ctx.Context(), comment.ID); err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "deleted",
	})
}

// AdminListByTask returns any task's comments.
func (c *Controller) AdminListByTask(ctx router.Context) error {
	taskID, err := taskIDParam(ctx)
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	return c.respondComments(ctx, taskID)
}

// AdminDelete removes any comment by id.
func (c *Controller) AdminDelete(ctx router.Context) error {
	id, err := commentIDParam(ctx)
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	if err := c.repo.Comments().DeleteByID(ctx.Context(), id); err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "deleted",
	})
}

func (c *Controller) respondComments(ctx router.Context, taskID uuid.UUID) error {
	limit, offset := tasktrack.Pagination(ctx)

	records, total, err := c.repo.Comments().ListByTask(ctx.Context(), taskID, limit, offset)
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"items": records,
		"total": total,
	})
}

func taskIDParam(ctx router.Context) (uuid.UUID, error) {
	raw := ctx.Param("taskId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, errors.CategoryBadInput, "invalid task id").
			WithMetadata(map[string]any{"task_id": raw})
	}
	return id, nil
}

func commentIDParam(ctx router.Context) (uuid.UUID, error) {
	raw := ctx.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, errors.CategoryBadInput, "invalid comment id").
			WithMetadata(map[string]any{"id": raw})
	}
	return id, nil
}

func currentUser(ctx router.Context) (tasktrack.Identity, uuid.UUID, error) {
	identity, ok := tasktrack.IdentityFromRouterContext(ctx, "")
	if !ok {
		return nil, uuid.Nil, tasktrack.ErrInvalidCredentials
	}

	userID, err := uuid.Parse(identity.ID())
	if err != nil {
		return nil, uuid.Nil, errors.Wrap(err, errors.CategoryInternal, "identity carries a malformed id")
	}

	return identity, userID, nil
}
