// Package tasks exposes the task CRUD routes: a self-service surface
// scoped to the caller's own tasks and an admin surface over all of them.
package tasks

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/tasktrack/tasktrack"
)

// CreateTaskRequest is the admin task creation payload.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	AuthorID    string `json:"author_id"`
	AssigneeID  string `json:"assignee_id"`
}

func (r CreateTaskRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Status, validation.In(
			tasktrack.TaskStatusPending, tasktrack.TaskStatusInProgress, tasktrack.TaskStatusCompleted)),
		validation.Field(&r.Priority, validation.In(
			tasktrack.TaskPriorityLow, tasktrack.TaskPriorityMedium, tasktrack.TaskPriorityHigh)),
	)
}

// UpdateTaskRequest is the task update payload; empty fields are left
// untouched.
type UpdateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	AssigneeID  string `json:"assignee_id"`
}

func (r UpdateTaskRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Length(1, 200)),
		validation.Field(&r.Status, validation.In(
			tasktrack.TaskStatusPending, tasktrack.TaskStatusInProgress, tasktrack.TaskStatusCompleted)),
		validation.Field(&r.Priority, validation.In(
			tasktrack.TaskPriorityLow, tasktrack.TaskPriorityMedium, tasktrack.TaskPriorityHigh)),
	)
}

// Controller serves task routes.
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
// be rooted at /tasks. Admin routes register first so the :id param route
// does not shadow them.
func (c *Controller) RegisterRoutes(group tasktrack.RouteRegistrar) {
	group.Get("/admin", c.AdminList)
	group.Post("/admin", c.AdminCreate)
	group.Get("/admin/:id", c.AdminShow)
	group.Put("/admin/:id", c.AdminUpdate)
	group.Delete("/admin/:id", c.AdminDelete)
	group.Get("/", c.List)
	group.Get("/:id", c.Show)
	group.Put("/:id", c.Update)
}

// List returns tasks the caller authored or is assigned to.
func (c *Controller) List(ctx router.Context) error {
	_, userID, err := currentUser(ctx)
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	limit, offset := tasktrack.Pagination(ctx)

	records, total, err := c.repo.Tasks().ListForUser(ctx.Context(), userID, limit, offset)
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"items": records,
		"total": total,
	})
}

// Show returns one of the caller's tasks.
func (c *Controller) Show(ctx router.Context) error {
	_, userID, err := currentUser(ctx)
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	task, err := c.loadOwnedTask(ctx, userID)
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, task)
}

// Update modifies one of the caller's tasks.
func (c *Controller) Update(ctx router.Context) error {
	_, userID, err := currentUser(ctx)
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	task, err := c.loadOwnedTask(ctx, userID)
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	return c.applyUpdate(ctx, task)
}

// AdminList returns all tasks, optionally filtered by status, priority,
// author, and assignee query params.
func (c *Controller) AdminList(ctx router.Context) error {
	limit, offset := tasktrack.Pagination(ctx)

	filters := tasktrack.TaskFilters{
		Status:   ctx.Query("status"),
		Priority: ctx.Query("priority"),
		Limit:    limit,
		Offset:   offset,
	}

	if filters.Status != "" && !tasktrack.ValidTaskStatus(filters.Status) {
		return tasktrack.RespondError(ctx, errors.New("unknown status filter", errors.CategoryBadInput))
	}
	if filters.Priority != "" && !tasktrack.ValidTaskPriority(filters.Priority) {
		return tasktrack.RespondError(ctx, errors.New("unknown priority filter", errors.CategoryBadInput))
	}

	if raw := ctx.Query("author"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return tasktrack.RespondError(ctx, errors.Wrap(err, errors.CategoryBadInput, "invalid author filter"))
		}
		filters.AuthorID = &id
	}

	if raw := ctx.Query("assignee"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return tasktrack.RespondError(ctx, errors.Wrap(err, errors.CategoryBadInput, "invalid assignee filter"))
		}
		filters.AssigneeID = &id
	}

	records, total, err := c.repo.Tasks().ListFiltered(ctx.Context(), filters)
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"items": records,
		"total": total,
	})
}

// AdminCreate creates a task on behalf of any author. The caller becomes
// the author unless the payload names one.
func (c *Controller) AdminCreate(ctx router.Context) error {
	_, callerID, err := currentUser(ctx)
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	payload := &CreateTaskRequest{}
	if err := ctx.Bind(payload); err != nil {
		return tasktrack.RespondError(ctx, errors.Wrap(err, errors.CategoryBadInput, "invalid task payload"))
	}

	if err := payload.Validate(); err != nil {
		return tasktrack.RespondError(ctx, errors.Wrap(err, errors.CategoryValidation, err.Error()))
	}

	task := &tasktrack.Task{
		Title:       payload.Title,
		Description: payload.Description,
		Status:      payload.Status,
		Priority:    payload.Priority,
		AuthorID:    callerID,
	}

	if payload.AuthorID != "" {
		authorID, err := uuid.Parse(payload.AuthorID)
		if err != nil {
			return tasktrack.RespondError(ctx, errors.Wrap(err, errors.CategoryBadInput, "invalid author_id"))
		}
		task.AuthorID = authorID
	}

	if payload.AssigneeID != "" {
		assigneeID, err := uuid.Parse(payload.AssigneeID)
		if err != nil {
			return tasktrack.RespondError(ctx, errors.Wrap(err, errors.CategoryBadInput, "invalid assignee_id"))
		}
		task.AssigneeID = &assigneeID
	}

	created, err := c.repo.Tasks().Create(ctx.Context(), task)
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, created)
}

// AdminShow returns any task by id, no ownership check.
func (c *Controller) AdminShow(ctx router.Context) error {
	id, err := taskIDParam(ctx)
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	task, err := c.repo.Tasks().GetByID(ctx.Context(), id.String())
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, task)
}

// AdminUpdate modifies any task by id.
func (c *Controller) AdminUpdate(ctx router.Context) error {
	id, err := taskIDParam(ctx)
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	task, err := c.repo.Tasks().GetByID(ctx.Context(), id.String())
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	return c.applyUpdate(ctx, task)
}

// AdminDelete removes any task by id.
func (c *Controller) AdminDelete(ctx router.Context) error {
	id, err := taskIDParam(ctx)
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	if err := c.repo.Tasks().DeleteByID(ctx.Context(), id); err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "deleted",
	})
}

func (c *Controller) loadOwnedTask(ctx router.Context, userID uuid.UUID) (*tasktrack.Task, error) {
	id, err := taskIDParam(ctx)
	if err != nil {
		return nil, err
	}

	task, err := c.repo.Tasks().GetByID(ctx.Context(), id.String())
	if err != nil {
		return nil, err
	}

	if !task.BelongsToUser(userID) {
		return nil, tasktrack.ErrNotTaskOwner
	}

	return task, nil
}

func (c *Controller) applyUpdate(ctx router.Context, task *tasktrack.Task) error {
	payload := &UpdateTaskRequest{}
	if err := ctx.Bind(payload); err != nil {
		return tasktrack.RespondError(ctx, errors.Wrap(err, errors.CategoryBadInput, "invalid task payload"))
	}

	if err := payload.Validate(); err != nil {
		return tasktrack.RespondError(ctx, errors.Wrap(err, errors.CategoryValidation, err.Error()))
	}

	if payload.Title != "" {
		task.Title = payload.Title
	}
	if payload.Description != "" {
		task.Description = payload.Description
	}
	if payload.Status != "" {
		task.Status = payload.Status
	}
	if payload.Priority != "" {
		task.Priority = payload.Priority
	}
	if payload.AssigneeID != "" {
		assigneeID, err := uuid.Parse(payload.AssigneeID)
		if err != nil {
			return tasktrack.RespondError(ctx, errors.Wrap(err, errors.CategoryBadInput, "invalid assignee_id"))
		}
		task.AssigneeID = &assigneeID
	}

	updated, err := c.repo.Tasks().Update(ctx.Context(), task)
	if err != nil {
		return tasktrack.RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, updated)
}

func taskIDParam(ctx router.Context) (uuid.UUID, error) {
	raw := ctx.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, errors.CategoryBadInput, "invalid task id").
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
