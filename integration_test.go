package tasktrack_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasktrack/tasktrack"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

var testDBCounter atomic.Int64

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:test%d?mode=memory&cache=shared", testDBCounter.Add(1))
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	for _, model := range []any{
		(*tasktrack.User)(nil),
		(*tasktrack.Task)(nil),
		(*tasktrack.Comment)(nil),
	} {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}

	return db
}

func registerUser(t *testing.T, repo tasktrack.RepositoryManager, email, password, role string) *tasktrack.User {
	t.Helper()

	var created *tasktrack.User
	handler := tasktrack.NewRegisterUserHandler(repo)
	handler.OnResponse = func(u *tasktrack.User) { created = u }

	err := handler.Execute(context.Background(), tasktrack.RegisterUserMessage{
		Name:     "Test User",
		Email:    email,
		Password: password,
		Role:     role,
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	return created
}

func TestRegisterUserHandler(t *testing.T) {
	db := newTestDB(t)
	repo := tasktrack.NewRepositoryManager(db)

	t.Run("creates the user with a hashed password", func(t *testing.T) {
		created := registerUser(t, repo, "alice@example.com", "secret", tasktrack.RoleUser)

		assert.NotEqual(t, uuid.Nil, created.ID)
		assert.Equal(t, tasktrack.RoleUser, created.Role)
		assert.NotEqual(t, "secret", created.PasswordHash)
		assert.NoError(t, tasktrack.ComparePasswordAndHash("secret", created.PasswordHash))
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		handler := tasktrack.NewRegisterUserHandler(repo)
		err := handler.Execute(context.Background(), tasktrack.RegisterUserMessage{
			Name:     "Imposter",
			Email:    "alice@example.com",
			Password: "other-secret",
			Role:     tasktrack.RoleUser,
		})
		require.Error(t, err)
		assert.True(t, goerrors.Is(err, tasktrack.ErrUserAlreadyExists))
	})

	t.Run("invalid phone number is rejected", func(t *testing.T) {
		handler := tasktrack.NewRegisterUserHandler(repo)
		err := handler.Execute(context.Background(), tasktrack.RegisterUserMessage{
			Name:     "Bob",
			Email:    "bob@example.com",
			Phone:    "not-a-phone",
			Password: "secret",
			Role:     tasktrack.RoleUser,
		})
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, "INVALID_PHONE", richErr.TextCode)
	})
}

func TestLoginFlow(t *testing.T) {
	db := newTestDB(t)
	repo := tasktrack.NewRepositoryManager(db)
	repo.MustValidate()

	registerUser(t, repo, "alice@example.com", "secret", tasktrack.RoleUser)

	provider := tasktrack.NewUserProvider(repo.Users())
	auther := tasktrack.NewAuthenticator(provider, testConfig{signingKey: testSigningKey, ttlMillis: 60_000})

	t.Run("register then login then validate", func(t *testing.T) {
		token, err := auther.Login(context.Background(), "alice@example.com", "secret")
		require.NoError(t, err)

		claims, err := auther.TokenService().Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", claims.Subject())

		identity, err := provider.FindIdentityByIdentifier(context.Background(), claims.Subject())
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", identity.Email())
		assert.Equal(t, tasktrack.RoleUser, identity.Role())
	})

	t.Run("wrong password fails closed", func(t *testing.T) {
		_, err := auther.Login(context.Background(), "alice@example.com", "wrong")
		require.Error(t, err)
		assert.True(t, goerrors.Is(err, tasktrack.ErrInvalidCredentials))
	})
}

func TestUsersRepository(t *testing.T) {
	db := newTestDB(t)
	users := tasktrack.NewUsersRepository(db)
	ctx := context.Background()

	alice, err := users.Create(ctx, &tasktrack.User{
		Name: "Alice", Email: "alice@example.com", PasswordHash: "x",
	})
	require.NoError(t, err)

	t.Run("defaults the role to USER", func(t *testing.T) {
		assert.Equal(t, tasktrack.RoleUser, alice.Role)
	})

	t.Run("finds by email and by id", func(t *testing.T) {
		byEmail, err := users.GetByIdentifier(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, byEmail.ID)

		byID, err := users.GetByIdentifier(ctx, alice.ID.String())
		require.NoError(t, err)
		assert.Equal(t, alice.Email, byID.Email)
	})

	t.Run("unknown identifier is record not found", func(t *testing.T) {
		_, err := users.GetByIdentifier(ctx, "nobody@example.com")
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})

	t.Run("list and delete", func(t *testing.T) {
		_, err := users.Create(ctx, &tasktrack.User{
			Name: "Bob", Email: "bob@example.com", PasswordHash: "x",
		})
		require.NoError(t, err)

		records, total, err := users.ListPage(ctx, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, records, 2)

		require.NoError(t, users.DeleteByID(ctx, alice.ID))

		_, total, err = users.ListPage(ctx, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("criteria list still comes from the embedded repository", func(t *testing.T) {
		records, total, err := users.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Len(t, records, 1)
	})
}

func TestTasksRepository(t *testing.T) {
	db := newTestDB(t)
	users := tasktrack.NewUsersRepository(db)
	tasks := tasktrack.NewTasksRepository(db)
	ctx := context.Background()

	alice, err := users.Create(ctx, &tasktrack.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	bob, err := users.Create(ctx, &tasktrack.User{Name: "Bob", Email: "bob@example.com", PasswordHash: "x"})
	require.NoError(t, err)

	mk := func(title, status, priority string, author uuid.UUID, assignee *uuid.UUID) *tasktrack.Task {
		task, err := tasks.Create(ctx, &tasktrack.Task{
			Title:      title,
			Status:     status,
			Priority:   priority,
			AuthorID:   author,
			AssigneeID: assignee,
		})
		require.NoError(t, err)
		return task
	}

	mk("write spec", tasktrack.TaskStatusPending, tasktrack.TaskPriorityHigh, alice.ID, nil)
	mk("review spec", tasktrack.TaskStatusInProgress, tasktrack.TaskPriorityMedium, alice.ID, &bob.ID)
	mk("ship it", tasktrack.TaskStatusCompleted, tasktrack.TaskPriorityHigh, bob.ID, &alice.ID)

	t.Run("defaults status and priority", func(t *testing.T) {
		task, err := tasks.Create(ctx, &tasktrack.Task{Title: "untriaged", AuthorID: bob.ID})
		require.NoError(t, err)
		assert.Equal(t, tasktrack.TaskStatusPending, task.Status)
		assert.Equal(t, tasktrack.TaskPriorityMedium, task.Priority)
		require.NoError(t, tasks.DeleteByID(ctx, task.ID))
	})

	t.Run("filters by status", func(t *testing.T) {
		records, total, err := tasks.ListFiltered(ctx, tasktrack.TaskFilters{Status: tasktrack.TaskStatusPending})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, records, 1)
		assert.Equal(t, "write spec", records[0].Title)
	})

	t.Run("filters compose", func(t *testing.T) {
		_, total, err := tasks.ListFiltered(ctx, tasktrack.TaskFilters{
			Priority: tasktrack.TaskPriorityHigh,
			AuthorID: &alice.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("pagination caps results but reports the full count", func(t *testing.T) {
		records, total, err := tasks.ListFiltered(ctx, tasktrack.TaskFilters{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Len(t, records, 2)
	})

	t.Run("lists tasks authored or assigned", func(t *testing.T) {
		records, total, err := tasks.ListForUser(ctx, alice.ID, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Len(t, records, 3)

		_, total, err = tasks.ListForUser(ctx, bob.ID, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
	})

	t.Run("delete of a missing task is record not found", func(t *testing.T) {
		err := tasks.DeleteByID(ctx, uuid.New())
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})
}

func TestCommentsRepository(t *testing.T) {
	db := newTestDB(t)
	users := tasktrack.NewUsersRepository(db)
	tasks := tasktrack.NewTasksRepository(db)
	comments := tasktrack.NewCommentsRepository(db)
	ctx := context.Background()

	alice, err := users.Create(ctx, &tasktrack.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "x"})
	require.NoError(t, err)

	task, err := tasks.Create(ctx, &tasktrack.Task{Title: "write spec", AuthorID: alice.ID})
	require.NoError(t, err)

	earlier := time.Now().Add(-time.Minute)
	later := time.Now()

	first, err := comments.Create(ctx, &tasktrack.Comment{Body: "first", TaskID: task.ID, UserID: alice.ID, CreatedAt: &earlier})
	require.NoError(t, err)
	_, err = comments.Create(ctx, &tasktrack.Comment{Body: "second", TaskID: task.ID, UserID: alice.ID, CreatedAt: &later})
	require.NoError(t, err)

	t.Run("lists by task oldest first", func(t *testing.T) {
		records, total, err := comments.ListByTask(ctx, task.ID, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, records, 2)
		assert.Equal(t, "first", records[0].Body)
	})

	t.Run("ownership helper", func(t *testing.T) {
		assert.True(t, first.BelongsToUser(alice.ID))
		assert.False(t, first.BelongsToUser(uuid.New()))
	})

	t.Run("delete removes the comment", func(t *testing.T) {
		require.NoError(t, comments.DeleteByID(ctx, first.ID))

		_, total, err := comments.ListByTask(ctx, task.ID, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})
}
