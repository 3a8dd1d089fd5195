package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-router"
	"github.com/tasktrack/tasktrack"
	"github.com/tasktrack/tasktrack/comments"
	"github.com/tasktrack/tasktrack/middleware/authware"
	"github.com/tasktrack/tasktrack/tasks"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		panic(err)
	}

	var lgr *glog.BaseLogger
	if cfg.LogLevel == "debug" || cfg.LogLevel == "trace" {
		lgr = glog.NewLogger(
			glog.WithLoggerTypePretty(),
			glog.WithLevel(glog.Trace),
			glog.WithName("tasktrackd"),
			glog.WithAddSource(false),
			glog.WithRichErrorHandler(errors.ToSlogAttributes),
		)
	} else {
		lgr = glog.NewLogger(
			glog.WithLoggerTypePretty(),
			glog.WithName("tasktrackd"),
			glog.WithAddSource(false),
			glog.WithRichErrorHandler(errors.ToSlogAttributes),
		)
	}

	ctx := context.Background()

	db, err := openDatabase(ctx, cfg.DSN)
	if err != nil {
		lgr.GetLogger("db").Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := tasktrack.NewRepositoryManager(db)
	repo.MustValidate()

	userProvider := tasktrack.NewUserProvider(repo.Users()).
		WithLogger(lgr.GetLogger("auth:prv"))

	auther := tasktrack.NewAuthenticator(userProvider, cfg).
		WithLogger(lgr.GetLogger("auth:authn"))

	if err := seedAdmin(ctx, cfg, repo, lgr.GetLogger("seed")); err != nil {
		lgr.GetLogger("seed").Error("failed to seed admin account", "error", err)
		os.Exit(1)
	}

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
			AppName:       "tasktrackd",
		}))
	})

	srv.Router().WithLogger(lgr.GetLogger("router"))

	// Authentication resolves identities but never denies; the policy
	// middleware is the only gate.
	srv.Router().Use(authware.New(authware.Config{
		Validator:   auther.TokenService(),
		Resolver:    userProvider,
		ContextKey:  cfg.GetContextKey(),
		TokenLookup: cfg.GetTokenLookup(),
		AuthScheme:  cfg.GetAuthScheme(),
		Logger:      lgr.GetLogger("auth:ware"),
	}))

	srv.Router().Use(authware.Protect(authware.PolicyConfig{
		Policy:     tasktrack.DefaultAccessPolicy(),
		ContextKey: cfg.GetContextKey(),
		Logger:     lgr.GetLogger("auth:policy"),
	}))

	authController := tasktrack.NewAuthController(
		tasktrack.WithAuthControllerRepo(repo),
		tasktrack.WithAuthControllerAuther(auther),
		tasktrack.WithAuthControllerLogger(lgr.GetLogger("auth:ctrl")),
	)
	authController.RegisterRoutes(srv.Router().Group("/auth"))

	usersController := tasktrack.NewUsersController(repo).
		WithLogger(lgr.GetLogger("users:ctrl"))
	usersController.RegisterRoutes(srv.Router().Group("/users"))

	tasksController := tasks.NewController(repo).
		WithLogger(lgr.GetLogger("tasks:ctrl"))
	tasksController.RegisterRoutes(srv.Router().Group("/tasks"))

	commentsController := comments.NewController(repo).
		WithLogger(lgr.GetLogger("comments:ctrl"))
	commentsController.RegisterRoutes(srv.Router().Group("/comments"))

	lgr.GetLogger("server").Info("listening", "addr", cfg.ListenAddr)
	srv.Serve(cfg.ListenAddr)

	WaitExitSignal()
}

func openDatabase(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	models := []any{
		(*tasktrack.User)(nil),
		(*tasktrack.Task)(nil),
		(*tasktrack.Comment)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return nil, err
		}
	}

	return db, nil
}

// seedAdmin provisions the admin account named in the environment, if any.
// The hashid-derived id keeps the seed idempotent across restarts.
func seedAdmin(ctx context.Context, cfg *AppConfig, repo tasktrack.RepositoryManager, lgr tasktrack.Logger) error {
	if cfg.SeedAdminEmail == "" || cfg.SeedAdminPassword == "" {
		return nil
	}

	if existing, err := repo.Users().GetByIdentifier(ctx, cfg.SeedAdminEmail); err == nil && existing != nil {
		lgr.Debug("admin account already present", "email", cfg.SeedAdminEmail)
		return nil
	}

	handler := tasktrack.NewRegisterUserHandler(repo)
	err := handler.Execute(ctx, tasktrack.RegisterUserMessage{
		Name:      "Administrator",
		Email:     cfg.SeedAdminEmail,
		Password:  cfg.SeedAdminPassword,
		Role:      tasktrack.RoleAdmin,
		UseHashid: true,
	})
	if err != nil {
		return err
	}

	lgr.Info("seeded admin account", "email", cfg.SeedAdminEmail)
	return nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
