package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"

	server "github.com/kazz187/agentboard/internal"
	"github.com/kazz187/agentboard/internal/agent"
	agentrepo "github.com/kazz187/agentboard/internal/agent/repositoryimpl"
	"github.com/kazz187/agentboard/internal/auth"
	authrepo "github.com/kazz187/agentboard/internal/auth/repositoryimpl"
	"github.com/kazz187/agentboard/internal/config"
	"github.com/kazz187/agentboard/internal/db"
	"github.com/kazz187/agentboard/internal/eventbus"
	"github.com/kazz187/agentboard/internal/rpc"
	"github.com/kazz187/agentboard/internal/session"
	"github.com/kazz187/agentboard/internal/task"
	taskrepo "github.com/kazz187/agentboard/internal/task/repositoryimpl"
	"github.com/kazz187/agentboard/internal/watch"
	"github.com/kazz187/agentboard/internal/web"
	"github.com/kazz187/agentboard/pkg/clog"
	"github.com/kazz187/agentboard/pkg/panicerr"
	"github.com/kazz187/agentboard/pkg/storage"
)

type repositories struct {
	tasks  task.Repository
	agents agent.Repository
	users  auth.UserRepository
	// local is set when blobs live on the local filesystem.
	local *storage.LocalStorage
	db    *sql.DB
}

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	repos, err := setupRepositories(ctx, env)
	if err != nil {
		slog.Error("failed to set up persistence", "backend", env.Backend, "error", err)
		os.Exit(1)
	}
	if repos.db != nil {
		defer repos.db.Close()
	}

	bus := eventbus.New()
	sessions := session.NewManager(repos.tasks, repos.agents, bus, env.IdleTTL)
	authService := auth.NewService(
		repos.users,
		auth.NewTokens(env.JWTSecret, env.TokenTTL),
		auth.NewLoginLimiter(env.LoginRatePerMinute),
		env.AuthEnv.Enabled,
	)
	if !authService.Enabled() {
		slog.Warn("authentication is disabled, every request uses the local user")
	}

	webHandler, err := web.NewHandler(sessions, authService, bus)
	if err != nil {
		slog.Error("failed to set up web handler", "error", err)
		os.Exit(1)
	}

	srv := server.NewServer(
		env,
		authService,
		webHandler,
		rpc.NewTaskServer(sessions),
		rpc.NewAgentServer(sessions),
		rpc.NewBoardServer(sessions, bus),
	)

	var wg conc.WaitGroup
	if repos.local != nil && env.StorageEnv.Watch {
		w := watch.New(repos.local.BasePath(), repos.local, func(userID string) {
			sessions.Invalidate(userID)
		})
		wg.Go(panicerr.Logged(ctx, "storage watcher", w.Run))
	}

	wg.Go(func() {
		if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			cancel()
		}
	})

	<-ctx.Done()
	slog.Info("shutting down server")

	// Give active connections time to finish after stream contexts are cancelled.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	wg.Wait()
}

func setupRepositories(ctx context.Context, env *config.Env) (*repositories, error) {
	if env.Backend == config.BackendPostgres {
		conn, err := db.Connect(ctx, env.DatabaseEnv.URL)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return &repositories{
			tasks:  taskrepo.NewPostgresRepository(conn),
			agents: agentrepo.NewPostgresRepository(conn),
			users:  authrepo.NewPostgresRepository(conn),
			db:     conn,
		}, nil
	}

	repos := &repositories{}
	var store storage.Storage
	switch env.StorageEnv.Type {
	case "s3":
		s3, err := storage.NewS3Storage(ctx, env.S3Bucket, env.S3Prefix, env.S3Region)
		if err != nil {
			return nil, err
		}
		store = s3
	default:
		local, err := storage.NewLocalStorage(env.BaseDir)
		if err != nil {
			return nil, err
		}
		store = local
		repos.local = local
	}
	repos.tasks = taskrepo.NewBlobRepository(store)
	repos.agents = agentrepo.NewBlobRepository(store)
	repos.users = authrepo.NewBlobRepository(store)
	return repos, nil
}
