package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"

	"live-trivia-service/internal/app"
	"live-trivia-service/internal/config"
	"live-trivia-service/internal/hub"
	"live-trivia-service/internal/infra/memory"
	"live-trivia-service/internal/infra/postgres"
	infraredis "live-trivia-service/internal/infra/redis"
	transport "live-trivia-service/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = newRedisClient(cfg)
		defer redisClient.Close()
	}

	var (
		pool  *pgxpool.Pool
		bunDB *bun.DB
	)
	if cfg.Postgres.URL != "" {
		bunDB = openBun(cfg.Postgres.URL)
		defer bunDB.Close()
		if err := runMigrations(ctx, bunDB); err != nil {
			return err
		}
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	loader, err := quizLoader(cfg, pool)
	if err != nil {
		return err
	}
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = infraredis.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var (
		store      app.SessionStore
		redisStore *infraredis.SessionStore
	)
	if redisClient != nil {
		redisStore = infraredis.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute), uuid.NewString())
		store = redisStore
	} else {
		store = memory.NewSessionStore()
	}

	var archive app.ResultArchive = memory.NewResultArchive(cfg.Results.Keep)
	if bunDB != nil {
		archive = postgres.NewResultArchive(bunDB)
	}

	gateway := hub.New()
	directory := app.NewDirectory(store, clockwork.NewRealClock(), app.NewPublisher(gateway, archive), directoryConfig(cfg))
	router := app.NewRouter(directory, memory.NewConnectionRegistry(), gateway, quizRepo)

	server := &http.Server{
		Addr: ":" + finalPort,
		Handler: transport.NewRouter(
			transport.NewWSHandler(gateway, router),
			transport.NewAPI(directory, gateway, archive),
			cfg.Server.AllowedOrigins,
		),
		ReadHeaderTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting trivia service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		runJanitor(gctx, config.TTLDuration(cfg.Game.SweepInterval, time.Minute), router, redisStore)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// runJanitor sweeps stale games and keeps redis code reservations alive.
func runJanitor(ctx context.Context, interval time.Duration, router *app.Router, redisStore *infraredis.SessionStore) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := router.Sweep(); n > 0 {
				slog.Info("swept stale games", "count", n)
			}
			if redisStore != nil {
				if err := redisStore.Refresh(ctx); err != nil {
					slog.Warn("refresh game code reservations", "error", err)
				}
			}
		}
	}
}

func quizLoader(cfg config.Config, pool *pgxpool.Pool) (memory.QuizLoader, error) {
	if pool != nil {
		return postgres.NewQuizLoader(pool), nil
	}
	if cfg.Quiz.Library == "" {
		return memory.NewStaticQuizLoader(nil), nil
	}
	library, err := memory.LoadLibraryFile(cfg.Quiz.Library, quizLimits(cfg))
	if err != nil {
		return nil, err
	}
	slog.Info("quiz library loaded", "path", cfg.Quiz.Library, "quizzes", len(library))
	return memory.NewStaticQuizLoader(library), nil
}

func directoryConfig(cfg config.Config) app.DirectoryConfig {
	return app.DirectoryConfig{
		CodeLength: cfg.Game.CodeLength,
		Limits:     quizLimits(cfg),
		Session: app.Settings{
			ResultsDelay:         config.TTLDuration(cfg.Game.ResultsDelay, app.DefaultResultsDelay),
			CloseWhenAllAnswered: cfg.Game.CloseWhenAllAnswered,
		},
		LobbyTTL:    config.TTLDuration(cfg.Game.LobbyTTL, 2*time.Hour),
		FinishedTTL: config.TTLDuration(cfg.Game.FinishedTTL, 10*time.Minute),
	}
}
