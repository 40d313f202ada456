package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"live-trivia-service/internal/config"
	"live-trivia-service/internal/domain"
	"live-trivia-service/internal/infra/memory"
	"live-trivia-service/internal/infra/postgres"
	infraredis "live-trivia-service/internal/infra/redis"
)

// NewImportCmd loads a YAML quiz library into Postgres.
func NewImportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <library.yaml>",
		Short: "Validate a quiz library file and store it in Postgres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			setupLogger(cfg.Log.Level, cfg.Log.Format)
			return runImport(cmd.Context(), cfg, args[0])
		},
	}
}

func runImport(ctx context.Context, cfg config.Config, path string) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	library, err := memory.LoadLibraryFile(path, quizLimits(cfg))
	if err != nil {
		return err
	}
	quizzes := make([]domain.Quiz, 0, len(library))
	for _, quiz := range library {
		quizzes = append(quizzes, quiz)
	}
	sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].ID < quizzes[j].ID })

	db := openBun(cfg.Postgres.URL)
	defer db.Close()
	if err := runMigrations(ctx, db); err != nil {
		return err
	}
	if err := postgres.NewQuizLibrary(db).Upsert(ctx, quizzes); err != nil {
		return err
	}

	// drop stale cached copies so running servers pick up the new content
	if cfg.Redis.Addr != "" {
		client := newRedisClient(cfg)
		defer client.Close()
		cache := infraredis.NewQuizRepository(client, nil, 0)
		for _, quiz := range quizzes {
			if err := cache.Invalidate(ctx, quiz.ID); err != nil {
				slog.Warn("invalidate cached quiz", "quizId", quiz.ID, "error", err)
			}
		}
	}

	slog.Info("quiz library imported", "path", path, "quizzes", len(quizzes))
	return nil
}

func newRedisClient(cfg config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func quizLimits(cfg config.Config) domain.QuizLimits {
	return domain.QuizLimits{
		MinTimeLimit: cfg.Game.MinTimeLimit,
		MaxTimeLimit: cfg.Game.MaxTimeLimit,
		MaxQuestions: cfg.Game.MaxQuestions,
	}
}
