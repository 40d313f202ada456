package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"live-trivia-service/internal/app"
	"live-trivia-service/internal/domain"
	"live-trivia-service/internal/hub"
	"live-trivia-service/internal/infra/memory"
	"live-trivia-service/internal/infra/postgres"
	pgmigrations "live-trivia-service/internal/infra/postgres/migrations"
	infraredis "live-trivia-service/internal/infra/redis"
)

// recordingConn is a hub connection that keeps every event it was sent.
type recordingConn struct {
	id     string
	mu     sync.Mutex
	events []wireEvent
}

type wireEvent struct {
	Type    domain.EventType `json:"type"`
	Payload json.RawMessage  `json:"payload"`
}

func (c *recordingConn) ID() string { return c.id }

func (c *recordingConn) Send(data []byte) error {
	var event wireEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *recordingConn) Close() error { return nil }

func (c *recordingConn) last(typ domain.EventType) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.events) - 1; i >= 0; i-- {
		if c.events[i].Type == typ {
			return c.events[i].Payload, true
		}
	}
	return nil, false
}

func (c *recordingConn) has(typ domain.EventType) bool {
	_, ok := c.last(typ)
	return ok
}

func TestLibraryGameIsArchived(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := openBun(pgURL)
	defer db.Close()
	migrateSchema(t, ctx, db)
	require.NoError(t, postgres.NewQuizLibrary(db).Upsert(ctx, []domain.Quiz{capitalsQuiz()}))

	pool, err := pgxpool.Connect(ctx, pgURL)
	require.NoError(t, err)
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	require.NoError(t, err)
	defer redisClient.Close()

	quizzes := infraredis.NewQuizRepository(redisClient, postgres.NewQuizLoader(pool), 5*time.Minute)
	store := infraredis.NewSessionStore(redisClient, 5*time.Minute, "integration")
	archive := postgres.NewResultArchive(db)

	clock := clockwork.NewFakeClock()
	rooms := hub.New()
	directory := app.NewDirectory(store, clock, app.NewPublisher(rooms, archive), app.DirectoryConfig{
		Session: app.DefaultSettings(),
	})
	router := app.NewRouter(directory, memory.NewConnectionRegistry(), rooms, quizzes)

	host := &recordingConn{id: "host"}
	player := &recordingConn{id: "player"}
	rooms.Attach(host)
	rooms.Attach(player)

	send := func(connID string, typ domain.MessageType, payload any) {
		data, err := json.Marshal(map[string]any{"type": typ, "payload": payload})
		require.NoError(t, err)
		router.Dispatch(ctx, connID, data)
	}

	send("host", domain.MessageCreateGame, map[string]string{"quizId": "capitals"})
	raw, ok := host.last(domain.EventGameCreated)
	require.True(t, ok, "game was not created")
	var created domain.GameCreatedPayload
	require.NoError(t, json.Unmarshal(raw, &created))
	code := created.GameCode

	reserved, err := redisClient.Exists(ctx, "trivia:game:"+code).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), reserved)
	cached, err := redisClient.Exists(ctx, "trivia:quiz:capitals").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached)

	send("player", domain.MessageJoinGame, map[string]any{
		"gameCode":   code,
		"playerInfo": map[string]string{"nickname": "Alice"},
	})
	send("host", domain.MessageStartGame, code)
	require.True(t, player.has(domain.EventGameStarted))

	send("player", domain.MessageSubmitAnswer, map[string]any{"gameCode": code, "answerIndex": 0})
	require.True(t, player.has(domain.EventQuestionEnded))
	clock.Advance(app.DefaultResultsDelay)
	require.Eventually(t, func() bool { return player.has(domain.EventNextQuestion) }, 5*time.Second, 10*time.Millisecond)

	send("player", domain.MessageSubmitAnswer, map[string]any{"gameCode": code, "answerIndex": 1})
	clock.Advance(app.DefaultResultsDelay)
	require.Eventually(t, func() bool { return host.has(domain.EventGameFinished) }, 5*time.Second, 10*time.Millisecond)

	var results []domain.GameSummary
	require.Eventually(t, func() bool {
		results, err = archive.Recent(ctx, 10)
		return err == nil && len(results) == 1
	}, 10*time.Second, 50*time.Millisecond)
	assert.Equal(t, code, results[0].Code)
	assert.Equal(t, "capitals", results[0].QuizID)
	assert.Equal(t, 2, results[0].QuestionCount)
	require.Len(t, results[0].Leaderboard, 1)
	assert.Equal(t, 2000, results[0].Leaderboard[0].Score)

	router.Disconnect(ctx, "host")
	assert.True(t, player.has(domain.EventGameClosed))
	reserved, err = redisClient.Exists(ctx, "trivia:game:"+code).Result()
	require.NoError(t, err)
	assert.Zero(t, reserved)
}

func migrateSchema(t *testing.T, ctx context.Context, db *bun.DB) {
	t.Helper()
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err := migrator.Migrate(ctx)
	require.NoError(t, err)
}

func openBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func capitalsQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "capitals",
		Title: "Capitals",
		Questions: []domain.Question{
			{Text: "Capital of France?", Options: []string{"Paris", "Rome", "Madrid"}, CorrectAnswer: 0, TimeLimit: 30},
			{Text: "Capital of Japan?", Options: []string{"Osaka", "Tokyo"}, CorrectAnswer: 1, TimeLimit: 20},
		},
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "trivia", "POSTGRES_PASSWORD": "triviapass", "POSTGRES_DB": "trivia"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://trivia:triviapass@%s:%s/trivia?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
