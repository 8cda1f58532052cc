package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"pixelhunt/internal/app"
	"pixelhunt/internal/domain"
	"pixelhunt/internal/infra/postgres"
	pgmigrations "pixelhunt/internal/infra/postgres/migrations"
	infraredis "pixelhunt/internal/infra/redis"
)

func TestGameEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	if err := postgres.Seed(ctx, pool, []domain.Category{sampleCategory()}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// seeding twice must be idempotent
	if err := postgres.Seed(ctx, pool, []domain.Category{sampleCategory()}); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	loader := postgres.NewCategoryLoader(pool)
	listed, err := loader.ListCategories(ctx)
	if err != nil || len(listed) != 1 || listed[0].Name != "Cities" || listed[0].Images != len(sampleCategory().Images) {
		t.Fatalf("unexpected categories %+v err=%v", listed, err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	categories := infraredis.NewCategoryRepository(redisClient, loader, 5*time.Minute)
	games := infraredis.NewGameStore(redisClient, 5*time.Minute)
	scores := postgres.NewScoreStore(pool)

	sequential := app.DefaultRules()[domain.ModeClassic]
	sequential.Shuffle = false
	service := app.NewGameService(games, categories, scores,
		app.WithRules(map[domain.GameMode]app.Rules{domain.ModeClassic: sequential}),
		app.WithCategoryLister(loader))

	view, err := service.Start(ctx, "cities", domain.ModeClassic, "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if view.Round.ImageID != "img-1" || view.Rounds != 2 {
		t.Fatalf("expected images in seeded order, got %+v", view)
	}
	if n, err := redisClient.Exists(ctx, "pixelhunt:category:cities", "pixelhunt:game:"+view.ID).Result(); err != nil || n != 2 {
		t.Fatalf("expected category cache and game marker in redis, got %d err=%v", n, err)
	}

	out, err := service.Guess(ctx, view.ID, "constantinopel")
	if err != nil {
		t.Fatalf("guess: %v", err)
	}
	if !out.Result.IsClose || out.Result.ClosestAnswer != "Constantinople" {
		t.Fatalf("expected close guess, got %+v", out.Result)
	}
	out, err = service.Guess(ctx, view.ID, "istanbul")
	if err != nil {
		t.Fatalf("guess: %v", err)
	}
	if !out.Result.IsCorrect || out.Awarded != 930 {
		t.Fatalf("expected 930 points, got %+v", out)
	}
	if _, err := service.Skip(ctx, view.ID); err != nil {
		t.Fatalf("skip: %v", err)
	}

	top, err := service.Leaderboard(ctx, domain.ModeClassic, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(top) != 1 || top[0].UserID != "u1" || top[0].ImageID != "img-1" || top[0].Score != 930 {
		t.Fatalf("unexpected leaderboard %+v", top)
	}

	summaries, err := service.Categories(ctx)
	if err != nil || len(summaries) != 1 || summaries[0].ID != "cities" {
		t.Fatalf("unexpected service categories %+v err=%v", summaries, err)
	}
	if err := categories.Invalidate(ctx, "cities"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := service.End(ctx, view.ID); err != nil {
		t.Fatalf("end: %v", err)
	}
	if n, err := redisClient.Exists(ctx, "pixelhunt:category:cities", "pixelhunt:game:"+view.ID).Result(); err != nil || n != 0 {
		t.Fatalf("expected category cache and game marker cleared, got %d err=%v", n, err)
	}

	var rows int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM scores WHERE category_id=$1`, "cities").Scan(&rows); err != nil {
		t.Fatalf("count scores: %v", err)
	}
	if rows != 2 {
		t.Fatalf("expected won and skipped rounds persisted, got %d", rows)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "pixelhunt", "POSTGRES_PASSWORD": "pixelpass", "POSTGRES_DB": "pixelhunt"},
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
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://pixelhunt:pixelpass@%s:%s/pixelhunt?sslmode=disable", host, port.Port())
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
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func sampleCategory() domain.Category {
	return domain.Category{
		ID:   "cities",
		Name: "Cities",
		Images: []domain.Image{
			{ID: "img-1", URL: "/img/istanbul.jpg", AcceptedAnswers: []string{"Istanbul", "Constantinople"}, GridSize: 4},
			{ID: "img-2", URL: "/img/paris.jpg", AcceptedAnswers: []string{"Paris"}, GridSize: 3},
		},
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
