package cli

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pixelhunt/internal/app"
	"pixelhunt/internal/config"
	"pixelhunt/internal/infra/memory"
	"pixelhunt/internal/infra/postgres"
	redisstore "pixelhunt/internal/infra/redis"
	"pixelhunt/internal/matcher"
	"pixelhunt/internal/scoring"
	transport "pixelhunt/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the pixelhunt server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), opts)
		},
	}
}

// loadConfig reads the config file, falling back to defaults when it does not
// exist, and sets up logging from the result.
func loadConfig(opts *options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	missing := errors.Is(err, fs.ErrNotExist)
	switch {
	case missing:
		cfg = config.Default()
	case err != nil:
		return cfg, err
	}
	configureLogging(opts.logLevel, cfg.Log.Level, opts.logPretty || cfg.Log.Pretty)
	if missing {
		log.Warn().Str("path", opts.configPath).Msg("config file not found, using defaults")
	}
	if opts.port != "" {
		cfg.Server.Port = opts.port
	}
	return cfg, nil
}

// catalogSource loads single categories and lists them all.
type catalogSource interface {
	memory.CategoryLoader
	app.CategoryLister
}

// newRedisClient returns nil when no Redis address is configured.
func newRedisClient(cfg config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func runServer(ctx context.Context, opts *options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	rules, err := buildRules(cfg.Modes)
	if err != nil {
		return err
	}

	redisClient := newRedisClient(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader catalogSource
	if pool != nil {
		loader = postgres.NewCategoryLoader(pool)
	} else {
		catalog, err := config.ReadCatalog(cfg.Catalog.Path)
		if err != nil {
			return err
		}
		log.Info().Str("path", cfg.Catalog.Path).Int("categories", len(catalog.Categories)).Msg("catalog loaded")
		loader = memory.NewOrderedCategoryLoader(catalog.Categories)
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var categories app.CategoryRepository
	if redisClient != nil {
		categories = redisstore.NewCategoryRepository(redisClient, loader, catalogTTL)
	} else {
		categories = memory.NewCategoryRepository(loader, catalogTTL)
	}

	idle := idleTTL(cfg)
	var games app.GameStore
	if redisClient != nil {
		games = redisstore.NewGameStore(redisClient, config.TTLDuration(cfg.Redis.TTL, idle))
	} else {
		games = memory.NewGameStore()
	}

	var scores app.ScoreRepository
	switch {
	case pool != nil:
		scores = postgres.NewScoreStore(pool)
	case redisClient != nil:
		scores = redisstore.NewScoreStore(redisClient)
	default:
		scores = memory.NewScoreStore()
	}

	service := app.NewGameService(games, categories, scores,
		app.WithRules(rules),
		app.WithCategoryLister(loader),
		app.WithMatcher(matcher.New(cfg.Matcher.CloseThreshold)),
		app.WithCalculator(scoring.NewCalculator(cfg.Scoring)),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      transport.NewServer(service, cfg.Auth.JWTSecret),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	pruneCtx, stopPrune := context.WithCancel(ctx)
	defer stopPrune()
	go pruneLoop(pruneCtx, service, idle)

	go func() {
		log.Info().Str("addr", server.Addr).Msg("starting pixelhunt")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// pruneLoop drops idle games until ctx is done.
func pruneLoop(ctx context.Context, service *app.GameService, idle time.Duration) {
	every := idle / 2
	if every < time.Minute {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := service.PruneIdle(idle); n > 0 {
				log.Info().Int("games", n).Msg("pruned idle games")
			}
		case <-ctx.Done():
			return
		}
	}
}
