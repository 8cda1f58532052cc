package cli

import (
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pixelhunt/internal/config"
	"pixelhunt/internal/infra/postgres"
	redisstore "pixelhunt/internal/infra/redis"
)

// NewSeedCmd loads the YAML catalog into Postgres.
func NewSeedCmd(opts *options) *cobra.Command {
	var catalogPath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert the category catalog into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if catalogPath == "" {
				catalogPath = cfg.Catalog.Path
			}
			if catalogPath == "" {
				catalogPath = "config/catalog.yaml"
			}
			catalog, err := config.ReadCatalog(catalogPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := runMigrationsWithConfig(ctx, cfg); err != nil {
				return err
			}
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := postgres.Seed(ctx, pool, catalog.Categories); err != nil {
				return err
			}
			log.Info().Str("path", catalogPath).Int("categories", len(catalog.Categories)).Msg("catalog seeded")

			// Running servers share the Redis category cache; drop stale copies.
			if client := newRedisClient(cfg); client != nil {
				defer client.Close()
				cache := redisstore.NewCategoryRepository(client, postgres.NewCategoryLoader(pool), 0)
				for _, c := range catalog.Categories {
					if err := cache.Invalidate(ctx, c.ID); err != nil {
						log.Warn().Err(err).Str("category", c.ID).Msg("invalidate cached category failed")
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog YAML to load (default: catalog.path from config)")
	return cmd
}
