package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"pixelhunt/internal/domain"
)

// Seed upserts categories and their images in one transaction. Category and
// image positions follow slice order.
func Seed(ctx context.Context, pool *pgxpool.Pool, categories []domain.Category) error {
	return pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		for ci, c := range categories {
			if _, err := tx.Exec(ctx, `
				INSERT INTO categories (id, name, position) VALUES ($1, $2, $3)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, position = EXCLUDED.position`,
				c.ID, c.Name, ci); err != nil {
				return fmt.Errorf("upsert category %s: %w", c.ID, err)
			}
			for ii, img := range c.Images {
				answers, err := json.Marshal(img.AcceptedAnswers)
				if err != nil {
					return err
				}
				if _, err := tx.Exec(ctx, `
					INSERT INTO images (id, category_id, url, answers, grid_size, position)
					VALUES ($1, $2, $3, $4, $5, $6)
					ON CONFLICT (id) DO UPDATE SET category_id = EXCLUDED.category_id, url = EXCLUDED.url,
						answers = EXCLUDED.answers, grid_size = EXCLUDED.grid_size, position = EXCLUDED.position`,
					img.ID, c.ID, img.URL, answers, img.GridSize, ii); err != nil {
					return fmt.Errorf("upsert image %s: %w", img.ID, err)
				}
			}
		}
		return nil
	})
}
