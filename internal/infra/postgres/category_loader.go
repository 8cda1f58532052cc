package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"pixelhunt/internal/domain"
)

// CategoryLoader loads categories and their images from Postgres.
type CategoryLoader struct {
	pool *pgxpool.Pool
}

func NewCategoryLoader(pool *pgxpool.Pool) *CategoryLoader {
	return &CategoryLoader{pool: pool}
}

func (l *CategoryLoader) LoadCategory(ctx context.Context, categoryID string) (domain.Category, error) {
	category := domain.Category{ID: categoryID}
	err := l.pool.QueryRow(ctx, `SELECT name FROM categories WHERE id=$1`, categoryID).Scan(&category.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	if err != nil {
		return domain.Category{}, fmt.Errorf("load category: %w", err)
	}

	rows, err := l.pool.Query(ctx,
		`SELECT id, url, answers, grid_size FROM images WHERE category_id=$1 ORDER BY position, id`, categoryID)
	if err != nil {
		return domain.Category{}, fmt.Errorf("load images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			img     domain.Image
			answers []byte
		)
		if err := rows.Scan(&img.ID, &img.URL, &answers, &img.GridSize); err != nil {
			return domain.Category{}, fmt.Errorf("scan image: %w", err)
		}
		if err := json.Unmarshal(answers, &img.AcceptedAnswers); err != nil {
			return domain.Category{}, fmt.Errorf("unmarshal answers of %s: %w", img.ID, err)
		}
		category.Images = append(category.Images, img)
	}
	if err := rows.Err(); err != nil {
		return domain.Category{}, fmt.Errorf("load images: %w", err)
	}
	return category, nil
}

// ListCategories returns every category with its image count, in display order.
func (l *CategoryLoader) ListCategories(ctx context.Context) ([]domain.CategorySummary, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT c.id, c.name, count(i.id)
		FROM categories c
		LEFT JOIN images i ON i.category_id = c.id
		GROUP BY c.id, c.name, c.position
		ORDER BY c.position, c.id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]domain.CategorySummary, 0)
	for rows.Next() {
		var c domain.CategorySummary
		if err := rows.Scan(&c.ID, &c.Name, &c.Images); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
