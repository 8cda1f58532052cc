package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"pixelhunt/internal/domain"
)

// ScoreStore appends finished rounds to the scores table.
type ScoreStore struct {
	pool *pgxpool.Pool
}

func NewScoreStore(pool *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

func (s *ScoreStore) SaveScore(ctx context.Context, rec domain.ScoreRecord) error {
	var userID *string
	if rec.UserID != "" {
		userID = &rec.UserID
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scores (user_id, image_id, category_id, game_mode, attempts_count, time_spent, score, completed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		userID, rec.ImageID, rec.CategoryID, string(rec.GameMode),
		rec.AttemptsCount, rec.TimeSpent, rec.Score, rec.Completed, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (s *ScoreStore) TopScores(ctx context.Context, mode domain.GameMode, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT COALESCE(user_id, ''), image_id, score
		FROM scores
		WHERE game_mode = $1 AND completed
		ORDER BY score DESC, created_at ASC
		LIMIT $2`, string(mode), limit)
	if err != nil {
		return nil, fmt.Errorf("top scores: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.ImageID, &e.Score); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
