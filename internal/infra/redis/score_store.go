package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"pixelhunt/internal/domain"
)

// leaderboardSize bounds each per-mode sorted set.
const leaderboardSize = 1000

// ScoreStore keeps a per-mode leaderboard in a Redis sorted set:
// ZADD pixelhunt:leaderboard:{mode} {score} {entry json}
// Only completed rounds are ranked; the set is trimmed to leaderboardSize.
type ScoreStore struct {
	client *redis.Client
}

func NewScoreStore(client *redis.Client) *ScoreStore {
	return &ScoreStore{client: client}
}

type leaderboardMember struct {
	UserID    string `json:"u,omitempty"`
	ImageID   string `json:"i"`
	CreatedAt int64  `json:"t"`
}

func (s *ScoreStore) SaveScore(ctx context.Context, rec domain.ScoreRecord) error {
	if !rec.Completed {
		return nil
	}
	member, err := json.Marshal(leaderboardMember{
		UserID:    rec.UserID,
		ImageID:   rec.ImageID,
		CreatedAt: rec.CreatedAt.UnixNano(),
	})
	if err != nil {
		return err
	}
	key := s.key(rec.GameMode)
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(rec.Score), Member: string(member)})
	pipe.ZRemRangeByRank(ctx, key, 0, -(leaderboardSize + 1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save score: %w", err)
	}
	return nil
}

func (s *ScoreStore) TopScores(ctx context.Context, mode domain.GameMode, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		return []domain.LeaderboardEntry{}, nil
	}
	zs, err := s.client.ZRevRangeWithScores(ctx, s.key(mode), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("top scores: %w", err)
	}
	entries := make([]domain.LeaderboardEntry, 0, len(zs))
	for _, z := range zs {
		raw, _ := z.Member.(string)
		var m leaderboardMember
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{
			Rank:    len(entries) + 1,
			UserID:  m.UserID,
			ImageID: m.ImageID,
			Score:   int(z.Score),
		})
	}
	return entries, nil
}

func (s *ScoreStore) key(mode domain.GameMode) string {
	return "pixelhunt:leaderboard:" + string(mode)
}
