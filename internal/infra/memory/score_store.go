package memory

import (
	"context"
	"sort"
	"sync"

	"pixelhunt/internal/domain"
)

// ScoreStore keeps finished rounds in memory; state is lost on restart.
type ScoreStore struct {
	mu      sync.RWMutex
	records []domain.ScoreRecord
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{}
}

func (s *ScoreStore) SaveScore(_ context.Context, rec domain.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// TopScores ranks completed rounds by score desc, earliest first on ties.
func (s *ScoreStore) TopScores(_ context.Context, mode domain.GameMode, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	matching := make([]domain.ScoreRecord, 0, len(s.records))
	for _, rec := range s.records {
		if rec.GameMode == mode && rec.Completed {
			matching = append(matching, rec)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matching, func(i, j int) bool {
		if matching[i].Score != matching[j].Score {
			return matching[i].Score > matching[j].Score
		}
		return matching[i].CreatedAt.Before(matching[j].CreatedAt)
	})
	if limit > 0 && len(matching) > limit {
		matching = matching[:limit]
	}

	entries := make([]domain.LeaderboardEntry, 0, len(matching))
	for i, rec := range matching {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:    i + 1,
			UserID:  rec.UserID,
			ImageID: rec.ImageID,
			Score:   rec.Score,
		})
	}
	return entries, nil
}

// Records returns a copy of everything saved so far.
func (s *ScoreStore) Records() []domain.ScoreRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ScoreRecord(nil), s.records...)
}
