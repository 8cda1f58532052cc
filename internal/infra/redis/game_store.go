package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"pixelhunt/internal/app"
)

// GameStore is a Redis-aware implementation of app.GameStore.
// Games (with their mutex and RNG) live in a local map; Redis holds a
// liveness marker per game so other instances and operators can see which
// games are active. Markers expire on their own if this process dies.
type GameStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	games  map[string]*app.Game
}

func NewGameStore(client *redis.Client, ttl time.Duration) *GameStore {
	return &GameStore{
		client: client,
		ttl:    ttl,
		games:  make(map[string]*app.Game),
	}
}

func (s *GameStore) Put(g *app.Game) {
	s.mu.Lock()
	s.games[g.ID()] = g
	s.mu.Unlock()
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(g.ID()), "1", s.ttl).Err()
}

func (s *GameStore) Get(gameID string) (*app.Game, bool) {
	s.mu.RLock()
	g, ok := s.games[gameID]
	s.mu.RUnlock()
	if ok && s.ttl > 0 {
		_ = s.client.Expire(context.Background(), s.key(gameID), s.ttl).Err()
	}
	return g, ok
}

func (s *GameStore) Delete(gameID string) {
	s.mu.Lock()
	delete(s.games, gameID)
	s.mu.Unlock()
	_ = s.client.Del(context.Background(), s.key(gameID)).Err()
}

func (s *GameStore) Prune(cutoff time.Time) int {
	s.mu.Lock()
	stale := make([]string, 0)
	for id, g := range s.games {
		if g.LastActive().Before(cutoff) {
			delete(s.games, id)
			stale = append(stale, s.key(id))
		}
	}
	s.mu.Unlock()
	if len(stale) > 0 {
		_ = s.client.Del(context.Background(), stale...).Err()
	}
	return len(stale)
}

func (s *GameStore) key(gameID string) string {
	return "pixelhunt:game:" + gameID
}
