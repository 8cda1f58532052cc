package memory

import (
	"sync"
	"time"

	"pixelhunt/internal/app"
)

// GameStore is an in-memory implementation of app.GameStore.
type GameStore struct {
	mu    sync.RWMutex
	games map[string]*app.Game
}

func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[string]*app.Game),
	}
}

func (s *GameStore) Put(g *app.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID()] = g
}

func (s *GameStore) Get(gameID string) (*app.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[gameID]
	return g, ok
}

func (s *GameStore) Delete(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, gameID)
}

func (s *GameStore) Prune(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	pruned := 0
	for id, g := range s.games {
		if g.LastActive().Before(cutoff) {
			delete(s.games, id)
			pruned++
		}
	}
	return pruned
}

// Len reports how many games are held.
func (s *GameStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}
